// Package fabric deploys the electric contract as Hyperledger Fabric chaincode.
//
// ElectricContract exposes one transaction per contract function. Fabric
// transaction names are the exported method names, TxName maps a contract
// function name to its transaction name. The chaincode stub of each
// transaction is adapted to contract.Stub with NewStub.
package fabric
