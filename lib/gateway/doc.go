// Package gateway mediates between client modules and the deployed contract.
//
// A Session binds one wallet identity to the contract through a Connector.
// Initialization is idempotent and fails closed: until a call to Initialize
// succeeds, Contract returns ErrContractNotFound.
//
// Connectors:
//
//   - local.NewConnector runs the contract in process on a store.IStore.
//   - client.NewContractConnector (package rpc/client) talks to a ledger node.
//   - fabric.NewConnector talks to a Hyperledger Fabric peer through the Fabric Gateway.
package gateway
