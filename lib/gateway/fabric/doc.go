// Package fabric connects gateway sessions to the electric chaincode on a
// Hyperledger Fabric network through the Fabric Gateway client API.
//
// The wallet identity provides the X.509 certificate and the private key that
// signs proposals. Transaction names are translated to the exported method
// names of the chaincode.
package fabric
