// Package wallet implements a file system identity wallet.
//
// Each identity is stored as <label>.id in the wallet directory:
//
//	{"credentials":{"certificate":"...","privateKey":"..."},"mspId":"Org1MSP","type":"X.509","version":1}
//
// Client modules look up their identity by label before any contract call.
package wallet
