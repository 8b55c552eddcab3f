// Package cmd implements the command-line interface of electric. It provides
// a hierarchical command structure for running ledger nodes, the chaincode and
// the REST API, and for using the client modules directly.
//
// The package is organized into several subpackages:
//
//   - serve: Starts a ledger node serving one or more ledger shards
//   - kv: Reads and writes the raw world state of a shard (debugging, benchmarks)
//   - user, usage: The client modules on the command line, plus a usage load generator
//   - app: Starts the REST API of the client modules
//   - chaincode: Runs the contract as Fabric chaincode
//   - wallet: Manages the identities of the client modules
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See electric -help for a list of all commands.
package cmd
