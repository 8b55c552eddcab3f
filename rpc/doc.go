// Package rpc connects ledger nodes and their clients. It carries raw world
// state requests and contract transactions (submit, evaluate) across network
// boundaries.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP).
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - client: an IStore over rpc and a gateway connector that runs contract
//     transactions on a ledger node.
//
//   - server: the ledger node. Every shard executes contract transactions
//     against its world state and answers raw store requests.
package rpc
