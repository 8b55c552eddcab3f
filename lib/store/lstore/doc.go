// Package lstore implements a local, single-node ledger store based on the
// store.IStore interface. It provides a thin wrapper around any db.KVDB
// implementation with automatic write index management. Whether the data
// survives a restart depends on the engine the factory returns.
//
// Implementation Details:
//
//   - Write Index Management: The store maintains an atomic counter that
//     increments with each write operation, starting at the write index the
//     engine reports on open.
//
//   - Feature Detection: Before executing operations, the store checks if the underlying
//     db.KVDB implementation supports the requested feature through the SupportsFeature
//     method. Unsupported operations return appropriate error codes.
//
//   - Range: range queries drain an engine iterator into a slice, so the result
//     reflects one snapshot of the engine.
//
// Usage Example:
//
//	factory := func() db.KVDB { return level.NewInMemory() }
//	ledger := lstore.NewLocalStore(factory)
//
//	err := ledger.Set("USER\x00alice", doc)
//	entries, err := ledger.Range("USER\x00", "USER\x00\U0010FFFF")
//
// Suitable Use Cases:
//
//	The local store is ideal for:
//	- Single-node deployments and the embedded gateway
//	- Testing and development environments
//
// Performance Considerations:
//
//	The local store adds minimal overhead to the underlying db.KVDB implementation.
//	The primary additional cost is the atomic increment operation for write index
//	management, which typically has negligible impact on performance compared to
//	the actual storage operations.
//
// For distributed scenarios requiring consensus across multiple nodes, consider
// using the dstore package instead, which provides a RAFT-based implementation
// of the same interface with strong consistency guarantees.
package lstore
