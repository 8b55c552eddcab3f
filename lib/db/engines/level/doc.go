// Package level implements the db.KVDB interface on top of goleveldb.
//
// The engine keeps keys in ascending byte order, so a Range over a composite
// key prefix visits exactly the documents of that prefix and nothing else.
// This is the property the ledger world state relies on for its scans.
//
// Key Components:
//
//   - levelImpl: wraps a *leveldb.DB. Documents are stored below a one byte data
//     prefix and the write index is stored below a separate metadata prefix, so
//     the write index survives a restart of an on-disk database and never shows
//     up in a Range.
//
//   - Storage: with an empty Options.Path the database lives in memory
//     (leveldb memory storage), otherwise in the given directory.
//
//   - Snapshots: Save streams a leveldb snapshot into a small binary format
//     (magic number, version, write index, length-prefixed key/value records).
//     Load replaces every document in one batch. These are used by the raft
//     state machine for log compaction and recovery.
//
// Thread-safety: all methods are safe for concurrent use. Iterators read from an
// implicit leveldb snapshot and are not affected by concurrent writes.
package level
