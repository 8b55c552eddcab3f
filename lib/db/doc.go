// Package db provides a standardized interface for the ordered key-value
// engines that hold the ledger's world state.
//
// Key Components:
//
//   - KVDB Interface: The core interface that all database implementations must satisfy.
//     It provides methods for basic operations (Set, Get, Has), ordered range scans
//     (Range), metadata retrieval (GetInfo) and persistence operations (Save, Load).
//
//   - Iterator: Range returns a forward iterator over a half-open key interval
//     [start, end). Entries are visited in ascending byte order of their keys,
//     which is what the composite keys of package keys rely on.
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     can advertise through the SupportsFeature method.
//
//   - Database Information: The DatabaseInfo structure reports the engine state,
//     including an estimated size, the number of keys and the implementation type.
//
// Note on the write index:
//   - All write operations carry a write-index that serves as a logical timestamp.
//     For the replicated store this is the raft log index of the applied entry.
//   - Monotonicity Guarantee: Attempts to set a write-index lower than the current
//     one must be ignored.
//
// Related Packages:
//
// The engines/level package (github.com/gridledger/electric/lib/db/engines/level) implements
// KVDB on top of goleveldb, either in memory or on disk.
//
// The testing package (github.com/gridledger/electric/lib/db/testing) provides
// standardized tests and benchmarks for implementations of db.KVDB.
//   - RunKVDBTests: Runs a standardized test suite to validate implementations
//   - RunKVDBBenchmarks: Provides performance benchmarks for comparing implementations
package db
