// Package util holds small concurrency and hashing helpers shared by the
// ledger node and the client side.
//
//   - LockFreeMPSC: an unbounded lock-free multi-producer single-consumer queue
//   - HashString: FNV-1a string hash used to derive replica ids from names
package util
