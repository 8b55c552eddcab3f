// Package contract implements the electric smart contract: user and usage
// documents on the ledger world state.
//
// Operations run against a Stub, the put/get/range view of the world state.
// NewStoreStub backs a Stub with a store.IStore, package fabric backs it with
// a Fabric chaincode stub. The contract itself holds no state between calls.
//
//   - createUser / queryUser / queryAllUsers
//   - createUsage / queryAllUsage / queryUsageForUser
//   - initLedger (no-op)
//
// Range queries return []Entry{Key, Record}. A stored value that is not valid
// JSON is returned as a JSON string instead of failing the query, and a query
// with a missing bound returns an empty list without touching the ledger.
//
// Invoke dispatches a function name and positional string arguments, which is
// how gateways and the rpc server call the contract. Errors are *Error values
// carrying a Code (NotFound, ValidationError, InternalError).
package contract
