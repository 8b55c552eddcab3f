package contract

import (
	"github.com/gridledger/electric/lib/store"
)

// --------------------------------------------------------------------------
// Stub
// --------------------------------------------------------------------------

// StateIterator walks the result of a range query, one entry at a time.
type StateIterator interface {
	HasNext() bool
	Next() (store.KV, error)
	Close() error
}

// Stub is the view of the ledger world state a contract operation runs against.
// It mirrors the state functions of a Fabric chaincode stub.
type Stub interface {
	// PutState writes value under key, overwriting any existing value.
	PutState(key string, value []byte) error
	// GetState returns the value under key, or nil if the key does not exist.
	GetState(key string) ([]byte, error)
	// GetStateByRange returns an iterator over all entries with startKey <= key < endKey.
	GetStateByRange(startKey, endKey string) (StateIterator, error)
}

// --------------------------------------------------------------------------
// Store backed stub
// --------------------------------------------------------------------------

type storeStub struct {
	s store.IStore
}

// NewStoreStub returns a Stub backed by a ledger store.
func NewStoreStub(s store.IStore) Stub {
	return &storeStub{s: s}
}

func (st *storeStub) PutState(key string, value []byte) error {
	return st.s.Set(key, value)
}

func (st *storeStub) GetState(key string) ([]byte, error) {
	value, ok, err := st.s.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return value, nil
}

func (st *storeStub) GetStateByRange(startKey, endKey string) (StateIterator, error) {
	entries, err := st.s.Range(startKey, endKey)
	if err != nil {
		return nil, err
	}
	return NewSliceIterator(entries), nil
}

// --------------------------------------------------------------------------
// Read only stub
// --------------------------------------------------------------------------

type readOnlyStub struct {
	Stub
}

// ReadOnly wraps a stub so that every write fails.
// Evaluated transactions run against a read only stub.
func ReadOnly(stub Stub) Stub {
	return &readOnlyStub{Stub: stub}
}

func (r *readOnlyStub) PutState(key string, _ []byte) error {
	return NewError(CodeValidation, "write to %q rejected: transaction is read only", key)
}

// --------------------------------------------------------------------------
// Slice iterator
// --------------------------------------------------------------------------

type sliceIterator struct {
	entries []store.KV
	pos     int
	closed  bool
}

// NewSliceIterator returns a StateIterator over an already materialized result.
func NewSliceIterator(entries []store.KV) StateIterator {
	return &sliceIterator{entries: entries}
}

func (it *sliceIterator) HasNext() bool {
	return !it.closed && it.pos < len(it.entries)
}

func (it *sliceIterator) Next() (store.KV, error) {
	if !it.HasNext() {
		return store.KV{}, NewError(CodeInternal, "iterator exhausted")
	}
	kv := it.entries[it.pos]
	it.pos++
	return kv, nil
}

func (it *sliceIterator) Close() error {
	it.closed = true
	it.entries = nil
	return nil
}
