package fabric

import (
	"github.com/gridledger/electric/lib/contract"
	"github.com/gridledger/electric/lib/store"
	"github.com/hyperledger/fabric-chaincode-go/v2/shim"
)

type shimStub struct {
	stub shim.ChaincodeStubInterface
}

// NewStub adapts a Fabric chaincode stub to contract.Stub.
func NewStub(stub shim.ChaincodeStubInterface) contract.Stub {
	return &shimStub{stub: stub}
}

func (s *shimStub) PutState(key string, value []byte) error {
	return s.stub.PutState(key, value)
}

func (s *shimStub) GetState(key string) ([]byte, error) {
	return s.stub.GetState(key)
}

func (s *shimStub) GetStateByRange(startKey, endKey string) (contract.StateIterator, error) {
	it, err := s.stub.GetStateByRange(startKey, endKey)
	if err != nil {
		return nil, err
	}
	return &shimIterator{it: it}, nil
}

type shimIterator struct {
	it shim.StateQueryIteratorInterface
}

func (i *shimIterator) HasNext() bool {
	return i.it.HasNext()
}

func (i *shimIterator) Next() (store.KV, error) {
	kv, err := i.it.Next()
	if err != nil {
		return store.KV{}, err
	}
	return store.KV{Key: kv.GetKey(), Value: kv.GetValue()}, nil
}

func (i *shimIterator) Close() error {
	return i.it.Close()
}
