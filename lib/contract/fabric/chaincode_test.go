package fabric

import (
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/gridledger/electric/lib/contract"
	"github.com/gridledger/electric/lib/keys"
	"github.com/hyperledger/fabric-chaincode-go/v2/shim"
	"github.com/hyperledger/fabric-contract-api-go/v2/contractapi"
	"github.com/hyperledger/fabric-protos-go-apiv2/ledger/queryresult"
)

// fakeStub implements the state functions of a chaincode stub over a map.
// Every other method of the embedded interface panics if called.
type fakeStub struct {
	shim.ChaincodeStubInterface
	state map[string][]byte
}

func newFakeStub() *fakeStub {
	return &fakeStub{state: make(map[string][]byte)}
}

func (f *fakeStub) PutState(key string, value []byte) error {
	f.state[key] = value
	return nil
}

func (f *fakeStub) GetState(key string) ([]byte, error) {
	return f.state[key], nil
}

func (f *fakeStub) GetStateByRange(startKey, endKey string) (shim.StateQueryIteratorInterface, error) {
	var ks []string
	for k := range f.state {
		if k >= startKey && k < endKey {
			ks = append(ks, k)
		}
	}
	sort.Strings(ks)
	it := &fakeIterator{}
	for _, k := range ks {
		it.kvs = append(it.kvs, &queryresult.KV{Key: k, Value: f.state[k]})
	}
	return it, nil
}

type fakeIterator struct {
	kvs    []*queryresult.KV
	closed bool
}

func (i *fakeIterator) HasNext() bool { return len(i.kvs) > 0 }

func (i *fakeIterator) Next() (*queryresult.KV, error) {
	kv := i.kvs[0]
	i.kvs = i.kvs[1:]
	return kv, nil
}

func (i *fakeIterator) Close() error {
	i.closed = true
	return nil
}

func newContext(stub shim.ChaincodeStubInterface) *contractapi.TransactionContext {
	ctx := new(contractapi.TransactionContext)
	ctx.SetStub(stub)
	return ctx
}

func TestNewChaincode(t *testing.T) {
	if _, err := NewChaincode(); err != nil {
		t.Fatalf("failed to build chaincode: %v", err)
	}
}

func TestTxName(t *testing.T) {
	tests := map[string]string{
		contract.FnCreateUser:        "CreateUser",
		contract.FnQueryUsageForUser: "QueryUsageForUser",
		contract.FnInitLedger:        "InitLedger",
		"":                           "",
	}
	for fn, want := range tests {
		if got := TxName(fn); got != want {
			t.Errorf("TxName(%q) = %q, want %q", fn, got, want)
		}
	}
}

func TestTransactions(t *testing.T) {
	stub := newFakeStub()
	ctx := newContext(stub)
	cc := new(ElectricContract)

	if err := cc.InitLedger(ctx); err != nil {
		t.Fatalf("InitLedger failed: %v", err)
	}
	if _, err := cc.CreateUser(ctx, "USER0001", "Alice"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	out, err := cc.QueryUser(ctx, "USER0001")
	if err != nil {
		t.Fatalf("QueryUser failed: %v", err)
	}
	var user contract.User
	if err := json.Unmarshal([]byte(out), &user); err != nil || user.UserName != "Alice" {
		t.Errorf("unexpected user %q (err=%v)", out, err)
	}

	for _, ms := range []int64{20, 10} {
		key, _ := keys.Usage("USER0001", ms)
		if _, err := cc.CreateUsage(ctx, key, "USER0001", "t", "230", "1", "230", "50", "0.1"); err != nil {
			t.Fatalf("CreateUsage failed: %v", err)
		}
	}

	r, _ := keys.UsageRangeForUser("USER0001")
	out, err = cc.QueryUsageForUser(ctx, r.Start, r.End)
	if err != nil {
		t.Fatalf("QueryUsageForUser failed: %v", err)
	}
	var entries []contract.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("result is not an entry list: %v", err)
	}
	if len(entries) != 2 || !strings.HasSuffix(entries[0].Key, "10") {
		t.Errorf("expected two entries in time order, got %s", out)
	}

	users := keys.UserRange()
	out, _ = cc.QueryAllUsers(ctx, users.Start, users.End)
	if err := json.Unmarshal([]byte(out), &entries); err != nil || len(entries) != 1 {
		t.Errorf("expected one user entry, got %s", out)
	}

	out, _ = cc.QueryAllUsage(ctx, "", "")
	if out != "[]" {
		t.Errorf("expected [] for missing bounds, got %s", out)
	}

	_, err = cc.QueryUser(ctx, "USER9999")
	if !contract.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestShimIteratorCloses(t *testing.T) {
	stub := newFakeStub()
	_ = stub.PutState("a", []byte("1"))

	it, err := NewStub(stub).GetStateByRange("a", "b")
	if err != nil {
		t.Fatal(err)
	}
	kv, err := it.Next()
	if err != nil || kv.Key != "a" || string(kv.Value) != "1" {
		t.Errorf("unexpected entry %+v (err=%v)", kv, err)
	}
	if it.HasNext() {
		t.Errorf("expected iterator to be exhausted")
	}
	_ = it.Close()
	if !it.(*shimIterator).it.(*fakeIterator).closed {
		t.Errorf("expected underlying iterator to be closed")
	}
}
