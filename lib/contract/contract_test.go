package contract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/gridledger/electric/lib/db"
	"github.com/gridledger/electric/lib/db/engines/level"
	"github.com/gridledger/electric/lib/keys"
	"github.com/gridledger/electric/lib/store"
	"github.com/gridledger/electric/lib/store/lstore"
)

func newTestStub(t *testing.T) (Stub, store.IStore) {
	t.Helper()
	s := lstore.NewLocalStore(func() db.KVDB { return level.NewInMemory() })
	return NewStoreStub(s), s
}

func usageKey(t *testing.T, userID string, ms int64) string {
	t.Helper()
	k, err := keys.Usage(userID, ms)
	if err != nil {
		t.Fatalf("failed to build usage key: %v", err)
	}
	return k
}

func TestCreateAndQueryUser(t *testing.T) {
	stub, _ := newTestStub(t)

	if _, err := CreateUser(stub, "USER0001", "Alice"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	user, err := QueryUser(stub, "USER0001")
	if err != nil {
		t.Fatalf("QueryUser failed: %v", err)
	}
	want := User{UserID: "USER0001", UserName: "Alice", DocType: "user"}
	if *user != want {
		t.Errorf("got %+v, want %+v", *user, want)
	}

	// overwrite is unconditional
	if _, err := CreateUser(stub, "USER0001", "Alicia"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	user, _ = QueryUser(stub, "USER0001")
	if user.UserName != "Alicia" {
		t.Errorf("expected overwritten name, got %q", user.UserName)
	}
}

func TestQueryUserNotFound(t *testing.T) {
	stub, _ := newTestStub(t)

	_, err := QueryUser(stub, "USER9999")
	if !IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "USER9999") {
		t.Errorf("expected error to name the id, got %q", err.Error())
	}
}

func TestQueryUserEmptyValueIsNotFound(t *testing.T) {
	stub, s := newTestStub(t)

	key, _ := keys.User("ghost")
	if err := s.Set(key, []byte{}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := QueryUser(stub, "ghost"); !IsNotFound(err) {
		t.Errorf("expected NotFound for empty value, got %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	stub, _ := newTestStub(t)

	tests := []struct{ id, name string }{
		{"", "Alice"},
		{"a\x00b", "Alice"},
		{"USER0001", ""},
	}
	for _, tc := range tests {
		if _, err := CreateUser(stub, tc.id, tc.name); !IsValidation(err) {
			t.Errorf("CreateUser(%q, %q): expected validation error, got %v", tc.id, tc.name, err)
		}
	}
}

func TestUsageForUserIsOrderedAndScoped(t *testing.T) {
	stub, _ := newTestStub(t)

	// written out of order, across two users with a shared id prefix
	writes := []struct {
		user string
		ts   int64
	}{
		{"USER0001", 300},
		{"USER00010", 150},
		{"USER0001", 100},
		{"USER0001", 200},
	}
	for _, w := range writes {
		_, err := CreateUsage(stub, usageKey(t, w.user, w.ts), Usage{UserID: w.user, Time: "x", Energy: "1.5"})
		if err != nil {
			t.Fatalf("CreateUsage failed: %v", err)
		}
	}
	if _, err := CreateUser(stub, "USER0001", "Alice"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	r, _ := keys.UsageRangeForUser("USER0001")
	entries, err := QueryUsageForUser(stub, r.Start, r.End)
	if err != nil {
		t.Fatalf("QueryUsageForUser failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, ts := range []int64{100, 200, 300} {
		if entries[i].Key != usageKey(t, "USER0001", ts) {
			t.Errorf("entry %d: expected timestamp %d, got key %q", i, ts, entries[i].Key)
		}
		var u Usage
		if err := json.Unmarshal(entries[i].Record, &u); err != nil {
			t.Fatalf("record is not a usage document: %v", err)
		}
		if u.DocType != DocTypeUsage || u.UserID != "USER0001" {
			t.Errorf("unexpected record %+v", u)
		}
	}

	all := keys.UsageRange()
	entries, _ = QueryAllUsage(stub, all.Start, all.End)
	if len(entries) != 4 {
		t.Errorf("expected 4 usage entries, got %d", len(entries))
	}

	users := keys.UserRange()
	entries, _ = QueryAllUsers(stub, users.Start, users.End)
	if len(entries) != 1 {
		t.Errorf("expected 1 user entry, got %d", len(entries))
	}
}

func TestCreateUsageCannotOverwriteUser(t *testing.T) {
	stub, _ := newTestStub(t)

	if _, err := CreateUser(stub, "USER0001", "Alice"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	userKey, _ := keys.User("USER0001")

	badKeys := []string{
		userKey,
		"USER0001",
		usageKey(t, "USER0002", 1),
	}
	for _, k := range badKeys {
		_, err := CreateUsage(stub, k, Usage{UserID: "USER0001"})
		if !IsValidation(err) {
			t.Errorf("CreateUsage(%q): expected validation error, got %v", k, err)
		}
	}

	user, err := QueryUser(stub, "USER0001")
	if err != nil || user.DocType != DocTypeUser {
		t.Errorf("user document must survive, got %+v (err=%v)", user, err)
	}
}

func TestScanRawFallback(t *testing.T) {
	stub, s := newTestStub(t)

	if err := s.Set("USER\x00a", []byte(`{"userId":"a"}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("USER\x00b", []byte("not json")); err != nil {
		t.Fatal(err)
	}

	r := keys.UserRange()
	entries, err := QueryAllUsers(stub, r.Start, r.End)
	if err != nil {
		t.Fatalf("scan must not fail on non-JSON values: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	var raw string
	if err := json.Unmarshal(entries[1].Record, &raw); err != nil || raw != "not json" {
		t.Errorf("expected raw string fallback, got %s (err=%v)", entries[1].Record, err)
	}
}

type countingStub struct {
	Stub
	scans int
}

func (c *countingStub) GetStateByRange(startKey, endKey string) (StateIterator, error) {
	c.scans++
	return c.Stub.GetStateByRange(startKey, endKey)
}

func TestEmptyBoundsReturnEmptyList(t *testing.T) {
	base, _ := newTestStub(t)
	stub := &countingStub{Stub: base}

	for _, bounds := range [][2]string{{"", ""}, {"USER\x00", ""}, {"", "USER\x00\U0010FFFF"}} {
		entries, err := QueryAllUsers(stub, bounds[0], bounds[1])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entries == nil || len(entries) != 0 {
			t.Errorf("expected empty non-nil list, got %#v", entries)
		}
	}
	if stub.scans != 0 {
		t.Errorf("expected no ledger scans, got %d", stub.scans)
	}

	payload, err := Invoke(stub, FnQueryAllUsage, []string{"", ""})
	if err != nil || string(payload) != "[]" {
		t.Errorf("expected [] payload, got %q (err=%v)", payload, err)
	}
}

func TestInvoke(t *testing.T) {
	stub, _ := newTestStub(t)

	payload, err := Invoke(stub, FnCreateUser, []string{"USER0001", "Alice"})
	if err != nil {
		t.Fatalf("Invoke createUser failed: %v", err)
	}
	if !strings.Contains(string(payload), `"docType":"user"`) {
		t.Errorf("unexpected payload %s", payload)
	}

	key := usageKey(t, "USER0001", 1554650825727)
	_, err = Invoke(stub, FnCreateUsage, []string{key, "USER0001", "1554650825727", "230", "1.2", "276", "50", "0.5"})
	if err != nil {
		t.Fatalf("Invoke createUsage failed: %v", err)
	}

	payload, err = Invoke(stub, FnQueryUser, []string{"USER0001"})
	if err != nil {
		t.Fatalf("Invoke queryUser failed: %v", err)
	}
	var user User
	if err := json.Unmarshal(payload, &user); err != nil || user.UserName != "Alice" {
		t.Errorf("unexpected user payload %s (err=%v)", payload, err)
	}

	r, _ := keys.UsageRangeForUser("USER0001")
	payload, err = Invoke(stub, FnQueryUsageForUser, []string{r.Start, r.End})
	if err != nil {
		t.Fatalf("Invoke queryUsageForUser failed: %v", err)
	}
	var entries []Entry
	if err := json.Unmarshal(payload, &entries); err != nil || len(entries) != 1 {
		t.Fatalf("unexpected usage payload %s (err=%v)", payload, err)
	}
	var usage Usage
	_ = json.Unmarshal(entries[0].Record, &usage)
	if usage.Voltage != "230" || usage.Frequency != "50" || usage.Energy != "0.5" {
		t.Errorf("unexpected usage record %+v", usage)
	}

	if payload, err := Invoke(stub, FnInitLedger, nil); err != nil || payload != nil {
		t.Errorf("initLedger: expected no payload and no error, got %q, %v", payload, err)
	}

	if _, err := Invoke(stub, "deleteUser", []string{"USER0001"}); !IsValidation(err) {
		t.Errorf("expected validation error for unknown function, got %v", err)
	}
	if _, err := Invoke(stub, FnCreateUser, []string{"USER0001"}); !IsValidation(err) {
		t.Errorf("expected validation error for wrong arity, got %v", err)
	}
}

func TestReadOnlyStub(t *testing.T) {
	base, _ := newTestStub(t)
	if _, err := CreateUser(base, "USER0001", "Alice"); err != nil {
		t.Fatal(err)
	}

	ro := ReadOnly(base)
	if _, err := CreateUser(ro, "USER0002", "Bob"); !IsValidation(err) {
		t.Errorf("expected write through read only stub to fail, got %v", err)
	}
	if _, err := QueryUser(ro, "USER0001"); err != nil {
		t.Errorf("reads must pass through read only stub: %v", err)
	}
	if _, err := QueryUser(base, "USER0002"); !IsNotFound(err) {
		t.Errorf("rejected write must not reach the ledger, got %v", err)
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), NewError(CodeNotFound, "x does not exist"))
	if CodeOf(wrapped) != CodeNotFound {
		t.Errorf("expected NotFound through wrapping")
	}
	if CodeOf(errors.New("boom")) != CodeInternal {
		t.Errorf("expected plain errors to be internal")
	}
	if IsNotFound(nil) || IsValidation(nil) {
		t.Errorf("nil is neither NotFound nor validation")
	}
}

func TestParseCode(t *testing.T) {
	for _, c := range []Code{CodeInternal, CodeNotFound, CodeValidation} {
		if got := ParseCode(c.String()); got != c {
			t.Errorf("ParseCode(%q) = %v, want %v", c.String(), got, c)
		}
	}
	if ParseCode("") != CodeInternal {
		t.Errorf("expected unknown names to parse as internal")
	}
}

func TestTagUntag(t *testing.T) {
	err := Tag(NewError(CodeNotFound, "USER9999 does not exist"))
	if !IsNotFound(err) {
		t.Errorf("tagged error must keep its code")
	}
	if err.Error() != "NotFound: USER9999 does not exist" {
		t.Errorf("unexpected message %q", err.Error())
	}

	ce, ok := Untag("endorsement failed: chaincode response 500, " + err.Error())
	if !ok || ce.Code != CodeNotFound || ce.Msg != "USER9999 does not exist" {
		t.Errorf("Untag() = %+v, %v", ce, ok)
	}
	if _, ok := Untag("connection refused"); ok {
		t.Errorf("expected no tag in a plain message")
	}
	if Tag(nil) != nil {
		t.Errorf("Tag(nil) must be nil")
	}
}

// looseStub ignores the requested bounds and returns the whole world state.
type looseStub struct {
	Stub
	all []store.KV
}

func (l *looseStub) GetStateByRange(string, string) (StateIterator, error) {
	return NewSliceIterator(l.all), nil
}

func TestScanSkipsKeysOutsideRange(t *testing.T) {
	base, _ := newTestStub(t)
	userKey, err := keys.User("alice")
	if err != nil {
		t.Fatalf("failed to build user key: %v", err)
	}
	stub := &looseStub{Stub: base, all: []store.KV{
		{Key: "AAA", Value: []byte(`{}`)},
		{Key: userKey, Value: []byte(`{"userId":"alice","userName":"Alice"}`)},
		{Key: "ZZZ", Value: []byte(`{}`)},
	}}

	r := keys.UserRange()
	entries, err := QueryAllUsers(stub, r.Start, r.End)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != userKey {
		t.Errorf("expected only %q, got %#v", userKey, entries)
	}
}
