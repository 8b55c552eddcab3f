package electric

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gridledger/electric/lib/contract"
	"github.com/gridledger/electric/lib/db"
	"github.com/gridledger/electric/lib/db/engines/level"
	"github.com/gridledger/electric/lib/gateway"
	"github.com/gridledger/electric/lib/gateway/local"
	"github.com/gridledger/electric/lib/notifier"
	"github.com/gridledger/electric/lib/store"
	"github.com/gridledger/electric/lib/store/lstore"
	"github.com/gridledger/electric/lib/wallet"
)

type memIdentities map[string]*wallet.Identity

func (m memIdentities) Get(label string) (*wallet.Identity, error) {
	if id, ok := m[label]; ok {
		return id, nil
	}
	return nil, wallet.ErrIdentityNotFound
}

var enrolled = memIdentities{
	UserIdentity:  wallet.NewX509Identity("Org1MSP", "C", "K"),
	UsageIdentity: wallet.NewX509Identity("Org1MSP", "C", "K"),
}

func newLedger() store.IStore {
	return lstore.NewLocalStore(func() db.KVDB { return level.NewInMemory() })
}

func newModules(t *testing.T, s store.IStore, n *notifier.Notifier) (*UserModule, *UsageModule) {
	t.Helper()
	conn := local.NewConnector(s)
	users := NewUserModule(gateway.NewSession(enrolled, UserIdentity, conn), time.Second)
	usage := NewUsageModule(gateway.NewSession(enrolled, UsageIdentity, conn), time.Second, n)
	ctx := context.Background()
	if err := users.Initialize(ctx); err != nil {
		t.Fatalf("user module: %v", err)
	}
	if err := usage.Initialize(ctx); err != nil {
		t.Fatalf("usage module: %v", err)
	}
	return users, usage
}

func TestUninitializedModuleFailsFast(t *testing.T) {
	users := NewUserModule(gateway.NewSession(enrolled, UserIdentity, local.NewConnector(newLedger())), time.Second)

	_, err := users.GetAllUsers(context.Background())
	var e *Error
	if !errors.As(err, &e) || e.Code != 0 || e.Message != "Failed to get user data" {
		t.Fatalf("expected uniform failure, got %v", err)
	}
	if !errors.Is(err, gateway.ErrContractNotFound) || !IsConnectivity(err) {
		t.Errorf("expected contract not found, got %v", err)
	}
}

func TestInitializeWithoutIdentity(t *testing.T) {
	usage := NewUsageModule(gateway.NewSession(memIdentities{}, UsageIdentity, local.NewConnector(newLedger())), time.Second, nil)

	if err := usage.Initialize(context.Background()); !IsConnectivity(err) {
		t.Fatalf("expected connectivity failure, got %v", err)
	}
	if _, err := usage.GetAllUsage(context.Background()); !errors.Is(err, gateway.ErrContractNotFound) {
		t.Errorf("expected calls to fail with contract not found, got %v", err)
	}
}

func TestInitializeTwice(t *testing.T) {
	users, _ := newModules(t, newLedger(), nil)
	if err := users.Initialize(context.Background()); err != nil {
		t.Errorf("second initialization failed: %v", err)
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	users, _ := newModules(t, newLedger(), nil)

	created, err := users.CreateUser(ctx, UserInput{UserID: "USER0001", UserName: "Alice"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if created.Code != 1 || created.User.UserName != "Alice" || created.User.DocType != contract.DocTypeUser {
		t.Errorf("unexpected result %+v", created)
	}
	users.CreateUser(ctx, UserInput{UserID: "USER0002", UserName: "Bob"})

	got, err := users.GetUser(ctx, "USER0001")
	if err != nil || got.User.UserID != "USER0001" {
		t.Fatalf("GetUser() = %+v, %v", got, err)
	}

	all, err := users.GetAllUsers(ctx)
	if err != nil || len(all.Users) != 2 {
		t.Fatalf("GetAllUsers() = %+v, %v", all, err)
	}

	raw, _ := json.Marshal(got)
	if !strings.HasPrefix(string(raw), `{"code":1,"user":{"userId":"USER0001"`) {
		t.Errorf("unexpected JSON shape %s", raw)
	}
}

func TestGetUserNotFound(t *testing.T) {
	users, _ := newModules(t, newLedger(), nil)
	_, err := users.GetUser(context.Background(), "USER9999")
	if !IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "USER9999") {
		t.Errorf("expected the id in %q", err.Error())
	}
}

func TestCreateUserValidatesLocally(t *testing.T) {
	ledger := newLedger()
	users, _ := newModules(t, ledger, nil)

	for _, in := range []UserInput{{UserID: "USER0001"}, {UserName: "Alice"}, {UserID: "a\x00b", UserName: "x"}} {
		if _, err := users.CreateUser(context.Background(), in); !IsValidation(err) {
			t.Errorf("CreateUser(%+v): expected validation error, got %v", in, err)
		}
	}
	info, _ := ledger.GetDBInfo()
	if info.Keys != 0 {
		t.Errorf("validation failures must not reach the ledger, found %d keys", info.Keys)
	}
}

func TestCheckUserRegistered(t *testing.T) {
	users, _ := newModules(t, newLedger(), nil)
	if res, err := users.CheckUserRegistered(context.Background()); err != nil || res.Code != 1 {
		t.Errorf("expected registered, got %+v, %v", res, err)
	}

	unknown := NewUserModule(gateway.NewSession(memIdentities{}, UserIdentity, local.NewConnector(newLedger())), 0)
	if _, err := unknown.CheckUserRegistered(context.Background()); err == nil || !errors.Is(err, wallet.ErrIdentityNotFound) {
		t.Errorf("expected not registered, got %v", err)
	}
}

type memSink struct {
	mu  sync.Mutex
	got []string
}

func (m *memSink) Write(_ context.Context, s notifier.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, s.Reason)
	return nil
}
func (m *memSink) Close() error { return nil }

func TestUsage(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger()
	sink := &memSink{}
	n := notifier.New(&notifier.LedgerSource{Store: ledger}, time.Second, sink)
	defer n.Close()
	users, usage := newModules(t, ledger, n)

	users.CreateUser(ctx, UserInput{UserID: "USER0001", UserName: "Alice"})
	for _, ts := range []string{"1554650825900", "1554650825727", "1554650825800"} {
		if _, err := usage.CreateUsage(ctx, UsageInput{UserID: "USER0001", Time: ts, Energy: "0.5"}); err != nil {
			t.Fatalf("CreateUsage failed: %v", err)
		}
	}
	usage.CreateUsage(ctx, UsageInput{UserID: "USER00010", Time: "1554650825000"})

	res, err := usage.GetUsageForUser(ctx, "USER0001")
	if err != nil {
		t.Fatalf("GetUsageForUser failed: %v", err)
	}
	if len(res.Usage) != 3 {
		t.Fatalf("expected 3 records, got %d", len(res.Usage))
	}
	var prev string
	for _, e := range res.Usage {
		var u contract.Usage
		json.Unmarshal(e.Record, &u)
		if u.UserID != "USER0001" || u.Voltage != "0" || u.Energy != "0.5" {
			t.Errorf("unexpected record %s", e.Record)
		}
		if u.Time <= prev {
			t.Errorf("records out of order: %s after %s", u.Time, prev)
		}
		prev = u.Time
	}

	all, _ := usage.GetAllUsage(ctx)
	if len(all.Usage) != 4 {
		t.Errorf("expected 4 records overall, got %d", len(all.Usage))
	}

	window, err := usage.GetUsageWindow(ctx, "USER0001", 1554650825727, 1554650825900)
	if err != nil || len(window.Usage) != 2 {
		t.Errorf("GetUsageWindow() = %+v, %v", window, err)
	}

	// the user document is untouched by usage writes
	if u, err := users.GetUser(ctx, "USER0001"); err != nil || u.User.UserName != "Alice" {
		t.Errorf("user document changed: %+v, %v", u, err)
	}

	n.Wait()
	if len(sink.got) != 4 {
		t.Errorf("expected 4 snapshots, got %d", len(sink.got))
	}
}

func TestCreateUsageDefaultsToNow(t *testing.T) {
	_, usage := newModules(t, newLedger(), nil)
	usage.now = func() time.Time { return time.UnixMilli(1554650825727) }

	res, err := usage.CreateUsage(context.Background(), UsageInput{UserID: "USER0001"})
	if err != nil {
		t.Fatalf("CreateUsage failed: %v", err)
	}
	if res.Key != "USAGE\x00USER0001\x0000000001554650825727" {
		t.Errorf("unexpected key %q", res.Key)
	}
	if res.Usage.Time != "1554650825727" {
		t.Errorf("expected the key time as record time, got %q", res.Usage.Time)
	}

	if _, err := usage.CreateUsage(context.Background(), UsageInput{}); !IsValidation(err) {
		t.Errorf("expected validation error without userId, got %v", err)
	}
}

// hangingConnector returns contracts that block until the context is done.
type hangingConnector struct{}

func (hangingConnector) Connect(context.Context, string, *wallet.Identity) (gateway.Contract, error) {
	return hangingContract{}, nil
}

type hangingContract struct{}

func (hangingContract) Submit(ctx context.Context, _ string, _ ...string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (h hangingContract) Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error) {
	return h.Submit(ctx, fn, args...)
}
func (hangingContract) Close() error { return nil }

func TestCallsAreBounded(t *testing.T) {
	users := NewUserModule(gateway.NewSession(enrolled, UserIdentity, hangingConnector{}), 20*time.Millisecond)
	if err := users.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	_, err := users.GetAllUsers(context.Background())
	if !IsConnectivity(err) {
		t.Errorf("expected a deadline error, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("call was not bounded by the module timeout")
	}
}
