package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gridledger/electric/lib/wallet"
)

type memIdentities map[string]*wallet.Identity

func (m memIdentities) Get(label string) (*wallet.Identity, error) {
	id, ok := m[label]
	if !ok {
		return nil, wallet.ErrIdentityNotFound
	}
	return id, nil
}

type nopContract struct{ closed atomic.Bool }

func (n *nopContract) Submit(context.Context, string, ...string) ([]byte, error)   { return nil, nil }
func (n *nopContract) Evaluate(context.Context, string, ...string) ([]byte, error) { return nil, nil }
func (n *nopContract) Close() error                                               { n.closed.Store(true); return nil }

type countingConnector struct {
	calls atomic.Int32
	err   error
}

func (c *countingConnector) Connect(context.Context, string, *wallet.Identity) (Contract, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &nopContract{}, nil
}

func identities() memIdentities {
	return memIdentities{"appUser": wallet.NewX509Identity("Org1MSP", "C", "K")}
}

func TestInitializeIsIdempotent(t *testing.T) {
	conn := &countingConnector{}
	s := NewSession(identities(), "appUser", conn)

	first, err := s.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	second, err := s.Initialize(context.Background())
	if err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}
	if first != second {
		t.Errorf("expected the same handle on repeated initialization")
	}
	if conn.calls.Load() != 1 {
		t.Errorf("expected one connect, got %d", conn.calls.Load())
	}
}

func TestConcurrentInitialize(t *testing.T) {
	conn := &countingConnector{}
	s := NewSession(identities(), "appUser", conn)

	var wg sync.WaitGroup
	handles := make([]Contract, 20)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], _ = s.Initialize(context.Background())
		}(i)
	}
	wg.Wait()

	for _, h := range handles {
		if h == nil || h != handles[0] {
			t.Fatalf("expected all callers to receive the same handle")
		}
	}
	if conn.calls.Load() != 1 {
		t.Errorf("expected one connect, got %d", conn.calls.Load())
	}
}

func TestMissingIdentityFailsClosed(t *testing.T) {
	conn := &countingConnector{}
	s := NewSession(identities(), "usageAppUser", conn)

	_, err := s.Initialize(context.Background())
	var ce *ConnectivityError
	if !errors.As(err, &ce) || !errors.Is(err, wallet.ErrIdentityNotFound) {
		t.Fatalf("expected a connectivity error wrapping ErrIdentityNotFound, got %v", err)
	}
	if conn.calls.Load() != 0 {
		t.Errorf("must not connect without identity")
	}
	if _, err := s.Contract(); !errors.Is(err, ErrContractNotFound) {
		t.Errorf("expected ErrContractNotFound, got %v", err)
	}
	if !IsConnectivity(ErrContractNotFound) {
		t.Errorf("ErrContractNotFound counts as connectivity failure")
	}
}

func TestConnectFailure(t *testing.T) {
	conn := &countingConnector{err: errors.New("peer unreachable")}
	s := NewSession(identities(), "appUser", conn)

	if _, err := s.Initialize(context.Background()); !IsConnectivity(err) {
		t.Fatalf("expected connectivity error, got %v", err)
	}
	if _, err := s.Contract(); !errors.Is(err, ErrContractNotFound) {
		t.Errorf("expected ErrContractNotFound, got %v", err)
	}

	// recovers once the gateway is reachable
	conn.err = nil
	if _, err := s.Initialize(context.Background()); err != nil {
		t.Errorf("expected retry to succeed: %v", err)
	}
}

func TestManager(t *testing.T) {
	m := NewManager(identities(), &countingConnector{})
	s := m.Session("appUser")
	if m.Session("appUser") != s {
		t.Errorf("expected one session per label")
	}

	c, err := s.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !c.(*nopContract).closed.Load() {
		t.Errorf("expected the contract to be closed")
	}
	if m.Session("appUser") == s {
		t.Errorf("expected a fresh session after Close")
	}
}

func TestRegistered(t *testing.T) {
	ok, err := NewSession(identities(), "appUser", &countingConnector{}).Registered()
	if !ok || err != nil {
		t.Errorf("expected appUser to be registered, got %v, %v", ok, err)
	}
	ok, err = NewSession(identities(), "usageAppUser", &countingConnector{}).Registered()
	if ok || err != nil {
		t.Errorf("expected usageAppUser to be unregistered, got %v, %v", ok, err)
	}
}
