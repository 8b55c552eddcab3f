package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/gridledger/electric/lib/wallet"

	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("gateway")

// Session binds one identity of a wallet to the contract.
// It is safe for concurrent use.
type Session struct {
	ids       IdentityStore
	label     string
	connector Connector

	mu       sync.Mutex
	contract Contract
}

// NewSession creates a session for the identity stored under label.
// Nothing is connected until Initialize is called.
func NewSession(ids IdentityStore, label string, connector Connector) *Session {
	return &Session{ids: ids, label: label, connector: connector}
}

// Label returns the identity label of the session.
func (s *Session) Label() string {
	return s.label
}

// Registered reports whether the identity of the session exists.
func (s *Session) Registered() (bool, error) {
	_, err := s.ids.Get(s.label)
	if errors.Is(err, wallet.ErrIdentityNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Initialize resolves the identity and connects to the contract.
// The first successful call wins, later calls return the same handle.
// On failure the cause is logged, the session stays unusable and a
// *ConnectivityError is returned. A failed session may be initialized again.
func (s *Session) Initialize(ctx context.Context) (Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.contract != nil {
		return s.contract, nil
	}

	id, err := s.ids.Get(s.label)
	if err != nil {
		log.Errorf("identity %q is not available, run the enroll step first: %v", s.label, err)
		return nil, &ConnectivityError{Label: s.label, Err: err}
	}

	contract, err := s.connector.Connect(ctx, s.label, id)
	if err != nil {
		log.Errorf("failed to connect %q to the gateway: %v", s.label, err)
		return nil, &ConnectivityError{Label: s.label, Err: err}
	}

	log.Infof("gateway session %q initialized", s.label)
	s.contract = contract
	return contract, nil
}

// Contract returns the handle of an initialized session or ErrContractNotFound.
func (s *Session) Contract() (Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contract == nil {
		return nil, ErrContractNotFound
	}
	return s.contract, nil
}

// Close releases the contract handle. The session can be initialized again afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contract == nil {
		return nil
	}
	err := s.contract.Close()
	s.contract = nil
	return err
}
