package electric

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gridledger/electric/lib/gateway"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("electric")

// DefaultTimeout bounds every gateway call of a module.
const DefaultTimeout = 30 * time.Second

// Labels of the identities the modules use by default.
const (
	UserIdentity  = "appUser"
	UsageIdentity = "usageAppUser"
)

// module is the part shared by the user and the usage module.
type module struct {
	name    string
	session *gateway.Session
	timeout time.Duration
}

func newModule(name string, session *gateway.Session, timeout time.Duration) module {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return module{name: name, session: session, timeout: timeout}
}

// Initialize binds the module to the contract. Calling it again returns
// without reconnecting. On failure the module stays unusable and every call
// fails with a connectivity error.
func (m *module) Initialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if _, err := m.session.Initialize(ctx); err != nil {
		log.Errorf("Failed to initialize %s module: %v", m.name, err)
		return fail("Failed to initialize "+m.name+" module", err)
	}
	log.Infof("Successfully initialized %s module", m.name)
	return nil
}

// evaluate runs a read only transaction with the module timeout.
func (m *module) evaluate(ctx context.Context, fn string, args ...string) ([]byte, error) {
	return m.call(ctx, false, fn, args...)
}

// submit runs a write transaction with the module timeout.
func (m *module) submit(ctx context.Context, fn string, args ...string) ([]byte, error) {
	return m.call(ctx, true, fn, args...)
}

func (m *module) call(ctx context.Context, write bool, fn string, args ...string) ([]byte, error) {
	c, err := m.session.Contract()
	if err != nil {
		log.Errorf("Contract not found: %s", fn)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var raw []byte
	action, done := "evaluate", "evaluated"
	if write {
		action, done = "submit", "submitted"
		raw, err = c.Submit(ctx, fn, args...)
	} else {
		raw, err = c.Evaluate(ctx, fn, args...)
	}
	if err != nil {
		log.Errorf("Failed to %s transaction %s: %v", action, fn, err)
		return nil, err
	}

	log.Infof("Transaction %s has been %s successfully", fn, done)
	return raw, nil
}

// decode unmarshals a transaction result.
func decode[T any](raw []byte) (T, error) {
	var v T
	err := json.Unmarshal(raw, &v)
	return v, err
}
