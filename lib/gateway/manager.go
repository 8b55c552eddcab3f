package gateway

import (
	"errors"

	"github.com/puzpuzpuz/xsync/v3"
)

// Manager owns the sessions of a process, one per identity label.
type Manager struct {
	ids       IdentityStore
	connector Connector
	sessions  *xsync.MapOf[string, *Session]
}

// NewManager creates a manager whose sessions resolve identities from ids
// and connect through connector.
func NewManager(ids IdentityStore, connector Connector) *Manager {
	return &Manager{
		ids:       ids,
		connector: connector,
		sessions:  xsync.NewMapOf[string, *Session](),
	}
}

// Session returns the session of label, creating it on first use.
func (m *Manager) Session(label string) *Session {
	s, _ := m.sessions.LoadOrCompute(label, func() *Session {
		return NewSession(m.ids, label, m.connector)
	})
	return s
}

// Close closes every session and forgets them.
func (m *Manager) Close() error {
	var errs []error
	m.sessions.Range(func(label string, s *Session) bool {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
		m.sessions.Delete(label)
		return true
	})
	return errors.Join(errs...)
}
