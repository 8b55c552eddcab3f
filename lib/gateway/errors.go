package gateway

import (
	"errors"
	"fmt"
)

// ErrContractNotFound is returned by calls on a session that was never
// successfully initialized.
var ErrContractNotFound = errors.New("contract not found")

// ConnectivityError reports that a session could not be established because
// the identity, the wallet or the gateway was unavailable.
type ConnectivityError struct {
	Label string
	Err   error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("gateway session %q unavailable: %v", e.Label, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// IsConnectivity reports whether err means the gateway could not be reached
// or the session is not usable.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce) || errors.Is(err, ErrContractNotFound)
}
