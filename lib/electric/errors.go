package electric

import (
	"context"
	"errors"

	"github.com/gridledger/electric/lib/contract"
	"github.com/gridledger/electric/lib/gateway"
)

// Error is the uniform failure of the client modules, {code: 0, message}.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// fail wraps cause into the uniform failure shape.
func fail(message string, cause error) *Error {
	return &Error{Code: 0, Message: message, cause: cause}
}

// IsNotFound reports whether err was caused by a missing document.
func IsNotFound(err error) bool {
	return contract.IsNotFound(err)
}

// IsValidation reports whether err was caused by invalid input.
func IsValidation(err error) bool {
	return contract.IsValidation(err)
}

// IsConnectivity reports whether err was caused by an unusable gateway session
// or a call that did not complete in time.
func IsConnectivity(err error) bool {
	return gateway.IsConnectivity(err) || errors.Is(err, context.DeadlineExceeded)
}

func invalid(format string, args ...any) error {
	return contract.NewError(contract.CodeValidation, format, args...)
}
