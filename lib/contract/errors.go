package contract

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies a contract failure.
type Code uint8

const (
	CodeInternal   Code = iota // ledger or encoding failure
	CodeNotFound               // requested document absent or empty
	CodeValidation             // malformed or missing arguments
)

func (c Code) String() string {
	switch c {
	case CodeNotFound:
		return "NotFound"
	case CodeValidation:
		return "ValidationError"
	default:
		return "InternalError"
	}
}

// Error is the typed failure raised by contract operations.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// NewError creates a contract error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of a contract error anywhere in err's chain.
// Any other non-nil error is classified as internal.
func CodeOf(err error) Code {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeInternal
}

// IsNotFound reports whether err is a NotFound contract error.
func IsNotFound(err error) bool {
	return err != nil && CodeOf(err) == CodeNotFound
}

// IsValidation reports whether err is a validation contract error.
func IsValidation(err error) bool {
	return err != nil && CodeOf(err) == CodeValidation
}

// ParseCode is the inverse of Code.String. Unknown names map to CodeInternal.
func ParseCode(s string) Code {
	switch s {
	case "NotFound":
		return CodeNotFound
	case "ValidationError":
		return CodeValidation
	default:
		return CodeInternal
	}
}

// codes lists every code whose name may appear as a tag in a message.
var codes = []Code{CodeNotFound, CodeValidation, CodeInternal}

// Tag prefixes the message of err with the name of its code, "NotFound: ...".
// Transports that only carry error text (Fabric endorsement errors) keep the
// code that way. The tagged error still unwraps to err.
func Tag(err error) error {
	if err == nil {
		return nil
	}
	return &taggedError{err: err}
}

type taggedError struct {
	err error
}

func (t *taggedError) Error() string {
	return CodeOf(t.err).String() + ": " + t.err.Error()
}

func (t *taggedError) Unwrap() error {
	return t.err
}

// Untag recovers a contract error from a message produced by Tag, possibly
// embedded in a longer message. It reports false if msg carries no tag.
func Untag(msg string) (*Error, bool) {
	for _, c := range codes {
		tag := c.String() + ": "
		if i := strings.Index(msg, tag); i >= 0 {
			return &Error{Code: c, Msg: msg[i+len(tag):]}, true
		}
	}
	return nil, false
}
