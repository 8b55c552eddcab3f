package keys

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	UserPrefix  = "USER"  // namespace of user documents
	UsagePrefix = "USAGE" // namespace of usage documents

	// Separator delimits the components of a composite key.
	Separator = "\x00"

	// MaxRune is appended to a partial key to form the exclusive end of a
	// range over everything that starts with that partial key.
	MaxRune = "\U0010FFFF"

	// TimestampWidth is the number of decimal digits of an encoded timestamp.
	// 20 digits hold every non-negative int64 value.
	TimestampWidth = 20

	// MaxIDLength is the maximum length of an identifier in bytes.
	MaxIDLength = 64
)

var (
	ErrEmptyRange   = errors.New("empty range: start and end key are required")
	ErrInvalidID    = errors.New("invalid identifier")
	ErrNotUsageKey  = errors.New("not a usage key")
	ErrInvalidTime  = errors.New("invalid timestamp")
	ErrIDTooLong    = fmt.Errorf("%w: longer than %d bytes", ErrInvalidID, MaxIDLength)
	ErrIDEmpty      = fmt.Errorf("%w: empty", ErrInvalidID)
	ErrIDSeparator  = fmt.Errorf("%w: contains a reserved character", ErrInvalidID)
	ErrIDNotUTF8    = fmt.Errorf("%w: not valid UTF-8", ErrInvalidID)
	ErrTimeNegative = fmt.Errorf("%w: negative", ErrInvalidTime)
)

// --------------------------------------------------------------------------
// Ranges
// --------------------------------------------------------------------------

// Range is a half-open key interval [Start, End).
type Range struct {
	Start string `json:"startKey"`
	End   string `json:"endKey"`
}

// Validate returns ErrEmptyRange if either bound is missing.
func (r Range) Validate() error {
	if r.Start == "" || r.End == "" {
		return ErrEmptyRange
	}
	return nil
}

// Contains reports whether key lies inside the range.
func (r Range) Contains(key string) bool {
	return key >= r.Start && key < r.End
}

func prefixRange(prefix string) Range {
	return Range{Start: prefix, End: prefix + MaxRune}
}

// --------------------------------------------------------------------------
// Identifiers and timestamps
// --------------------------------------------------------------------------

// ValidateID checks the identifier capacity contract: a non-empty valid UTF-8
// string of at most MaxIDLength bytes that contains neither the separator nor MaxRune.
func ValidateID(id string) error {
	switch {
	case id == "":
		return ErrIDEmpty
	case len(id) > MaxIDLength:
		return ErrIDTooLong
	case !utf8.ValidString(id):
		return ErrIDNotUTF8
	case strings.Contains(id, Separator), strings.Contains(id, MaxRune):
		return ErrIDSeparator
	}
	return nil
}

// Timestamp renders unix milliseconds as a fixed-width, zero-padded decimal.
func Timestamp(ms int64) (string, error) {
	if ms < 0 {
		return "", ErrTimeNegative
	}
	return fmt.Sprintf("%0*d", TimestampWidth, ms), nil
}

// ParseTimestamp parses a decimal unix millisecond timestamp. Leading zeros
// and surrounding whitespace are accepted.
func ParseTimestamp(s string) (int64, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if ms < 0 {
		return 0, ErrTimeNegative
	}
	return ms, nil
}

// --------------------------------------------------------------------------
// Keys
// --------------------------------------------------------------------------

// User returns the storage key of a user document.
func User(userID string) (string, error) {
	if err := ValidateID(userID); err != nil {
		return "", err
	}
	return UserPrefix + Separator + userID, nil
}

// Usage returns the storage key of a usage record of userID taken at ms.
// Keys of one user sort by time.
func Usage(userID string, ms int64) (string, error) {
	if err := ValidateID(userID); err != nil {
		return "", err
	}
	ts, err := Timestamp(ms)
	if err != nil {
		return "", err
	}
	return usageUserPrefix(userID) + ts, nil
}

func usageUserPrefix(userID string) string {
	return UsagePrefix + Separator + userID + Separator
}

// ParseUsage splits a usage key into its user id and timestamp.
func ParseUsage(key string) (userID string, ms int64, err error) {
	rest, ok := strings.CutPrefix(key, UsagePrefix+Separator)
	if !ok {
		return "", 0, ErrNotUsageKey
	}
	userID, ts, ok := strings.Cut(rest, Separator)
	if !ok || len(ts) != TimestampWidth {
		return "", 0, ErrNotUsageKey
	}
	if err := ValidateID(userID); err != nil {
		return "", 0, err
	}
	ms, err = ParseTimestamp(ts)
	if err != nil {
		return "", 0, err
	}
	return userID, ms, nil
}

// IsUsageKeyFor reports whether key is a well-formed usage key of userID.
func IsUsageKeyFor(key, userID string) bool {
	owner, _, err := ParseUsage(key)
	return err == nil && owner == userID
}

// UserRange covers every user document.
func UserRange() Range {
	return prefixRange(UserPrefix + Separator)
}

// UsageRange covers every usage record of every user.
func UsageRange() Range {
	return prefixRange(UsagePrefix + Separator)
}

// UsageRangeForUser covers exactly the usage records of userID, in time order.
func UsageRangeForUser(userID string) (Range, error) {
	if err := ValidateID(userID); err != nil {
		return Range{}, err
	}
	return prefixRange(usageUserPrefix(userID)), nil
}

// UsageWindow covers the usage records of userID with from <= time < to.
func UsageWindow(userID string, from, to int64) (Range, error) {
	start, err := Usage(userID, from)
	if err != nil {
		return Range{}, err
	}
	end, err := Usage(userID, to)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end}, nil
}
