package contract

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gridledger/electric/lib/keys"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("contract")

// Names of the contract functions on the wire.
const (
	FnInitLedger        = "initLedger"
	FnCreateUser        = "createUser"
	FnQueryUser         = "queryUser"
	FnQueryAllUsers     = "queryAllUsers"
	FnCreateUsage       = "createUsage"
	FnQueryAllUsage     = "queryAllUsage"
	FnQueryUsageForUser = "queryUsageForUser"
)

// Name is the name the contract is deployed under.
const Name = "electric"

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

// InitLedger has nothing to initialize. It exists so deployments can call it.
func InitLedger(_ Stub) error {
	log.Infof("START: initLedger")
	log.Infof("END: initLedger, nothing to initialize")
	return nil
}

// CreateUser writes the user document of userID, overwriting an existing one.
func CreateUser(stub Stub, userID, userName string) (*User, error) {
	log.Infof("START: createUser %q", userID)

	key, err := keys.User(userID)
	if err != nil {
		return nil, NewError(CodeValidation, "userId: %v", err)
	}
	if userName == "" {
		return nil, NewError(CodeValidation, "userName is required")
	}

	user := &User{UserID: userID, UserName: userName, DocType: DocTypeUser}
	if _, err := putDocument(stub, key, user); err != nil {
		return nil, err
	}

	log.Infof("END: createUser %q", userID)
	return user, nil
}

// QueryUser returns the user document of userID.
func QueryUser(stub Stub, userID string) (*User, error) {
	key, err := keys.User(userID)
	if err != nil {
		return nil, NewError(CodeValidation, "userId: %v", err)
	}

	raw, err := getDocument(stub, key, userID)
	if err != nil {
		return nil, err
	}

	user := &User{}
	if err := json.Unmarshal(raw, user); err != nil {
		return nil, NewError(CodeInternal, "document of %s is not a user: %v", userID, err)
	}
	return user, nil
}

// QueryAllUsers returns every entry of [startKey, endKey).
// A missing bound yields an empty result.
func QueryAllUsers(stub Stub, startKey, endKey string) ([]Entry, error) {
	return scan(stub, startKey, endKey)
}

// CreateUsage writes one usage record under usageKey. The key must be a usage
// key of userID, so a usage record can never replace a user document or a
// record of another user.
func CreateUsage(stub Stub, usageKey string, usage Usage) (*Usage, error) {
	log.Infof("START: createUsage %q", usageKey)

	if err := keys.ValidateID(usage.UserID); err != nil {
		return nil, NewError(CodeValidation, "userId: %v", err)
	}
	if !keys.IsUsageKeyFor(usageKey, usage.UserID) {
		return nil, NewError(CodeValidation, "usage key %q is not a usage key of %s", usageKey, usage.UserID)
	}

	usage.DocType = DocTypeUsage
	if _, err := putDocument(stub, usageKey, &usage); err != nil {
		return nil, err
	}

	log.Infof("END: createUsage %q", usageKey)
	return &usage, nil
}

// QueryAllUsage returns every entry of [startKey, endKey).
func QueryAllUsage(stub Stub, startKey, endKey string) ([]Entry, error) {
	return scan(stub, startKey, endKey)
}

// QueryUsageForUser returns every entry of [startKey, endKey). Callers derive
// the bounds from the usage namespace of one user.
func QueryUsageForUser(stub Stub, startKey, endKey string) ([]Entry, error) {
	return scan(stub, startKey, endKey)
}

// --------------------------------------------------------------------------
// Dispatch
// --------------------------------------------------------------------------

var arity = map[string]int{
	FnInitLedger:        0,
	FnCreateUser:        2,
	FnQueryUser:         1,
	FnQueryAllUsers:     2,
	FnCreateUsage:       8,
	FnQueryAllUsage:     2,
	FnQueryUsageForUser: 2,
}

// IsWrite reports whether fn modifies the ledger.
func IsWrite(fn string) bool {
	return fn == FnInitLedger || fn == FnCreateUser || fn == FnCreateUsage
}

// Invoke runs the contract function fn with positional string arguments, the
// way a gateway transaction names it, and returns the JSON encoded result.
// Write functions return the written document, initLedger returns nothing.
func Invoke(stub Stub, fn string, args []string) (payload []byte, err error) {
	start := time.Now()
	defer func() { observe(fn, start, err) }()

	want, ok := arity[fn]
	if !ok {
		return nil, NewError(CodeValidation, "unknown function %q", fn)
	}
	if len(args) != want {
		return nil, NewError(CodeValidation, "%s expects %d arguments, got %d", fn, want, len(args))
	}

	var result any
	switch fn {
	case FnInitLedger:
		return nil, InitLedger(stub)
	case FnCreateUser:
		result, err = CreateUser(stub, args[0], args[1])
	case FnQueryUser:
		result, err = QueryUser(stub, args[0])
	case FnQueryAllUsers:
		result, err = QueryAllUsers(stub, args[0], args[1])
	case FnCreateUsage:
		result, err = CreateUsage(stub, args[0], Usage{
			UserID:    args[1],
			Time:      args[2],
			Voltage:   args[3],
			Current:   args[4],
			Power:     args[5],
			Frequency: args[6],
			Energy:    args[7],
		})
	case FnQueryAllUsage:
		result, err = QueryAllUsage(stub, args[0], args[1])
	case FnQueryUsageForUser:
		result, err = QueryUsageForUser(stub, args[0], args[1])
	}
	if err != nil {
		return nil, err
	}

	payload, err = json.Marshal(result)
	if err != nil {
		return nil, NewError(CodeInternal, "failed to encode result of %s: %v", fn, err)
	}
	return payload, nil
}

// observe records the call count and latency of fn.
func observe(fn string, start time.Time, err error) {
	if _, ok := arity[fn]; !ok {
		fn = "unknown"
	}
	status := "ok"
	if err != nil {
		status = CodeOf(err).String()
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`electric_contract_calls_total{fn=%q,status=%q}`, fn, status)).Inc()
	metrics.GetOrCreateHistogram(fmt.Sprintf(`electric_contract_call_duration_seconds{fn=%q}`, fn)).UpdateDuration(start)
}
