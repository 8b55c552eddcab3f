package electric

import (
	"context"
	"strconv"
	"time"

	"github.com/gridledger/electric/lib/contract"
	"github.com/gridledger/electric/lib/gateway"
	"github.com/gridledger/electric/lib/keys"
	"github.com/gridledger/electric/lib/notifier"
)

// UsageModule records and queries electricity usage.
type UsageModule struct {
	module
	notifier *notifier.Notifier
	now      func() time.Time
}

// NewUsageModule creates a usage module on session. n is told about every
// recorded usage and may be nil. A timeout <= 0 selects DefaultTimeout.
func NewUsageModule(session *gateway.Session, timeout time.Duration, n *notifier.Notifier) *UsageModule {
	return &UsageModule{
		module:   newModule("usage", session, timeout),
		notifier: n,
		now:      time.Now,
	}
}

// UsageInput is the payload of CreateUsage. Missing measurements are recorded as "0".
type UsageInput struct {
	UserID    string `json:"userId"`
	Time      string `json:"time"`
	Voltage   string `json:"voltage"`
	Current   string `json:"current"`
	Power     string `json:"power"`
	Frequency string `json:"frequency"`
	Energy    string `json:"energy"`
}

// UsageListResult lists usage records with their keys.
type UsageListResult struct {
	Code  int              `json:"code"`
	Usage []contract.Entry `json:"usage"`
}

// UsageResult holds one recorded usage and the key it is stored under.
type UsageResult struct {
	Code  int            `json:"code"`
	Key   string         `json:"key"`
	Usage contract.Usage `json:"usage"`
}

func (m *UsageModule) list(ctx context.Context, fn string, r keys.Range) (*UsageListResult, error) {
	raw, err := m.evaluate(ctx, fn, r.Start, r.End)
	if err != nil {
		return nil, fail("Failed to get usage data", err)
	}
	usage, err := decode[[]contract.Entry](raw)
	if err != nil {
		return nil, fail("Failed to get usage data", err)
	}
	return &UsageListResult{Code: 1, Usage: usage}, nil
}

// GetAllUsage returns the usage records of every user, grouped by user and ordered by time.
func (m *UsageModule) GetAllUsage(ctx context.Context) (*UsageListResult, error) {
	return m.list(ctx, contract.FnQueryAllUsage, keys.UsageRange())
}

// GetUsageForUser returns the usage records of userID ordered by time.
func (m *UsageModule) GetUsageForUser(ctx context.Context, userID string) (*UsageListResult, error) {
	r, err := keys.UsageRangeForUser(userID)
	if err != nil {
		return nil, fail("Failed to get usage data", invalid("userId: %v", err))
	}
	return m.list(ctx, contract.FnQueryUsageForUser, r)
}

// GetUsageWindow returns the usage records of userID taken in [from, to), in unix milliseconds.
func (m *UsageModule) GetUsageWindow(ctx context.Context, userID string, from, to int64) (*UsageListResult, error) {
	r, err := keys.UsageWindow(userID, from, to)
	if err != nil {
		return nil, fail("Failed to get usage data", invalid("%v", err))
	}
	if from >= to {
		return &UsageListResult{Code: 1, Usage: []contract.Entry{}}, nil
	}
	return m.list(ctx, contract.FnQueryUsageForUser, r)
}

// CreateUsage records one measurement. The record is keyed by its time if that
// is a unix millisecond timestamp, by the current time otherwise. A successful
// write triggers a channel info snapshot.
func (m *UsageModule) CreateUsage(ctx context.Context, in UsageInput) (*UsageResult, error) {
	if in.UserID == "" {
		log.Errorf("userId not found: createUsage")
		return nil, fail("Failed to create usage", invalid("userId is required"))
	}

	ms, err := keys.ParseTimestamp(in.Time)
	if err != nil {
		ms = m.now().UnixMilli()
		if in.Time == "" {
			in.Time = strconv.FormatInt(ms, 10)
		}
	}
	key, err := keys.Usage(in.UserID, ms)
	if err != nil {
		return nil, fail("Failed to create usage", invalid("userId: %v", err))
	}

	raw, err := m.submit(ctx, contract.FnCreateUsage, key, in.UserID, in.Time,
		orZero(in.Voltage), orZero(in.Current), orZero(in.Power), orZero(in.Frequency), orZero(in.Energy))
	if err != nil {
		return nil, fail("Failed to create usage", err)
	}

	m.notifier.Notify(key)

	usage, err := decode[contract.Usage](raw)
	if err != nil || usage.UserID == "" {
		usage = contract.Usage{
			UserID: in.UserID, Time: in.Time,
			Voltage: orZero(in.Voltage), Current: orZero(in.Current), Power: orZero(in.Power),
			Frequency: orZero(in.Frequency), Energy: orZero(in.Energy),
			DocType: contract.DocTypeUsage,
		}
	}
	return &UsageResult{Code: 1, Key: key, Usage: usage}, nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
