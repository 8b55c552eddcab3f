package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/gridledger/electric/lib/store"
)

// ExecSource runs a command and captures its standard output.
type ExecSource struct {
	Command string
	Args    []string
}

// NewChannelInfoSource returns a source running `peer channel getinfo -c channel`.
func NewChannelInfoSource(channel string) *ExecSource {
	return &ExecSource{Command: "peer", Args: []string{"channel", "getinfo", "-c", channel}}
}

func (e *ExecSource) Name() string {
	return strings.Join(append([]string{e.Command}, e.Args...), " ")
}

func (e *ExecSource) Snapshot(ctx context.Context) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", e.Command, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", e.Command, err)
	}
	return stdout.Bytes(), nil
}

// LedgerSource reports the database info of a ledger store. It stands in for
// the peer binary when the ledger is a node of this repository.
type LedgerSource struct {
	Store store.IStore
	Label string
}

func (l *LedgerSource) Name() string {
	if l.Label == "" {
		return "ledger"
	}
	return l.Label
}

func (l *LedgerSource) Snapshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := l.Store.GetDBInfo()
	if err != nil {
		return nil, err
	}
	return json.Marshal(info)
}
