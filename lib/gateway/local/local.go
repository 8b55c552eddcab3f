// Package local provides a gateway connector that runs the contract in
// process against a ledger store. It backs the embedded mode of the CLI and
// the tests of the client modules.
package local

import (
	"context"

	"github.com/gridledger/electric/lib/contract"
	"github.com/gridledger/electric/lib/gateway"
	"github.com/gridledger/electric/lib/store"
	"github.com/gridledger/electric/lib/wallet"
)

type connector struct {
	s store.IStore
}

// NewConnector returns a connector whose contracts run on s.
func NewConnector(s store.IStore) gateway.Connector {
	return &connector{s: s}
}

func (c *connector) Connect(ctx context.Context, _ string, _ *wallet.Identity) (gateway.Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &localContract{stub: contract.NewStoreStub(c.s)}, nil
}

type localContract struct {
	stub contract.Stub
}

func (l *localContract) Submit(ctx context.Context, fn string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return contract.Invoke(l.stub, fn, args)
}

func (l *localContract) Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return contract.Invoke(contract.ReadOnly(l.stub), fn, args)
}

func (l *localContract) Close() error {
	return nil
}
