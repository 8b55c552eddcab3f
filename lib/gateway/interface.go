package gateway

import (
	"context"

	"github.com/gridledger/electric/lib/wallet"
)

// Contract is a handle to the deployed contract of one gateway session.
type Contract interface {
	// Submit runs a transaction that may write to the ledger and returns its result.
	Submit(ctx context.Context, fn string, args ...string) ([]byte, error)
	// Evaluate runs a read only transaction and returns its result.
	Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error)
	// Close releases the connection of the handle.
	Close() error
}

// Connector opens contract handles for an identity.
type Connector interface {
	// Connect binds the identity stored under label to the contract.
	Connect(ctx context.Context, label string, id *wallet.Identity) (Contract, error)
}

// IdentityStore resolves identities by label. *wallet.Wallet implements it.
type IdentityStore interface {
	Get(label string) (*wallet.Identity, error)
}
