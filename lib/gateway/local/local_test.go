package local

import (
	"context"
	"testing"

	"github.com/gridledger/electric/lib/contract"
	"github.com/gridledger/electric/lib/db"
	"github.com/gridledger/electric/lib/db/engines/level"
	"github.com/gridledger/electric/lib/store/lstore"
)

func TestLocalContract(t *testing.T) {
	s := lstore.NewLocalStore(func() db.KVDB { return level.NewInMemory() })
	c, err := NewConnector(s).Connect(context.Background(), "appUser", nil)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if _, err := c.Submit(ctx, contract.FnCreateUser, "USER0001", "Alice"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := c.Evaluate(ctx, contract.FnQueryUser, "USER0001"); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if _, err := c.Evaluate(ctx, contract.FnCreateUser, "USER0002", "Bob"); !contract.IsValidation(err) {
		t.Errorf("expected evaluate to reject writes, got %v", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := c.Evaluate(canceled, contract.FnQueryUser, "USER0001"); err == nil {
		t.Errorf("expected an error on a canceled context")
	}
}
