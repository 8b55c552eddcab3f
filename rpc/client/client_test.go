package client

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gridledger/electric/lib/contract"
	"github.com/gridledger/electric/lib/gateway"
	"github.com/gridledger/electric/lib/keys"
	"github.com/gridledger/electric/lib/wallet"
	"github.com/gridledger/electric/rpc/common"
	"github.com/gridledger/electric/rpc/serializer"
	"github.com/gridledger/electric/rpc/server"
	"github.com/gridledger/electric/rpc/transport"
)

// loopback connects a client directly to the handler of an in-process server.
type loopback struct {
	handler transport.ServerHandleFunc
	closed  bool
}

func (l *loopback) RegisterHandler(h transport.ServerHandleFunc) { l.handler = h }
func (l *loopback) Listen(common.ServerConfig) error             { return nil }
func (l *loopback) Connect(common.ClientConfig) error            { return nil }
func (l *loopback) Close() error                                 { l.closed = true; return nil }

func (l *loopback) Send(ctx context.Context, shardId uint64, req []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.handler(shardId, req), nil
}

func startServer(t *testing.T, ser serializer.IRPCSerializer) *loopback {
	t.Helper()
	lb := &loopback{}
	s := server.NewRPCServer(common.ServerConfig{
		Shards:        []common.ServerShard{{ShardID: 100, Type: common.ShardTypeLocal}},
		TimeoutSecond: 5,
		LogLevel:      "error",
	}, lb, ser)
	if err := s.Serve(); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}
	return lb
}

var clientConfig = common.ClientConfig{TimeoutSecond: 5}

func TestRPCStore(t *testing.T) {
	lb := startServer(t, serializer.NewBinarySerializer())
	s, err := NewRPCStore(100, clientConfig, lb, serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("NewRPCStore failed: %v", err)
	}

	if err := s.Set("USER\x00a", []byte("1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok, err := s.Get("USER\x00a")
	if err != nil || !ok || string(v) != "1" {
		t.Errorf("Get() = %q, %v, %v", v, ok, err)
	}
	if ok, _ := s.Has("USER\x00b"); ok {
		t.Errorf("Has() reported a missing key")
	}

	r := keys.UserRange()
	entries, err := s.Range(r.Start, r.End)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Range() = %v, %v", entries, err)
	}

	info, err := s.GetDBInfo()
	if err != nil {
		t.Fatalf("GetDBInfo failed: %v", err)
	}
	if info.Keys != 1 {
		t.Errorf("expected 1 key, got %d", info.Keys)
	}
}

func TestRPCStoreUnknownShard(t *testing.T) {
	lb := startServer(t, serializer.NewBinarySerializer())
	s, _ := NewRPCStore(7, clientConfig, lb, serializer.NewBinarySerializer())
	if _, _, err := s.Get("k"); err == nil {
		t.Errorf("expected an error for an unknown shard")
	}
}

func TestContractConnector(t *testing.T) {
	lb := startServer(t, serializer.NewBinarySerializer())
	conn := NewContractConnector(100, clientConfig, func() transport.IRPCClientTransport { return lb }, serializer.NewBinarySerializer())

	c, err := conn.Connect(context.Background(), "appUser", wallet.NewX509Identity("Org1MSP", "C", "K"))
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	ctx := context.Background()
	if _, err := c.Submit(ctx, contract.FnCreateUser, "USER0001", "Alice"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	raw, err := c.Evaluate(ctx, contract.FnQueryUser, "USER0001")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	var user contract.User
	if err := json.Unmarshal(raw, &user); err != nil || user.UserName != "Alice" {
		t.Errorf("unexpected user %s (%v)", raw, err)
	}

	// contract codes survive the wire
	_, err = c.Evaluate(ctx, contract.FnQueryUser, "USER0002")
	var ce *contract.Error
	if !errors.As(err, &ce) || ce.Code != contract.CodeNotFound {
		t.Errorf("expected a NotFound contract error, got %v", err)
	}
	if _, err := c.Submit(ctx, contract.FnCreateUser, "USER0003"); !contract.IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}

	if err := c.Close(); err != nil || !lb.closed {
		t.Errorf("expected Close to close the transport")
	}
}

func TestContractConnectorWithSession(t *testing.T) {
	lb := startServer(t, serializer.NewJSONSerializer())
	conn := NewContractConnector(100, clientConfig, func() transport.IRPCClientTransport { return lb }, serializer.NewJSONSerializer())

	w, err := wallet.New(t.TempDir())
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	w.Put("appUser", wallet.NewX509Identity("Org1MSP", "C", "K"))

	s := gateway.NewSession(w, "appUser", conn)
	c, err := s.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if _, err := c.Evaluate(context.Background(), contract.FnQueryAllUsers, "", ""); err != nil {
		t.Errorf("Evaluate failed: %v", err)
	}
}
