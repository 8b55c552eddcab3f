package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gridledger/electric/rpc/common"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := &httpServerTransport{}
	srv.RegisterHandler(func(shardId uint64, req []byte) []byte {
		return []byte(fmt.Sprintf("%d:%s", shardId, req))
	})
	ts := httptest.NewServer(srv.newMux())
	t.Cleanup(ts.Close)
	return ts
}

func TestSendRoutesByShard(t *testing.T) {
	ts := newTestServer(t)

	client := NewHttpClientTransport()
	err := client.Connect(common.ClientConfig{
		TimeoutSecond: 5,
		Transport:     common.ClientTransportConfig{Endpoints: []string{ts.URL}, RetryCount: 2},
	})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	resp, err := client.Send(context.Background(), 100, []byte("ping"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !bytes.Equal(resp, []byte("100:ping")) {
		t.Errorf("unexpected response %q", resp)
	}
}

func TestSendHonorsContext(t *testing.T) {
	ts := newTestServer(t)

	client := NewHttpClientTransport()
	_ = client.Connect(common.ClientConfig{
		Transport: common.ClientTransportConfig{Endpoints: []string{ts.URL}, RetryCount: 3},
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	if _, err := client.Send(ctx, 100, []byte("ping")); err == nil {
		t.Errorf("expected error for expired context")
	}
}

func TestInvalidShardPath(t *testing.T) {
	ts := newTestServer(t)

	client := NewHttpClientTransport()
	_ = client.Connect(common.ClientConfig{
		Transport: common.ClientTransportConfig{Endpoints: []string{ts.URL + "/not-a-shard"}, RetryCount: 1},
	})
	defer client.Close()

	// POST /not-a-shard/100 does not match the route
	if _, err := client.Send(context.Background(), 100, []byte("ping")); err == nil {
		t.Errorf("expected http error")
	}
}

func TestConnectRequiresEndpoint(t *testing.T) {
	if err := NewHttpClientTransport().Connect(common.ClientConfig{}); err == nil {
		t.Errorf("expected error without endpoints")
	}
}

func TestSendWithoutConnect(t *testing.T) {
	if _, err := NewHttpClientTransport().Send(context.Background(), 1, nil); err == nil {
		t.Errorf("expected error for unconnected transport")
	}
}
