package unix

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gridledger/electric/rpc/common"
	"github.com/gridledger/electric/rpc/transport"
)

func startServer(t *testing.T) string {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "node.sock")

	srv := NewUnixServerTransport()
	srv.RegisterHandler(func(shardId uint64, req []byte) []byte {
		return []byte(fmt.Sprintf("%d:%s", shardId, req))
	})
	go func() {
		_ = srv.Listen(common.ServerConfig{
			TimeoutSecond: 5,
			Transport:     common.ServerTransportConfig{Endpoint: socket, WorkersPerConn: 4},
		})
	}()
	return socket
}

func connect(t *testing.T, socket string) transport.IRPCClientTransport {
	t.Helper()
	client := NewUnixClientTransport()
	conf := common.ClientConfig{
		TimeoutSecond: 5,
		Transport:     common.ClientTransportConfig{Endpoints: []string{socket}, RetryCount: 3, ConnectionsPerEndpoint: 2},
	}

	var err error
	for i := 0; i < 50; i++ {
		if err = client.Connect(conf); err == nil {
			t.Cleanup(func() { _ = client.Close() })
			return client
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("failed to connect to %s: %v", socket, err)
	return nil
}

func TestRoundTrip(t *testing.T) {
	client := connect(t, startServer(t))

	resp, err := client.Send(context.Background(), 7, []byte("hello"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if string(resp) != "7:hello" {
		t.Errorf("unexpected response %q", resp)
	}
}

func TestConcurrentRequestsAreCorrelated(t *testing.T) {
	client := connect(t, startServer(t))

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := fmt.Sprintf("req-%d", i)
			resp, err := client.Send(context.Background(), uint64(i), []byte(req))
			if err != nil {
				errs <- err
				return
			}
			if want := fmt.Sprintf("%d:%s", i, req); string(resp) != want {
				errs <- fmt.Errorf("got %q, want %q", resp, want)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestConnectFailsWithoutServer(t *testing.T) {
	client := NewUnixClientTransport()
	err := client.Connect(common.ClientConfig{
		Transport: common.ClientTransportConfig{Endpoints: []string{filepath.Join(t.TempDir(), "missing.sock")}},
	})
	if err == nil {
		t.Errorf("expected error without a server")
	}
}
