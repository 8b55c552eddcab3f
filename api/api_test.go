package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gridledger/electric/lib/db"
	"github.com/gridledger/electric/lib/db/engines/level"
	"github.com/gridledger/electric/lib/electric"
	"github.com/gridledger/electric/lib/gateway"
	"github.com/gridledger/electric/lib/gateway/local"
	"github.com/gridledger/electric/lib/store/lstore"
	"github.com/gridledger/electric/lib/wallet"
)

type memIdentities map[string]*wallet.Identity

func (m memIdentities) Get(label string) (*wallet.Identity, error) {
	if id, ok := m[label]; ok {
		return id, nil
	}
	return nil, wallet.ErrIdentityNotFound
}

func setupTestRouter(t *testing.T, initialize bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ids := memIdentities{
		electric.UserIdentity:  wallet.NewX509Identity("Org1MSP", "C", "K"),
		electric.UsageIdentity: wallet.NewX509Identity("Org1MSP", "C", "K"),
	}
	conn := local.NewConnector(lstore.NewLocalStore(func() db.KVDB { return level.NewInMemory() }))
	h := &Handler{
		Users: electric.NewUserModule(gateway.NewSession(ids, electric.UserIdentity, conn), time.Second),
		Usage: electric.NewUsageModule(gateway.NewSession(ids, electric.UsageIdentity, conn), time.Second, nil),
	}
	if initialize {
		h.Users.Initialize(context.Background())
		h.Usage.Initialize(context.Background())
	}
	return NewRouter(h)
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetUser(t *testing.T) {
	r := setupTestRouter(t, true)

	w := do(r, "POST", "/users", electric.UserInput{UserID: "USER0001", UserName: "Alice"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
	}

	w = do(r, "GET", "/users/USER0001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	var res electric.UserResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.Code != 1 || res.User.UserName != "Alice" {
		t.Errorf("unexpected body %s", w.Body)
	}

	w = do(r, "GET", "/users", nil)
	var all electric.UsersResult
	json.Unmarshal(w.Body.Bytes(), &all)
	if w.Code != http.StatusOK || len(all.Users) != 1 {
		t.Errorf("unexpected list %d %s", w.Code, w.Body)
	}
}

func TestErrorStatus(t *testing.T) {
	r := setupTestRouter(t, true)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"missing user", "GET", "/users/USER9999", nil, http.StatusNotFound},
		{"missing name", "POST", "/users", electric.UserInput{UserID: "USER0001"}, http.StatusBadRequest},
		{"missing userId", "POST", "/usage", electric.UsageInput{Energy: "1"}, http.StatusBadRequest},
		{"bad window", "GET", "/users/USER0001/usage?from=x&to=1", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body)
			}
			var body map[string]any
			json.Unmarshal(w.Body.Bytes(), &body)
			if body["code"] != float64(0) || body["message"] == "" {
				t.Errorf("expected {code:0, message}, got %s", w.Body)
			}
		})
	}
}

func TestUninitialized(t *testing.T) {
	r := setupTestRouter(t, false)
	w := do(r, "GET", "/usage", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d: %s", w.Code, w.Body)
	}
}

func TestUsageRoutes(t *testing.T) {
	r := setupTestRouter(t, true)
	for _, ts := range []string{"1000", "2000", "3000"} {
		w := do(r, "POST", "/usage", electric.UsageInput{UserID: "USER0001", Time: ts, Power: "230"})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
		}
	}

	var res electric.UsageListResult
	w := do(r, "GET", "/users/USER0001/usage", nil)
	json.Unmarshal(w.Body.Bytes(), &res)
	if len(res.Usage) != 3 {
		t.Errorf("expected 3 records, got %s", w.Body)
	}

	w = do(r, "GET", "/users/USER0001/usage?from=1000&to=3000", nil)
	json.Unmarshal(w.Body.Bytes(), &res)
	if len(res.Usage) != 2 {
		t.Errorf("expected 2 records in window, got %s", w.Body)
	}

	w = do(r, "GET", "/usage", nil)
	json.Unmarshal(w.Body.Bytes(), &res)
	if w.Code != http.StatusOK || len(res.Usage) != 3 {
		t.Errorf("unexpected all usage %d %s", w.Code, w.Body)
	}
}

func TestMetrics(t *testing.T) {
	r := setupTestRouter(t, true)
	do(r, "GET", "/users", nil)
	w := do(r, "GET", "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "electric_api_requests_total") {
		t.Errorf("expected request metrics, got %d", w.Code)
	}
}
