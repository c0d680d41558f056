package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"staffdesk.io/internal/auth"
	"staffdesk.io/internal/employees"
	"staffdesk.io/internal/store/memory"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	store   *memory.Store
	rbac    *auth.RBACService
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	store := memory.New()
	tokens, err := auth.NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	accounts, err := auth.NewService(store, tokens)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	rbac, err := auth.NewRBACService(store)
	if err != nil {
		t.Fatalf("NewRBACService: %v", err)
	}
	emps, err := employees.NewService(store)
	if err != nil {
		t.Fatalf("employees.NewService: %v", err)
	}

	ctx := context.Background()
	if err := rbac.EnsureBuiltins(ctx); err != nil {
		t.Fatalf("EnsureBuiltins: %v", err)
	}
	if err := accounts.BootstrapAdmin(ctx, rbac, "admin@example.com", "AdminPass1!"); err != nil {
		t.Fatalf("BootstrapAdmin: %v", err)
	}

	api := New(accounts, rbac, emps, ReadyProbe{}, Options{
		Version:    "test",
		RateBurst:  1000,
		RatePerSec: 1000,
	})

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		store:   store,
		rbac:    rbac,
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, token string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) decode(resp *http.Response, dst any) {
	c.t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.t.Fatalf("decode body %q: %v", data, err)
	}
}

// register creates an account through the public endpoint and returns its id.
func (c *apiClient) register(email, password string) string {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/v1/auth/register", map[string]any{
		"email":      email,
		"password":   password,
		"first_name": "Test",
		"last_name":  "User",
	}, "")
	if resp.StatusCode != http.StatusCreated {
		c.t.Fatalf("register status = %d", resp.StatusCode)
	}
	var user auth.User
	c.decode(resp, &user)
	return user.ID
}

func (c *apiClient) login(email, password string) string {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/v1/auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, "")
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("login status = %d", resp.StatusCode)
	}
	var result auth.LoginResult
	c.decode(resp, &result)
	return result.Token
}

func (c *apiClient) adminToken() string {
	c.t.Helper()
	return c.login("admin@example.com", "AdminPass1!")
}

func TestHealthz(t *testing.T) {
	c := newTestAPI(t)

	resp := c.do(http.MethodGet, "/healthz", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
	var body map[string]any
	c.decode(resp, &body)
	if body["status"] != "ok" {
		t.Fatalf("unexpected healthz body: %v", body)
	}
}

func TestInfoReportsVersion(t *testing.T) {
	c := newTestAPI(t)

	resp := c.do(http.MethodGet, "/v1/info", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("info status = %d", resp.StatusCode)
	}
	var body map[string]any
	c.decode(resp, &body)
	if body["version"] != "test" {
		t.Fatalf("unexpected version: %v", body["version"])
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	c := newTestAPI(t)

	resp := c.do(http.MethodGet, "/nope", nil, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	c := newTestAPI(t)

	resp := c.do(http.MethodGet, "/healthz", nil, "")
	defer resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}
