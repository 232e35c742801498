package backendclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type staticCredentials struct {
	token  string
	apiKey string
}

func (s staticCredentials) Credentials(ctx context.Context) (Credentials, error) {
	return Credentials{Token: s.token, APIKey: s.apiKey}, nil
}

func newTLSTestClient(t *testing.T, handler http.Handler, opts Options) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)
	opts.HTTPClient = server.Client()
	return NewClient(server.URL, opts), server
}

func TestSecureURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "http://backend.example.com/agents/1", want: "https://backend.example.com/agents/1"},
		{in: "HTTP://backend.example.com", want: "https://backend.example.com"},
		{in: "https://backend.example.com", want: "https://backend.example.com"},
		{in: "/relative/path", want: "/relative/path"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SecureURL(tt.in); got != tt.want {
				t.Fatalf("SecureURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClient_RewritesHTTPBaseURLBeforeDispatch(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil {
			t.Error("expected request to arrive over TLS")
		}
		w.Write([]byte(`{"ok":true}`))
	})
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	// Hand the client an http:// base; the dispatched request must use https.
	downgraded := "http://" + strings.TrimPrefix(server.URL, "https://")
	client := NewClient(downgraded, Options{HTTPClient: server.Client()})

	var out struct {
		OK bool `json:"ok"`
	}
	if err := client.Get(context.Background(), "/health", &out); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !out.OK {
		t.Fatalf("expected decoded response, got %+v", out)
	}
}

func TestClient_InjectsAuthHeaders(t *testing.T) {
	var gotAuth, gotAPIKey string
	client, _ := newTLSTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("X-API-Key")
		w.Write([]byte(`{}`))
	}), Options{Credentials: staticCredentials{token: "tok-1", apiKey: "ak_live_k"}})

	if err := client.Get(context.Background(), "/agent/v1/orders", nil, WithAPIKey()); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotAPIKey != "ak_live_k" {
		t.Fatalf("expected api key header, got %q", gotAPIKey)
	}
}

func TestClient_FailsFastWhenAPIKeyMissing(t *testing.T) {
	called := false
	client, _ := newTLSTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}), Options{Credentials: staticCredentials{token: "tok-1"}})

	err := client.Get(context.Background(), "/agent/v1/orders", nil, WithAPIKey())
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
	if called {
		t.Fatal("request must not be dispatched without the required api key")
	}
}

func TestClient_UnauthorizedHookRunsOncePer401(t *testing.T) {
	hookCalls := 0
	client, _ := newTLSTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"token expired"}`))
	}), Options{
		Credentials:    staticCredentials{token: "stale"},
		OnUnauthorized: func(ctx context.Context) { hookCalls++ },
	})

	err := client.Get(context.Background(), "/agent/metrics/summary", nil)
	if StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if DetailOf(err) != "token expired" {
		t.Fatalf("expected decoded detail, got %q", DetailOf(err))
	}
	if hookCalls != 1 {
		t.Fatalf("expected exactly one unauthorized hook call, got %d", hookCalls)
	}
}

func TestClient_Suppress401SkipsHook(t *testing.T) {
	hookCalls := 0
	client, _ := newTLSTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}), Options{
		Credentials:    staticCredentials{token: "stale"},
		OnUnauthorized: func(ctx context.Context) { hookCalls++ },
	})

	err := client.Post(context.Background(), "/agent/self/api-key/reset", nil, nil, Suppress401())
	if StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if hookCalls != 0 {
		t.Fatalf("expected suppressed hook, got %d calls", hookCalls)
	}
}

func TestClient_DecodesNonJSONErrorBody(t *testing.T) {
	client, _ := newTLSTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}), Options{})

	err := client.Get(context.Background(), "/agent/metrics/summary", nil)
	if StatusOf(err) != http.StatusBadGateway {
		t.Fatalf("expected 502 APIError, got %v", err)
	}
	if DetailOf(err) != "upstream exploded" {
		t.Fatalf("expected raw text detail, got %q", DetailOf(err))
	}
}

func TestClient_RetriesGETOnTransportFailure(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	serverClient := server.Client()
	server.Close() // every attempt now fails at the transport level

	client := NewClient(server.URL, Options{
		HTTPClient:    serverClient,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	})

	start := time.Now()
	err := client.Get(context.Background(), "/health", nil)
	if err == nil {
		t.Fatal("expected transport error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("transport failure must not surface as APIError, got %v", apiErr)
	}
	if elapsed := time.Since(start); elapsed < 2*time.Millisecond {
		t.Fatalf("expected retries with delay, finished in %v", elapsed)
	}
}

func TestClient_DoesNotRetryWrites(t *testing.T) {
	attempts := 0
	client, _ := newTLSTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail":"already refunded"}`))
	}), Options{RetryAttempts: 3, RetryDelay: time.Millisecond})

	err := client.Post(context.Background(), "/agent/v1/orders/o1/refund", nil, nil)
	if StatusOf(err) != http.StatusConflict {
		t.Fatalf("expected 409 APIError, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single write attempt, got %d", attempts)
	}
}
