package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/agentpay/agent-portal/internal/domain"
	"github.com/agentpay/agent-portal/pkg/backendclient"
)

// memStore is an in-memory session store for tests. It counts full-bundle
// writes so atomicity checks can assert how often the session changed.
type memStore struct {
	mu      sync.Mutex
	current domain.Session
	setErr  error
	sets    int
	clears  int
}

func (m *memStore) Get(ctx context.Context) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, nil
}

func (m *memStore) Set(ctx context.Context, sess domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.current = sess
	m.sets++
	return nil
}

func (m *memStore) SetAPIKey(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.Token == "" {
		return errors.New("no session")
	}
	m.current.APIKey = key
	return nil
}

func (m *memStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Session{}
	m.clears++
	return nil
}

func (m *memStore) session() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// newTestService wires a facade against a TLS test backend, with the
// unauthorized hook clearing the store the way the portal wires it.
func newTestService(t *testing.T, handler http.Handler) (*Service, *memStore, *httptest.Server) {
	t.Helper()

	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	store := &memStore{}
	client := backendclient.NewClient(server.URL, backendclient.Options{
		HTTPClient:  server.Client(),
		Credentials: SessionCredentials(store),
		OnUnauthorized: func(ctx context.Context) {
			store.Clear(ctx)
		},
	})
	return NewService(client, store), store, server
}

func seedSession(store *memStore, apiKey string) {
	store.current = domain.Session{
		Token:   "token-123",
		AgentID: "agent-1",
		Profile: &domain.AgentProfile{AgentID: "agent-1", Name: "Test Agent", Email: "agent@example.com"},
		APIKey:  apiKey,
	}
}

func TestLogin_PersistsSessionAtomically(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agent/account/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"token": "tok-abc",
			"agent": {"agent_id": "agent-9", "name": "Nine", "email": "nine@example.com"},
			"api_key": "ak_live_` + strings.Repeat("ab", 32) + `"
		}`))
	})
	svc, store, _ := newTestService(t, handler)

	resp, err := svc.Login(context.Background(), "nine@example.com", "pw")
	if err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success response")
	}

	sess := store.session()
	if sess.Token != "tok-abc" {
		t.Errorf("expected token %q, got %q", "tok-abc", sess.Token)
	}
	if sess.AgentID != "agent-9" {
		t.Errorf("expected agent id %q, got %q", "agent-9", sess.AgentID)
	}
	if sess.Profile == nil || sess.Profile.Name != "Nine" {
		t.Errorf("expected stored profile, got %+v", sess.Profile)
	}
	if !ValidAPIKey(sess.APIKey) {
		t.Errorf("expected stored api key, got %q", sess.APIKey)
	}
	if store.sets != 1 {
		t.Errorf("expected exactly one session write, got %d", store.sets)
	}
}

func TestLogin_RejectedWritesNothing(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": false, "detail": "account disabled"}`))
	})
	svc, store, _ := newTestService(t, handler)

	_, err := svc.Login(context.Background(), "a@example.com", "pw")
	if !errors.Is(err, ErrLoginRejected) {
		t.Fatalf("expected ErrLoginRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "account disabled") {
		t.Errorf("expected backend detail in error, got %q", err)
	}
	if store.sets != 0 {
		t.Errorf("expected no session writes, got %d", store.sets)
	}
	if store.session().Token != "" {
		t.Errorf("expected empty session, got token %q", store.session().Token)
	}
}

func TestLogin_401DoesNotClearSession(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Invalid credentials"}`))
	})
	svc, store, _ := newTestService(t, handler)

	_, err := svc.Login(context.Background(), "a@example.com", "bad-pw")
	if backendclient.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 api error, got %v", err)
	}
	if backendclient.DetailOf(err) != "Invalid credentials" {
		t.Errorf("expected backend detail, got %q", backendclient.DetailOf(err))
	}
	// Login suppresses the unauthorized hook; a failed login attempt must not
	// wipe an existing session.
	if store.clears != 0 {
		t.Errorf("expected no session clears, got %d", store.clears)
	}
}

func TestLogin_PersistFailureSurfacesError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "token": "tok", "agent": {"agent_id": "agent-1"}}`))
	})
	svc, store, _ := newTestService(t, handler)
	store.setErr = errors.New("disk full")

	_, err := svc.Login(context.Background(), "a@example.com", "pw")
	if err == nil || !strings.Contains(err.Error(), "failed to persist session") {
		t.Fatalf("expected persist error, got %v", err)
	}
	if store.session().Token != "" {
		t.Errorf("expected session untouched on persist failure, got %+v", store.session())
	}
}

func TestUnauthorizedResponseClearsSession(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Token expired"}`))
	})
	svc, store, _ := newTestService(t, handler)
	seedSession(store, "")

	_, err := svc.GetAgentDetails(context.Background())
	if backendclient.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 api error, got %v", err)
	}
	if store.clears != 1 {
		t.Errorf("expected one session clear, got %d", store.clears)
	}
	if store.session().Token != "" {
		t.Errorf("expected cleared session, got token %q", store.session().Token)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	svc, store, _ := newTestService(t, http.NotFoundHandler())
	seedSession(store, "")

	for i := 0; i < 2; i++ {
		if err := svc.Logout(context.Background()); err != nil {
			t.Fatalf("logout %d: expected no error, got %v", i+1, err)
		}
	}
	if store.session().Token != "" {
		t.Errorf("expected empty session after logout, got token %q", store.session().Token)
	}
}

func TestGetProfile_FallsBackToCachedCopyWhenUnreachable(t *testing.T) {
	svc, store, server := newTestService(t, http.NotFoundHandler())
	seedSession(store, "")
	server.Close() // nothing is listening anymore

	profile, err := svc.GetProfile(context.Background())
	if err != nil {
		t.Fatalf("expected cached profile, got error %v", err)
	}
	if profile.Name != "Test Agent" {
		t.Errorf("expected cached profile name %q, got %q", "Test Agent", profile.Name)
	}
}

func TestGetProfile_PropagatesBackendError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail": "account suspended"}`))
	})
	svc, store, _ := newTestService(t, handler)
	seedSession(store, "")

	_, err := svc.GetProfile(context.Background())
	if backendclient.StatusOf(err) != http.StatusForbidden {
		t.Fatalf("expected 403 to propagate past the cache, got %v", err)
	}
	if backendclient.DetailOf(err) != "account suspended" {
		t.Errorf("expected backend detail, got %q", backendclient.DetailOf(err))
	}
}

func TestUpdateProfile_RefreshesSessionCache(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/agent/self/profile" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "success", "agent": {"agent_id": "agent-1", "name": "Renamed", "email": "agent@example.com"}}`))
	})
	svc, store, _ := newTestService(t, handler)
	seedSession(store, "")

	updated, err := svc.UpdateProfile(context.Background(), domain.ProfileUpdate{Name: "Renamed", Email: "agent@example.com"})
	if err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("expected updated name %q, got %q", "Renamed", updated.Name)
	}
	if store.session().Profile == nil || store.session().Profile.Name != "Renamed" {
		t.Errorf("expected refreshed cached profile, got %+v", store.session().Profile)
	}
}
