/**
 * @description
 * This file contains the core application service for the agent portal: the
 * domain API facade. Each backend capability is exposed as one typed method. The
 * facade owns all degradation policy: authentication and destructive actions
 * propagate errors untouched, while read-only aggregate views recover locally by
 * substituting their canonical empty shape.
 *
 * @dependencies
 * - context, errors, fmt: Standard Go libraries.
 * - internal/domain, internal/session, pkg/backendclient: Internal packages.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/agentpay/agent-portal/internal/domain"
	"github.com/agentpay/agent-portal/internal/session"
	"github.com/agentpay/agent-portal/pkg/backendclient"
)

// ErrNotAuthenticated is returned when an operation needs a logged-in agent and
// the session store is empty.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrLoginRejected is returned when the backend answers a login without a
// usable token/agent pair.
var ErrLoginRejected = errors.New("login rejected by backend")

// Service is the domain API facade used by the portal handlers and the poller.
type Service struct {
	client   *backendclient.Client
	sessions session.Store

	// provisionMu serializes API-key provisioning so concurrent callers never
	// request duplicate keys.
	provisionMu sync.Mutex
}

// NewService creates the facade on top of the shared backend client and the
// session store.
func NewService(client *backendclient.Client, sessions session.Store) *Service {
	return &Service{client: client, sessions: sessions}
}

// logFallback records a read-aggregate failure that was recovered locally.
func logFallback(op string, err error) {
	log.Printf("level=warn component=facade op=%s msg=\"read failed; serving empty shape\" err=%v", op, err)
}

// SessionCredentials adapts a session store to the backend client's credential
// source, so the client reads the live token and API key on every request.
func SessionCredentials(store session.Store) backendclient.CredentialSource {
	return storeCredentials{store: store}
}

type storeCredentials struct {
	store session.Store
}

var _ backendclient.CredentialSource = storeCredentials{}

func (s storeCredentials) Credentials(ctx context.Context) (backendclient.Credentials, error) {
	sess, err := s.store.Get(ctx)
	if err != nil {
		return backendclient.Credentials{}, err
	}
	return backendclient.Credentials{Token: sess.Token, APIKey: sess.APIKey}, nil
}

// Login authenticates the agent and persists the session bundle atomically.
// Token, agent id, profile and the optional API key land in the store as one
// unit or not at all.
func (s *Service) Login(ctx context.Context, email, password string) (domain.LoginResponse, error) {
	payload := map[string]string{"email": email, "password": password}

	var resp domain.LoginResponse
	if err := s.client.Post(ctx, "/agent/account/login", payload, &resp, backendclient.Suppress401()); err != nil {
		return domain.LoginResponse{}, err
	}
	if !resp.Success || resp.Token == "" || resp.Agent == nil || resp.Agent.AgentID == "" {
		if resp.Detail != "" {
			return domain.LoginResponse{}, fmt.Errorf("%w: %s", ErrLoginRejected, resp.Detail)
		}
		return domain.LoginResponse{}, ErrLoginRejected
	}

	sess := domain.Session{
		Token:   resp.Token,
		AgentID: resp.Agent.AgentID,
		Profile: resp.Agent,
		APIKey:  resp.APIKey,
	}
	if err := s.sessions.Set(ctx, sess); err != nil {
		return domain.LoginResponse{}, fmt.Errorf("failed to persist session: %w", err)
	}

	log.Printf("level=info component=facade op=login agent_id=%s has_api_key=%t", sess.AgentID, sess.APIKey != "")
	return resp, nil
}

// Logout clears every session key in one operation. Safe to call when already
// logged out.
func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

// CurrentSession returns the stored credential bundle.
func (s *Service) CurrentSession(ctx context.Context) (domain.Session, error) {
	return s.sessions.Get(ctx)
}

// agentID returns the logged-in agent id or ErrNotAuthenticated.
func (s *Service) agentID(ctx context.Context) (string, error) {
	sess, err := s.sessions.Get(ctx)
	if err != nil {
		return "", err
	}
	if !sess.HasCredentials() {
		return "", ErrNotAuthenticated
	}
	return sess.AgentID, nil
}

// GetProfile returns the agent profile, preferring the backend's copy and
// falling back to the session cache when the backend is unreachable.
func (s *Service) GetProfile(ctx context.Context) (domain.AgentProfile, error) {
	sess, err := s.sessions.Get(ctx)
	if err != nil {
		return domain.AgentProfile{}, err
	}
	if !sess.HasCredentials() {
		return domain.AgentProfile{}, ErrNotAuthenticated
	}

	var resp struct {
		Status string               `json:"status"`
		Agent  *domain.AgentProfile `json:"agent"`
	}
	if err := s.client.Get(ctx, "/agent/self/profile", &resp); err != nil {
		// Only an unreachable backend falls back to the cached copy. An
		// HTTP-level answer (403, 404) is definitive and must propagate.
		if backendclient.StatusOf(err) == 0 && sess.Profile != nil {
			log.Printf("level=warn component=facade op=get_profile msg=\"backend unreachable; serving cached profile\" err=%v", err)
			return *sess.Profile, nil
		}
		return domain.AgentProfile{}, err
	}
	if resp.Agent == nil {
		return domain.AgentProfile{}, errors.New("backend returned no profile")
	}
	return *resp.Agent, nil
}

// UpdateProfile round-trips profile edits to the backend, then refreshes the
// cached copy. Errors propagate; the settings page owns user-facing display.
func (s *Service) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (domain.AgentProfile, error) {
	sess, err := s.sessions.Get(ctx)
	if err != nil {
		return domain.AgentProfile{}, err
	}
	if !sess.HasCredentials() {
		return domain.AgentProfile{}, ErrNotAuthenticated
	}

	var resp struct {
		Status string               `json:"status"`
		Agent  *domain.AgentProfile `json:"agent"`
	}
	if err := s.client.Put(ctx, "/agent/self/profile", update, &resp); err != nil {
		return domain.AgentProfile{}, err
	}

	updated := domain.AgentProfile{
		AgentID:    sess.AgentID,
		Name:       update.Name,
		Email:      update.Email,
		Company:    update.Company,
		WebhookURL: update.WebhookURL,
	}
	if resp.Agent != nil {
		updated = *resp.Agent
		if updated.AgentID == "" {
			updated.AgentID = sess.AgentID
		}
	}

	sess.Profile = &updated
	if err := s.sessions.Set(ctx, sess); err != nil {
		log.Printf("level=warn component=facade op=update_profile msg=\"profile saved but cache refresh failed\" err=%v", err)
	}
	return updated, nil
}
