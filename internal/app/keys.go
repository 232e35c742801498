/**
 * @description
 * API-key management. Key material is backend-authoritative: the portal never
 * generates keys itself, it only lists, creates, revokes and resets them.
 */
package app

import (
	"context"
	"errors"
	"log"

	"github.com/agentpay/agent-portal/internal/domain"
)

// GetAPIKeys returns the agent's key collection. The self-service endpoint
// exposes a single primary key; failures degrade to an empty list.
func (s *Service) GetAPIKeys(ctx context.Context) domain.APIKeyList {
	var resp struct {
		Status     string `json:"status"`
		APIKey     string `json:"api_key"`
		Name       string `json:"name"`
		CreatedAt  string `json:"created_at"`
		LastActive string `json:"last_active"`
		UsageCount int    `json:"usage_count"`
	}
	if err := s.client.Get(ctx, "/agent/self/api-key", &resp); err != nil {
		logFallback("get_api_keys", err)
		return domain.EmptyAPIKeyList()
	}
	if resp.Status != "success" || resp.APIKey == "" {
		return domain.EmptyAPIKeyList()
	}

	name := resp.Name
	if name == "" {
		name = "Primary API Key"
	}
	return domain.APIKeyList{
		Status: "success",
		Keys: []domain.APIKey{{
			ID:         "primary",
			Key:        resp.APIKey,
			Name:       name,
			Status:     "active",
			CreatedAt:  resp.CreatedAt,
			LastUsed:   resp.LastActive,
			UsageCount: resp.UsageCount,
		}},
	}
}

// CreateAPIKeyResult is the backend's answer to a key creation.
type CreateAPIKeyResult struct {
	Status    string `json:"status"`
	KeyID     string `json:"key_id"`
	Key       string `json:"key"`
	CreatedAt string `json:"created_at"`
}

// CreateAPIKey requests a new key from the backend. Errors propagate.
func (s *Service) CreateAPIKey(ctx context.Context) (CreateAPIKeyResult, error) {
	var out CreateAPIKeyResult
	if err := s.client.Post(ctx, "/agent/self/api-key", nil, &out); err != nil {
		return CreateAPIKeyResult{}, err
	}
	return out, nil
}

// RevokeAPIKey revokes a key by id. Errors propagate.
func (s *Service) RevokeAPIKey(ctx context.Context, keyID string) error {
	return s.client.Delete(ctx, "/agent/self/api-key/"+keyID, nil)
}

// ResetAPIKey rotates the primary key and persists the replacement into the
// session so subsequent Agent v1 calls pick it up immediately.
func (s *Service) ResetAPIKey(ctx context.Context) (string, error) {
	var resp struct {
		Status    string `json:"status"`
		NewAPIKey string `json:"new_api_key"`
	}
	if err := s.client.Post(ctx, "/agent/self/api-key/reset", nil, &resp); err != nil {
		return "", err
	}
	if resp.NewAPIKey == "" {
		return "", errors.New("backend returned no replacement key")
	}

	if err := s.sessions.SetAPIKey(ctx, resp.NewAPIKey); err != nil {
		log.Printf("level=warn component=facade op=reset_api_key msg=\"key rotated but session update failed\" err=%v", err)
	}
	return resp.NewAPIKey, nil
}
