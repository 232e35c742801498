package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/agentpay/agent-portal/internal/domain"
)

// RedisStore keeps the session bundle in Redis under the legacy key names,
// namespaced by a prefix. Useful when the portal runs more than one replica
// behind a load balancer.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "agent_portal:session"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	return &RedisStore{
		client: client,
		prefix: trimmedPrefix,
	}
}

func (s *RedisStore) key(name string) string {
	return fmt.Sprintf("%s:%s", s.prefix, name)
}

func (s *RedisStore) keys() []string {
	return []string{
		s.key(domain.SessionKeyToken),
		s.key(domain.SessionKeyProfile),
		s.key(domain.SessionKeyAgentID),
		s.key(domain.SessionKeyAPIKey),
	}
}

// Get reads the bundle with a single MGET.
func (s *RedisStore) Get(ctx context.Context) (domain.Session, error) {
	values, err := s.client.MGet(ctx, s.keys()...).Result()
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to read session from redis: %w", err)
	}

	sess := domain.Session{
		Token:   stringValue(values[0]),
		AgentID: stringValue(values[2]),
		APIKey:  stringValue(values[3]),
	}
	if profileJSON := stringValue(values[1]); profileJSON != "" {
		var profile domain.AgentProfile
		if err := json.Unmarshal([]byte(profileJSON), &profile); err != nil {
			log.Printf("level=warn component=session msg=\"stored profile unreadable; dropping\" err=%v", err)
		} else {
			sess.Profile = &profile
		}
	}
	return sess, nil
}

// Set writes the whole bundle with a single MSET so a reader never observes a
// partial login.
func (s *RedisStore) Set(ctx context.Context, sess domain.Session) error {
	profileJSON := ""
	if sess.Profile != nil {
		raw, err := json.Marshal(sess.Profile)
		if err != nil {
			return fmt.Errorf("failed to serialize profile: %w", err)
		}
		profileJSON = string(raw)
	}

	err := s.client.MSet(ctx,
		s.key(domain.SessionKeyToken), sess.Token,
		s.key(domain.SessionKeyProfile), profileJSON,
		s.key(domain.SessionKeyAgentID), sess.AgentID,
		s.key(domain.SessionKeyAPIKey), sess.APIKey,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to write session to redis: %w", err)
	}
	return nil
}

// SetAPIKey updates only the provisioned API key.
func (s *RedisStore) SetAPIKey(ctx context.Context, key string) error {
	token, err := s.client.Get(ctx, s.key(domain.SessionKeyToken)).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read session from redis: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return ErrNoSession
	}

	if err := s.client.Set(ctx, s.key(domain.SessionKeyAPIKey), key, 0).Err(); err != nil {
		return fmt.Errorf("failed to write api key to redis: %w", err)
	}
	return nil
}

// Clear deletes every session key in one DEL. Idempotent.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.keys()...).Err(); err != nil {
		return fmt.Errorf("failed to clear session in redis: %w", err)
	}
	return nil
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}
