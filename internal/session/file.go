package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/agentpay/agent-portal/internal/domain"
)

// FileStore keeps the session in memory and mirrors it to a JSON file so a
// restart does not log the agent out. The on-disk object uses the legacy
// storage key names (agent_token, agent_user, agent_id, agent_api_key).
type FileStore struct {
	path string

	mu      sync.RWMutex
	current domain.Session
}

// persistedSession is the on-disk format. agent_user holds the profile as a
// nested JSON string, matching what earlier builds wrote.
type persistedSession struct {
	Token   string `json:"agent_token,omitempty"`
	Profile string `json:"agent_user,omitempty"`
	AgentID string `json:"agent_id,omitempty"`
	APIKey  string `json:"agent_api_key,omitempty"`
}

// NewFileStore loads any existing session file at path. A missing or corrupt
// file yields an empty store; the portal just requires a fresh login.
func NewFileStore(path string) *FileStore {
	s := &FileStore{path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("level=warn component=session msg=\"session file unreadable; starting empty\" path=%s err=%v", path, err)
		}
		return s
	}

	var persisted persistedSession
	if err := json.Unmarshal(raw, &persisted); err != nil {
		log.Printf("level=warn component=session msg=\"session file corrupt; starting empty\" path=%s err=%v", path, err)
		return s
	}

	s.current = domain.Session{
		Token:   persisted.Token,
		AgentID: persisted.AgentID,
		APIKey:  persisted.APIKey,
	}
	if persisted.Profile != "" {
		var profile domain.AgentProfile
		if err := json.Unmarshal([]byte(persisted.Profile), &profile); err != nil {
			log.Printf("level=warn component=session msg=\"stored profile unreadable; dropping\" err=%v", err)
		} else {
			s.current.Profile = &profile
		}
	}
	return s
}

// Get returns a copy of the current session.
func (s *FileStore) Get(ctx context.Context) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

// Set replaces the whole session and persists it. The in-memory state only
// changes after the file write succeeds, so a failed persist never leaves a
// half-written bundle behind.
func (s *FileStore) Set(ctx context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(sess); err != nil {
		return err
	}
	s.current = sess
	return nil
}

// SetAPIKey updates only the provisioned API key, keeping the rest of the
// bundle intact. Fails when no session exists; a key without a token is useless.
func (s *FileStore) SetAPIKey(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Token == "" {
		return ErrNoSession
	}
	updated := s.current
	updated.APIKey = key
	if err := s.persist(updated); err != nil {
		return err
	}
	s.current = updated
	return nil
}

// Clear removes every session key in one operation. Idempotent.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = domain.Session{}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// persist writes the bundle atomically via a temp file and rename.
func (s *FileStore) persist(sess domain.Session) error {
	persisted := persistedSession{
		Token:   sess.Token,
		AgentID: sess.AgentID,
		APIKey:  sess.APIKey,
	}
	if sess.Profile != nil {
		profileJSON, err := json.Marshal(sess.Profile)
		if err != nil {
			return fmt.Errorf("failed to serialize profile: %w", err)
		}
		persisted.Profile = string(profileJSON)
	}

	raw, err := json.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".agent_session-*")
	if err != nil {
		return fmt.Errorf("failed to create session temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
