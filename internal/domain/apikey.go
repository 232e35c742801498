package domain

// APIKey is an agent API key record. Creation and revocation are
// backend-authoritative; the portal never generates key material.
type APIKey struct {
	ID         string `json:"id"`
	Key        string `json:"key"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	LastUsed   string `json:"last_used,omitempty"`
	UsageCount int    `json:"usage_count"`
}

// APIKeyList wraps the agent's key collection.
type APIKeyList struct {
	Status string   `json:"status"`
	Keys   []APIKey `json:"keys"`
}

// EmptyAPIKeyList is the canonical fallback for the key management view.
func EmptyAPIKeyList() APIKeyList {
	return APIKeyList{Status: "success", Keys: []APIKey{}}
}
