/**
 * @description
 * This package defines the data models used by the agent portal. Every entity here
 * is a fetched representation of backend state; the portal owns none of it except
 * the session credential bundle.
 */
package domain

// Storage key names for the persisted session bundle. These match the keys used by
// earlier portal builds, so an existing session file stays readable.
const (
	SessionKeyToken   = "agent_token"
	SessionKeyProfile = "agent_user"
	SessionKeyAgentID = "agent_id"
	SessionKeyAPIKey  = "agent_api_key"
)

// Session is the credential bundle gating all authenticated backend calls.
// Token, AgentID and Profile are written together on login; APIKey may be added
// later by the provisioning flow.
type Session struct {
	Token   string        `json:"token"`
	AgentID string        `json:"agent_id"`
	Profile *AgentProfile `json:"profile,omitempty"`
	APIKey  string        `json:"api_key,omitempty"`
}

// HasCredentials reports whether the session carries the fields required for an
// authenticated portal request.
func (s Session) HasCredentials() bool {
	return s.Token != "" && s.AgentID != ""
}
