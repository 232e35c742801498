package domain

// AgentProfile is the agent account as returned by the login and profile
// endpoints. Read-only except for the profile-update round trip.
type AgentProfile struct {
	AgentID    string `json:"agent_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Company    string `json:"company,omitempty"`
	WebhookURL string `json:"webhook_url,omitempty"`
	AgentType  string `json:"agent_type,omitempty"`
	Status     string `json:"status,omitempty"`
}

// ProfileUpdate carries the editable profile fields submitted from the settings
// form. The backend owns validation and the authoritative copy.
type ProfileUpdate struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Company    string `json:"company"`
	WebhookURL string `json:"webhook_url"`
}

// LoginResponse is the backend's answer to a credential login.
type LoginResponse struct {
	Success bool          `json:"success"`
	Token   string        `json:"token"`
	Agent   *AgentProfile `json:"agent"`
	APIKey  string        `json:"api_key,omitempty"`
	Detail  string        `json:"detail,omitempty"`
}
