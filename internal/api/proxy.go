/**
 * @description
 * Server-side proxy endpoints consumed directly by the browser. These routes
 * relay a request to the backend while keeping credentials and the backend
 * host out of client code: the browser talks to the portal origin only. The
 * proxy forwards the caller's Authorization header untouched and never applies
 * the portal's own session handling, so a backend 401 here cannot log the
 * portal agent out.
 *
 * @dependencies
 * - encoding/json, io, net/http, strings: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - pkg/backendclient: The shared outbound client's Forward relay.
 */
package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agentpay/agent-portal/pkg/backendclient"
)

// ProxyHandlers relays browser requests to the backend.
type ProxyHandlers struct {
	client *backendclient.Client
}

// NewProxyHandlers creates the proxy handler set on the shared client.
func NewProxyHandlers(client *backendclient.Client) *ProxyHandlers {
	return &ProxyHandlers{client: client}
}

// AgentProtocolsHandler relays a protocols lookup for one agent. Auth is
// forwarded as-is; the backend decides whether the caller may see protocols.
func (p *ProxyHandlers) AgentProtocolsHandler(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")
	if agentID == "" {
		writeDetail(w, http.StatusBadRequest, "Agent ID is required")
		return
	}

	overrides := map[int]string{
		http.StatusForbidden: "Access denied. Please login to view protocols.",
		http.StatusNotFound:  "Agent not found or no protocols configured.",
	}
	p.relay(w, r, http.MethodGet, "/agents/"+agentID+"/protocols/", overrides)
}

// StripeConnectHandler relays a Stripe onboarding request. The backend call is
// authenticated with the caller's bearer token, so a missing header is
// rejected before anything is forwarded.
func (p *ProxyHandlers) StripeConnectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		writeDetail(w, http.StatusUnauthorized, "Missing authorization")
		return
	}
	p.relay(w, r, http.MethodPost, "/stripe-connect/onboard", nil)
}

// StripeStatusHandler relays a Stripe onboarding status lookup.
func (p *ProxyHandlers) StripeStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		writeDetail(w, http.StatusUnauthorized, "Missing authorization")
		return
	}
	p.relay(w, r, http.MethodGet, "/stripe-connect/status/"+chi.URLParam(r, "agentId"), nil)
}

// relay forwards the request and translates the backend's answer. Non-2xx
// responses come back as `{"detail": ...}` with the backend's status, with
// per-status overrides applied; success bodies pass through as JSON, wrapping
// plain text so the browser always receives a JSON object.
func (p *ProxyHandlers) relay(w http.ResponseWriter, r *http.Request, method, path string, overrides map[int]string) {
	resp, err := p.client.Forward(r.Context(), method, path, r.Header, r.Body)
	if err != nil {
		log.Printf("level=error component=proxy path=%s msg=\"backend unreachable\" err=%v", path, err)
		writeDetail(w, http.StatusBadGateway, err.Error())
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		writeDetail(w, http.StatusBadGateway, "failed to read backend response")
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := proxyErrorDetail(resp.Header.Get("Content-Type"), body, resp.Status)
		if override, ok := overrides[resp.StatusCode]; ok {
			detail = override
		}
		log.Printf("level=warn component=proxy path=%s status=%d detail=%q", path, resp.StatusCode, detail)
		writeDetail(w, resp.StatusCode, detail)
		return
	}

	if looksLikeJSON(resp.Header.Get("Content-Type"), body) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		w.Write(body)
		return
	}
	writeJSON(w, resp.StatusCode, map[string]string{"message": strings.TrimSpace(string(body))})
}

func proxyErrorDetail(contentType string, body []byte, fallback string) string {
	text := strings.TrimSpace(string(body))
	if looksLikeJSON(contentType, body) {
		var decoded struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &decoded); err == nil && decoded.Detail != "" {
			return decoded.Detail
		}
	}
	if text != "" {
		return text
	}
	return fallback
}

func looksLikeJSON(contentType string, body []byte) bool {
	if strings.Contains(contentType, "application/json") {
		return true
	}
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}
