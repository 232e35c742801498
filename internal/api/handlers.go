/**
 * @description
 * This file contains the HTTP handlers for the portal's JSON API. Handlers
 * parse incoming requests, call the domain facade, and write the response.
 * Degradation policy lives in the facade; handlers only translate between HTTP
 * and facade calls.
 *
 * @dependencies
 * - encoding/json, net/http, strconv: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain: Facade, poller and models.
 */
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/agentpay/agent-portal/internal/app"
	"github.com/agentpay/agent-portal/internal/domain"
	"github.com/agentpay/agent-portal/pkg/backendclient"
)

// PortalHandlers holds the facade and poller used by the portal routes.
type PortalHandlers struct {
	service *app.Service
	poller  *app.Poller
}

// NewPortalHandlers creates the portal handler set.
func NewPortalHandlers(service *app.Service, poller *app.Poller) *PortalHandlers {
	return &PortalHandlers{service: service, poller: poller}
}

// queryInt reads an integer query parameter, falling back on absence or junk.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// LoginHandler authenticates against the backend and establishes the session.
func (h *PortalHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	resp, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, app.ErrLoginRejected) {
			writeDetail(w, http.StatusUnauthorized, err.Error())
			return
		}
		// A rejected credential check is not an expired session; relay the
		// backend's answer verbatim instead of the login-redirect payload.
		if status := backendclient.StatusOf(err); status != 0 {
			writeDetail(w, status, backendclient.DetailOf(err))
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// LogoutHandler clears the session. Always succeeds.
func (h *PortalHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// dashboardResponse is the combined dashboard payload.
type dashboardResponse struct {
	app.DashboardSnapshot
	Profile *domain.AgentProfile `json:"profile,omitempty"`
}

// DashboardHandler loads every dashboard view concurrently. Individual view
// failures degrade inside the facade, so this endpoint never errors on a
// backend wobble.
func (h *PortalHandlers) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	snapshot := h.service.LoadDashboard(r.Context())

	resp := dashboardResponse{DashboardSnapshot: snapshot}
	if sess, err := h.service.CurrentSession(r.Context()); err == nil && sess.Profile != nil {
		resp.Profile = sess.Profile
	}
	writeJSON(w, http.StatusOK, resp)
}

// DashboardSnapshotHandler serves the poller's latest snapshot, falling back
// to a live load before the first tick has completed.
func (h *PortalHandlers) DashboardSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	if snapshot, ok := h.poller.Snapshot(); ok {
		writeJSON(w, http.StatusOK, snapshot)
		return
	}
	writeJSON(w, http.StatusOK, h.service.LoadDashboard(r.Context()))
}

// OrdersHandler lists the agent's orders.
func (h *PortalHandlers) OrdersHandler(w http.ResponseWriter, r *http.Request) {
	orders := h.service.GetOrders(r.Context(), queryInt(r, "limit", 100))
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// RefundOrderHandler triggers a refund for one order.
func (h *PortalHandlers) RefundOrderHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RefundOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CancelOrderHandler cancels a pending order.
func (h *PortalHandlers) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.CancelOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// TrackOrderHandler returns the fulfillment view for one order.
func (h *PortalHandlers) TrackOrderHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.TrackOrder(r.Context(), chi.URLParam(r, "id")))
}

// MerchantsHandler lists merchants connected to the agent.
func (h *PortalHandlers) MerchantsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.GetMerchantAuthorizations(r.Context()))
}

// AgentHandler returns the full agent record.
func (h *PortalHandlers) AgentHandler(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.GetAgentDetails(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// SettlementsHandler lists settlements, optionally filtered by status.
func (h *PortalHandlers) SettlementsHandler(w http.ResponseWriter, r *http.Request) {
	settlements, err := h.service.GetSettlements(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settlements)
}

// PendingSettlementsHandler lists settlements awaiting payout.
func (h *PortalHandlers) PendingSettlementsHandler(w http.ResponseWriter, r *http.Request) {
	settlements, err := h.service.GetPendingSettlements(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settlements)
}

// CalculateSettlementHandler asks the backend to compute a settlement.
func (h *PortalHandlers) CalculateSettlementHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.CalculateSettlement(r.Context(), queryInt(r, "days", 30))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RevenueExpectationsHandler returns the configured commission expectations.
func (h *PortalHandlers) RevenueExpectationsHandler(w http.ResponseWriter, r *http.Request) {
	expectations, err := h.service.GetRevenueExpectations(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expectations)
}

// UpdateRevenueExpectationsHandler updates the expected and minimum rates.
func (h *PortalHandlers) UpdateRevenueExpectationsHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExpectedRate      float64 `json:"expected_rate"`
		MinAcceptableRate float64 `json:"min_acceptable_rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	expectations, err := h.service.SetRevenueExpectations(r.Context(), req.ExpectedRate, req.MinAcceptableRate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expectations)
}

// RevenuePoliciesHandler returns merchant commission policies.
func (h *PortalHandlers) RevenuePoliciesHandler(w http.ResponseWriter, r *http.Request) {
	policies, err := h.service.GetRevenuePolicies(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, policies)
}

// RevenueEarningsHandler returns earnings for a trailing window.
func (h *PortalHandlers) RevenueEarningsHandler(w http.ResponseWriter, r *http.Request) {
	currency := r.URL.Query().Get("currency")
	earnings, err := h.service.GetRevenueEarnings(r.Context(), queryInt(r, "days", 30), currency)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, earnings)
}

// IntegrationOverviewHandler returns the integration overview panel data.
func (h *PortalHandlers) IntegrationOverviewHandler(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.GetIntegrationOverview(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// IntegrationStatusHandler returns the live integration health view.
func (h *PortalHandlers) IntegrationStatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.GetIntegrationStatus(r.Context()))
}

// RoutingTraceHandler returns routing decisions for the window.
func (h *PortalHandlers) RoutingTraceHandler(w http.ResponseWriter, r *http.Request) {
	trace, err := h.service.GetRoutingTrace(r.Context(), queryInt(r, "days", 30))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trace)
}

// RoutingHistoryHandler returns recent routing outcomes.
func (h *PortalHandlers) RoutingHistoryHandler(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.GetRoutingHistory(r.Context(), queryInt(r, "days", 30), queryInt(r, "limit", 10))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// ProtocolsHandler lists the agent's configured checkout protocols.
func (h *PortalHandlers) ProtocolsHandler(w http.ResponseWriter, r *http.Request) {
	protocols, err := h.service.GetProtocols(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, protocols)
}

// BankDetailsHandler returns the agent's bank record.
func (h *PortalHandlers) BankDetailsHandler(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.GetBankDetails(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bank_details": details})
}

// UpdateBankDetailsHandler replaces the agent's bank record.
func (h *PortalHandlers) UpdateBankDetailsHandler(w http.ResponseWriter, r *http.Request) {
	var details domain.BankDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.UpdateBankDetails(r.Context(), details)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// APIKeysHandler lists the agent's API keys.
func (h *PortalHandlers) APIKeysHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.GetAPIKeys(r.Context()))
}

// CreateAPIKeyHandler requests a new key from the backend.
func (h *PortalHandlers) CreateAPIKeyHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.CreateAPIKey(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// RevokeAPIKeyHandler revokes a key by id.
func (h *PortalHandlers) RevokeAPIKeyHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RevokeAPIKey(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

// ResetAPIKeyHandler rotates the primary key.
func (h *PortalHandlers) ResetAPIKeyHandler(w http.ResponseWriter, r *http.Request) {
	key, err := h.service.ResetAPIKey(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "new_api_key": key})
}

// ProfileHandler returns the agent profile.
func (h *PortalHandlers) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"agent": profile})
}

// UpdateProfileHandler round-trips profile edits to the backend.
func (h *PortalHandlers) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var update domain.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"agent": profile})
}

// TimelineHandler returns the hourly request timeline.
func (h *PortalHandlers) TimelineHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.GetAgentTimeline(r.Context(), queryInt(r, "hours", 24)))
}

// FunnelHandler returns the order conversion funnel.
func (h *PortalHandlers) FunnelHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.GetConversionFunnel(r.Context(), queryInt(r, "days", 7)))
}

// QueryAnalyticsHandler returns the query traffic breakdown.
func (h *PortalHandlers) QueryAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.GetQueryAnalytics(r.Context()))
}
