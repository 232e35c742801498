/**
 * @description
 * This file sets up the HTTP router for the agent portal. It defines the
 * portal JSON API, the browser-facing proxy endpoints, and the middleware
 * stack shared by both.
 *
 * @dependencies
 * - net/http, time: Standard Go libraries.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS handling for the proxy routes.
 * - internal/session: Session store consulted by the auth middleware.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/agentpay/agent-portal/internal/session"
)

// PortalRoutes creates the router for the portal service.
func PortalRoutes(h *PortalHandlers, p *ProxyHandlers, sessions session.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Route("/portal", func(r chi.Router) {
		r.Post("/login", h.LoginHandler)
		r.Post("/logout", h.LogoutHandler)

		// Everything below needs a live session.
		r.Group(func(r chi.Router) {
			r.Use(RequireSession(sessions))

			r.Get("/dashboard", h.DashboardHandler)
			r.Get("/dashboard/snapshot", h.DashboardSnapshotHandler)

			r.Get("/orders", h.OrdersHandler)
			r.Post("/orders/{id}/refund", h.RefundOrderHandler)
			r.Post("/orders/{id}/cancel", h.CancelOrderHandler)
			r.Get("/orders/{id}/track", h.TrackOrderHandler)

			r.Get("/merchants", h.MerchantsHandler)
			r.Get("/agent", h.AgentHandler)

			r.Get("/settlements", h.SettlementsHandler)
			r.Get("/settlements/pending", h.PendingSettlementsHandler)
			r.Post("/settlements/calculate", h.CalculateSettlementHandler)

			r.Get("/revenue/expectations", h.RevenueExpectationsHandler)
			r.Put("/revenue/expectations", h.UpdateRevenueExpectationsHandler)
			r.Get("/revenue/policies", h.RevenuePoliciesHandler)
			r.Get("/revenue/earnings", h.RevenueEarningsHandler)

			r.Get("/integration/overview", h.IntegrationOverviewHandler)
			r.Get("/integration/status", h.IntegrationStatusHandler)
			r.Get("/integration/routing-trace", h.RoutingTraceHandler)
			r.Get("/routing/history", h.RoutingHistoryHandler)

			r.Get("/analytics/timeline", h.TimelineHandler)
			r.Get("/analytics/funnel", h.FunnelHandler)
			r.Get("/analytics/queries", h.QueryAnalyticsHandler)

			r.Get("/protocols", h.ProtocolsHandler)

			r.Get("/bank", h.BankDetailsHandler)
			r.Put("/bank", h.UpdateBankDetailsHandler)

			r.Get("/api-keys", h.APIKeysHandler)
			r.Post("/api-keys", h.CreateAPIKeyHandler)
			r.Delete("/api-keys/{id}", h.RevokeAPIKeyHandler)
			r.Post("/api-keys/reset", h.ResetAPIKeyHandler)

			r.Get("/profile", h.ProfileHandler)
			r.Put("/profile", h.UpdateProfileHandler)
		})
	})

	// Browser-facing proxy routes. These carry the caller's own bearer token
	// and bypass the portal session entirely.
	r.Route("/api", func(r chi.Router) {
		r.Get("/agent/protocols/{agentId}", p.AgentProtocolsHandler)
		r.Post("/stripe/connect", p.StripeConnectHandler)
		r.Get("/stripe/status/{agentId}", p.StripeStatusHandler)
	})

	return r
}
