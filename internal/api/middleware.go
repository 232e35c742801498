/**
 * @description
 * Portal middleware. The portal holds one process-wide agent session, so the
 * auth middleware only has to check that a session exists and that its token
 * has not visibly expired; the backend remains the authority on validity.
 *
 * @dependencies
 * - net/http: Standard Go library.
 * - internal/session: Session store and the unverified token expiry peek.
 */
package api

import (
	"log"
	"net/http"

	"github.com/agentpay/agent-portal/internal/session"
)

// RequireSession rejects requests when no agent is logged in or the stored
// token has expired. An expired session is cleared before rejecting, so the
// next login starts from a clean store.
func RequireSession(store session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Get(r.Context())
			if err != nil {
				log.Printf("level=error component=api msg=\"session store unreadable\" err=%v", err)
				writeSessionExpired(w)
				return
			}
			if sess.Token == "" {
				writeSessionExpired(w)
				return
			}
			if session.TokenExpired(sess.Token) {
				log.Printf("level=info component=api agent_id=%s msg=\"stored token expired; clearing session\"", sess.AgentID)
				if err := store.Clear(r.Context()); err != nil {
					log.Printf("level=warn component=api msg=\"failed to clear expired session\" err=%v", err)
				}
				writeSessionExpired(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
