/**
 * @description
 * Shared response helpers for the portal and proxy handlers. All error bodies
 * use the backend's `{"detail": ...}` convention so the UI reads one shape
 * regardless of which layer produced the error.
 */
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/agentpay/agent-portal/internal/app"
	"github.com/agentpay/agent-portal/pkg/backendclient"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeDetail writes a backend-shaped error body.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeSessionExpired is the single canonical unauthenticated response. The
// redirect hint tells the UI where to send the user.
func writeSessionExpired(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"detail":   "Session expired. Please login.",
		"redirect": "/login",
	})
}

// writeServiceError maps a facade error onto the portal response. Backend
// errors relay their status and detail verbatim; transport failures surface as
// a bad gateway.
func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, app.ErrNotAuthenticated) {
		writeSessionExpired(w)
		return
	}
	if status := backendclient.StatusOf(err); status != 0 {
		// A backend 401 means the session was just invalidated by the
		// client's unauthorized hook; the UI must be sent back to login.
		if status == http.StatusUnauthorized {
			writeSessionExpired(w)
			return
		}
		writeDetail(w, status, backendclient.DetailOf(err))
		return
	}
	log.Printf("level=error component=api msg=\"backend unreachable\" err=%v", err)
	writeDetail(w, http.StatusBadGateway, err.Error())
}
