/**
 * @description
 * This package owns the agent credential state. It is the single process-wide
 * place that holds the bearer token, agent id, cached profile and secondary API
 * key. The store is populated atomically on login, consulted by every outbound
 * request, and destroyed by logout or automatic 401 handling.
 *
 * Two backends are provided: a file-backed store for single-node deployments and
 * a Redis-backed store for deployments that already run Redis. Both persist the
 * same four key names used by earlier portal builds, so existing sessions remain
 * readable.
 */
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agentpay/agent-portal/internal/domain"
)

// ErrNoSession is returned by operations that need a logged-in agent.
var ErrNoSession = errors.New("no active session")

// Store is the credential store consulted by the HTTP client and the facade.
// Set writes the whole bundle as one unit; partial updates are not permitted
// except for SetAPIKey, the documented provisioning write.
type Store interface {
	Get(ctx context.Context) (domain.Session, error)
	Set(ctx context.Context, s domain.Session) error
	SetAPIKey(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// TokenExpired reports whether a bearer token is a JWT whose exp claim has
// passed. The signature is deliberately not verified; the backend owns token
// validation and the portal only uses this to skip requests that are certain to
// come back 401. Opaque (non-JWT) tokens are never considered expired locally.
func TokenExpired(token string) bool {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" || strings.Count(trimmed, ".") != 2 {
		return false
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(trimmed, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
