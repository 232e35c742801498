/**
 * @description
 * Order operations on the Agent v1 surface. These endpoints require the
 * secondary API key in addition to the bearer token, so every method funnels
 * through ensureAPIKey first: a missing or malformed stored key triggers
 * exactly one provisioning round trip before the call proceeds.
 */
package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"regexp"
	"strconv"

	"github.com/agentpay/agent-portal/internal/domain"
	"github.com/agentpay/agent-portal/pkg/backendclient"
)

// apiKeyPattern is the only key shape the backend issues: a fixed prefix
// followed by 64 hex characters.
var apiKeyPattern = regexp.MustCompile(`^ak_live_[0-9a-f]{64}$`)

// ValidAPIKey reports whether key matches the issued-key format.
func ValidAPIKey(key string) bool {
	return apiKeyPattern.MatchString(key)
}

// ensureAPIKey guarantees a well-formed API key is present in the session
// before an Agent v1 call. The format check is the idempotency guard: a valid
// stored key short-circuits, so repeated calls within a session never provision
// duplicates. The provisioning request suppresses 401 handling because being
// kicked to the login page mid-provision would strand the agent.
func (s *Service) ensureAPIKey(ctx context.Context) error {
	s.provisionMu.Lock()
	defer s.provisionMu.Unlock()

	sess, err := s.sessions.Get(ctx)
	if err != nil {
		return err
	}
	if !sess.HasCredentials() {
		return ErrNotAuthenticated
	}
	if ValidAPIKey(sess.APIKey) {
		return nil
	}

	var resp struct {
		Status    string `json:"status"`
		NewAPIKey string `json:"new_api_key"`
	}
	if err := s.client.Post(ctx, "/agent/self/api-key/reset", nil, &resp, backendclient.Suppress401()); err != nil {
		return err
	}
	if !ValidAPIKey(resp.NewAPIKey) {
		return errors.New("backend issued a malformed api key")
	}
	if err := s.sessions.SetAPIKey(ctx, resp.NewAPIKey); err != nil {
		return err
	}

	log.Printf("level=info component=facade op=ensure_api_key agent_id=%s msg=\"provisioned new api key\"", sess.AgentID)
	return nil
}

// backendOrder is the wire shape of an Agent v1 order. Totals arrive as
// decimal strings.
type backendOrder struct {
	OrderID       string             `json:"order_id"`
	CustomerEmail string             `json:"customer_email"`
	Total         string             `json:"total"`
	Status        string             `json:"status"`
	CreatedAt     string             `json:"created_at"`
	MerchantID    string             `json:"merchant_id"`
	Items         []domain.OrderItem `json:"items"`
}

func (o backendOrder) toDomain() domain.Order {
	total, err := strconv.ParseFloat(o.Total, 64)
	if err != nil && o.Total != "" {
		log.Printf("level=warn component=facade op=get_orders order_id=%s msg=\"unparsable order total\" total=%q", o.OrderID, o.Total)
	}
	return domain.Order{
		ID:            o.OrderID,
		OrderNumber:   o.OrderID,
		CustomerEmail: o.CustomerEmail,
		TotalAmount:   total,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		MerchantID:    o.MerchantID,
		Items:         o.Items,
	}
}

// GetOrders lists the agent's orders. Read-only view: failures degrade to an
// empty list.
func (s *Service) GetOrders(ctx context.Context, limit int) []domain.Order {
	if limit <= 0 {
		limit = 100
	}
	if err := s.ensureAPIKey(ctx); err != nil {
		logFallback("get_orders", err)
		return []domain.Order{}
	}

	query := url.Values{"limit": {strconv.Itoa(limit)}}
	var resp struct {
		Orders []backendOrder `json:"orders"`
	}
	if err := s.client.Get(ctx, "/agent/v1/orders", &resp, backendclient.WithAPIKey(), backendclient.WithQuery(query)); err != nil {
		logFallback("get_orders", err)
		return []domain.Order{}
	}

	orders := make([]domain.Order, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		orders = append(orders, o.toDomain())
	}
	return orders
}

// RefundOrder triggers a refund. Destructive: errors propagate untouched so
// the page can show the backend's message.
func (s *Service) RefundOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	if err := s.ensureAPIKey(ctx); err != nil {
		return nil, err
	}
	var out json.RawMessage
	if err := s.client.Post(ctx, "/agent/v1/orders/"+orderID+"/refund", struct{}{}, &out, backendclient.WithAPIKey()); err != nil {
		return nil, err
	}
	return out, nil
}

// CancelOrder cancels a pending order. Destructive: errors propagate.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	if err := s.ensureAPIKey(ctx); err != nil {
		return nil, err
	}
	var out json.RawMessage
	if err := s.client.Post(ctx, "/agent/v1/orders/"+orderID+"/cancel", struct{}{}, &out, backendclient.WithAPIKey()); err != nil {
		return nil, err
	}
	return out, nil
}

// TrackOrder returns the fulfillment view for one order, degrading to the
// canonical unknown-status shape on failure.
func (s *Service) TrackOrder(ctx context.Context, orderID string) domain.OrderTracking {
	if err := s.ensureAPIKey(ctx); err != nil {
		logFallback("track_order", err)
		return domain.EmptyOrderTracking(orderID)
	}

	var out domain.OrderTracking
	if err := s.client.Get(ctx, "/agent/v1/orders/"+orderID+"/track", &out, backendclient.WithAPIKey()); err != nil {
		logFallback("track_order", err)
		return domain.EmptyOrderTracking(orderID)
	}
	if out.OrderID == "" {
		out.OrderID = orderID
	}
	if out.Timeline == nil {
		out.Timeline = []domain.TrackingEvent{}
	}
	return out
}
