/**
 * @description
 * Agent-scoped backend capabilities: settlements, revenue, routing,
 * integration views, protocols and bank details. Paths are scoped by the
 * logged-in agent id. Most of these views are relayed verbatim to the UI, so
 * passthrough payloads stay as raw JSON; entities the portal actually inspects
 * get typed shapes in internal/domain.
 */
package app

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/agentpay/agent-portal/internal/domain"
	"github.com/agentpay/agent-portal/pkg/backendclient"
)

// GetAgentDetails returns the full agent record, including agent_type.
func (s *Service) GetAgentDetails(ctx context.Context) (json.RawMessage, error) {
	agentID, err := s.agentID(ctx)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	if err := s.client.Get(ctx, "/agents/"+agentID, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSettlements lists settlement records, optionally filtered by status.
func (s *Service) GetSettlements(ctx context.Context, status string) (domain.SettlementList, error) {
	agentID, err := s.agentID(ctx)
	if err != nil {
		return domain.SettlementList{}, err
	}

	opts := []backendclient.CallOption{}
	if status != "" {
		opts = append(opts, backendclient.WithQuery(url.Values{"status": {status}}))
	}
	var out domain.SettlementList
	if err := s.client.Get(ctx, "/agents/"+agentID+"/settlements", &out, opts...); err != nil {
		return domain.SettlementList{}, err
	}
	if out.Settlements == nil {
		out.Settlements = []domain.Settlement{}
	}
	return out, nil
}

// GetPendingSettlements lists settlements awaiting payout.
func (s *Service) GetPendingSettlements(ctx context.Context) (domain.SettlementList, error) {
	agentID, err := s.agentID(ctx)
	if err != nil {
		return domain.SettlementList{}, err
	}

	var out domain.SettlementList
	if err := s.client.Get(ctx, "/agents/"+agentID+"/settlements/pending", &out); err != nil {
		return domain.SettlementList{}, err
	}
	if out.Settlements == nil {
		out.Settlements = []domain.Settlement{}
	}
	return out, nil
}

// CalculateSettlement asks the backend to compute a settlement for the window.
func (s *Service) CalculateSettlement(ctx context.Context, days int) (json.RawMessage, error) {
	agentID, err := s.agentID(ctx)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}

	var out json.RawMessage
	query := url.Values{"days": {strconv.Itoa(days)}}
	if err := s.client.Post(ctx, "/agents/"+agentID+"/settlements/calculate", nil, &out, backendclient.WithQuery(query)); err != nil {
		return nil, err
	}
	return out, nil
}

// GetIntegrationOverview returns the integration overview panel data.
func (s *Service) GetIntegrationOverview(ctx context.Context) (json.RawMessage, error) {
	return s.agentScopedGet(ctx, "/integration/overview", nil)
}

// GetRoutingTrace returns routing decisions over the trailing window.
func (s *Service) GetRoutingTrace(ctx context.Context, days int) (json.RawMessage, error) {
	if days <= 0 {
		days = 30
	}
	return s.agentScopedGet(ctx, "/integration/routing-trace", url.Values{"days": {strconv.Itoa(days)}})
}

// GetRoutingHistory returns recent routing outcomes.
func (s *Service) GetRoutingHistory(ctx context.Context, days, limit int) (json.RawMessage, error) {
	if days <= 0 {
		days = 30
	}
	if limit <= 0 {
		limit = 10
	}
	query := url.Values{
		"days":  {strconv.Itoa(days)},
		"limit": {strconv.Itoa(limit)},
	}
	return s.agentScopedGet(ctx, "/routing/history", query)
}

// GetRevenueExpectations returns the configured commission expectations.
func (s *Service) GetRevenueExpectations(ctx context.Context) (domain.RevenueExpectations, error) {
	agentID, err := s.agentID(ctx)
	if err != nil {
		return domain.RevenueExpectations{}, err
	}
	var out domain.RevenueExpectations
	if err := s.client.Get(ctx, "/agents/"+agentID+"/revenue/expectations", &out); err != nil {
		return domain.RevenueExpectations{}, err
	}
	return out, nil
}

// SetRevenueExpectations updates the expected and minimum acceptable rates.
func (s *Service) SetRevenueExpectations(ctx context.Context, expectedRate, minRate float64) (domain.RevenueExpectations, error) {
	agentID, err := s.agentID(ctx)
	if err != nil {
		return domain.RevenueExpectations{}, err
	}

	query := url.Values{
		"expected_rate":       {formatRate(expectedRate)},
		"min_acceptable_rate": {formatRate(minRate)},
	}
	var out domain.RevenueExpectations
	if err := s.client.Put(ctx, "/agents/"+agentID+"/revenue/expectations", nil, &out, backendclient.WithQuery(query)); err != nil {
		return domain.RevenueExpectations{}, err
	}
	return out, nil
}

// GetRevenuePolicies returns the merchant commission policies visible to the
// agent.
func (s *Service) GetRevenuePolicies(ctx context.Context) (json.RawMessage, error) {
	return s.agentScopedGet(ctx, "/revenue/policies", nil)
}

// GetRevenueEarnings returns earnings over a trailing window in a currency.
func (s *Service) GetRevenueEarnings(ctx context.Context, days int, currency string) (json.RawMessage, error) {
	if days <= 0 {
		days = 30
	}
	if currency == "" {
		currency = "USD"
	}
	query := url.Values{
		"days":     {strconv.Itoa(days)},
		"currency": {currency},
	}
	return s.agentScopedGet(ctx, "/revenue/earnings", query)
}

// GetProtocols lists the agent's configured checkout protocols. The trailing
// slash matches backend routing exactly; without it the backend redirects to
// plain http.
func (s *Service) GetProtocols(ctx context.Context) (json.RawMessage, error) {
	return s.agentScopedGet(ctx, "/protocols/", nil)
}

// GetBankDetails returns the agent's bank record, degrading to an absent
// record on failure so the payout form renders empty instead of erroring.
func (s *Service) GetBankDetails(ctx context.Context) (*domain.BankDetails, error) {
	agentID, err := s.agentID(ctx)
	if err != nil {
		return nil, err
	}

	var resp struct {
		BankDetails *domain.BankDetails `json:"bank_details"`
	}
	if err := s.client.Get(ctx, "/agents/"+agentID+"/bank", &resp); err != nil {
		logFallback("get_bank_details", err)
		return nil, nil
	}
	return resp.BankDetails, nil
}

// UpdateBankDetails submits a full replacement bank record. Errors propagate;
// bank edits must never fail silently.
func (s *Service) UpdateBankDetails(ctx context.Context, details domain.BankDetails) (json.RawMessage, error) {
	agentID, err := s.agentID(ctx)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	if err := s.client.Put(ctx, "/agents/"+agentID+"/bank", details, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// agentScopedGet fetches a raw agent-scoped view.
func (s *Service) agentScopedGet(ctx context.Context, suffix string, query url.Values) (json.RawMessage, error) {
	agentID, err := s.agentID(ctx)
	if err != nil {
		return nil, err
	}

	opts := []backendclient.CallOption{}
	if len(query) > 0 {
		opts = append(opts, backendclient.WithQuery(query))
	}
	var out json.RawMessage
	if err := s.client.Get(ctx, "/agents/"+agentID+suffix, &out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}
