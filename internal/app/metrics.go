/**
 * @description
 * Read-only aggregate views for the dashboard and analytics pages. Every method
 * here follows the degrade-to-empty contract: on any failure it logs and
 * returns the canonical empty shape for its view, so a dashboard renders zeros
 * instead of crashing, and partial failure of one concurrent read never fails
 * the others.
 */
package app

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/agentpay/agent-portal/internal/domain"
	"github.com/agentpay/agent-portal/pkg/backendclient"
)

// GetMetricsSummary returns the dashboard headline metrics.
func (s *Service) GetMetricsSummary(ctx context.Context) domain.MetricsSummary {
	var out domain.MetricsSummary
	if err := s.client.Get(ctx, "/agent/metrics/summary", &out); err != nil {
		logFallback("get_metrics_summary", err)
		return domain.EmptyMetricsSummary()
	}
	if out.TopEndpoints == nil {
		out.TopEndpoints = []domain.EndpointStat{}
	}
	if out.Errors == nil {
		out.Errors = []domain.ErrorStat{}
	}
	return out
}

// GetAgentTimeline returns the hourly request timeline for the trailing window.
func (s *Service) GetAgentTimeline(ctx context.Context, hours int) domain.Timeline {
	if hours <= 0 {
		hours = 24
	}
	query := url.Values{"hours": {strconv.Itoa(hours)}}

	var out domain.Timeline
	if err := s.client.Get(ctx, "/agent/metrics/timeline", &out, backendclient.WithQuery(query)); err != nil {
		logFallback("get_agent_timeline", err)
		return domain.EmptyTimeline()
	}
	if out.Timeline == nil {
		out.Timeline = []domain.TimelinePoint{}
	}
	return out
}

// GetRecentActivity returns the latest activity feed entries.
func (s *Service) GetRecentActivity(ctx context.Context, limit int) domain.RecentActivity {
	if limit <= 0 {
		limit = 5
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}

	var out domain.RecentActivity
	if err := s.client.Get(ctx, "/agent/metrics/recent", &out, backendclient.WithQuery(query)); err != nil {
		logFallback("get_recent_activity", err)
		return domain.EmptyRecentActivity(limit)
	}
	if out.Activities == nil {
		out.Activities = []domain.Activity{}
	}
	if out.Limit == 0 {
		out.Limit = limit
	}
	return out
}

// GetConversionFunnel returns the order conversion funnel for the window.
func (s *Service) GetConversionFunnel(ctx context.Context, days int) domain.ConversionFunnel {
	if days <= 0 {
		days = 7
	}
	query := url.Values{"days": {strconv.Itoa(days)}}

	var out domain.ConversionFunnel
	if err := s.client.Get(ctx, "/agent/v1/analytics/funnel", &out, backendclient.WithQuery(query)); err != nil {
		logFallback("get_conversion_funnel", err)
		return domain.EmptyConversionFunnel(days)
	}
	if out.Days == 0 {
		out.Days = days
	}
	return out
}

// GetQueryAnalytics returns the query traffic breakdown.
func (s *Service) GetQueryAnalytics(ctx context.Context) domain.QueryAnalytics {
	var out domain.QueryAnalytics
	if err := s.client.Get(ctx, "/agent/v1/analytics/queries", &out); err != nil {
		logFallback("get_query_analytics", err)
		return domain.EmptyQueryAnalytics()
	}
	return out
}

// GetMerchantAuthorizations returns the merchants connected to this agent.
func (s *Service) GetMerchantAuthorizations(ctx context.Context) domain.MerchantList {
	agentID, err := s.agentID(ctx)
	if err != nil {
		logFallback("get_merchants", err)
		return domain.EmptyMerchantList()
	}

	var out domain.MerchantList
	if err := s.client.Get(ctx, "/agents/"+agentID+"/merchants", &out); err != nil {
		logFallback("get_merchants", err)
		return domain.EmptyMerchantList()
	}
	if out.Merchants == nil {
		out.Merchants = []domain.Merchant{}
	}
	return out
}

// GetIntegrationStatus returns the live integration health view. On failure the
// canonical disconnected shape is returned; earlier builds substituted
// hardcoded non-zero values here, which hid real outages.
func (s *Service) GetIntegrationStatus(ctx context.Context) domain.IntegrationStatus {
	agentID, err := s.agentID(ctx)
	if err != nil {
		logFallback("get_integration_status", err)
		return domain.EmptyIntegrationStatus()
	}

	var out domain.IntegrationStatus
	if err := s.client.Get(ctx, "/agents/"+agentID+"/integration-status", &out); err != nil {
		logFallback("get_integration_status", err)
		return domain.EmptyIntegrationStatus()
	}
	return out
}

// DashboardSnapshot bundles the dashboard's concurrent read-only views. Every
// field is always structurally complete; failed branches carry their empty
// shape.
type DashboardSnapshot struct {
	Summary     domain.MetricsSummary   `json:"summary"`
	Merchants   domain.MerchantList     `json:"merchants"`
	Recent      domain.RecentActivity   `json:"recent_activity"`
	Funnel      domain.ConversionFunnel `json:"conversion_funnel"`
	Queries     domain.QueryAnalytics   `json:"query_analytics"`
	RefreshedAt time.Time               `json:"refreshed_at"`
}

// LoadDashboard issues the dashboard's reads concurrently and joins them
// all-settled: each branch applies its own fallback, so one failing view never
// blanks the rest.
func (s *Service) LoadDashboard(ctx context.Context) DashboardSnapshot {
	snapshot := DashboardSnapshot{}

	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		defer wg.Done()
		snapshot.Summary = s.GetMetricsSummary(ctx)
	}()
	go func() {
		defer wg.Done()
		snapshot.Merchants = s.GetMerchantAuthorizations(ctx)
	}()
	go func() {
		defer wg.Done()
		snapshot.Recent = s.GetRecentActivity(ctx, 5)
	}()
	go func() {
		defer wg.Done()
		snapshot.Funnel = s.GetConversionFunnel(ctx, 7)
	}()
	go func() {
		defer wg.Done()
		snapshot.Queries = s.GetQueryAnalytics(ctx)
	}()
	wg.Wait()

	snapshot.RefreshedAt = time.Now().UTC()
	return snapshot
}
