/**
 * @description
 * Dashboard metrics shapes. Each "summary"-style record has one canonical empty
 * value so read-aggregate fallbacks are always structurally identical to a
 * successful response and rendering code never needs nil checks.
 */
package domain

// MetricsSummary is the dashboard headline view.
type MetricsSummary struct {
	Overview     MetricsOverview    `json:"overview"`
	Performance  MetricsPerformance `json:"performance"`
	Orders       MetricsOrders      `json:"orders"`
	Merchants    MetricsMerchants   `json:"merchants"`
	Agents       MetricsAgents      `json:"agents"`
	TopEndpoints []EndpointStat     `json:"top_endpoints"`
	Errors       []ErrorStat        `json:"errors"`
}

type MetricsOverview struct {
	TotalRequests    int64 `json:"total_requests"`
	RequestsLastHour int64 `json:"requests_last_hour"`
	RequestsLast24h  int64 `json:"requests_last_24h"`
	RequestsLast7d   int64 `json:"requests_last_7d"`
}

type MetricsPerformance struct {
	SuccessRate24h    float64 `json:"success_rate_24h"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}

type MetricsOrders struct {
	TotalOrders     int64   `json:"total_orders"`
	TotalPaidOrders int64   `json:"total_paid_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
	CountLast24h    int64   `json:"count_last_24h"`
	RevenueLast24h  float64 `json:"revenue_last_24h"`
	RevenueLast30d  float64 `json:"revenue_last_30d"`
}

type MetricsMerchants struct {
	TotalCount int64 `json:"total_count"`
}

type MetricsAgents struct {
	ActiveLast24h int64 `json:"active_last_24h"`
}

type EndpointStat struct {
	Endpoint string `json:"endpoint"`
	Count    int64  `json:"count"`
}

type ErrorStat struct {
	Status int   `json:"status"`
	Count  int64 `json:"count"`
}

// EmptyMetricsSummary is the canonical zero-valued summary.
func EmptyMetricsSummary() MetricsSummary {
	return MetricsSummary{
		TopEndpoints: []EndpointStat{},
		Errors:       []ErrorStat{},
	}
}

// Timeline is the hourly request timeline for the analytics page.
type Timeline struct {
	Timeline []TimelinePoint `json:"timeline"`
}

type TimelinePoint struct {
	Hour     string `json:"hour"`
	Requests int64  `json:"requests"`
	Orders   int64  `json:"orders"`
}

// EmptyTimeline is the canonical empty timeline.
func EmptyTimeline() Timeline {
	return Timeline{Timeline: []TimelinePoint{}}
}

// RecentActivity is the latest-events feed shown on the dashboard.
type RecentActivity struct {
	Activities []Activity `json:"activities"`
	Total      int        `json:"total"`
	Limit      int        `json:"limit"`
}

type Activity struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// EmptyRecentActivity is the canonical empty feed for the given page size.
func EmptyRecentActivity(limit int) RecentActivity {
	return RecentActivity{Activities: []Activity{}, Limit: limit}
}

// ConversionFunnel is the order conversion funnel over a trailing window.
type ConversionFunnel struct {
	OrdersInitiated  int64   `json:"orders_initiated"`
	PaymentAttempted int64   `json:"payment_attempted"`
	OrdersCompleted  int64   `json:"orders_completed"`
	ConversionRate   float64 `json:"conversion_rate"`
	Days             int     `json:"days"`
}

// EmptyConversionFunnel is the canonical zero funnel for the given window.
func EmptyConversionFunnel(days int) ConversionFunnel {
	return ConversionFunnel{Days: days}
}

// QueryAnalytics summarizes agent query traffic by category.
type QueryAnalytics struct {
	ProductSearches       int64   `json:"product_searches"`
	ProductSearchesTrend  string  `json:"product_searches_trend"`
	ProductSearchesChange float64 `json:"product_searches_change"`
	InventoryChecks       int64   `json:"inventory_checks"`
	InventoryChecksTrend  string  `json:"inventory_checks_trend"`
	InventoryChecksChange float64 `json:"inventory_checks_change"`
	PriceQueries          int64   `json:"price_queries"`
	PriceQueriesTrend     string  `json:"price_queries_trend"`
	PriceQueriesChange    float64 `json:"price_queries_change"`
}

// EmptyQueryAnalytics is the canonical zero analytics record. Trends default to
// "stable" so the UI renders a neutral indicator rather than a gap.
func EmptyQueryAnalytics() QueryAnalytics {
	return QueryAnalytics{
		ProductSearchesTrend: "stable",
		InventoryChecksTrend: "stable",
		PriceQueriesTrend:    "stable",
	}
}

// IntegrationStatus is the live health view of the agent's integration.
type IntegrationStatus struct {
	APIConnected       bool   `json:"api_connected"`
	ConnectedMerchants int    `json:"connected_merchants"`
	ActiveProtocols    int    `json:"active_protocols"`
	LastAPICall        string `json:"last_api_call,omitempty"`
	LastSync           string `json:"last_sync,omitempty"`
}

// EmptyIntegrationStatus is the canonical disconnected status. Earlier builds
// substituted hardcoded non-zero values here; the zero shape is authoritative.
func EmptyIntegrationStatus() IntegrationStatus {
	return IntegrationStatus{}
}
