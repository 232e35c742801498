package domain

// Order is the portal-facing order record. The backend returns monetary totals as
// decimal strings; the facade converts them to floats for display.
type Order struct {
	ID            string      `json:"id"`
	OrderNumber   string      `json:"order_number"`
	CustomerEmail string      `json:"customer_email"`
	TotalAmount   float64     `json:"total_amount"`
	Status        string      `json:"status"`
	CreatedAt     string      `json:"created_at"`
	MerchantID    string      `json:"merchant_id,omitempty"`
	Items         []OrderItem `json:"items,omitempty"`
}

// OrderItem is a single line item within an order.
type OrderItem struct {
	SKU      string  `json:"sku,omitempty"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderTracking is the fulfillment view of a single order.
type OrderTracking struct {
	OrderID           string          `json:"order_id"`
	FulfillmentStatus string          `json:"fulfillment_status"`
	TrackingNumber    string          `json:"tracking_number,omitempty"`
	Carrier           string          `json:"carrier,omitempty"`
	Timeline          []TrackingEvent `json:"timeline"`
}

// TrackingEvent is one step of an order's fulfillment timeline.
type TrackingEvent struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Note      string `json:"note,omitempty"`
}

// EmptyOrderTracking is the canonical fallback when tracking cannot be fetched.
// The order id is echoed back so the caller can still label the row.
func EmptyOrderTracking(orderID string) OrderTracking {
	return OrderTracking{
		OrderID:           orderID,
		FulfillmentStatus: "unknown",
		Timeline:          []TrackingEvent{},
	}
}
