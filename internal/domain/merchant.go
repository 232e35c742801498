package domain

// Merchant is a read-only aggregate view of a merchant connected to the agent.
type Merchant struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email,omitempty"`
	Status         string  `json:"status"`
	GMV            float64 `json:"gmv"`
	OrderCount     int     `json:"order_count"`
	CommissionRate float64 `json:"commission_rate"`
	StoreURL       string  `json:"store_url,omitempty"`
	Region         string  `json:"region,omitempty"`
}

// MerchantList wraps the merchants collection as returned by the backend.
type MerchantList struct {
	Merchants []Merchant `json:"merchants"`
}

// EmptyMerchantList is the canonical fallback for the merchants view.
func EmptyMerchantList() MerchantList {
	return MerchantList{Merchants: []Merchant{}}
}
