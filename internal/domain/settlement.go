package domain

// Settlement is a payout record for the agent. Status is one of pending,
// uploaded or paid.
type Settlement struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"`
	PeriodStart string  `json:"period_start,omitempty"`
	PeriodEnd   string  `json:"period_end,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// BankDetails is the single bank-account record held per agent. Account numbers
// come back masked from the backend; edits submit a full replacement object.
type BankDetails struct {
	Method              string `json:"method"`
	AccountHolderName   string `json:"account_holder_name"`
	AccountNumber       string `json:"account_number,omitempty"`
	RoutingNumber       string `json:"routing_number,omitempty"`
	IBAN                string `json:"iban,omitempty"`
	BankName            string `json:"bank_name,omitempty"`
	BankCountry         string `json:"bank_country,omitempty"`
	VerifyStatus        string `json:"verify_status,omitempty"`
	SharedWithMerchants bool   `json:"shared_with_merchants,omitempty"`
}

// SettlementList wraps the settlements collection as returned by the backend.
type SettlementList struct {
	Settlements []Settlement `json:"settlements"`
}

// RevenueExpectations is the agent's configured commission expectations.
type RevenueExpectations struct {
	ExpectedRate      float64 `json:"expected_rate"`
	MinAcceptableRate float64 `json:"min_acceptable_rate"`
	UpdatedAt         string  `json:"updated_at,omitempty"`
}
