package dto

// Wire shapes of the rules engine boundary. All monetary amounts are
// 2-decimal strings on the wire; the orchestrator works in decimals.

type UserContext struct {
	ID          string `json:"id"`
	CountryCode string `json:"country_code"`
	ClientIP    string `json:"client_ip,omitempty"`
}

type ItemContext struct {
	ID          string `json:"id"`
	ProductType string `json:"product_type"`
	ProductCode string `json:"product_code"`
	NetAmount   string `json:"net_amount"`
}

type EngineInput struct {
	User     UserContext `json:"user"`
	CartItem ItemContext `json:"cart_item"`
}

type EngineItemResult struct {
	ID          string `json:"id"`
	ProductType string `json:"product_type"`
	ProductCode string `json:"product_code"`
	NetAmount   string `json:"net_amount"`
	VATAmount   string `json:"vat_amount"`
	GrossAmount string `json:"gross_amount"`
}

type EngineVAT struct {
	Region string `json:"region"`
}

type EngineOutput struct {
	Success       bool             `json:"success"`
	CartItem      EngineItemResult `json:"cart_item"`
	VAT           EngineVAT        `json:"vat"`
	ExecutionID   string           `json:"execution_id"`
	RulesExecuted []string         `json:"rules_executed"`
	Error         string           `json:"error,omitempty"`
}

/* =============== orchestrator output =============== */

type VATTotals struct {
	Net   string `json:"net"`
	VAT   string `json:"vat"`
	Gross string `json:"gross"`
}

type VATItem struct {
	ID          string `json:"id"`
	ProductType string `json:"product_type"`
	NetAmount   string `json:"net_amount"`
	VATAmount   string `json:"vat_amount"`
	GrossAmount string `json:"gross_amount"`
}

type VATResult struct {
	Status        string    `json:"status"`
	Region        string    `json:"region"`
	Totals        VATTotals `json:"totals"`
	Items         []VATItem `json:"items"`
	ExecutionID   string    `json:"execution_id"`
	Timestamp     string    `json:"timestamp"`
	RulesExecuted []string  `json:"rules_executed"`
}

type RecalculateRequest struct {
	CartID string `json:"cart_id"`
}
