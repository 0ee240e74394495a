package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"examstore_backend/internals/configs"
	"examstore_backend/internals/constants"
	"examstore_backend/internals/features/vat/dto"
)

// RulesEngineError marks a failed engine evaluation; the orchestrator
// fails loudly on it.
type RulesEngineError struct {
	ItemID string
	Reason string
}

func (e *RulesEngineError) Error() string {
	return fmt.Sprintf("rules engine failed for item %s: %s", e.ItemID, e.Reason)
}

// RulesEngine is the only boundary aware of the engine's wire shape.
// One call per cart item, synchronous.
type RulesEngine interface {
	Execute(entryPoint string, input dto.EngineInput) (*dto.EngineOutput, error)
}

// NewRulesEngine selects the HTTP engine when RULES_ENGINE_URL is
// configured and the local table engine otherwise (dev parity with the
// dummy payment gateway).
func NewRulesEngine() RulesEngine {
	if url := configs.GetEnv("RULES_ENGINE_URL"); url != "" {
		return &httpRulesEngine{
			baseURL: url,
			client:  &http.Client{Timeout: 10 * time.Second},
		}
	}
	return &localRulesEngine{}
}

/* =============== HTTP engine =============== */

type httpRulesEngine struct {
	baseURL string
	client  *http.Client
}

func (e *httpRulesEngine) Execute(entryPoint string, input dto.EngineInput) (*dto.EngineOutput, error) {
	body, err := json.Marshal(map[string]interface{}{
		"entry_point": entryPoint,
		"context":     input,
	})
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Post(e.baseURL+"/api/rules/execute/", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, &RulesEngineError{ItemID: input.CartItem.ID, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RulesEngineError{ItemID: input.CartItem.ID, Reason: fmt.Sprintf("engine returned %d", resp.StatusCode)}
	}

	var out dto.EngineOutput
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &RulesEngineError{ItemID: input.CartItem.ID, Reason: "bad engine response: " + err.Error()}
	}
	return &out, nil
}

/* =============== local engine =============== */

// localRulesEngine prices with a static region/rate table; used in
// development and tests where no engine service runs.
type localRulesEngine struct{}

var euCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

func regionFor(countryCode string) string {
	switch {
	case countryCode == "GB":
		return "UK"
	default:
		if _, ok := euCountries[countryCode]; ok {
			return "EU"
		}
		return "ROW"
	}
}

func rateFor(region, productType string) decimal.Decimal {
	switch region {
	case "UK":
		if productType == constants.VATTypePrinted {
			// Zero-rated printed matter.
			return decimal.Zero
		}
		return decimal.NewFromFloat(0.20)
	case "EU":
		if productType == constants.VATTypeDigital {
			return decimal.NewFromFloat(0.20)
		}
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

func (e *localRulesEngine) Execute(entryPoint string, input dto.EngineInput) (*dto.EngineOutput, error) {
	net, err := decimal.NewFromString(input.CartItem.NetAmount)
	if err != nil {
		return nil, &RulesEngineError{ItemID: input.CartItem.ID, Reason: "bad net_amount: " + err.Error()}
	}

	region := regionFor(input.User.CountryCode)
	rate := rateFor(region, input.CartItem.ProductType)
	vat := net.Mul(rate).Round(2)
	gross := net.Add(vat)

	return &dto.EngineOutput{
		Success: true,
		CartItem: dto.EngineItemResult{
			ID:          input.CartItem.ID,
			ProductType: input.CartItem.ProductType,
			ProductCode: input.CartItem.ProductCode,
			NetAmount:   net.StringFixed(2),
			VATAmount:   vat.StringFixed(2),
			GrossAmount: gross.StringFixed(2),
		},
		VAT:           dto.EngineVAT{Region: region},
		ExecutionID:   uuid.NewString(),
		RulesExecuted: []string{"local_rate_table:" + region + ":" + input.CartItem.ProductType},
	}, nil
}
