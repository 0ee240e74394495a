package service

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"examstore_backend/internals/constants"
	cartModel "examstore_backend/internals/features/cart/model"
	productModel "examstore_backend/internals/features/catalog/products/model"
	userModel "examstore_backend/internals/features/users/model"
	"examstore_backend/internals/features/vat/dto"
	vatModel "examstore_backend/internals/features/vat/model"
	helper "examstore_backend/internals/helpers"
)

const DefaultEntryPoint = "cart_calculate_vat"

// VATOrchestrator derives region and per-line tax for a cart via the
// rules engine, aggregates, persists on the cart and appends one audit
// row per successful computation.
type VATOrchestrator struct {
	DB     *gorm.DB
	Engine RulesEngine
}

func NewVATOrchestrator(db *gorm.DB, engine RulesEngine) *VATOrchestrator {
	return &VATOrchestrator{DB: db, Engine: engine}
}

// Calculate runs one computation for the cart. Any per-item engine
// failure aborts without persisting a partial result. Audit-write
// failures are logged and swallowed.
func (o *VATOrchestrator) Calculate(cart *cartModel.Cart, entryPoint string) (*dto.VATResult, error) {
	if entryPoint == "" {
		entryPoint = DefaultEntryPoint
	}

	userCtx := o.buildUserContext(cart)

	items := make([]dto.ItemContext, 0, len(cart.Items))
	for _, item := range cart.Items {
		// Zero-quantity lines contribute nothing and are filtered
		// upstream; skip defensively rather than price them.
		if item.CartItemQuantity <= 0 {
			continue
		}
		items = append(items, o.buildItemContext(item))
	}

	results := make([]*dto.EngineOutput, 0, len(items))
	for _, itemCtx := range items {
		out, err := o.Engine.Execute(entryPoint, dto.EngineInput{User: userCtx, CartItem: itemCtx})
		if err != nil {
			return nil, err
		}
		if !out.Success {
			return nil, &RulesEngineError{ItemID: itemCtx.ID, Reason: out.Error}
		}
		results = append(results, out)
	}

	result, err := aggregate(results)
	if err != nil {
		return nil, err
	}
	result.Timestamp = time.Now().UTC().Format(time.RFC3339)

	// Persist onto the cart; the previous value is overwritten.
	doc, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	if err := o.DB.Model(&cartModel.Cart{}).
		Where("cart_id = ?", cart.CartID).
		Update("cart_vat_result", datatypes.JSON(doc)).Error; err != nil {
		return nil, err
	}
	cart.CartVATResult = datatypes.JSON(doc)

	o.writeAudit(cart, userCtx, items, results, result)

	return result, nil
}

// buildUserContext: one per cart. Country comes from the user's
// default address; anonymous carts and missing values default to GB.
func (o *VATOrchestrator) buildUserContext(cart *cartModel.Cart) dto.UserContext {
	ctx := dto.UserContext{ID: "anonymous", CountryCode: "GB"}
	if cart.CartUserID == nil {
		return ctx
	}
	ctx.ID = cart.CartUserID.String()

	var addr userModel.UserAddress
	err := o.DB.
		Where("address_user_id = ?", *cart.CartUserID).
		Order("address_is_default desc, created_at asc").
		First(&addr).Error
	if err == nil && strings.TrimSpace(addr.AddressCountry) != "" {
		ctx.CountryCode = strings.ToUpper(strings.TrimSpace(addr.AddressCountry))
	}
	return ctx
}

// buildItemContext resolves product_type by priority: explicit
// variationType metadata, then the linked product's variation, then
// Digital.
func (o *VATOrchestrator) buildItemContext(item cartModel.CartItem) dto.ItemContext {
	productType := constants.VATTypeDigital
	productCode := ""

	if len(item.CartItemMetadata) > 0 {
		var meta map[string]interface{}
		if err := json.Unmarshal(item.CartItemMetadata, &meta); err != nil {
			log.Printf("[VAT] item %s: metadata unreadable, falling back to variation: %v", item.CartItemID, err)
			if item.StoreProduct != nil {
				productType = typeFromProduct(item.StoreProduct.PPV)
			}
		} else if vt, ok := meta["variationType"].(string); ok && vt != "" {
			productType = constants.VATProductType(vt)
		} else if item.StoreProduct != nil {
			productType = typeFromProduct(item.StoreProduct.PPV)
		}
	} else if item.StoreProduct != nil {
		productType = typeFromProduct(item.StoreProduct.PPV)
	}

	if item.StoreProduct != nil {
		productCode = item.StoreProduct.StoreProductCode
	} else if item.Voucher != nil {
		productCode = item.Voucher.VoucherCode
		productType = constants.VATTypeTutorial
	}

	net := item.CartItemActualPrice.Mul(decimal.NewFromInt(int64(item.CartItemQuantity)))

	return dto.ItemContext{
		ID:          item.CartItemID.String(),
		ProductType: productType,
		ProductCode: productCode,
		NetAmount:   net.StringFixed(2),
	}
}

func typeFromProduct(ppv *productModel.ProductProductVariation) string {
	if ppv == nil || ppv.Variation == nil {
		return constants.VATTypeDigital
	}
	return constants.VATProductType(ppv.Variation.VariationType)
}

// aggregate rounds item rows first, sums, then rounds the totals
// again; gross = net + vat must hold exactly after rounding.
func aggregate(results []*dto.EngineOutput) (*dto.VATResult, error) {
	netSum := decimal.Zero
	vatSum := decimal.Zero
	outItems := make([]dto.VATItem, 0, len(results))
	rules := make([]string, 0)
	region := ""
	executionID := ""

	for i, r := range results {
		net, err := decimal.NewFromString(r.CartItem.NetAmount)
		if err != nil {
			return nil, fmt.Errorf("engine net_amount unparsable: %w", err)
		}
		vat, err := decimal.NewFromString(r.CartItem.VATAmount)
		if err != nil {
			return nil, fmt.Errorf("engine vat_amount unparsable: %w", err)
		}
		net = net.Round(2)
		vat = vat.Round(2)
		gross := net.Add(vat)

		outItems = append(outItems, dto.VATItem{
			ID:          r.CartItem.ID,
			ProductType: r.CartItem.ProductType,
			NetAmount:   net.StringFixed(2),
			VATAmount:   vat.StringFixed(2),
			GrossAmount: gross.StringFixed(2),
		})

		netSum = netSum.Add(net)
		vatSum = vatSum.Add(vat)
		rules = append(rules, r.RulesExecuted...)

		// Region is user-scoped: take the first item's report.
		if i == 0 {
			region = r.VAT.Region
			executionID = r.ExecutionID
		}
	}

	netSum = netSum.Round(2)
	vatSum = vatSum.Round(2)
	grossSum := netSum.Add(vatSum).Round(2)

	return &dto.VATResult{
		Status: "calculated",
		Region: region,
		Totals: dto.VATTotals{
			Net:   netSum.StringFixed(2),
			VAT:   vatSum.StringFixed(2),
			Gross: grossSum.StringFixed(2),
		},
		Items:         outItems,
		ExecutionID:   executionID,
		RulesExecuted: rules,
	}, nil
}

// writeAudit appends the append-only audit row. Failures here must not
// abort the calculation.
func (o *VATOrchestrator) writeAudit(
	cart *cartModel.Cart,
	userCtx dto.UserContext,
	items []dto.ItemContext,
	results []*dto.EngineOutput,
	result *dto.VATResult,
) {
	input := helper.SafeJSONMap(map[string]interface{}{
		"user":  userCtx,
		"items": items,
	})
	output := helper.SafeJSONMap(map[string]interface{}{
		"results":   results,
		"timestamp": result.Timestamp,
	})

	inputJSON, err := json.Marshal(input)
	if err != nil {
		log.Printf("[VAT] audit input marshal failed: %v", err)
		return
	}
	outputJSON, err := json.Marshal(output)
	if err != nil {
		log.Printf("[VAT] audit output marshal failed: %v", err)
		return
	}

	cartID := cart.CartID
	audit := vatModel.VATAudit{
		VATAuditCartID: &cartID,
		InputContext:   datatypes.JSON(inputJSON),
		OutputData:     datatypes.JSON(outputJSON),
	}
	if err := o.DB.Create(&audit).Error; err != nil {
		log.Printf("[VAT] audit write failed (swallowed): %v", err)
	}
}
