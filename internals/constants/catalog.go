package constants

// Variation types mirror the product_variations reference table.
const (
	VariationPrinted  = "Printed"
	VariationEBook    = "eBook"
	VariationHub      = "Hub"
	VariationTutorial = "Tutorial"
	VariationMarking  = "Marking"
)

// Price types per store product.
const (
	PriceStandard   = "standard"
	PriceRetaker    = "retaker"
	PriceReduced    = "reduced"
	PriceAdditional = "additional"
)

// Mixed search result discriminators.
const (
	ItemTypeProduct        = "product"
	ItemTypeBundle         = "bundle"
	ItemTypeVoucher        = "voucher"
	ItemTypeMarkingVoucher = "marking_voucher" // cart item kind
)

// VAT product type buckets the rules engine understands.
const (
	VATTypeDigital  = "Digital"
	VATTypePrinted  = "Printed"
	VATTypeTutorial = "Tutorial"
)

// VATProductType maps a variation type to the bucket the rules engine
// prices by. Unknown variation types fall back to Digital.
func VATProductType(variationType string) string {
	switch variationType {
	case VariationEBook, VariationHub:
		return VATTypeDigital
	case VariationPrinted:
		return VATTypePrinted
	case VariationTutorial, VariationMarking:
		return VATTypeTutorial
	default:
		return VATTypeDigital
	}
}
