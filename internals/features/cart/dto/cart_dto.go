package dto

import (
	"examstore_backend/internals/constants"
)

type AddItemRequest struct {
	StoreProductID string `json:"store_product_id,omitempty"`
	VoucherID      string `json:"voucher_id,omitempty"`
	PriceType      string `json:"price_type,omitempty"`
	Quantity       int    `json:"quantity,omitempty"`
}

// NormalizedPriceType defaults to the standard price band.
func (r *AddItemRequest) NormalizedPriceType() string {
	switch r.PriceType {
	case constants.PriceStandard, constants.PriceRetaker, constants.PriceReduced, constants.PriceAdditional:
		return r.PriceType
	default:
		return constants.PriceStandard
	}
}

// NormalizedQuantity defaults to one.
func (r *AddItemRequest) NormalizedQuantity() int {
	if r.Quantity < 1 {
		return 1
	}
	return r.Quantity
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=0"`
}
