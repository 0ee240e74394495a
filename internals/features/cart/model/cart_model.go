package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"examstore_backend/internals/constants"
	productModel "examstore_backend/internals/features/catalog/products/model"
	voucherModel "examstore_backend/internals/features/catalog/vouchers/model"
)

var ErrCartItemReference = errors.New("cart item must reference exactly one of store product or marking voucher")

type Cart struct {
	CartID     uuid.UUID      `gorm:"column:cart_id;type:uuid;primaryKey" json:"cart_id"`
	CartUserID *uuid.UUID     `gorm:"column:cart_user_id;type:uuid;index" json:"cart_user_id,omitempty"`
	CartVATResult datatypes.JSON `gorm:"column:cart_vat_result;type:jsonb" json:"cart_vat_result,omitempty"`

	Items []CartItem `gorm:"foreignKey:CartItemCartID;references:CartID" json:"items,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Cart) TableName() string { return "carts" }

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.CartID == uuid.Nil {
		c.CartID = uuid.New()
	}
	return nil
}

type CartItem struct {
	CartItemID     uuid.UUID `gorm:"column:cart_item_id;type:uuid;primaryKey" json:"cart_item_id"`
	CartItemCartID uuid.UUID `gorm:"column:cart_item_cart_id;type:uuid;not null;index" json:"cart_item_cart_id"`

	// Exactly one of the two references is set; enforced in BeforeSave.
	CartItemStoreProductID *uuid.UUID `gorm:"column:cart_item_store_product_id;type:uuid" json:"cart_item_store_product_id,omitempty"`
	CartItemVoucherID      *uuid.UUID `gorm:"column:cart_item_voucher_id;type:uuid" json:"cart_item_voucher_id,omitempty"`

	CartItemType        string          `gorm:"column:cart_item_type;type:varchar(20);not null" json:"cart_item_type"`
	CartItemQuantity    int             `gorm:"column:cart_item_quantity;not null;default:1" json:"cart_item_quantity"`
	CartItemActualPrice decimal.Decimal `gorm:"column:cart_item_actual_price;type:numeric(10,2);not null" json:"cart_item_actual_price"`
	CartItemMetadata    datatypes.JSON  `gorm:"column:cart_item_metadata;type:jsonb" json:"cart_item_metadata,omitempty"`

	StoreProduct *productModel.StoreProduct   `gorm:"foreignKey:CartItemStoreProductID;references:StoreProductID" json:"store_product,omitempty"`
	Voucher      *voucherModel.MarkingVoucher `gorm:"foreignKey:CartItemVoucherID;references:VoucherID" json:"voucher,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (CartItem) TableName() string { return "cart_items" }

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.CartItemID == uuid.Nil {
		i.CartItemID = uuid.New()
	}
	return nil
}

// BeforeSave enforces the single-product-reference invariant and keeps
// item_type consistent with the reference kind.
func (i *CartItem) BeforeSave(tx *gorm.DB) error {
	hasProduct := i.CartItemStoreProductID != nil
	hasVoucher := i.CartItemVoucherID != nil
	if hasProduct == hasVoucher {
		return ErrCartItemReference
	}
	if hasProduct {
		i.CartItemType = constants.ItemTypeProduct
	} else {
		i.CartItemType = constants.ItemTypeMarkingVoucher
	}
	return nil
}
