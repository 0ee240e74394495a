package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"examstore_backend/internals/constants"
)

type Order struct {
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;primaryKey" json:"order_id"`
	OrderUserID *uuid.UUID `gorm:"column:order_user_id;type:uuid;index" json:"order_user_id,omitempty"`
	OrderCartID uuid.UUID  `gorm:"column:order_cart_id;type:uuid;not null;index" json:"order_cart_id"`

	OrderReference string          `gorm:"column:order_reference;type:varchar(40);not null;unique" json:"order_reference"`
	OrderNet       decimal.Decimal `gorm:"column:order_net;type:numeric(12,2);not null" json:"order_net"`
	OrderVAT       decimal.Decimal `gorm:"column:order_vat;type:numeric(12,2);not null" json:"order_vat"`
	OrderGross     decimal.Decimal `gorm:"column:order_gross;type:numeric(12,2);not null" json:"order_gross"`
	OrderCurrency  string          `gorm:"column:order_currency;type:varchar(3);default:'GBP'" json:"order_currency"`

	Payments []OrderPayment `gorm:"foreignKey:PaymentOrderID;references:OrderID" json:"payments,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.OrderID == uuid.Nil {
		o.OrderID = uuid.New()
	}
	return nil
}

type OrderPayment struct {
	PaymentID      uuid.UUID `gorm:"column:payment_id;type:uuid;primaryKey" json:"payment_id"`
	PaymentOrderID uuid.UUID `gorm:"column:payment_order_id;type:uuid;not null;index" json:"payment_order_id"`

	PaymentStatus   string          `gorm:"column:payment_status;type:varchar(20);default:'pending'" json:"payment_status"`
	PaymentGateway  string          `gorm:"column:payment_gateway;type:varchar(30);not null" json:"payment_gateway"`
	PaymentAmount   decimal.Decimal `gorm:"column:payment_amount;type:numeric(12,2);not null" json:"payment_amount"`
	PaymentToken    *string         `gorm:"column:payment_token;type:text" json:"payment_token,omitempty"`
	PaymentRedirect *string         `gorm:"column:payment_redirect;type:text" json:"payment_redirect,omitempty"`
	PaymentResponse datatypes.JSON  `gorm:"column:payment_response;type:jsonb" json:"payment_response,omitempty"`
	PaymentPaidAt   *time.Time      `gorm:"column:payment_paid_at" json:"payment_paid_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (OrderPayment) TableName() string { return "order_payments" }

func (p *OrderPayment) BeforeCreate(tx *gorm.DB) error {
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	if p.PaymentStatus == "" {
		p.PaymentStatus = constants.PaymentPending
	}
	return nil
}
