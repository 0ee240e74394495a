package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MarkingVoucher is a prepaid credit for script marking; sold outside
// the ESS structure.
type MarkingVoucher struct {
	VoucherID          uuid.UUID       `gorm:"column:voucher_id;type:uuid;primaryKey" json:"voucher_id"`
	VoucherCode        string          `gorm:"column:voucher_code;type:varchar(30);not null;unique" json:"voucher_code"`
	VoucherName        string          `gorm:"column:voucher_name;type:varchar(255);not null" json:"voucher_name"`
	VoucherDescription string          `gorm:"column:voucher_description;type:text" json:"voucher_description"`
	VoucherPrice       decimal.Decimal `gorm:"column:voucher_price;type:numeric(10,2);not null" json:"voucher_price"`
	VoucherIsActive    bool            `gorm:"column:voucher_is_active" json:"voucher_is_active"`
	VoucherExpiryDate  *time.Time      `gorm:"column:voucher_expiry_date" json:"voucher_expiry_date,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (MarkingVoucher) TableName() string { return "marking_vouchers" }

func (v *MarkingVoucher) BeforeCreate(tx *gorm.DB) error {
	if v.VoucherID == uuid.Nil {
		v.VoucherID = uuid.New()
	}
	return nil
}

// IsAvailable: active and not past expiry.
func (v *MarkingVoucher) IsAvailable(now time.Time) bool {
	if !v.VoucherIsActive {
		return false
	}
	if v.VoucherExpiryDate == nil {
		return true
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return !v.VoucherExpiryDate.Before(today)
}
