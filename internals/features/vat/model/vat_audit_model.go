package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VATAudit is append-only: one row per VAT computation, failures
// excluded. No updates, no deletes.
type VATAudit struct {
	VATAuditID      uuid.UUID      `gorm:"column:vat_audit_id;type:uuid;primaryKey" json:"vat_audit_id"`
	VATAuditCartID  *uuid.UUID     `gorm:"column:vat_audit_cart_id;type:uuid;index" json:"vat_audit_cart_id,omitempty"`
	VATAuditOrderID *uuid.UUID     `gorm:"column:vat_audit_order_id;type:uuid;index" json:"vat_audit_order_id,omitempty"`
	InputContext    datatypes.JSON `gorm:"column:input_context;type:jsonb" json:"input_context"`
	OutputData      datatypes.JSON `gorm:"column:output_data;type:jsonb" json:"output_data"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (VATAudit) TableName() string { return "vat_audits" }

func (a *VATAudit) BeforeCreate(tx *gorm.DB) error {
	if a.VATAuditID == uuid.Nil {
		a.VATAuditID = uuid.New()
	}
	return nil
}
