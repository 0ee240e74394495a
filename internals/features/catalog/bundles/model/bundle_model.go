package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	productModel "examstore_backend/internals/features/catalog/products/model"
)

// BundleTemplate is the session-independent master a Bundle is
// instantiated from.
type BundleTemplate struct {
	BundleTemplateID          uuid.UUID `gorm:"column:bundle_template_id;type:uuid;primaryKey" json:"bundle_template_id"`
	BundleTemplateName        string    `gorm:"column:bundle_template_name;type:varchar(255);not null" json:"bundle_template_name"`
	BundleTemplateDescription string    `gorm:"column:bundle_template_description;type:text" json:"bundle_template_description"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (BundleTemplate) TableName() string { return "bundle_templates" }

func (t *BundleTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.BundleTemplateID == uuid.Nil {
		t.BundleTemplateID = uuid.New()
	}
	return nil
}

// Bundle is one template instantiated for one ESS; unique per
// (template, ess).
type Bundle struct {
	BundleID           uuid.UUID `gorm:"column:bundle_id;type:uuid;primaryKey" json:"bundle_id"`
	BundleTemplateID   uuid.UUID `gorm:"column:bundle_template_id;type:uuid;not null;uniqueIndex:uq_bundle" json:"bundle_template_id"`
	BundleESSID        uuid.UUID `gorm:"column:bundle_ess_id;type:uuid;not null;uniqueIndex:uq_bundle" json:"bundle_ess_id"`
	BundleOverrideName *string   `gorm:"column:bundle_override_name;type:varchar(255)" json:"bundle_override_name,omitempty"`
	BundleOverrideDesc *string   `gorm:"column:bundle_override_desc;type:text" json:"bundle_override_desc,omitempty"`
	BundleIsActive     bool      `gorm:"column:bundle_is_active" json:"bundle_is_active"`
	BundleDisplayOrder int       `gorm:"column:bundle_display_order;default:0" json:"bundle_display_order"`

	Template *BundleTemplate                  `gorm:"foreignKey:BundleTemplateID;references:BundleTemplateID" json:"template,omitempty"`
	ESS      *productModel.ExamSessionSubject `gorm:"foreignKey:BundleESSID;references:ESSID" json:"ess,omitempty"`
	Products []BundleProduct                  `gorm:"foreignKey:BPBundleID;references:BundleID" json:"products,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Bundle) TableName() string { return "bundles" }

func (b *Bundle) BeforeCreate(tx *gorm.DB) error {
	if b.BundleID == uuid.Nil {
		b.BundleID = uuid.New()
	}
	return nil
}

// Name resolves override-or-template naming.
func (b *Bundle) Name() string {
	if b.BundleOverrideName != nil && *b.BundleOverrideName != "" {
		return *b.BundleOverrideName
	}
	if b.Template != nil {
		return b.Template.BundleTemplateName
	}
	return ""
}

func (b *Bundle) Description() string {
	if b.BundleOverrideDesc != nil && *b.BundleOverrideDesc != "" {
		return *b.BundleOverrideDesc
	}
	if b.Template != nil {
		return b.Template.BundleTemplateDescription
	}
	return ""
}

type BundleProduct struct {
	BPID               uuid.UUID `gorm:"column:bp_id;type:uuid;primaryKey" json:"bp_id"`
	BPBundleID         uuid.UUID `gorm:"column:bp_bundle_id;type:uuid;not null;uniqueIndex:uq_bundle_product" json:"bp_bundle_id"`
	BPStoreProductID   uuid.UUID `gorm:"column:bp_store_product_id;type:uuid;not null;uniqueIndex:uq_bundle_product" json:"bp_store_product_id"`
	BPDefaultPriceType string    `gorm:"column:bp_default_price_type;type:varchar(20);default:'standard'" json:"bp_default_price_type"`
	BPQuantity         int       `gorm:"column:bp_quantity;default:1" json:"bp_quantity"`
	BPSortOrder        int       `gorm:"column:bp_sort_order;default:0" json:"bp_sort_order"`
	BPIsActive         bool      `gorm:"column:bp_is_active" json:"bp_is_active"`

	StoreProduct *productModel.StoreProduct `gorm:"foreignKey:BPStoreProductID;references:StoreProductID" json:"store_product,omitempty"`
}

func (BundleProduct) TableName() string { return "bundle_products" }

func (p *BundleProduct) BeforeCreate(tx *gorm.DB) error {
	if p.BPID == uuid.Nil {
		p.BPID = uuid.New()
	}
	return nil
}
