package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogProduct is the abstract product template; it becomes sellable
// only through a StoreProduct (ESS x PPV).
type CatalogProduct struct {
	CatalogProductID          uuid.UUID `gorm:"column:catalog_product_id;type:uuid;primaryKey" json:"catalog_product_id"`
	CatalogProductCode        string    `gorm:"column:catalog_product_code;type:varchar(20);not null" json:"catalog_product_code"`
	CatalogProductFullname    string    `gorm:"column:catalog_product_fullname;type:varchar(255);not null" json:"catalog_product_fullname"`
	CatalogProductShortname   string    `gorm:"column:catalog_product_shortname;type:varchar(100)" json:"catalog_product_shortname"`
	CatalogProductDescription string    `gorm:"column:catalog_product_description;type:text" json:"catalog_product_description"`
	CatalogProductIsActive    bool      `gorm:"column:catalog_product_is_active" json:"catalog_product_is_active"`
	CatalogProductBuyBoth     bool      `gorm:"column:catalog_product_buy_both;default:false" json:"catalog_product_buy_both"`

	FilterGroups []CatalogProductGroup `gorm:"foreignKey:CPGCatalogProductID;references:CatalogProductID" json:"filter_groups,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (CatalogProduct) TableName() string { return "catalog_products" }

func (p *CatalogProduct) BeforeCreate(tx *gorm.DB) error {
	if p.CatalogProductID == uuid.Nil {
		p.CatalogProductID = uuid.New()
	}
	return nil
}

// CatalogProductGroup tags a catalog product with a filter group
// (category / product type facet values).
type CatalogProductGroup struct {
	CPGID               uuid.UUID `gorm:"column:cpg_id;type:uuid;primaryKey" json:"cpg_id"`
	CPGCatalogProductID uuid.UUID `gorm:"column:cpg_catalog_product_id;type:uuid;not null;uniqueIndex:uq_cpg" json:"cpg_catalog_product_id"`
	CPGFilterGroupID    uuid.UUID `gorm:"column:cpg_filter_group_id;type:uuid;not null;uniqueIndex:uq_cpg" json:"cpg_filter_group_id"`
}

func (CatalogProductGroup) TableName() string { return "catalog_product_groups" }

func (g *CatalogProductGroup) BeforeCreate(tx *gorm.DB) error {
	if g.CPGID == uuid.Nil {
		g.CPGID = uuid.New()
	}
	return nil
}

type ProductVariation struct {
	VariationID          uuid.UUID `gorm:"column:variation_id;type:uuid;primaryKey" json:"variation_id"`
	VariationType        string    `gorm:"column:variation_type;type:varchar(30);not null" json:"variation_type"`
	VariationName        string    `gorm:"column:variation_name;type:varchar(100);not null" json:"variation_name"`
	VariationCode        string    `gorm:"column:variation_code;type:varchar(20)" json:"variation_code"`
	VariationDescription string    `gorm:"column:variation_description;type:text" json:"variation_description"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ProductVariation) TableName() string { return "product_variations" }

func (v *ProductVariation) BeforeCreate(tx *gorm.DB) error {
	if v.VariationID == uuid.Nil {
		v.VariationID = uuid.New()
	}
	return nil
}

// ProductProductVariation (PPV) is the junction every sellable SKU
// hangs off: (catalog product x variation), unique.
type ProductProductVariation struct {
	PPVID               uuid.UUID `gorm:"column:ppv_id;type:uuid;primaryKey" json:"ppv_id"`
	PPVCatalogProductID uuid.UUID `gorm:"column:ppv_catalog_product_id;type:uuid;not null;uniqueIndex:uq_ppv" json:"ppv_catalog_product_id"`
	PPVVariationID      uuid.UUID `gorm:"column:ppv_variation_id;type:uuid;not null;uniqueIndex:uq_ppv" json:"ppv_variation_id"`

	CatalogProduct *CatalogProduct   `gorm:"foreignKey:PPVCatalogProductID;references:CatalogProductID" json:"catalog_product,omitempty"`
	Variation      *ProductVariation `gorm:"foreignKey:PPVVariationID;references:VariationID" json:"variation,omitempty"`

	Recommendation *ProductRecommendation `gorm:"foreignKey:RecommendationPPVID;references:PPVID" json:"recommendation,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ProductProductVariation) TableName() string { return "product_product_variations" }

func (p *ProductProductVariation) BeforeCreate(tx *gorm.DB) error {
	if p.PPVID == uuid.Nil {
		p.PPVID = uuid.New()
	}
	return nil
}

// ProductRecommendation pairs a PPV with the single PPV recommended
// alongside it. At most one per PPV; the surfaced store product must
// stay within the same ESS.
type ProductRecommendation struct {
	RecommendationID          uuid.UUID `gorm:"column:recommendation_id;type:uuid;primaryKey" json:"recommendation_id"`
	RecommendationPPVID       uuid.UUID `gorm:"column:recommendation_ppv_id;type:uuid;not null;unique" json:"recommendation_ppv_id"`
	RecommendedPPVID          uuid.UUID `gorm:"column:recommended_ppv_id;type:uuid;not null" json:"recommended_ppv_id"`
	RecommendationDescription string    `gorm:"column:recommendation_description;type:text" json:"recommendation_description"`

	RecommendedPPV *ProductProductVariation `gorm:"foreignKey:RecommendedPPVID;references:PPVID" json:"recommended_ppv,omitempty"`
}

func (ProductRecommendation) TableName() string { return "product_recommendations" }

func (r *ProductRecommendation) BeforeCreate(tx *gorm.DB) error {
	if r.RecommendationID == uuid.Nil {
		r.RecommendationID = uuid.New()
	}
	return nil
}
