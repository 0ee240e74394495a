package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"examstore_backend/internals/constants"
)

// StoreProduct is the sellable SKU: one (ESS, PPV) pair. The product
// code is derived, never hand-entered.
type StoreProduct struct {
	StoreProductID    uuid.UUID `gorm:"column:store_product_id;type:uuid;primaryKey" json:"store_product_id"`
	StoreProductSeq   int64     `gorm:"column:store_product_seq;autoIncrement;uniqueIndex" json:"store_product_seq"`
	StoreProductESSID uuid.UUID `gorm:"column:store_product_ess_id;type:uuid;not null;uniqueIndex:uq_store_product" json:"store_product_ess_id"`
	StoreProductPPVID uuid.UUID `gorm:"column:store_product_ppv_id;type:uuid;not null;uniqueIndex:uq_store_product" json:"store_product_ppv_id"`

	StoreProductCode     string `gorm:"column:store_product_code;type:varchar(60);not null" json:"store_product_code"`
	StoreProductIsActive bool   `gorm:"column:store_product_is_active" json:"store_product_is_active"`

	ESS *ExamSessionSubject      `gorm:"foreignKey:StoreProductESSID;references:ESSID" json:"ess,omitempty"`
	PPV *ProductProductVariation `gorm:"foreignKey:StoreProductPPVID;references:PPVID" json:"ppv,omitempty"`

	Prices []Price         `gorm:"foreignKey:PriceStoreProductID;references:StoreProductID" json:"prices,omitempty"`
	Events []TutorialEvent `gorm:"foreignKey:EventStoreProductID;references:StoreProductID" json:"events,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (StoreProduct) TableName() string { return "store_products" }

func (s *StoreProduct) BeforeCreate(tx *gorm.DB) error {
	if s.StoreProductID == uuid.Nil {
		s.StoreProductID = uuid.New()
	}
	return nil
}

// BuildProductCode derives the wire-stable product code:
//
//	{SUBJ}/{PREFIX}{PCODE}{VCODE}/{SESSION}
//
// Tutorial SKUs append -{seq} so distinct events under the same tuple
// stay distinguishable.
func BuildProductCode(subjectCode string, catalog CatalogProduct, variation ProductVariation, sessionCode string, seq int64) string {
	prefix := variationPrefix(catalog, variation)
	code := fmt.Sprintf("%s/%s%s%s/%s", subjectCode, prefix, catalog.CatalogProductCode, variation.VariationCode, sessionCode)
	if variation.VariationType == constants.VariationTutorial {
		code = fmt.Sprintf("%s-%d", code, seq)
	}
	return code
}

// variationPrefix follows the legacy code scheme: "combined" catalog
// products collapse eBook/Hub to C and Printed to P; everything else
// takes the first upper-case letter of the variation type.
func variationPrefix(catalog CatalogProduct, variation ProductVariation) string {
	if strings.Contains(strings.ToLower(catalog.CatalogProductFullname), "combined") {
		switch variation.VariationType {
		case constants.VariationEBook, constants.VariationHub:
			return "C"
		case constants.VariationPrinted:
			return "P"
		}
	}
	for _, r := range variation.VariationType {
		if unicode.IsUpper(r) {
			return string(r)
		}
	}
	if variation.VariationType == "" {
		return ""
	}
	return strings.ToUpper(variation.VariationType[:1])
}

type Price struct {
	PriceID             uuid.UUID       `gorm:"column:price_id;type:uuid;primaryKey" json:"price_id"`
	PriceStoreProductID uuid.UUID       `gorm:"column:price_store_product_id;type:uuid;not null;uniqueIndex:uq_price" json:"price_store_product_id"`
	PriceType           string          `gorm:"column:price_type;type:varchar(20);not null;uniqueIndex:uq_price" json:"price_type"`
	PriceAmount         decimal.Decimal `gorm:"column:price_amount;type:numeric(10,2);not null" json:"price_amount"`
	PriceCurrency       string          `gorm:"column:price_currency;type:varchar(3);not null;default:'GBP'" json:"price_currency"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Price) TableName() string { return "prices" }

func (p *Price) BeforeCreate(tx *gorm.DB) error {
	if p.PriceID == uuid.Nil {
		p.PriceID = uuid.New()
	}
	return nil
}

// TutorialEvent is a scheduled sitting of a tutorial SKU.
type TutorialEvent struct {
	EventID              uuid.UUID  `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	EventStoreProductID  uuid.UUID  `gorm:"column:event_store_product_id;type:uuid;not null;index" json:"event_store_product_id"`
	EventCode            string     `gorm:"column:event_code;type:varchar(40);not null" json:"event_code"`
	EventVenue           string     `gorm:"column:event_venue;type:varchar(255)" json:"event_venue"`
	EventStartDate       *time.Time `gorm:"column:event_start_date" json:"event_start_date,omitempty"`
	EventEndDate         *time.Time `gorm:"column:event_end_date" json:"event_end_date,omitempty"`
	EventRemainSpace     int        `gorm:"column:event_remain_space;default:0" json:"event_remain_space"`
	EventIsSoldout       bool       `gorm:"column:event_is_soldout;default:false" json:"event_is_soldout"`
	EventFinalisationDate *time.Time `gorm:"column:event_finalisation_date" json:"event_finalisation_date,omitempty"`
}

func (TutorialEvent) TableName() string { return "tutorial_events" }

func (e *TutorialEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
