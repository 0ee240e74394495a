package dto

import (
	"fmt"
	"sort"
	"strings"

	helper "examstore_backend/internals/helpers"
)

// Recognized canonical filter dimensions.
const (
	FilterSubjects        = "subjects"
	FilterCategories      = "categories"
	FilterProductTypes    = "product_types"
	FilterProducts        = "products"
	FilterProductIDs      = "product_ids"
	FilterESSPIDs         = "essp_ids"
	FilterModesOfDelivery = "modes_of_delivery"
)

var knownFilterKeys = map[string]struct{}{
	FilterSubjects:        {},
	FilterCategories:      {},
	FilterProductTypes:    {},
	FilterProducts:        {},
	FilterProductIDs:      {},
	FilterESSPIDs:         {},
	FilterModesOfDelivery: {},
}

// Navbar shorthand keys translated to canonical filters before
// application.
const (
	NavbarGroup            = "group"
	NavbarTutorialFormat   = "tutorial_format"
	NavbarProduct          = "product"
	NavbarDistanceLearning = "distance_learning"
	NavbarVariation        = "variation"
	NavbarTutorial         = "tutorial"
)

type SearchRequest struct {
	SearchQuery   string              `json:"searchQuery"`
	Filters       map[string][]string `json:"filters"`
	NavbarFilters map[string]string   `json:"navbar_filters"`
	Pagination    *PaginationRequest  `json:"pagination"`
	Options       *SearchOptions      `json:"options"`
}

type PaginationRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type SearchOptions struct {
	IncludeBundles *bool `json:"include_bundles"`
}

// Validate rejects unknown filter dimensions; everything else is
// normalised rather than refused.
func (r *SearchRequest) Validate() error {
	for key := range r.Filters {
		if _, ok := knownFilterKeys[key]; !ok {
			return fmt.Errorf("unknown filter dimension %q", key)
		}
	}
	return nil
}

// Query returns the trimmed search query; queries under two characters
// are treated as absent.
func (r *SearchRequest) Query() string {
	q := strings.TrimSpace(r.SearchQuery)
	if len(q) < 2 {
		return ""
	}
	return q
}

func (r *SearchRequest) Paging() helper.Paging {
	if r.Pagination == nil {
		return helper.NormalizePaging(helper.DefaultPage, helper.DefaultPageSize)
	}
	return helper.NormalizePaging(r.Pagination.Page, r.Pagination.PageSize)
}

func (r *SearchRequest) IncludeBundles() bool {
	if r.Options == nil || r.Options.IncludeBundles == nil {
		return true
	}
	return *r.Options.IncludeBundles
}

// CacheKeySource renders the request into a stable string for cache
// hashing: sorted keys, sorted values.
func (r *SearchRequest) CacheKeySource() string {
	var b strings.Builder
	b.WriteString("q=")
	b.WriteString(strings.ToLower(r.Query()))

	fkeys := make([]string, 0, len(r.Filters))
	for k := range r.Filters {
		fkeys = append(fkeys, k)
	}
	sort.Strings(fkeys)
	for _, k := range fkeys {
		vals := append([]string(nil), r.Filters[k]...)
		sort.Strings(vals)
		b.WriteString("|f:")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(strings.Join(vals, ","))
	}

	nkeys := make([]string, 0, len(r.NavbarFilters))
	for k := range r.NavbarFilters {
		nkeys = append(nkeys, k)
	}
	sort.Strings(nkeys)
	for _, k := range nkeys {
		b.WriteString("|n:")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(r.NavbarFilters[k])
	}

	p := r.Paging()
	fmt.Fprintf(&b, "|p=%d,%d|ib=%t", p.Page, p.PageSize, r.IncludeBundles())
	return b.String()
}

/* =============== RESPONSE =============== */

type SearchResponse struct {
	Products     []SearchItem               `json:"products"`
	FilterCounts map[string]FacetCounts     `json:"filter_counts"`
	Pagination   helper.PageMeta            `json:"pagination"`
	Performance  Performance                `json:"performance"`
	Error        string                     `json:"error,omitempty"`
}

type Performance struct {
	Duration string `json:"duration"`
	Cached   bool   `json:"cached"`
}

// FacetCounts maps a facet value to its disjunctive count. Zero-count
// values are retained so the UI can disable them.
type FacetCounts map[string]FacetCount

type FacetCount struct {
	Count int    `json:"count"`
	ID    string `json:"id,omitempty"`
}

// SearchItem is the uniform output shape for products, bundles and
// vouchers.
type SearchItem struct {
	ID              string          `json:"id"`
	ESSPID          string          `json:"essp_id,omitempty"`
	ItemType        string          `json:"item_type"`
	IsBundle        bool            `json:"is_bundle"`
	Type            string          `json:"type"`
	Code            string          `json:"code"`
	Shortname       string          `json:"shortname"`
	Fullname        string          `json:"fullname"`
	SubjectCode     string          `json:"subject_code"`
	ExamSessionCode string          `json:"exam_session_code,omitempty"`
	Variations      []ItemVariation `json:"variations"`

	// Bundle components, present when item_type == "bundle".
	Components []BundleComponent `json:"components,omitempty"`
}

type ItemVariation struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Prices      []ItemPrice     `json:"prices"`
	Recommended *Recommendation `json:"recommended,omitempty"`
	Events      []TutorialEvent `json:"events,omitempty"`
}

type ItemPrice struct {
	PriceType string `json:"price_type"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

type Recommendation struct {
	ESSPID      string `json:"essp_id"`
	Code        string `json:"code"`
	Shortname   string `json:"shortname"`
	Description string `json:"description,omitempty"`
}

type TutorialEvent struct {
	Code             string `json:"code"`
	Venue            string `json:"venue"`
	StartDate        string `json:"start_date,omitempty"`
	EndDate          string `json:"end_date,omitempty"`
	RemainSpace      int    `json:"remain_space"`
	IsSoldout        bool   `json:"is_soldout"`
	FinalisationDate string `json:"finalisation_date,omitempty"`
}

type BundleComponent struct {
	StoreProductID   string      `json:"store_product_id"`
	Code             string      `json:"code"`
	VariationType    string      `json:"variation_type"`
	VariationName    string      `json:"variation_name"`
	DefaultPriceType string      `json:"default_price_type"`
	Quantity         int         `json:"quantity"`
	Prices           []ItemPrice `json:"prices"`
}
