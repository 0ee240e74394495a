package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"examstore_backend/internals/constants"
	bundleModel "examstore_backend/internals/features/catalog/bundles/model"
	productModel "examstore_backend/internals/features/catalog/products/model"
	voucherModel "examstore_backend/internals/features/catalog/vouchers/model"
	"examstore_backend/internals/features/catalog/search/dto"
)

// candidate wraps one active store product with everything the search
// pipeline needs: prefetched relations, group ids, fuzzy score.
type candidate struct {
	SP       productModel.StoreProduct
	GroupIDs []uuid.UUID

	Score float64
	Rank  int // position in fuzzy-relevance order, -1 when unranked
}

func (c *candidate) subjectCode() string {
	if c.SP.ESS != nil && c.SP.ESS.Subject != nil {
		return c.SP.ESS.Subject.SubjectCode
	}
	return ""
}

func (c *candidate) sessionCode() string {
	if c.SP.ESS != nil && c.SP.ESS.ExamSession != nil {
		return c.SP.ESS.ExamSession.ExamSessionCode
	}
	return ""
}

func (c *candidate) shortname() string {
	if c.SP.PPV != nil && c.SP.PPV.CatalogProduct != nil {
		return c.SP.PPV.CatalogProduct.CatalogProductShortname
	}
	return ""
}

func (c *candidate) matchesSubject(values []string) bool {
	if c.SP.ESS == nil || c.SP.ESS.Subject == nil {
		return false
	}
	subj := c.SP.ESS.Subject
	for _, v := range values {
		if strings.EqualFold(v, subj.SubjectCode) || strings.EqualFold(v, subj.SubjectID.String()) {
			return true
		}
	}
	return false
}

func (c *candidate) matchesGroups(set map[uuid.UUID]struct{}) bool {
	for _, id := range c.GroupIDs {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

func (c *candidate) matchesCatalogProduct(values []string) bool {
	if c.SP.PPV == nil {
		return false
	}
	catalogID := c.SP.PPV.PPVCatalogProductID.String()
	var code string
	if c.SP.PPV.CatalogProduct != nil {
		code = c.SP.PPV.CatalogProduct.CatalogProductCode
	}
	for _, v := range values {
		if strings.EqualFold(v, catalogID) || (code != "" && strings.EqualFold(v, code)) {
			return true
		}
	}
	return false
}

func (c *candidate) matchesStoreProduct(values []string) bool {
	id := c.SP.StoreProductID.String()
	for _, v := range values {
		if strings.EqualFold(v, id) {
			return true
		}
	}
	return false
}

func (c *candidate) matchesMode(values []string) bool {
	if c.SP.PPV == nil || c.SP.PPV.Variation == nil {
		return false
	}
	name := strings.ToLower(c.SP.PPV.Variation.VariationName)
	for _, v := range values {
		if strings.Contains(name, strings.ToLower(v)) {
			return true
		}
	}
	return false
}

// haystack builds the lower-cased searchable text for fuzzy scoring.
func (c *candidate) haystack(groupNames []string) string {
	fields := make([]string, 0, 8+len(groupNames))
	if c.SP.PPV != nil && c.SP.PPV.CatalogProduct != nil {
		fields = append(fields,
			c.SP.PPV.CatalogProduct.CatalogProductFullname,
			c.SP.PPV.CatalogProduct.CatalogProductShortname,
			c.SP.PPV.CatalogProduct.CatalogProductCode,
		)
	}
	if c.SP.ESS != nil && c.SP.ESS.Subject != nil {
		fields = append(fields, c.SP.ESS.Subject.SubjectCode, c.SP.ESS.Subject.SubjectDescription)
	}
	if c.SP.PPV != nil && c.SP.PPV.Variation != nil {
		fields = append(fields, c.SP.PPV.Variation.VariationName, c.SP.PPV.Variation.VariationDescription)
	}
	fields = append(fields, groupNames...)
	return BuildHaystack(fields...)
}

/* =============== base queryset =============== */

// loadCandidates pulls every active store product with its relations
// prefetched in one pass. No per-row queries afterwards.
func (s *SearchService) loadCandidates(db *gorm.DB) ([]*candidate, error) {
	var sps []productModel.StoreProduct
	err := db.
		Where("store_product_is_active = ?", true).
		Preload("Prices").
		Preload("Events").
		Preload("ESS.Subject").
		Preload("ESS.ExamSession").
		Preload("PPV.CatalogProduct.FilterGroups").
		Preload("PPV.Variation").
		Preload("PPV.Recommendation.RecommendedPPV.CatalogProduct").
		Preload("PPV.Recommendation.RecommendedPPV.Variation").
		Find(&sps).Error
	if err != nil {
		return nil, err
	}

	out := make([]*candidate, 0, len(sps))
	for i := range sps {
		c := &candidate{SP: sps[i], Rank: -1}
		if c.SP.PPV != nil && c.SP.PPV.CatalogProduct != nil {
			for _, g := range c.SP.PPV.CatalogProduct.FilterGroups {
				c.GroupIDs = append(c.GroupIDs, g.CPGFilterGroupID)
			}
		}
		out = append(out, c)
	}
	return out, nil
}

/* =============== serialisation =============== */

// spIndex locates a store product by (ess, ppv); used to surface
// recommendations within the same ESS only.
type spIndex map[[2]uuid.UUID]*candidate

func buildSPIndex(cands []*candidate) spIndex {
	idx := make(spIndex, len(cands))
	for _, c := range cands {
		idx[[2]uuid.UUID{c.SP.StoreProductESSID, c.SP.StoreProductPPVID}] = c
	}
	return idx
}

func (s *SearchService) serializeProduct(c *candidate, idx spIndex) dto.SearchItem {
	item := dto.SearchItem{
		ID:              c.SP.StoreProductID.String(),
		ESSPID:          c.SP.StoreProductID.String(),
		ItemType:        constants.ItemTypeProduct,
		IsBundle:        false,
		Code:            c.SP.StoreProductCode,
		SubjectCode:     c.subjectCode(),
		ExamSessionCode: c.sessionCode(),
	}
	if c.SP.PPV != nil && c.SP.PPV.CatalogProduct != nil {
		item.Shortname = c.SP.PPV.CatalogProduct.CatalogProductShortname
		item.Fullname = c.SP.PPV.CatalogProduct.CatalogProductFullname
	}

	variation := dto.ItemVariation{Prices: serializePrices(c.SP.Prices)}
	if c.SP.PPV != nil && c.SP.PPV.Variation != nil {
		variation.Type = c.SP.PPV.Variation.VariationType
		variation.Name = c.SP.PPV.Variation.VariationName
		item.Type = c.SP.PPV.Variation.VariationType
	}

	// Recommendation stays inside the same ESS; a recommended PPV with
	// no store product in this session is not surfaced.
	if c.SP.PPV != nil && c.SP.PPV.Recommendation != nil {
		if rec, ok := idx[[2]uuid.UUID{c.SP.StoreProductESSID, c.SP.PPV.Recommendation.RecommendedPPVID}]; ok {
			variation.Recommended = &dto.Recommendation{
				ESSPID:      rec.SP.StoreProductID.String(),
				Code:        rec.SP.StoreProductCode,
				Shortname:   rec.shortname(),
				Description: c.SP.PPV.Recommendation.RecommendationDescription,
			}
		}
	}

	for _, ev := range c.SP.Events {
		variation.Events = append(variation.Events, serializeEvent(ev))
	}

	item.Variations = []dto.ItemVariation{variation}
	return item
}

func serializePrices(prices []productModel.Price) []dto.ItemPrice {
	out := make([]dto.ItemPrice, 0, len(prices))
	for _, p := range prices {
		out = append(out, dto.ItemPrice{
			PriceType: p.PriceType,
			Amount:    p.PriceAmount.StringFixed(2),
			Currency:  p.PriceCurrency,
		})
	}
	return out
}

func serializeEvent(ev productModel.TutorialEvent) dto.TutorialEvent {
	out := dto.TutorialEvent{
		Code:        ev.EventCode,
		Venue:       ev.EventVenue,
		RemainSpace: ev.EventRemainSpace,
		IsSoldout:   ev.EventIsSoldout,
	}
	if ev.EventStartDate != nil {
		out.StartDate = ev.EventStartDate.Format(time.RFC3339)
	}
	if ev.EventEndDate != nil {
		out.EndDate = ev.EventEndDate.Format(time.RFC3339)
	}
	if ev.EventFinalisationDate != nil {
		out.FinalisationDate = ev.EventFinalisationDate.Format(time.RFC3339)
	}
	return out
}

func (s *SearchService) serializeBundle(b *bundleModel.Bundle) dto.SearchItem {
	item := dto.SearchItem{
		ID:       b.BundleID.String(),
		ItemType: constants.ItemTypeBundle,
		IsBundle: true,
		Type:     "Bundle",
		Shortname: b.Name(),
		Fullname:  b.Name(),
	}
	if b.ESS != nil {
		if b.ESS.Subject != nil {
			item.SubjectCode = b.ESS.Subject.SubjectCode
		}
		if b.ESS.ExamSession != nil {
			item.ExamSessionCode = b.ESS.ExamSession.ExamSessionCode
		}
	}
	for _, bp := range b.Products {
		if !bp.BPIsActive || bp.StoreProduct == nil {
			continue
		}
		comp := dto.BundleComponent{
			StoreProductID:   bp.BPStoreProductID.String(),
			Code:             bp.StoreProduct.StoreProductCode,
			DefaultPriceType: bp.BPDefaultPriceType,
			Quantity:         bp.BPQuantity,
			Prices:           serializePrices(bp.StoreProduct.Prices),
		}
		if bp.StoreProduct.PPV != nil && bp.StoreProduct.PPV.Variation != nil {
			comp.VariationType = bp.StoreProduct.PPV.Variation.VariationType
			comp.VariationName = bp.StoreProduct.PPV.Variation.VariationName
		}
		item.Components = append(item.Components, comp)
	}
	return item
}

func (s *SearchService) serializeVoucher(v *voucherModel.MarkingVoucher) dto.SearchItem {
	return dto.SearchItem{
		ID:          v.VoucherID.String(),
		ItemType:    constants.ItemTypeVoucher,
		IsBundle:    false,
		Type:        "MarkingVoucher",
		Code:        v.VoucherCode,
		Shortname:   v.VoucherName,
		Fullname:    v.VoucherName,
		SubjectCode: "",
		Variations: []dto.ItemVariation{{
			Type: "Voucher",
			Name: v.VoucherName,
			Prices: []dto.ItemPrice{{
				PriceType: constants.PriceStandard,
				Amount:    v.VoucherPrice.StringFixed(2),
				Currency:  "GBP",
			}},
		}},
	}
}
