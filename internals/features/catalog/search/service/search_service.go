package service

import (
	"log"
	"sort"
	"time"

	"gorm.io/gorm"

	"examstore_backend/internals/configs"
	bundleModel "examstore_backend/internals/features/catalog/bundles/model"
	filterService "examstore_backend/internals/features/catalog/filters/service"
	productModel "examstore_backend/internals/features/catalog/products/model"
	"examstore_backend/internals/features/catalog/search/dto"
	voucherModel "examstore_backend/internals/features/catalog/vouchers/model"
	helper "examstore_backend/internals/helpers"
)

// SearchService is the unified catalog query surface: products,
// bundles and marking vouchers behind one request shape.
type SearchService struct {
	DB       *gorm.DB
	Registry *filterService.FilterRegistry

	cache    *searchCache
	minScore float64
}

func NewSearchService(db *gorm.DB, registry *filterService.FilterRegistry) *SearchService {
	return &SearchService{
		DB:       db,
		Registry: registry,
		cache:    newSearchCache(),
		minScore: float64(configs.GetInt("FUZZY_SEARCH_MIN_SCORE", DefaultMinFuzzyScore)),
	}
}

// InvalidateCache drops cached pages after catalog updates.
func (s *SearchService) InvalidateCache() { s.cache.Flush() }

// Search runs the full pipeline. It never returns an error for
// internal failures: those come back as an empty page with an error
// marker. Only malformed requests (unknown dimension) surface as an
// error for the 400 path.
func (s *SearchService) Search(req *dto.SearchRequest) (*dto.SearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	key := cacheKey(req)
	if !configs.IsDebug() {
		if cached, ok := s.cache.Get(key); ok {
			resp := *cached
			resp.Performance = dto.Performance{Duration: time.Since(start).String(), Cached: true}
			return &resp, nil
		}
	}

	resp, err := s.run(req)
	if err != nil {
		log.Printf("[SEARCH] query failed: %v", err)
		return &dto.SearchResponse{
			Products:     []dto.SearchItem{},
			FilterCounts: map[string]dto.FacetCounts{},
			Pagination:   helper.BuildPageMeta(0, req.Paging()),
			Performance:  dto.Performance{Duration: time.Since(start).String(), Cached: false},
			Error:        helper.ErrCodeInternal,
		}, nil
	}

	resp.Performance = dto.Performance{Duration: time.Since(start).String(), Cached: false}
	if !configs.IsDebug() {
		s.cache.Set(key, resp)
	}
	return resp, nil
}

func (s *SearchService) run(req *dto.SearchRequest) (*dto.SearchResponse, error) {
	query := PrepareQuery(req.Query())
	filters := s.normalizeFilters(req)
	paging := req.Paging()

	base, err := s.loadCandidates(s.DB)
	if err != nil {
		return nil, err
	}
	idx := buildSPIndex(base)

	// Fuzzy prefilter: score against the concatenated fields + group
	// names, keep rows over the threshold, preserve relevance order.
	if !query.IsEmpty() {
		base = s.fuzzyPrefilter(base, query)
	}

	bundleKeyword := query.HasBundleKeyword()
	bundleCategory := filters.hasBundleCategory()

	filtered := s.applyFilters(base, filters)

	// Bundle category is exclusive: products are suppressed entirely.
	products := filtered
	if bundleCategory {
		products = nil
	}

	bundles, err := s.selectBundles(bundleSelection{
		includeBundles: req.IncludeBundles(),
		browseMode:     filters.isEmpty() && query.IsEmpty(),
		bundleKeyword:  bundleKeyword,
		bundleCategory: bundleCategory,
		subjectFilter:  filters.Subjects,
		products:       products,
	})
	if err != nil {
		return nil, err
	}

	vouchers, err := s.selectVouchers(req, query, filters)
	if err != nil {
		log.Printf("[SEARCH] voucher selection failed, skipped: %v", err)
		vouchers = nil
	}

	entries := buildEntries(products, bundles, vouchers)
	entries = mergeStreams(entries, !query.IsEmpty())

	total := int64(len(entries))
	page := slicePage(entries, paging.Offset(), paging.Limit())

	var allSubjects []productModel.Subject
	if err := s.DB.Where("subject_active = ?", true).Order("subject_code asc").Find(&allSubjects).Error; err != nil {
		log.Printf("[SEARCH] subject list failed, facet counts degraded: %v", err)
	}

	// The Bundle pseudo-category counts disjunctively like every other
	// value: the category dimension removed, only the subject filter
	// left standing. Selecting it is exclusive, so the count is the
	// subject-filtered bundle set, not the content-matched one.
	bundleFacet, err := s.selectBundles(bundleSelection{
		includeBundles: req.IncludeBundles(),
		bundleCategory: true,
		subjectFilter:  filters.Subjects,
	})
	if err != nil {
		log.Printf("[SEARCH] bundle facet count failed, degraded: %v", err)
		bundleFacet = nil
	}

	counts := s.facetCounts(base, filters, allSubjects, len(bundleFacet))

	return &dto.SearchResponse{
		Products:     s.serializePage(page, idx),
		FilterCounts: counts,
		Pagination:   helper.BuildPageMeta(total, paging),
	}, nil
}

func (s *SearchService) fuzzyPrefilter(base []*candidate, query PreparedQuery) []*candidate {
	type scored struct {
		c     *candidate
		score float64
	}
	kept := make([]scored, 0, len(base))
	for _, c := range base {
		groupNames := s.groupNames(c)
		sc := Score(query, c.haystack(groupNames), c.subjectCode())
		if sc >= s.minScore {
			kept = append(kept, scored{c: c, score: sc})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })

	out := make([]*candidate, 0, len(kept))
	for rank, sc := range kept {
		sc.c.Score = sc.score
		sc.c.Rank = rank
		out = append(out, sc.c)
	}
	return out
}

func (s *SearchService) groupNames(c *candidate) []string {
	names := make([]string, 0, len(c.GroupIDs))
	for _, id := range c.GroupIDs {
		if g, ok := s.Registry.GroupByID(id); ok {
			names = append(names, g.FilterGroupName)
		}
	}
	return names
}

/* =============== bundles =============== */

type bundleSelection struct {
	includeBundles bool
	browseMode     bool
	bundleKeyword  bool
	bundleCategory bool
	subjectFilter  []string
	products       []*candidate
}

// selectBundles implements content-based inclusion: browse mode,
// bundle keyword and the Bundle category each return the
// subject-filtered bundle set; otherwise a bundle survives only when
// it contains a product from the post-filter set.
func (s *SearchService) selectBundles(sel bundleSelection) ([]*bundleModel.Bundle, error) {
	if !sel.includeBundles {
		return nil, nil
	}

	var all []bundleModel.Bundle
	err := s.DB.
		Where("bundle_is_active = ?", true).
		Preload("Template").
		Preload("ESS.Subject").
		Preload("ESS.ExamSession").
		Preload("Products.StoreProduct.PPV.Variation").
		Preload("Products.StoreProduct.Prices").
		Order("bundle_display_order asc").
		Find(&all).Error
	if err != nil {
		return nil, err
	}

	subjectFiltered := make([]*bundleModel.Bundle, 0, len(all))
	for i := range all {
		b := &all[i]
		if len(sel.subjectFilter) == 0 || bundleMatchesSubject(b, sel.subjectFilter) {
			subjectFiltered = append(subjectFiltered, b)
		}
	}

	if sel.browseMode || sel.bundleKeyword || sel.bundleCategory {
		return subjectFiltered, nil
	}

	// Content match: empty product set means no bundles at all.
	if len(sel.products) == 0 {
		return nil, nil
	}
	inSet := make(map[string]struct{}, len(sel.products))
	for _, c := range sel.products {
		inSet[c.SP.StoreProductID.String()] = struct{}{}
	}
	out := make([]*bundleModel.Bundle, 0, len(subjectFiltered))
	for _, b := range subjectFiltered {
		for _, bp := range b.Products {
			if !bp.BPIsActive {
				continue
			}
			if _, ok := inSet[bp.BPStoreProductID.String()]; ok {
				out = append(out, b)
				break
			}
		}
	}
	return out, nil
}

func bundleMatchesSubject(b *bundleModel.Bundle, subjects []string) bool {
	if b.ESS == nil || b.ESS.Subject == nil {
		return false
	}
	c := candidate{SP: productModel.StoreProduct{ESS: b.ESS}}
	return c.matchesSubject(subjects)
}

/* =============== vouchers =============== */

// selectVouchers injects marking vouchers when the request signals
// marking interest: a marking category/product type, navbar group 8,
// or a fuzzy hit on the voucher fields.
func (s *SearchService) selectVouchers(req *dto.SearchRequest, query PreparedQuery, filters normalizedFilters) ([]*voucherModel.MarkingVoucher, error) {
	interested := filters.hasMarkingInterest() || req.NavbarFilters[dto.NavbarGroup] == "8"

	var all []voucherModel.MarkingVoucher
	if err := s.DB.Where("voucher_is_active = ?", true).Find(&all).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]*voucherModel.MarkingVoucher, 0, len(all))
	for i := range all {
		v := &all[i]
		if !v.IsAvailable(now) {
			continue
		}
		if interested {
			out = append(out, v)
			continue
		}
		if !query.IsEmpty() {
			hay := BuildHaystack(v.VoucherName, v.VoucherDescription, v.VoucherCode)
			if Score(query, hay, "") >= s.minScore {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

/* =============== streams =============== */

func buildEntries(products []*candidate, bundles []*bundleModel.Bundle, vouchers []*voucherModel.MarkingVoucher) []pageEntry {
	entries := make([]pageEntry, 0, len(products)+len(bundles)+len(vouchers))
	for _, b := range bundles {
		e := pageEntry{Kind: kindBundle, Bundle: b, Shortname: b.Name(), Rank: -1}
		if b.ESS != nil && b.ESS.Subject != nil {
			e.SubjectCode = b.ESS.Subject.SubjectCode
		}
		entries = append(entries, e)
	}
	for _, c := range products {
		entries = append(entries, pageEntry{
			Kind:        kindProduct,
			Cand:        c,
			SubjectCode: c.subjectCode(),
			Shortname:   c.shortname(),
			Seq:         c.SP.StoreProductSeq,
			Rank:        c.Rank,
		})
	}
	for i, v := range vouchers {
		entries = append(entries, pageEntry{Kind: kindVoucher, Voucher: v, Shortname: v.VoucherName, Rank: i})
	}
	return entries
}

/* =============== default search data =============== */

// DefaultSearchData backs the storefront landing state: popular
// subjects and the navbar group tree.
func (s *SearchService) DefaultSearchData() (map[string]interface{}, error) {
	var subjects []productModel.Subject
	if err := s.DB.Where("subject_active = ?", true).Order("subject_code asc").Find(&subjects).Error; err != nil {
		return nil, err
	}

	type subjectOut struct {
		ID          string `json:"id"`
		Code        string `json:"code"`
		Description string `json:"description"`
	}
	subjOut := make([]subjectOut, 0, len(subjects))
	for _, subj := range subjects {
		subjOut = append(subjOut, subjectOut{
			ID:          subj.SubjectID.String(),
			Code:        subj.SubjectCode,
			Description: subj.SubjectDescription,
		})
	}

	// The navbar tree: every group reachable from a facet dimension,
	// wearing its parent id so the storefront can nest children.
	type groupOut struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Code     string `json:"code,omitempty"`
		ParentID string `json:"parent_id,omitempty"`
	}
	var groups []groupOut
	seen := map[string]struct{}{}
	for _, cfg := range s.Registry.Configurations() {
		for _, name := range s.Registry.DimensionGroups(cfg.FilterConfigKey) {
			ids, ok := s.Registry.Descendants(name)
			if !ok {
				continue
			}
			for _, id := range ids {
				g, ok := s.Registry.GroupByID(id)
				if !ok {
					continue
				}
				key := g.FilterGroupID.String()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				out := groupOut{ID: key, Name: g.FilterGroupName, Code: g.FilterGroupCode}
				if pid, ok := s.Registry.ParentOf(g.FilterGroupID); ok {
					out.ParentID = pid.String()
				}
				groups = append(groups, out)
			}
		}
	}

	return map[string]interface{}{
		"subjects": subjOut,
		"groups":   groups,
	}, nil
}
