package service

import (
	"log"
	"strings"

	"github.com/google/uuid"

	"examstore_backend/internals/features/catalog/search/dto"
)

// normalizedFilters is the canonical filter state after navbar
// translation, with per-dimension value lists.
type normalizedFilters struct {
	Subjects        []string
	Categories      []string
	ProductTypes    []string
	ProductIDs      []string
	ESSPIDs         []string
	ModesOfDelivery []string

	// Excluded category names (navbar tutorial shorthand carries an
	// exclusion of Online Classroom).
	ExcludeCategories []string
}

func (f normalizedFilters) isEmpty() bool {
	return len(f.Subjects) == 0 && len(f.Categories) == 0 && len(f.ProductTypes) == 0 &&
		len(f.ProductIDs) == 0 && len(f.ESSPIDs) == 0 && len(f.ModesOfDelivery) == 0
}

// hasBundleCategory reports whether the exclusive Bundle toggle is
// selected.
func (f normalizedFilters) hasBundleCategory() bool {
	for _, c := range f.Categories {
		if strings.EqualFold(c, "Bundle") {
			return true
		}
	}
	return false
}

// hasMarkingInterest reports marking intent via categories or product
// types.
func (f normalizedFilters) hasMarkingInterest() bool {
	for _, v := range append(append([]string{}, f.Categories...), f.ProductTypes...) {
		if strings.Contains(strings.ToLower(v), "marking") {
			return true
		}
	}
	return false
}

// normalizeFilters merges canonical filters with translated navbar
// shorthand. Unknown navbar group names degrade silently.
func (s *SearchService) normalizeFilters(req *dto.SearchRequest) normalizedFilters {
	var f normalizedFilters

	get := func(key string) []string {
		vals := req.Filters[key]
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}

	f.Subjects = get(dto.FilterSubjects)
	f.Categories = get(dto.FilterCategories)
	f.ProductTypes = get(dto.FilterProductTypes)
	f.ProductIDs = append(get(dto.FilterProducts), get(dto.FilterProductIDs)...)
	f.ESSPIDs = get(dto.FilterESSPIDs)
	f.ModesOfDelivery = get(dto.FilterModesOfDelivery)

	// Navbar translation happens before filter application.
	for key, raw := range req.NavbarFilters {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		switch key {
		case dto.NavbarGroup, dto.NavbarTutorialFormat:
			if name, ok := s.resolveNavbarGroup(val); ok {
				f.Categories = append(f.Categories, name)
			} else {
				log.Printf("[SEARCH] navbar group %q not resolvable, dropped", val)
			}
		case dto.NavbarProduct:
			f.ProductIDs = append(f.ProductIDs, val)
		case dto.NavbarDistanceLearning:
			f.Categories = append(f.Categories, "Material")
		case dto.NavbarTutorial:
			f.Categories = append(f.Categories, "Tutorial")
			f.ExcludeCategories = append(f.ExcludeCategories, "Online Classroom")
		case dto.NavbarVariation:
			f.ModesOfDelivery = append(f.ModesOfDelivery, val)
		default:
			log.Printf("[SEARCH] unknown navbar filter %q, dropped", key)
		}
	}

	return f
}

// resolveNavbarGroup accepts a filter group name or id and returns the
// display name the category filter understands.
func (s *SearchService) resolveNavbarGroup(val string) (string, bool) {
	if g, ok := s.Registry.Group(val); ok {
		return g.FilterGroupName, true
	}
	if id, err := uuid.Parse(val); err == nil {
		if g, ok := s.Registry.GroupByID(id); ok {
			return g.FilterGroupName, true
		}
	}
	// Legacy numeric navbar ids map onto group codes.
	if name, ok := s.Registry.GroupNameByCode(val); ok {
		return name, true
	}
	return "", false
}

/* =============== candidate filtering =============== */

// applyFilters keeps the candidates matching every populated
// dimension. Per-dimension resolution failures drop that dimension
// only.
func (s *SearchService) applyFilters(cands []*candidate, f normalizedFilters) []*candidate {
	out := cands

	if len(f.Subjects) > 0 {
		out = filterCandidates(out, func(c *candidate) bool { return c.matchesSubject(f.Subjects) })
	}

	for _, names := range [][]string{f.Categories, f.ProductTypes} {
		groupNames := withoutBundle(names)
		if len(groupNames) == 0 {
			continue
		}
		idSet, resolvedAny := s.resolveGroupClosure(groupNames)
		if !resolvedAny {
			// Whole dimension unresolvable: degrade gracefully.
			continue
		}
		out = filterCandidates(out, func(c *candidate) bool { return c.matchesGroups(idSet) })
	}

	if len(f.ExcludeCategories) > 0 {
		if idSet, ok := s.resolveGroupClosure(f.ExcludeCategories); ok {
			out = filterCandidates(out, func(c *candidate) bool { return !c.matchesGroups(idSet) })
		}
	}

	if len(f.ProductIDs) > 0 {
		out = filterCandidates(out, func(c *candidate) bool { return c.matchesCatalogProduct(f.ProductIDs) })
	}

	if len(f.ESSPIDs) > 0 {
		out = filterCandidates(out, func(c *candidate) bool { return c.matchesStoreProduct(f.ESSPIDs) })
	}

	if len(f.ModesOfDelivery) > 0 {
		out = filterCandidates(out, func(c *candidate) bool { return c.matchesMode(f.ModesOfDelivery) })
	}

	return dedupeCandidates(out)
}

// resolveGroupClosure unions the descendant closures of the named
// groups. Unresolvable names are skipped; ok=false when none resolved.
func (s *SearchService) resolveGroupClosure(names []string) (map[uuid.UUID]struct{}, bool) {
	set := map[uuid.UUID]struct{}{}
	resolved := false
	for _, name := range names {
		ids, ok := s.Registry.Descendants(name)
		if !ok {
			log.Printf("[SEARCH] filter group %q not found, value dropped", name)
			continue
		}
		resolved = true
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}
	return set, resolved
}

func withoutBundle(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !strings.EqualFold(n, "Bundle") {
			out = append(out, n)
		}
	}
	return out
}

func filterCandidates(in []*candidate, keep func(*candidate) bool) []*candidate {
	out := make([]*candidate, 0, len(in))
	for _, c := range in {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func dedupeCandidates(in []*candidate) []*candidate {
	seen := make(map[uuid.UUID]struct{}, len(in))
	out := make([]*candidate, 0, len(in))
	for _, c := range in {
		if _, ok := seen[c.SP.StoreProductID]; ok {
			continue
		}
		seen[c.SP.StoreProductID] = struct{}{}
		out = append(out, c)
	}
	return out
}
