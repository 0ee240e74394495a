package service

import (
	"log"

	"github.com/google/uuid"

	productModel "examstore_backend/internals/features/catalog/products/model"
	"examstore_backend/internals/features/catalog/search/dto"
)

// facetCounts computes disjunctive counts: each dimension is counted
// against the base with every filter applied except its own, so
// sibling options stay selectable. Zero-count values are retained.
//
// Any failure inside a dimension yields an empty counts map for that
// dimension only; products still come back.
func (s *SearchService) facetCounts(
	base []*candidate,
	f normalizedFilters,
	allSubjects []productModel.Subject,
	bundleCount int,
) map[string]dto.FacetCounts {
	counts := map[string]dto.FacetCounts{
		dto.FilterSubjects:        s.subjectCounts(base, f, allSubjects),
		dto.FilterCategories:      s.groupCounts(base, f, dto.FilterCategories),
		dto.FilterProductTypes:    s.groupCounts(base, f, dto.FilterProductTypes),
		dto.FilterModesOfDelivery: s.modeCounts(base, f),
	}

	// Bundle pseudo-category: bundles matching the current subject
	// filter, regardless of the other dimensions.
	cat := counts[dto.FilterCategories]
	if cat == nil {
		cat = dto.FacetCounts{}
		counts[dto.FilterCategories] = cat
	}
	cat["Bundle"] = dto.FacetCount{Count: bundleCount}

	return counts
}

func (s *SearchService) subjectCounts(base []*candidate, f normalizedFilters, allSubjects []productModel.Subject) dto.FacetCounts {
	scoped := f
	scoped.Subjects = nil
	pool := s.applyFilters(base, scoped)

	out := make(dto.FacetCounts, len(allSubjects))
	for _, subj := range allSubjects {
		if !subj.SubjectActive {
			continue
		}
		n := 0
		for _, c := range pool {
			if c.SP.ESS != nil && c.SP.ESS.ESSSubjectID == subj.SubjectID {
				n++
			}
		}
		out[subj.SubjectCode] = dto.FacetCount{Count: n, ID: subj.SubjectID.String()}
	}
	return out
}

// groupCounts rolls counts up the hierarchy: a group's count is the
// number of distinct filtered products belonging to the group or any
// descendant.
func (s *SearchService) groupCounts(base []*candidate, f normalizedFilters, dimension string) dto.FacetCounts {
	scoped := f
	switch dimension {
	case dto.FilterCategories:
		scoped.Categories = nil
	case dto.FilterProductTypes:
		scoped.ProductTypes = nil
	}
	pool := s.applyFilters(base, scoped)

	out := dto.FacetCounts{}
	for _, name := range s.Registry.DimensionGroups(dimension) {
		closureIDs, ok := s.Registry.Descendants(name)
		if !ok {
			log.Printf("[SEARCH] facet group %q vanished during count, skipped", name)
			continue
		}
		set := make(map[uuid.UUID]struct{}, len(closureIDs))
		for _, id := range closureIDs {
			set[id] = struct{}{}
		}
		n := 0
		for _, c := range pool {
			for _, gid := range c.GroupIDs {
				if _, hit := set[gid]; hit {
					n++
					break
				}
			}
		}
		var id string
		if g, ok := s.Registry.Group(name); ok {
			id = g.FilterGroupID.String()
		}
		out[name] = dto.FacetCount{Count: n, ID: id}
	}
	return out
}

func (s *SearchService) modeCounts(base []*candidate, f normalizedFilters) dto.FacetCounts {
	scoped := f
	scoped.ModesOfDelivery = nil
	pool := s.applyFilters(base, scoped)

	// Facet values come from the whole base so deselected modes stay
	// visible at zero.
	out := dto.FacetCounts{}
	for _, c := range base {
		if c.SP.PPV == nil || c.SP.PPV.Variation == nil {
			continue
		}
		name := c.SP.PPV.Variation.VariationName
		if _, ok := out[name]; !ok {
			out[name] = dto.FacetCount{}
		}
	}
	for _, c := range pool {
		if c.SP.PPV == nil || c.SP.PPV.Variation == nil {
			continue
		}
		name := c.SP.PPV.Variation.VariationName
		fc := out[name]
		fc.Count++
		out[name] = fc
	}
	return out
}
