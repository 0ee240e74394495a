package service

import (
	"sort"

	bundleModel "examstore_backend/internals/features/catalog/bundles/model"
	voucherModel "examstore_backend/internals/features/catalog/vouchers/model"
	"examstore_backend/internals/features/catalog/search/dto"
)

const (
	kindBundle  = 0
	kindProduct = 1
	kindVoucher = 2
)

// pageEntry is the light merged-stream element; full serialisation
// happens only for the entries landing on the requested page.
type pageEntry struct {
	Kind        int
	SubjectCode string
	Shortname   string
	Seq         int64
	Rank        int // fuzzy relevance rank; -1 when unranked

	Cand    *candidate
	Bundle  *bundleModel.Bundle
	Voucher *voucherModel.MarkingVoucher
}

// mergeStreams produces the composite ordering.
//
// Browse mode: one stratum per subject code ascending, bundles before
// products inside each stratum, shortname then seq as tie-breaks,
// vouchers trail the whole list.
//
// Fuzzy mode: subjects appear in order of their best product
// relevance; products keep relevance order inside their subject and
// bundles interleave per subject instead of clustering up front.
func mergeStreams(entries []pageEntry, fuzzy bool) []pageEntry {
	if !fuzzy {
		sort.SliceStable(entries, func(i, j int) bool {
			return browseLess(entries[i], entries[j])
		})
		return entries
	}

	// Relevance order of subjects = best (lowest) product rank seen.
	bestRank := map[string]int{}
	for _, e := range entries {
		if e.Kind != kindProduct || e.Rank < 0 {
			continue
		}
		if cur, ok := bestRank[e.SubjectCode]; !ok || e.Rank < cur {
			bestRank[e.SubjectCode] = e.Rank
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if (a.Kind == kindVoucher) != (b.Kind == kindVoucher) {
			return b.Kind == kindVoucher
		}
		if a.Kind == kindVoucher {
			return a.Rank < b.Rank
		}
		ra, rb := subjectRank(bestRank, a.SubjectCode), subjectRank(bestRank, b.SubjectCode)
		if ra != rb {
			return ra < rb
		}
		if a.SubjectCode != b.SubjectCode {
			return a.SubjectCode < b.SubjectCode
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Kind == kindProduct && a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if a.Shortname != b.Shortname {
			return a.Shortname < b.Shortname
		}
		return a.Seq < b.Seq
	})
	return entries
}

func browseLess(a, b pageEntry) bool {
	if (a.Kind == kindVoucher) != (b.Kind == kindVoucher) {
		return b.Kind == kindVoucher
	}
	if a.Kind == kindVoucher {
		return a.Shortname < b.Shortname
	}
	if a.SubjectCode != b.SubjectCode {
		return a.SubjectCode < b.SubjectCode
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Shortname != b.Shortname {
		return a.Shortname < b.Shortname
	}
	return a.Seq < b.Seq
}

// subjectRank: subjects with no ranked product (bundle-only strata)
// sort after ranked subjects, alphabetically via the caller's
// SubjectCode comparison.
func subjectRank(best map[string]int, code string) int {
	if r, ok := best[code]; ok {
		return r
	}
	return int(^uint(0) >> 1)
}

// slicePage applies offset/limit over the merged stream.
func slicePage(entries []pageEntry, offset, limit int) []pageEntry {
	if offset >= len(entries) || offset < 0 {
		return nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end]
}

// serializePage materialises only the page slice.
func (s *SearchService) serializePage(page []pageEntry, idx spIndex) []dto.SearchItem {
	out := make([]dto.SearchItem, 0, len(page))
	for _, e := range page {
		switch e.Kind {
		case kindBundle:
			out = append(out, s.serializeBundle(e.Bundle))
		case kindProduct:
			out = append(out, s.serializeProduct(e.Cand, idx))
		case kindVoucher:
			out = append(out, s.serializeVoucher(e.Voucher))
		}
	}
	return out
}
