package service

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Composite fuzzy scoring. The scorer is pure: callers preprocess the
// query once (PrepareQuery) and score candidate haystacks built from
// product fields and group names.
//
// Signal weights:
//
//	substring containment  0.45
//	character subsequence  0.20
//	token edit similarity  0.20
//	subject-code bonus     0.15
const (
	weightSubstring   = 0.45
	weightSubsequence = 0.20
	weightEditSim     = 0.20
	weightSubjectCode = 0.15

	DefaultMinFuzzyScore = 45
)

// Bundle intent keywords: a query containing one of these asks for
// bundles explicitly.
var bundleKeywords = []string{"bundle", "package", "combo", "set"}

type PreparedQuery struct {
	Raw    string
	Lower  string
	Tokens []string
}

// PrepareQuery lower-cases, trims and tokenises the query. Queries
// shorter than two characters come back empty.
func PrepareQuery(q string) PreparedQuery {
	q = strings.TrimSpace(q)
	if len(q) < 2 {
		return PreparedQuery{}
	}
	lower := strings.ToLower(q)
	return PreparedQuery{
		Raw:    q,
		Lower:  lower,
		Tokens: strings.Fields(lower),
	}
}

func (p PreparedQuery) IsEmpty() bool { return p.Lower == "" }

// HasBundleKeyword reports explicit bundle intent.
func (p PreparedQuery) HasBundleKeyword() bool {
	for _, kw := range bundleKeywords {
		for _, tok := range p.Tokens {
			if tok == kw {
				return true
			}
		}
	}
	return false
}

// Score computes the composite score (0..100) of a query against a
// lower-cased haystack. subjectCode is compared separately for the
// subject bonus.
func Score(p PreparedQuery, haystack string, subjectCode string) float64 {
	if p.IsEmpty() {
		return 0
	}

	score := weightSubstring * substringSignal(p, haystack)
	score += weightSubsequence * subsequenceSignal(p, haystack)
	score += weightEditSim * editSimilaritySignal(p, haystack)
	if matchesSubjectCode(p, subjectCode) {
		score += weightSubjectCode * 100
	}
	return score
}

// substringSignal: 100 when every query token appears verbatim,
// scaled down by the fraction of missing tokens.
func substringSignal(p PreparedQuery, haystack string) float64 {
	if len(p.Tokens) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range p.Tokens {
		if strings.Contains(haystack, tok) {
			hits++
		}
	}
	return 100 * float64(hits) / float64(len(p.Tokens))
}

// subsequenceSignal: character-order fuzzy match over the whole query.
func subsequenceSignal(p PreparedQuery, haystack string) float64 {
	compact := strings.ReplaceAll(p.Lower, " ", "")
	if fuzzy.Match(compact, haystack) {
		return 100
	}
	return 0
}

// editSimilaritySignal: best normalised Levenshtein similarity of any
// query token against any haystack word.
func editSimilaritySignal(p PreparedQuery, haystack string) float64 {
	words := strings.FieldsFunc(haystack, func(r rune) bool {
		return r == ' ' || r == '/' || r == ',' || r == '-' || r == '(' || r == ')'
	})
	best := 0.0
	for _, tok := range p.Tokens {
		for _, w := range words {
			sim := levenshteinSimilarity(tok, w)
			if sim > best {
				best = sim
			}
		}
	}
	return best
}

func levenshteinSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	if dist >= longest {
		return 0
	}
	return 100 * (1 - float64(dist)/float64(longest))
}

func matchesSubjectCode(p PreparedQuery, subjectCode string) bool {
	if subjectCode == "" {
		return false
	}
	code := strings.ToLower(subjectCode)
	if p.Lower == code {
		return true
	}
	for _, tok := range p.Tokens {
		if tok == code {
			return true
		}
	}
	return false
}

// BuildHaystack concatenates the searchable fields of a store product
// into one lower-cased string.
func BuildHaystack(fields ...string) string {
	var b strings.Builder
	for i, f := range fields {
		if f == "" {
			continue
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.ToLower(f))
	}
	return b.String()
}
