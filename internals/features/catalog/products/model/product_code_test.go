package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildProductCode(t *testing.T) {
	cmp := CatalogProduct{CatalogProductCode: "CMP", CatalogProductFullname: "Combined Materials Pack"}
	mock := CatalogProduct{CatalogProductCode: "MOCK", CatalogProductFullname: "Mock Exam"}

	eBook := ProductVariation{VariationType: "eBook", VariationCode: ""}
	printed := ProductVariation{VariationType: "Printed", VariationCode: ""}
	hub := ProductVariation{VariationType: "Hub", VariationCode: "H"}
	tutorial := ProductVariation{VariationType: "Tutorial", VariationCode: ""}
	marking := ProductVariation{VariationType: "Marking", VariationCode: ""}

	tests := []struct {
		name      string
		subject   string
		catalog   CatalogProduct
		variation ProductVariation
		session   string
		seq       int64
		want      string
	}{
		{"combined ebook collapses to C", "CB1", cmp, eBook, "2025A", 10, "CB1/CCMP/2025A"},
		{"combined hub collapses to C", "CB1", cmp, hub, "2025A", 10, "CB1/CCMPH/2025A"},
		{"combined printed collapses to P", "CB1", cmp, printed, "2025A", 10, "CB1/PCMP/2025A"},
		{"plain ebook keeps variation initial", "CM2", mock, eBook, "2025B", 11, "CM2/BMOCK/2025B"},
		{"plain printed keeps variation initial", "CM2", mock, printed, "2025B", 11, "CM2/PMOCK/2025B"},
		{"marking keeps variation initial", "CS1", mock, marking, "2026A", 12, "CS1/MMOCK/2026A"},
		{"tutorial appends seq suffix", "CS2", mock, tutorial, "2026A", 44, "CS2/TMOCK/2026A-44"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildProductCode(tc.subject, tc.catalog, tc.variation, tc.session, tc.seq)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBuildProductCodeTutorialSeqDistinguishesEvents(t *testing.T) {
	mock := CatalogProduct{CatalogProductCode: "TUT", CatalogProductFullname: "Regular Tutorial"}
	tutorial := ProductVariation{VariationType: "Tutorial"}

	a := BuildProductCode("CB1", mock, tutorial, "2025A", 7)
	b := BuildProductCode("CB1", mock, tutorial, "2025A", 8)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "CB1/TTUT/2025A-7", a)
}

func TestVariationPrefixFallbacks(t *testing.T) {
	plain := CatalogProduct{CatalogProductFullname: "Flashcards"}

	// First upper-case rune wins even when it is not the leading rune.
	assert.Equal(t, "B", variationPrefix(plain, ProductVariation{VariationType: "eBook"}))
	assert.Equal(t, "P", variationPrefix(plain, ProductVariation{VariationType: "Printed"}))
	// No upper-case rune at all: upper-case the first character.
	assert.Equal(t, "A", variationPrefix(plain, ProductVariation{VariationType: "audio"}))
	assert.Equal(t, "", variationPrefix(plain, ProductVariation{VariationType: ""}))
}
