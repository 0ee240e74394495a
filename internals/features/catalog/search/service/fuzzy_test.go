package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrepareQuery(t *testing.T) {
	q := PrepareQuery("  CM2 Mock Exam  ")
	assert.Equal(t, "CM2 Mock Exam", q.Raw)
	assert.Equal(t, "cm2 mock exam", q.Lower)
	assert.Equal(t, []string{"cm2", "mock", "exam"}, q.Tokens)
	assert.False(t, q.IsEmpty())
}

func TestPrepareQueryTooShort(t *testing.T) {
	assert.True(t, PrepareQuery("").IsEmpty())
	assert.True(t, PrepareQuery("c").IsEmpty())
	assert.True(t, PrepareQuery("  x  ").IsEmpty())
	// Two characters is the minimum.
	assert.False(t, PrepareQuery("cb").IsEmpty())
}

func TestHasBundleKeyword(t *testing.T) {
	assert.True(t, PrepareQuery("cm2 bundle").HasBundleKeyword())
	assert.True(t, PrepareQuery("materials PACKAGE").HasBundleKeyword())
	assert.True(t, PrepareQuery("combo deal").HasBundleKeyword())
	assert.True(t, PrepareQuery("revision set").HasBundleKeyword())

	// Keyword must be a whole token, not a substring.
	assert.False(t, PrepareQuery("bundles").HasBundleKeyword())
	assert.False(t, PrepareQuery("sunset mock").HasBundleKeyword())
	assert.False(t, PrepareQuery("cm2 mock").HasBundleKeyword())
}

func TestScoreExactSubjectCode(t *testing.T) {
	q := PrepareQuery("cb1")
	haystack := BuildHaystack("CB1", "Business Finance", "Combined Materials Pack")

	// Every signal fires, including the subject bonus; this is the only
	// route to a perfect 100.
	got := Score(q, haystack, "CB1")
	assert.InDelta(t, 100.0, got, 0.001)

	// Without the subject bonus the same text tops out at 85.
	got = Score(q, haystack, "")
	assert.InDelta(t, 85.0, got, 0.001)
}

func TestScoreEmptyQuery(t *testing.T) {
	assert.Zero(t, Score(PreparedQuery{}, "anything", "CB1"))
}

func TestScoreSubstringContainment(t *testing.T) {
	q := PrepareQuery("mock exam")
	full := Score(q, "cm2 mock exam pack", "")
	partial := Score(q, "cm2 mock pack", "")
	none := Score(q, "cb1 flashcards", "")

	assert.Greater(t, full, partial)
	assert.Greater(t, partial, none)
	assert.GreaterOrEqual(t, full, float64(DefaultMinFuzzyScore))
}

func TestScoreEditSimilarityTolerantOfTypos(t *testing.T) {
	q := PrepareQuery("flashcrds")
	got := Score(q, "cb1 flashcards", "")
	assert.Greater(t, got, 0.0)
	// A single dropped letter keeps the edit signal high.
	assert.Greater(t, got, weightEditSim*80)
}

func TestMatchesSubjectCodeTokenwise(t *testing.T) {
	assert.True(t, matchesSubjectCode(PrepareQuery("cb1 study"), "CB1"))
	assert.True(t, matchesSubjectCode(PrepareQuery("CB1"), "cb1"))
	assert.False(t, matchesSubjectCode(PrepareQuery("cb10 study"), "CB1"))
	assert.False(t, matchesSubjectCode(PrepareQuery("cb1"), ""))
}

func TestBuildHaystack(t *testing.T) {
	h := BuildHaystack("CB1", "", "Combined Materials Pack")
	assert.Equal(t, "cb1 combined materials pack", h)
	assert.Equal(t, "", BuildHaystack("", ""))
}

func TestLevenshteinSimilarityBounds(t *testing.T) {
	assert.InDelta(t, 100.0, levenshteinSimilarity("mock", "mock"), 0.001)
	assert.Zero(t, levenshteinSimilarity("", "mock"))
	assert.Zero(t, levenshteinSimilarity("ab", "xyzw"))
}
