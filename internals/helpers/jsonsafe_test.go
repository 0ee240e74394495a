package helper

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSafeJSONValueScalars(t *testing.T) {
	assert.Nil(t, SafeJSONValue(nil))
	assert.Equal(t, "hello", SafeJSONValue("hello"))
	assert.Equal(t, 42, SafeJSONValue(42))
	assert.Equal(t, true, SafeJSONValue(true))
	assert.Equal(t, "raw bytes", SafeJSONValue([]byte("raw bytes")))
	assert.Equal(t, "boom", SafeJSONValue(errors.New("boom")))
}

func TestSafeJSONValueRichTypes(t *testing.T) {
	ts := time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-09-01T10:30:00Z", SafeJSONValue(ts))
	assert.Equal(t, "2025-09-01T10:30:00Z", SafeJSONValue(&ts))

	var nilTime *time.Time
	assert.Nil(t, SafeJSONValue(nilTime))

	assert.Equal(t, "19.99", SafeJSONValue(decimal.NewFromFloat(19.99)))

	id := uuid.New()
	assert.Equal(t, id.String(), SafeJSONValue(id))
}

func TestSafeJSONValueComposites(t *testing.T) {
	got := SafeJSONValue(map[string]interface{}{
		"amount": decimal.NewFromInt(5),
		"tags":   []string{"order", "high"},
	})
	m, ok := got.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "5", m["amount"])
	assert.Equal(t, []interface{}{"order", "high"}, m["tags"])
}

func TestSafeJSONValueStructShallow(t *testing.T) {
	type inner struct {
		Deep string `json:"deep"`
	}
	type sample struct {
		Name   string          `json:"name"`
		Amount decimal.Decimal `json:"amount"`
		When   time.Time       `json:"when"`
		Nested inner           `json:"nested"`
		Hidden string          `json:"-"`
		secret string
	}
	_ = sample{secret: "x"}.secret

	got := SafeJSONValue(sample{
		Name:   "CMP",
		Amount: decimal.NewFromFloat(12.50),
		When:   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Nested: inner{Deep: "dropped"},
		Hidden: "dropped",
	})
	m, ok := got.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "CMP", m["name"])
	assert.Equal(t, "12.5", m["amount"])
	assert.Equal(t, "2025-01-02T00:00:00Z", m["when"])
	assert.NotContains(t, m, "nested")
	assert.NotContains(t, m, "Hidden")
	assert.NotContains(t, m, "secret")
}

func TestSafeJSONMap(t *testing.T) {
	out := SafeJSONMap(map[string]interface{}{
		"user_id": uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		"total":   decimal.NewFromFloat(100.10),
		"note":    "ok",
	})
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", out["user_id"])
	assert.Equal(t, "100.1", out["total"])
	assert.Equal(t, "ok", out["note"])
}
