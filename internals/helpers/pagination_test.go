package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePaging(t *testing.T) {
	// page 0 is kept as the empty-page sentinel, never served as page 1.
	p := NormalizePaging(0, 0)
	assert.Equal(t, 0, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Negative(t, p.Offset())

	p = NormalizePaging(-3, 500)
	assert.Equal(t, 0, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)

	p = NormalizePaging(4, 100)
	assert.Equal(t, 4, p.Page)
	assert.Equal(t, 100, p.PageSize)
	assert.Equal(t, 300, p.Offset())
	assert.Equal(t, 100, p.Limit())
}

func TestBuildPageMeta(t *testing.T) {
	meta := BuildPageMeta(45, Paging{Page: 1, PageSize: 20})
	assert.Equal(t, int64(45), meta.TotalCount)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.False(t, meta.HasPrevious)

	meta = BuildPageMeta(45, Paging{Page: 3, PageSize: 20})
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrevious)

	meta = BuildPageMeta(0, Paging{Page: 1, PageSize: 20})
	assert.Zero(t, meta.TotalPages)
	assert.False(t, meta.HasNext)
	assert.False(t, meta.HasPrevious)

	// A page past the end still reports no neighbours forward.
	meta = BuildPageMeta(10, Paging{Page: 9, PageSize: 20})
	assert.Equal(t, 1, meta.TotalPages)
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrevious)

	// Page 0 never points forward even when results exist.
	meta = BuildPageMeta(10, Paging{Page: 0, PageSize: 20})
	assert.False(t, meta.HasNext)
	assert.False(t, meta.HasPrevious)
}
