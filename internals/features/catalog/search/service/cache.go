package service

import (
	"crypto/sha1"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"examstore_backend/internals/configs"
	"examstore_backend/internals/features/catalog/search/dto"
)

// Response cache: in-process, TTL-bound (SEARCH_CACHE_TIMEOUT seconds,
// default 300). The filter-registry refresh cycle flushes it; the TTL
// is the safety net between refreshes.
type searchCache struct {
	c *gocache.Cache
}

func newSearchCache() *searchCache {
	ttl := time.Duration(configs.GetInt("SEARCH_CACHE_TIMEOUT", 300)) * time.Second
	return &searchCache{c: gocache.New(ttl, 2*ttl)}
}

func cacheKey(req *dto.SearchRequest) string {
	sum := sha1.Sum([]byte(req.CacheKeySource()))
	return "search:" + hex.EncodeToString(sum[:])
}

func (sc *searchCache) Get(key string) (*dto.SearchResponse, bool) {
	v, ok := sc.c.Get(key)
	if !ok {
		return nil, false
	}
	resp, ok := v.(*dto.SearchResponse)
	return resp, ok
}

func (sc *searchCache) Set(key string, resp *dto.SearchResponse) {
	sc.c.SetDefault(key, resp)
}

// Flush drops all cached pages; exposed for the catalog-update signal.
func (sc *searchCache) Flush() {
	sc.c.Flush()
}
