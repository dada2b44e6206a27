package services

import (
	"fmt"
	"strings"
	"time"

	"amora_server/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheService holds recently computed discovery results. Entries expire on
// their own after the configured TTL, but any interaction action evicts both
// members' entries immediately: serving an already-decided candidate again
// would be a correctness bug, not just staleness.
type CacheService struct {
	lru *expirable.LRU[string, []models.MatchCandidate]
}

// NewCacheService creates a cache bounded by size with the given TTL.
func NewCacheService(size int, ttl time.Duration) *CacheService {
	return &CacheService{
		lru: expirable.NewLRU[string, []models.MatchCandidate](size, nil, ttl),
	}
}

// DiscoverKey builds the cache key for a discovery request. The user id is
// the leading segment so InvalidateUser can evict by prefix.
func DiscoverKey(userID string, limit int, f DiscoveryFilters) string {
	minAge, maxAge := "any", "any"
	if f.MinAge != nil {
		minAge = fmt.Sprintf("%d", *f.MinAge)
	}
	if f.MaxAge != nil {
		maxAge = fmt.Sprintf("%d", *f.MaxAge)
	}
	gender := f.Gender
	if gender == "" {
		gender = "any"
	}
	return fmt.Sprintf("discover:%s:%d:%s:%s:%s", userID, limit, minAge, maxAge, gender)
}

// Get returns the cached result for key, if present.
func (c *CacheService) Get(key string) ([]models.MatchCandidate, bool) {
	return c.lru.Get(key)
}

// Set stores a discovery result under key.
func (c *CacheService) Set(key string, value []models.MatchCandidate) {
	c.lru.Add(key, value)
}

// InvalidateUser evicts every cached discovery result belonging to userID.
func (c *CacheService) InvalidateUser(userID string) {
	prefix := "discover:" + userID + ":"
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
}
