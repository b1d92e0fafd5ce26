package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/rr-gfwlist/internal/gfwlist/domain"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/repos/decisioncache"
)

// decisionCache is an LRU-backed decisioncache.DecisionCache.
type decisionCache struct {
	lru       *lru.Cache[string, domain.MatchDecision]
	capacity  int
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// disabledCache always misses and tracks nothing.
type disabledCache struct{}

// Disabled returns a DecisionCache that never stores anything.
func Disabled() decisioncache.DecisionCache { return disabledCache{} }

// New creates a DecisionCache holding at most size decisions. If size <= 0 a
// disabled cache is returned.
func New(size int) (decisioncache.DecisionCache, error) {
	if size <= 0 {
		return Disabled(), nil
	}

	dc := &decisionCache{capacity: size}
	// NewWithEvict also reports Purge-induced evictions.
	cache, err := lru.NewWithEvict(size, func(string, domain.MatchDecision) {
		dc.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	dc.lru = cache
	return dc, nil
}

func (c *decisionCache) Get(url string) (domain.MatchDecision, bool) {
	if d, ok := c.lru.Get(url); ok {
		c.hits.Add(1)
		return d, true
	}
	c.misses.Add(1)
	return domain.MatchDecision{}, false
}

func (c *decisionCache) Put(url string, d domain.MatchDecision) {
	c.lru.Add(url, d)
}

func (c *decisionCache) Len() int { return c.lru.Len() }

func (c *decisionCache) Purge() { c.lru.Purge() }

func (c *decisionCache) Stats() decisioncache.CacheStats {
	return decisioncache.CacheStats{
		Capacity:  c.capacity,
		Size:      c.lru.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (disabledCache) Get(string) (domain.MatchDecision, bool) { return domain.MatchDecision{}, false }

func (disabledCache) Put(string, domain.MatchDecision) {}

func (disabledCache) Len() int { return 0 }

func (disabledCache) Purge() {}

func (disabledCache) Stats() decisioncache.CacheStats { return decisioncache.CacheStats{} }

var _ decisioncache.DecisionCache = (*decisionCache)(nil)
var _ decisioncache.DecisionCache = disabledCache{}
