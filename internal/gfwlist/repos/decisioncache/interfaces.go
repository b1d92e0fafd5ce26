// Package decisioncache defines the cache the classifier keeps in front of
// the engine. Implementations live in subpackages.
package decisioncache

import "github.com/haukened/rr-gfwlist/internal/gfwlist/domain"

// DecisionCache caches match decisions by normalized URL with basic metrics.
// Implementations must be safe for concurrent use.
type DecisionCache interface {
	Get(url string) (domain.MatchDecision, bool)
	Put(url string, d domain.MatchDecision)
	Len() int
	Purge()
	Stats() CacheStats
}

// CacheStats reports lightweight cache metrics.
// All fields are best-effort snapshots and may be updated concurrently.
type CacheStats struct {
	Capacity  int    // configured capacity (0 for disabled cache)
	Size      int    // current number of entries
	Hits      uint64 // total cache hits since construction
	Misses    uint64 // total cache misses since construction
	Evictions uint64 // total evictions since construction
}
