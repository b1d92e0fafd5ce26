// Package classifier keeps the current filter engine behind a decision cache
// and swaps in a rebuilt engine when the list changes.
package classifier

import (
	"errors"
	"sync"
	"time"

	"github.com/haukened/rr-gfwlist/internal/gfwlist/common/clock"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/common/log"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/domain"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/engine"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/repos/decisioncache"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/repos/decisioncache/lru"
)

// ErrNotLoaded is returned by Classify before any list has been loaded.
var ErrNotLoaded = errors.New("no filter list loaded")

// Classifier answers Classify calls from the engine built by the last
// successful Reload. Safe for concurrent use.
type Classifier struct {
	mu         sync.RWMutex
	engine     *engine.Engine
	cache      decisioncache.DecisionCache
	clock      clock.Clock
	logger     log.Logger
	engineOpts []engine.Option
	lastReload time.Time
	reloads    uint64
	failures   uint64
}

// ClassifierOptions configures NewClassifier. Every field is optional.
type ClassifierOptions struct {
	Cache         decisioncache.DecisionCache
	Clock         clock.Clock
	Logger        log.Logger
	EngineOptions []engine.Option
}

// Stats is a snapshot of the classifier and its cache.
type Stats struct {
	Engine        engine.Stats
	Cache         decisioncache.CacheStats
	LastReload    time.Time
	Reloads       uint64
	FailedReloads uint64
}

// NewClassifier returns a Classifier with no list loaded. Call Reload before
// Classify. Nil options fall back to a real clock and the global logger; a nil
// cache disables caching.
func NewClassifier(opts ClassifierOptions) *Classifier {
	c := &Classifier{
		cache:      opts.Cache,
		clock:      opts.Clock,
		logger:     opts.Logger,
		engineOpts: opts.EngineOptions,
	}
	if c.cache == nil {
		c.cache = lru.Disabled()
	}
	if c.clock == nil {
		c.clock = clock.RealClock{}
	}
	if c.logger == nil {
		c.logger = log.GetLogger()
	}
	return c
}

// Classify decides whether rawURL is blocked by the current list. Decisions
// are cached by normalized URL; URL and match-time errors are not cached.
func (c *Classifier) Classify(rawURL string) (domain.MatchDecision, error) {
	u, err := domain.NormalizeURL(rawURL)
	if err != nil {
		c.logger.Debug(map[string]any{"url": rawURL, "error": err.Error()}, "classify_bad_url")
		return domain.NotBlocked(), err
	}

	// The read lock spans evaluation and cache fill so a concurrent Reload
	// cannot leave a decision from the old engine in the purged cache.
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.engine == nil {
		return domain.NotBlocked(), ErrNotLoaded
	}
	if d, ok := c.cache.Get(u.String); ok {
		return d, nil
	}
	d, err := c.engine.EvaluateNormalized(u)
	if err != nil {
		c.logger.Warn(map[string]any{"url": u.String, "error": err.Error()}, "classify_failed")
		return domain.NotBlocked(), err
	}
	c.cache.Put(u.String, d)
	return d, nil
}

// Reload builds a new engine from list text. On success the new engine
// replaces the current one and the cache is purged. On failure the current
// engine keeps serving and the error is returned.
func (c *Classifier) Reload(text string) error {
	opts := append([]engine.Option{engine.WithLogger(c.logger)}, c.engineOpts...)
	start := c.clock.Now()
	e, err := engine.Construct(text, opts...)
	if err != nil {
		c.mu.Lock()
		c.failures++
		c.mu.Unlock()
		c.logger.Error(map[string]any{"error": err.Error()}, "reload_failed")
		return err
	}

	now := c.clock.Now()
	c.mu.Lock()
	c.engine = e
	c.cache.Purge()
	c.lastReload = now
	c.reloads++
	c.mu.Unlock()

	c.logger.Info(map[string]any{
		"rules":    e.Size(),
		"duration": now.Sub(start).String(),
	}, "reload_done")
	return nil
}

// Loaded reports whether a list has been loaded successfully.
func (c *Classifier) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engine != nil
}

// Stats returns counters for the current engine, the cache and reloads.
// Engine stats stay zero until a list is loaded.
func (c *Classifier) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := Stats{
		Cache:         c.cache.Stats(),
		LastReload:    c.lastReload,
		Reloads:       c.reloads,
		FailedReloads: c.failures,
	}
	if c.engine != nil {
		st.Engine = c.engine.Stats()
	}
	return st
}
