package engine

import (
	"fmt"
	"strings"
	"time"

	logpkg "github.com/haukened/rr-gfwlist/internal/gfwlist/common/log"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/matchers/domaintrie"
)

// MatcherKind names one of the three matchers. The block phase consults them
// in precedence order; the first that reports a rule decides.
type MatcherKind uint8

const (
	MatcherDomain MatcherKind = iota
	MatcherPattern
	MatcherRegex
)

// DefaultPrecedence is Domain, then Pattern, then Regex.
var DefaultPrecedence = []MatcherKind{MatcherDomain, MatcherPattern, MatcherRegex}

func (k MatcherKind) String() string {
	switch k {
	case MatcherDomain:
		return "domain"
	case MatcherPattern:
		return "pattern"
	case MatcherRegex:
		return "regex"
	default:
		return fmt.Sprintf("MatcherKind(%d)", k)
	}
}

// ParseMatcherKind accepts "domain", "pattern" or "regex" (case-insensitive).
func ParseMatcherKind(s string) (MatcherKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "domain":
		return MatcherDomain, nil
	case "pattern":
		return MatcherPattern, nil
	case "regex":
		return MatcherRegex, nil
	default:
		return 0, fmt.Errorf("unsupported matcher kind: %q", s)
	}
}

type options struct {
	logger       logpkg.Logger
	precedence   []MatcherKind
	regexTimeout time.Duration
	bloomFPRate  float64
}

// Option configures Construct.
type Option func(*options)

// WithLogger sets the logger used while building. Defaults to a no-op logger.
func WithLogger(l logpkg.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPrecedence overrides the order in which block matchers are consulted.
// It must name each matcher kind exactly once.
func WithPrecedence(order ...MatcherKind) Option {
	return func(o *options) {
		o.precedence = append([]MatcherKind(nil), order...)
	}
}

// WithRegexTimeout bounds each regex search. Zero means no limit.
func WithRegexTimeout(d time.Duration) Option {
	return func(o *options) { o.regexTimeout = d }
}

// WithBloomFPRate sets the false-positive target of the domain pre-filter.
func WithBloomFPRate(p float64) Option {
	return func(o *options) { o.bloomFPRate = p }
}

func defaultOptions() options {
	return options{
		logger:      logpkg.NewNoopLogger(),
		precedence:  append([]MatcherKind(nil), DefaultPrecedence...),
		bloomFPRate: domaintrie.DefaultFPRate,
	}
}

func validatePrecedence(order []MatcherKind) error {
	if len(order) != len(DefaultPrecedence) {
		return fmt.Errorf("precedence must list %d matchers, got %d", len(DefaultPrecedence), len(order))
	}
	seen := make(map[MatcherKind]bool, len(order))
	for _, k := range order {
		if k > MatcherRegex {
			return fmt.Errorf("unsupported matcher kind in precedence: %s", k)
		}
		if seen[k] {
			return fmt.Errorf("duplicate matcher kind in precedence: %s", k)
		}
		seen[k] = true
	}
	return nil
}
