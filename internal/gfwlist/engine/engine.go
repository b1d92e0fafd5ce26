// Package engine builds an immutable filter-list matcher from list text and
// answers whether a URL is blocked.
//
// Construction is all-or-nothing: a syntax error in any line, or a rule that
// cannot be compiled, fails Construct and no Engine is returned. Once built,
// an Engine is never mutated; share it freely between goroutines and build a
// new one to pick up list changes.
package engine

import (
	"fmt"
	"strings"

	"github.com/haukened/rr-gfwlist/internal/gfwlist/domain"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/matchers/domaintrie"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/matchers/pattern"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/matchers/regex"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/parser"
)

// matcherSet is one side (block or exception) of the three matchers.
type matcherSet struct {
	domains  *domaintrie.Matcher
	patterns *pattern.Matcher
	regexes  *regex.Matcher
}

func (s *matcherSet) len() int {
	return s.domains.Len() + s.patterns.Len() + s.regexes.Len()
}

// match consults the matchers in the given order and returns the first rule found.
func (s *matcherSet) match(u domain.NormalizedURL, order []MatcherKind) (domain.Rule, bool, error) {
	for _, k := range order {
		switch k {
		case MatcherDomain:
			if r, ok := s.domains.Lookup(u); ok {
				return r, true, nil
			}
		case MatcherPattern:
			if r, ok := s.patterns.Match(u); ok {
				return r, true, nil
			}
		case MatcherRegex:
			r, ok, err := s.regexes.Match(u)
			if err != nil {
				return domain.Rule{}, false, err
			}
			if ok {
				return r, true, nil
			}
		}
	}
	return domain.Rule{}, false, nil
}

// Engine is a fully built, read-only filter list.
type Engine struct {
	block      matcherSet
	exception  matcherSet
	precedence []MatcherKind
	size       int
}

// Stats reports how the parsed rules were distributed across matchers.
type Stats struct {
	Rules             int
	BlockDomains      int
	BlockPatterns     int
	BlockRegexes      int
	ExceptionDomains  int
	ExceptionPatterns int
	ExceptionRegexes  int
}

// Construct parses list text and builds every matcher before returning.
// It fails with a *domain.SyntaxError for a malformed line or a
// *domain.BuildError for a rule that cannot be compiled.
func Construct(text string, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := validatePrecedence(o.precedence); err != nil {
		return nil, &domain.BuildError{Err: err}
	}

	rules, err := parser.ParseList(strings.NewReader(text), o.logger)
	if err != nil {
		return nil, err
	}
	return build(rules, o)
}

// build partitions parsed rules into the six matcher sets. Each rule lands in
// exactly one of them.
func build(rules []domain.Rule, o options) (*Engine, error) {
	type side struct {
		domains  *domaintrie.Builder
		patterns *pattern.Builder
		regexes  []domain.Rule
	}
	newSide := func() *side {
		return &side{
			domains:  domaintrie.NewBuilderWithFPRate(o.bloomFPRate),
			patterns: pattern.NewBuilder(),
		}
	}
	block, exception := newSide(), newSide()

	for _, r := range rules {
		s := block
		if r.Exception {
			s = exception
		}
		var err error
		switch r.Kind {
		case domain.RuleDomainAnchor:
			err = s.domains.Add(r)
		case domain.RulePrefix, domain.RuleSuffix, domain.RuleWildcard:
			err = s.patterns.Add(r)
		case domain.RuleRegex:
			s.regexes = append(s.regexes, r)
		default:
			err = &domain.BuildError{Line: r.Line, Text: r.Raw, Err: fmt.Errorf("unsupported rule kind %s", r.Kind)}
		}
		if err != nil {
			return nil, err
		}
	}

	finish := func(s *side) (matcherSet, error) {
		rx, err := regex.New(s.regexes, regex.Options{MatchTimeout: o.regexTimeout})
		if err != nil {
			return matcherSet{}, err
		}
		return matcherSet{domains: s.domains.Build(), patterns: s.patterns.Build(), regexes: rx}, nil
	}
	blockSet, err := finish(block)
	if err != nil {
		return nil, err
	}
	exceptionSet, err := finish(exception)
	if err != nil {
		return nil, err
	}

	if n := blockSet.len() + exceptionSet.len(); n != len(rules) {
		return nil, &domain.BuildError{Err: fmt.Errorf("indexed %d rules, parsed %d", n, len(rules))}
	}

	e := &Engine{
		block:      blockSet,
		exception:  exceptionSet,
		precedence: o.precedence,
		size:       len(rules),
	}
	st := e.Stats()
	o.logger.Info(map[string]any{
		"rules":              st.Rules,
		"block_domains":      st.BlockDomains,
		"block_patterns":     st.BlockPatterns,
		"block_regexes":      st.BlockRegexes,
		"exception_domains":  st.ExceptionDomains,
		"exception_patterns": st.ExceptionPatterns,
		"exception_regexes":  st.ExceptionRegexes,
	}, "engine_built")
	return e, nil
}

// Evaluate decides whether rawURL is blocked.
//
//  1. The URL is normalized; failure is a *domain.URLError.
//  2. Any exception rule that applies makes the URL not blocked.
//  3. Otherwise the block matchers are consulted in precedence order and,
//     within a matcher, in list order; the first rule found is reported.
//  4. No block rule means not blocked.
func (e *Engine) Evaluate(rawURL string) (domain.MatchDecision, error) {
	u, err := domain.NormalizeURL(rawURL)
	if err != nil {
		return domain.NotBlocked(), err
	}
	return e.EvaluateNormalized(u)
}

// EvaluateNormalized is Evaluate for an already normalized URL.
func (e *Engine) EvaluateNormalized(u domain.NormalizedURL) (domain.MatchDecision, error) {
	_, excepted, err := e.exception.match(u, e.precedence)
	if err != nil {
		return domain.NotBlocked(), err
	}
	if excepted {
		return domain.NotBlocked(), nil
	}
	r, blocked, err := e.block.match(u, e.precedence)
	if err != nil {
		return domain.NotBlocked(), err
	}
	if !blocked {
		return domain.NotBlocked(), nil
	}
	return domain.BlockedBy(r), nil
}

// EvaluateText returns the raw text of the block rule that applies to rawURL,
// with ok false when the URL is not blocked.
func (e *Engine) EvaluateText(rawURL string) (rule string, ok bool, err error) {
	d, err := e.Evaluate(rawURL)
	if err != nil {
		return "", false, err
	}
	return d.MatchedRule, d.Blocked, nil
}

// Test reports only whether rawURL is blocked.
func (e *Engine) Test(rawURL string) (bool, error) {
	d, err := e.Evaluate(rawURL)
	return d.Blocked, err
}

// Size returns the number of parsed rules, block and exception together.
func (e *Engine) Size() int { return e.size }

// Stats returns the per-matcher rule counts.
func (e *Engine) Stats() Stats {
	return Stats{
		Rules:             e.size,
		BlockDomains:      e.block.domains.Len(),
		BlockPatterns:     e.block.patterns.Len(),
		BlockRegexes:      e.block.regexes.Len(),
		ExceptionDomains:  e.exception.domains.Len(),
		ExceptionPatterns: e.exception.patterns.Len(),
		ExceptionRegexes:  e.exception.regexes.Len(),
	}
}

// String is a short description for logs.
func (e *Engine) String() string {
	return fmt.Sprintf("Engine(rules=%d)", e.size)
}
