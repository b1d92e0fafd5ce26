// Package regex holds "/…/" rules. Each expression is compiled once and
// searched individually; regex rules are few in practice, so no attempt is
// made to merge them into one automaton.
package regex

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/haukened/rr-gfwlist/internal/gfwlist/domain"
)

// Options tunes compilation of every expression in a Matcher.
type Options struct {
	// MatchTimeout bounds a single search. Zero means no limit.
	MatchTimeout time.Duration
}

type entry struct {
	rule domain.Rule
	re   *regexp2.Regexp
}

// Matcher is immutable and safe for concurrent use.
type Matcher struct {
	entries []entry
}

// New compiles the given regex rules, in list order. The first expression
// that fails to compile aborts with a *domain.BuildError.
func New(rules []domain.Rule, opts Options) (*Matcher, error) {
	m := &Matcher{entries: make([]entry, 0, len(rules))}
	for _, r := range rules {
		if r.Kind != domain.RuleRegex {
			return nil, &domain.BuildError{Line: r.Line, Text: r.Raw, Err: fmt.Errorf("%s rule is not a regex rule", r.Kind)}
		}
		re, err := regexp2.Compile(r.Pattern, regexp2.RE2)
		if err != nil {
			return nil, &domain.BuildError{Line: r.Line, Text: r.Raw, Err: err}
		}
		if opts.MatchTimeout > 0 {
			re.MatchTimeout = opts.MatchTimeout
		}
		m.entries = append(m.entries, entry{rule: r, re: re})
	}
	return m, nil
}

// Len returns the number of rules held.
func (m *Matcher) Len() int { return len(m.entries) }

// Match searches u.String with each expression in list order and returns the
// first rule that finds a match anywhere. Anchors inside an expression keep
// their usual meaning. A search error (timeout) is returned, not treated as a miss.
func (m *Matcher) Match(u domain.NormalizedURL) (domain.Rule, bool, error) {
	for _, e := range m.entries {
		ok, err := e.re.MatchString(u.String)
		if err != nil {
			return domain.Rule{}, false, fmt.Errorf("line %d: regex %q: %w", e.rule.Line, e.rule.Raw, err)
		}
		if ok {
			return e.rule, true, nil
		}
	}
	return domain.Rule{}, false, nil
}
