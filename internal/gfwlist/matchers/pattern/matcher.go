// Package pattern holds prefix, suffix and wildcard rules and tests a URL
// against all of them in one pass.
//
// Every rule contributes its longest literal segment to a single Aho-Corasick
// automaton. One scan of the URL yields the rules whose segment occurs; only
// those candidates are verified against their compiled glob, which enforces
// the remaining segments, their order, and the start/end anchoring.
//
// Scheme and host compare case-insensitively, path and query case-sensitively.
// Prefix rules and patterns containing "://" have their host side folded
// once. Other patterns may land in the host or in the path, so they keep
// their case and also get a folded variant that must line up with the host.
package pattern

import (
	"fmt"

	"github.com/cloudflare/ahocorasick"

	"github.com/haukened/rr-gfwlist/internal/gfwlist/domain"
)

type entry struct {
	rule     domain.Rule
	variants []variant
}

func (e entry) match(u domain.NormalizedURL) bool {
	for _, v := range e.variants {
		if v.match(u) {
			return true
		}
	}
	return false
}

// Builder accumulates rules for one Matcher. Not safe for concurrent use.
type Builder struct {
	entries []entry
	anchors []string
	byText  map[string]int
	members [][]int
	always  []int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byText: make(map[string]int)}
}

// Add compiles a prefix, suffix or wildcard rule. Rules must be added in
// list order; that order breaks ties when several rules match.
func (b *Builder) Add(r domain.Rule) error {
	var anchorStart, anchorEnd bool
	switch r.Kind {
	case domain.RulePrefix:
		anchorStart, anchorEnd = true, r.AnchorEnd
	case domain.RuleSuffix:
		anchorEnd = true
	case domain.RuleWildcard:
	default:
		return &domain.BuildError{Line: r.Line, Text: r.Raw, Err: fmt.Errorf("%s rule is not a pattern rule", r.Kind)}
	}

	text := r.Pattern
	if hostBound(r.Kind, r.Pattern) {
		text = foldHostSide(r.Pattern)
	}
	g, err := CompileWildcard(text, anchorStart, anchorEnd)
	if err != nil {
		return &domain.BuildError{Line: r.Line, Text: r.Raw, Err: err}
	}
	e := entry{rule: r, variants: []variant{{whole: g}}}
	segs := []string{longestSegment(text)}

	if !hostBound(r.Kind, r.Pattern) {
		v, vtext, ok, err := hostVariant(r.Pattern, anchorEnd)
		if err != nil {
			return &domain.BuildError{Line: r.Line, Text: r.Raw, Err: err}
		}
		if ok {
			e.variants = append(e.variants, v)
			segs = append(segs, longestSegment(vtext))
		}
	}

	idx := len(b.entries)
	b.entries = append(b.entries, e)
	b.index(idx, segs)
	return nil
}

// index registers entry idx under each distinct segment. An entry with an
// empty segment has nothing to search for and is always verified.
func (b *Builder) index(idx int, segs []string) {
	for _, seg := range segs {
		if seg == "" {
			b.always = append(b.always, idx)
			return
		}
	}
	for i, seg := range segs {
		if i > 0 && seg == segs[0] {
			continue
		}
		id, ok := b.byText[seg]
		if !ok {
			id = len(b.anchors)
			b.byText[seg] = id
			b.anchors = append(b.anchors, seg)
			b.members = append(b.members, nil)
		}
		b.members[id] = append(b.members[id], idx)
	}
}

// Build freezes the builder into a Matcher. The builder must not be reused.
func (b *Builder) Build() *Matcher {
	m := &Matcher{
		entries: b.entries,
		members: b.members,
		always:  b.always,
	}
	if len(b.anchors) > 0 {
		m.ac = ahocorasick.NewStringMatcher(b.anchors)
	}
	return m
}

// Matcher is immutable and safe for concurrent use.
type Matcher struct {
	entries []entry
	ac      *ahocorasick.Matcher
	members [][]int // automaton dictionary index -> entry indexes, ascending
	always  []int   // entries without a literal segment
}

// Len returns the number of rules held.
func (m *Matcher) Len() int { return len(m.entries) }

// Match reports the earliest rule, in list order, that matches u.String.
func (m *Matcher) Match(u domain.NormalizedURL) (domain.Rule, bool) {
	if len(m.entries) == 0 {
		return domain.Rule{}, false
	}
	best := -1
	verify := func(idx int) bool {
		if best >= 0 && idx >= best {
			return false
		}
		if m.entries[idx].match(u) {
			best = idx
			return true
		}
		return true
	}
	for _, idx := range m.always {
		if !verify(idx) {
			break
		}
	}
	if m.ac != nil {
		for _, hit := range m.ac.MatchThreadSafe([]byte(u.String)) {
			for _, idx := range m.members[hit] {
				if !verify(idx) {
					break
				}
			}
		}
	}
	if best < 0 {
		return domain.Rule{}, false
	}
	return m.entries[best].rule, true
}
