// Package domaintrie indexes "||host" rules by reversed domain labels.
//
// The trie lives in a flat arena: nodes are addressed by index and children
// refer to each other by index, so the structure is built with plain appends
// and shared read-only afterwards. A Bloom filter over every inserted host
// lets most lookups for unrelated hosts return before touching the trie.
//
// Hosts holding a '*' ("||google.*") cannot be keyed by label. They are kept
// in a short list beside the trie and tested against every label-aligned
// suffix of the URL host.
package domaintrie

import (
	"fmt"
	"strings"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
	"github.com/gobwas/glob"

	"github.com/haukened/rr-gfwlist/internal/gfwlist/common/utils"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/domain"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/matchers/pattern"
)

// DefaultFPRate is the Bloom filter false-positive target used by NewBuilder.
const DefaultFPRate = 0.01

const rootIndex = 0

type node struct {
	children  map[string]uint32
	terminals []uint32 // entry indexes, ascending
}

type entry struct {
	rule     domain.Rule
	host     glob.Glob // set for wildcard hosts only
	trailing glob.Glob // nil when the rule has no trailing literal
	afterSep bool      // trailing literal starts after the separator that follows the host
}

// trailingMatch checks the text following the host against the trailing literal.
func (e entry) trailingMatch(u domain.NormalizedURL) bool {
	if e.trailing == nil {
		return true
	}
	rest := u.Rest()
	if e.afterSep {
		// the separator is the ':' or '/' that ends the host
		if rest == "" {
			return false
		}
		rest = rest[1:]
	}
	return e.trailing.Match(rest)
}

// hostMatch tests a wildcard host against host and each of its parent domains.
func (e entry) hostMatch(host string) bool {
	for {
		if e.host.Match(host) {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			return false
		}
		host = host[i+1:]
	}
}

// Builder accumulates domain-anchor rules. Not safe for concurrent use.
type Builder struct {
	nodes   []node
	entries []entry
	wild    []uint32 // entry indexes with wildcard hosts, ascending
	fpRate  float64
}

// NewBuilder returns a Builder with a root node and the default FP rate.
func NewBuilder() *Builder {
	return NewBuilderWithFPRate(DefaultFPRate)
}

// NewBuilderWithFPRate returns a Builder whose Bloom pre-filter targets fpRate.
func NewBuilderWithFPRate(fpRate float64) *Builder {
	return &Builder{nodes: []node{{}}, fpRate: fpRate}
}

// Add inserts a domain-anchor rule. Rules must be added in list order.
func (b *Builder) Add(r domain.Rule) error {
	if r.Kind != domain.RuleDomainAnchor {
		return &domain.BuildError{Line: r.Line, Text: r.Raw, Err: fmt.Errorf("%s rule is not a domain-anchor rule", r.Kind)}
	}
	e := entry{rule: r}
	if r.HasTrailing() {
		lit := r.Pattern
		lit, e.afterSep = strings.CutPrefix(lit, "^")
		g, err := pattern.CompileWildcard(lit, true, false)
		if err != nil {
			return &domain.BuildError{Line: r.Line, Text: r.Raw, Err: err}
		}
		e.trailing = g
	}

	if r.HasWildcardHost() {
		g, err := pattern.CompileWildcard(r.Host, true, true)
		if err != nil {
			return &domain.BuildError{Line: r.Line, Text: r.Raw, Err: err}
		}
		e.host = g
		idx := uint32(len(b.entries))
		b.entries = append(b.entries, e)
		b.wild = append(b.wild, idx)
		return nil
	}

	labels := utils.ReversedLabels(r.Host)
	if len(labels) == 0 {
		return &domain.BuildError{Line: r.Line, Text: r.Raw, Err: fmt.Errorf("host %q has no labels", r.Host)}
	}
	idx := uint32(len(b.entries))
	b.entries = append(b.entries, e)

	cur := uint32(rootIndex)
	for _, label := range labels {
		next, ok := b.nodes[cur].children[label]
		if !ok {
			next = uint32(len(b.nodes))
			b.nodes = append(b.nodes, node{})
			if b.nodes[cur].children == nil {
				b.nodes[cur].children = make(map[string]uint32)
			}
			b.nodes[cur].children[label] = next
		}
		cur = next
	}
	b.nodes[cur].terminals = append(b.nodes[cur].terminals, idx)
	return nil
}

// Build freezes the builder into a Matcher. The builder must not be reused.
func (b *Builder) Build() *Matcher {
	m := &Matcher{nodes: b.nodes, entries: b.entries, wild: b.wild}
	keyed := len(b.entries) - len(b.wild)
	if keyed == 0 {
		return m
	}
	bits, hashes := bloomSize(uint64(keyed), b.fpRate)
	m.bloom = bitsbloom.New(uint(bits), uint(hashes))
	for _, e := range b.entries {
		if e.host == nil {
			m.bloom.AddString(hostKey(utils.ReversedLabels(e.rule.Host)))
		}
	}
	return m
}

// Matcher is immutable and safe for concurrent use.
type Matcher struct {
	nodes   []node
	entries []entry
	wild    []uint32
	bloom   *bitsbloom.BloomFilter
}

// Len returns the number of rules held.
func (m *Matcher) Len() int { return len(m.entries) }

// Lookup walks the reversed labels of u.Host as deep as the trie allows.
// Every terminal on the walk applies to the host (the rule host equals the
// URL host or is a label-aligned suffix of it), as does every wildcard host
// matching the URL host or one of its parents. Rules whose trailing literal
// does not match the text after the host are ignored. The earliest rule in
// list order among the remaining ones is returned.
func (m *Matcher) Lookup(u domain.NormalizedURL) (domain.Rule, bool) {
	if len(m.entries) == 0 {
		return domain.Rule{}, false
	}
	best := -1
	labels := utils.ReversedLabels(u.Host)
	if m.mightContain(labels) {
		best = m.walk(u, labels)
	}
	for _, wi := range m.wild {
		if best >= 0 && int(wi) >= best {
			break
		}
		e := m.entries[wi]
		if e.hostMatch(u.Host) && e.trailingMatch(u) {
			best = int(wi)
			break
		}
	}
	if best < 0 {
		return domain.Rule{}, false
	}
	return m.entries[best].rule, true
}

// walk returns the earliest applicable trie entry for labels, or -1.
func (m *Matcher) walk(u domain.NormalizedURL, labels []string) int {
	best := -1
	cur := uint32(rootIndex)
	for _, label := range labels {
		next, ok := m.nodes[cur].children[label]
		if !ok {
			break
		}
		cur = next
		for _, ti := range m.nodes[cur].terminals {
			if best >= 0 && int(ti) >= best {
				break
			}
			if !m.entries[ti].trailingMatch(u) {
				continue
			}
			best = int(ti)
			break
		}
	}
	return best
}

// mightContain tests the Bloom filter with every label-aligned suffix of
// the host, given as reversed labels.
func (m *Matcher) mightContain(labels []string) bool {
	if m.bloom == nil {
		return true
	}
	key := ""
	for _, label := range labels {
		if key == "" {
			key = label
		} else {
			key = label + "." + key
		}
		if m.bloom.TestString(key) {
			return true
		}
	}
	return false
}

// hostKey joins reversed labels back into a dotted host.
func hostKey(labels []string) string {
	var b strings.Builder
	for i := len(labels) - 1; i >= 0; i-- {
		b.WriteString(labels[i])
		if i > 0 {
			b.WriteByte('.')
		}
	}
	return b.String()
}
