package domaintrie

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-gfwlist/internal/gfwlist/domain"
)

func anchor(line int, host, trailing string) domain.Rule {
	raw := "||" + host + trailing
	return domain.Rule{Kind: domain.RuleDomainAnchor, Raw: raw, Line: line, Host: host, Pattern: trailing}
}

func build(t testing.TB, rules ...domain.Rule) *Matcher {
	t.Helper()
	b := NewBuilder()
	for _, r := range rules {
		require.NoError(t, b.Add(r))
	}
	return b.Build()
}

func lookup(t testing.TB, m *Matcher, raw string) (domain.Rule, bool) {
	t.Helper()
	u, err := domain.NormalizeURL(raw)
	require.NoError(t, err)
	return m.Lookup(u)
}

func TestLookup_SubdomainSemantics(t *testing.T) {
	m := build(t, anchor(1, "example.com", ""))

	tests := []struct {
		url  string
		want bool
	}{
		{"http://example.com/", true},
		{"http://www.example.com/", true},
		{"https://a.b.example.com/page?x=1", true},
		{"http://EXAMPLE.COM./", true},
		{"http://notexample.com/", false},
		{"http://example.com.evil.org/", false},
		{"http://com/", false},
		{"http://example.org/", false},
	}
	for _, tt := range tests {
		_, ok := lookup(t, m, tt.url)
		assert.Equal(t, tt.want, ok, "url %s", tt.url)
	}
}

func TestLookup_TrailingLiteral(t *testing.T) {
	m := build(t,
		anchor(1, "example.com", "/search"),
		anchor(2, "example.com", ":8080"),
	)

	got, ok := lookup(t, m, "http://www.example.com/search?q=x")
	require.True(t, ok)
	assert.Equal(t, 1, got.Line)

	_, ok = lookup(t, m, "http://www.example.com/Search")
	assert.False(t, ok, "trailing literal is case-sensitive")

	_, ok = lookup(t, m, "http://www.example.com/other/search")
	assert.False(t, ok, "trailing literal is anchored right after the host")

	got, ok = lookup(t, m, "http://example.com:8080/")
	require.True(t, ok)
	assert.Equal(t, 2, got.Line)
}

func TestLookup_TrailingWildcard(t *testing.T) {
	m := build(t, anchor(1, "example.com", "/*.mp4"))
	_, ok := lookup(t, m, "http://cdn.example.com/videos/a.mp4")
	assert.True(t, ok)
	_, ok = lookup(t, m, "http://cdn.example.com/videos/a.webm")
	assert.False(t, ok)
}

func TestLookup_SeparatorTrailing(t *testing.T) {
	m := build(t, anchor(1, "example.com", "^foo"))

	tests := []struct {
		url  string
		want bool
	}{
		{"http://example.com/foo", true},
		{"http://www.example.com/foobar", true},
		{"http://example.com/bar/foo", false},
		{"http://example.com/Foo", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			_, ok := lookup(t, m, tt.url)
			assert.Equal(t, tt.want, ok)
		})
	}

	m = build(t, anchor(1, "example.com", "^8080"))
	_, ok := lookup(t, m, "http://example.com:8080/")
	assert.True(t, ok, "separator also matches the port colon")
}

func TestLookup_WildcardHost(t *testing.T) {
	m := build(t,
		anchor(1, "google.*", ""),
		anchor(2, "a*b.com", ""),
	)

	tests := []struct {
		url  string
		line int
		ok   bool
	}{
		{"http://google.com/", 1, true},
		{"http://www.google.com/", 1, true},
		{"https://google.co.jp/search", 1, true},
		{"http://notgoogle.com/", 0, false},
		{"http://ab.com/", 2, true},
		{"http://www.axxb.com/", 2, true},
		{"http://b.com/", 0, false},
		{"http://axxb.org/", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := lookup(t, m, tt.url)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.line, got.Line)
			}
		})
	}
}

func TestLookup_WildcardHostListOrder(t *testing.T) {
	m := build(t,
		anchor(1, "www.google.com", "/only"),
		anchor(2, "google.*", ""),
		anchor(3, "google.com", ""),
	)
	got, ok := lookup(t, m, "http://www.google.com/other")
	require.True(t, ok)
	assert.Equal(t, 2, got.Line)

	got, ok = lookup(t, m, "http://www.google.com/only")
	require.True(t, ok)
	assert.Equal(t, 1, got.Line)

	m = build(t, anchor(1, "google.*", "/maps"))
	_, ok = lookup(t, m, "http://google.de/maps/x")
	assert.True(t, ok)
	_, ok = lookup(t, m, "http://google.de/mail")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestLookup_ListOrderAcrossDepths(t *testing.T) {
	m := build(t,
		anchor(1, "b.example.com", ""),
		anchor(2, "example.com", ""),
	)
	got, ok := lookup(t, m, "http://a.b.example.com/")
	require.True(t, ok)
	assert.Equal(t, 1, got.Line, "earliest rule wins")

	m = build(t,
		anchor(1, "example.com", ""),
		anchor(2, "b.example.com", ""),
	)
	got, ok = lookup(t, m, "http://a.b.example.com/")
	require.True(t, ok)
	assert.Equal(t, 1, got.Line)
}

func TestLookup_ShallowRuleWhenDeepTrailingFails(t *testing.T) {
	m := build(t,
		anchor(1, "b.example.com", "/only"),
		anchor(2, "example.com", ""),
	)
	got, ok := lookup(t, m, "http://a.b.example.com/other")
	require.True(t, ok)
	assert.Equal(t, 2, got.Line)
}

func TestLookup_Empty(t *testing.T) {
	m := NewBuilder().Build()
	_, ok := lookup(t, m, "http://example.com/")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestBuilder_Errors(t *testing.T) {
	b := NewBuilder()
	err := b.Add(domain.Rule{Kind: domain.RuleWildcard, Raw: "x", Line: 1, Pattern: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBuild))

	err = b.Add(domain.Rule{Kind: domain.RuleDomainAnchor, Raw: "||.", Line: 2, Host: "."})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBuild))
}

func TestArenaSharesPrefixes(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(anchor(1, "a.example.com", "")))
	require.NoError(t, b.Add(anchor(2, "b.example.com", "")))
	require.NoError(t, b.Add(anchor(3, "example.com", "")))
	// root, com, example, a, b
	assert.Len(t, b.nodes, 5)
	m := b.Build()
	assert.Equal(t, 3, m.Len())
}

func TestMightContain(t *testing.T) {
	m := build(t, anchor(1, "example.com", ""))
	assert.True(t, m.mightContain([]string{"com", "example", "www"}))
	assert.True(t, m.mightContain([]string{"com", "example"}))

	empty := &Matcher{}
	assert.True(t, empty.mightContain([]string{"org"}), "no filter means no pre-filtering")
}

func TestHostKey(t *testing.T) {
	assert.Equal(t, "a.example.com", hostKey([]string{"com", "example", "a"}))
	assert.Equal(t, "localhost", hostKey([]string{"localhost"}))
	assert.Equal(t, "", hostKey(nil))
}

func TestBloomSize(t *testing.T) {
	m, k := bloomSize(1000, 0.01)
	assert.Equal(t, uint64(9586), m)
	assert.Equal(t, uint64(7), k)

	m, k = bloomSize(0, 2)
	assert.Greater(t, m, uint64(0))
	assert.GreaterOrEqual(t, k, uint64(1))
}

func TestLookup_Concurrent(t *testing.T) {
	rules := make([]domain.Rule, 0, 100)
	for i := 0; i < 100; i++ {
		rules = append(rules, anchor(i+1, fmt.Sprintf("host%d.example", i), ""))
	}
	m := build(t, rules...)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				n := (i + g) % 100
				u, err := domain.NormalizeURL(fmt.Sprintf("http://www.host%d.example/", n))
				if !assert.NoError(t, err) {
					return
				}
				got, ok := m.Lookup(u)
				if assert.True(t, ok) {
					assert.Equal(t, n+1, got.Line)
				}
			}
		}(g)
	}
	wg.Wait()
}
