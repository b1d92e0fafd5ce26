package regex

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-gfwlist/internal/gfwlist/domain"
)

func rx(line int, src string) domain.Rule {
	return domain.Rule{Kind: domain.RuleRegex, Raw: "/" + src + "/", Line: line, Pattern: src}
}

func mustURL(t *testing.T, raw string) domain.NormalizedURL {
	t.Helper()
	u, err := domain.NormalizeURL(raw)
	require.NoError(t, err)
	return u
}

func TestMatch_SearchSemantics(t *testing.T) {
	m, err := New([]domain.Rule{rx(1, "regex-pattern")}, Options{})
	require.NoError(t, err)

	_, ok, err := m.Match(mustURL(t, "http://example.com/has/regex-pattern/inside"))
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = m.Match(mustURL(t, "http://example.com/nothing"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatch_AnchorsInsidePattern(t *testing.T) {
	m, err := New([]domain.Rule{
		rx(1, `^https?:\/\/[^\/]+blogspot\.(.*)`),
		rx(2, `\.flv$`),
	}, Options{})
	require.NoError(t, err)

	got, ok, err := m.Match(mustURL(t, "https://someone.blogspot.de/post"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, got.Line)

	_, ok, err = m.Match(mustURL(t, "ftp://someone.blogspot.de/post"))
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err = m.Match(mustURL(t, "http://video.example/clip.flv"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got.Line)

	_, ok, err = m.Match(mustURL(t, "http://video.example/clip.flv?start=1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatch_ListOrder(t *testing.T) {
	m, err := New([]domain.Rule{rx(4, "example"), rx(9, "example\\.com")}, Options{})
	require.NoError(t, err)
	got, ok, err := m.Match(mustURL(t, "http://example.com/"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, got.Line)
	assert.Equal(t, 2, m.Len())
}

func TestNew_CompileErrorIsBuildError(t *testing.T) {
	_, err := New([]domain.Rule{rx(1, "ok"), rx(2, "(unclosed")}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBuild))
	var be *domain.BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 2, be.Line)
	assert.Equal(t, "/(unclosed/", be.Text)
}

func TestNew_RejectsOtherKinds(t *testing.T) {
	_, err := New([]domain.Rule{{Kind: domain.RuleWildcard, Raw: "x", Line: 1, Pattern: "x"}}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBuild))
}

func TestNew_TimeoutApplied(t *testing.T) {
	m, err := New([]domain.Rule{rx(1, "a")}, Options{MatchTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, m.entries[0].re.MatchTimeout)
}

func TestMatch_Empty(t *testing.T) {
	m, err := New(nil, Options{})
	require.NoError(t, err)
	_, ok, err := m.Match(mustURL(t, "http://example.com/"))
	require.NoError(t, err)
	assert.False(t, ok)
}
