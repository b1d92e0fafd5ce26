package pattern

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/haukened/rr-gfwlist/internal/gfwlist/domain"
)

// CompileWildcard compiles a filter literal into a glob matcher. '*' is the
// only meta character: it matches any run of characters, including none.
// Every other character is literal. Unless anchored, the literal may start
// and end anywhere in the input (substring semantics).
func CompileWildcard(literal string, anchorStart, anchorEnd bool) (glob.Glob, error) {
	return glob.Compile(wildcardExpr(literal, anchorStart, anchorEnd))
}

func wildcardExpr(literal string, anchorStart, anchorEnd bool) string {
	var b strings.Builder
	b.Grow(len(literal) + 2)
	if !anchorStart {
		b.WriteByte('*')
	}
	for i, seg := range strings.Split(literal, "*") {
		if i > 0 {
			b.WriteByte('*')
		}
		b.WriteString(glob.QuoteMeta(seg))
	}
	if !anchorEnd {
		b.WriteByte('*')
	}
	return b.String()
}

// foldHostSide lower-cases the part of a pattern that lines up with the
// scheme and host of a normalized URL, which are lower-cased too. For
// patterns containing "://" that is everything up to the first '/' after
// it; otherwise everything before the first '/'. Path and query text keeps
// its case. Only call it when the pattern's position is known to start in
// the scheme or host: prefix rules and patterns containing "://".
func foldHostSide(p string) string {
	start := 0
	if i := strings.Index(p, "://"); i >= 0 {
		start = i + len("://")
	}
	end := strings.IndexByte(p[start:], '/')
	if end < 0 {
		return strings.ToLower(p)
	}
	end += start
	return strings.ToLower(p[:end]) + p[end:]
}

// hostBound reports whether a pattern is known to line up with the start of
// the scheme or host, so folding its host side is exact.
func hostBound(kind domain.RuleKind, p string) bool {
	return kind == domain.RulePrefix || strings.Contains(p, "://")
}

// variant is one way a rule can match. Either whole is searched in the full
// URL, or host must match the origin and path, when set, the path and query.
type variant struct {
	whole glob.Glob
	host  glob.Glob
	path  glob.Glob
}

func (v variant) match(u domain.NormalizedURL) bool {
	if v.whole != nil {
		return v.whole.Match(u.String)
	}
	if !v.host.Match(u.Origin()) {
		return false
	}
	return v.path == nil || v.path.Match(u.PathQuery())
}

// hostVariant builds the case-insensitive reading of an unanchored pattern
// whose text before the first '/' falls inside the host. It returns the
// literal text the variant needs in the URL, and false when folding changes
// nothing or the pattern cannot reach the host.
func hostVariant(p string, anchorEnd bool) (variant, string, bool, error) {
	pre, post, hasSlash := strings.Cut(p, "/")
	lower := strings.ToLower(pre)
	if lower == pre {
		return variant{}, "", false, nil
	}
	if !hasSlash {
		// the URL always ends in its path, so an end-anchored pattern
		// without '/' never reaches the host
		if anchorEnd {
			return variant{}, "", false, nil
		}
		g, err := CompileWildcard(lower, false, false)
		if err != nil {
			return variant{}, "", false, err
		}
		return variant{host: g}, lower, true, nil
	}
	host, err := CompileWildcard(lower, false, true)
	if err != nil {
		return variant{}, "", false, err
	}
	path, err := CompileWildcard("/"+post, true, anchorEnd)
	if err != nil {
		return variant{}, "", false, err
	}
	return variant{host: host, path: path}, lower + "/" + post, true, nil
}

// longestSegment returns the longest '*'-free run of the pattern, the piece
// every match must contain. Empty when the pattern is only wildcards.
func longestSegment(p string) string {
	best := ""
	for _, seg := range strings.Split(p, "*") {
		if len(seg) > len(best) {
			best = seg
		}
	}
	return best
}
