package domain

import (
	"errors"
	"net/url"
	"strings"

	"github.com/haukened/rr-gfwlist/internal/gfwlist/common/utils"
)

// NormalizedURL is the canonical form every matcher searches.
//
// String is "scheme://host[:port]path[?query]" with the scheme and host
// lower-cased, the host in IDNA ASCII without trailing dots, an empty path
// replaced by "/", and the fragment and userinfo removed. Path and query keep
// their original case and escaping.
type NormalizedURL struct {
	Scheme string
	Host   string
	Port   string
	Path   string
	Query  string
	String string

	restAt int // offset in String where the text following the host starts
	pathAt int // offset in String where the path starts
}

// Rest returns the text following the host: optional ":port", path, and optional "?query".
func (u NormalizedURL) Rest() string {
	return u.String[u.restAt:]
}

// Origin returns the case-folded "scheme://host[:port]" part of String.
func (u NormalizedURL) Origin() string {
	return u.String[:u.pathAt]
}

// PathQuery returns the path and optional "?query" part of String, case preserved.
func (u NormalizedURL) PathQuery() string {
	return u.String[u.pathAt:]
}

var (
	errMissingScheme = errors.New("missing scheme")
	errMissingHost   = errors.New("missing host")
)

// NormalizeURL parses raw and returns its normalized form. It fails with a
// *URLError when raw cannot be parsed into at least a scheme and a host.
func NormalizeURL(raw string) (NormalizedURL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return NormalizedURL{}, &URLError{URL: raw, Err: err}
	}
	if u.Scheme == "" {
		return NormalizedURL{}, &URLError{URL: raw, Err: errMissingScheme}
	}
	host := utils.CanonicalHost(u.Hostname())
	if host == "" {
		return NormalizedURL{}, &URLError{URL: raw, Err: errMissingHost}
	}

	n := NormalizedURL{
		Scheme: strings.ToLower(u.Scheme),
		Host:   host,
		Port:   u.Port(),
		Path:   u.EscapedPath(),
		Query:  u.RawQuery,
	}
	if n.Path == "" {
		n.Path = "/"
	}

	var b strings.Builder
	b.Grow(len(raw) + 1)
	b.WriteString(n.Scheme)
	b.WriteString("://")
	if strings.Contains(host, ":") {
		// IPv6 literal
		b.WriteByte('[')
		b.WriteString(host)
		b.WriteByte(']')
	} else {
		b.WriteString(host)
	}
	n.restAt = b.Len()
	if n.Port != "" {
		b.WriteByte(':')
		b.WriteString(n.Port)
	}
	n.pathAt = b.Len()
	b.WriteString(n.Path)
	if n.Query != "" {
		b.WriteByte('?')
		b.WriteString(n.Query)
	}
	n.String = b.String()
	return n, nil
}
