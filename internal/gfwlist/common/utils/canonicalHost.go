package utils

import (
	"strings"

	"golang.org/x/net/idna"
)

// CanonicalHost returns a host name in canonical form:
// - Trimmed of surrounding whitespace
// - Lowercased
// - IDNA ASCII (punycode) when the name holds non-ASCII labels
// - No trailing dot, so "example.com." and "example.com" share trie paths.
func CanonicalHost(host string) string {
	host = strings.TrimSpace(host)
	host = strings.ToLower(host)
	for strings.HasSuffix(host, ".") {
		host = strings.TrimSuffix(host, ".")
	}
	if host == "" || isASCII(host) {
		return host
	}
	// Lookup is strict; fall back to the lowered form rather than losing the host.
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		return ascii
	}
	return host
}

// ReversedLabels splits a host on '.' and returns the labels top-level first.
// Empty labels (from "a..b") are dropped.
func ReversedLabels(host string) []string {
	parts := strings.Split(host, ".")
	out := make([]string, 0, len(parts))
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] == "" {
			continue
		}
		out = append(out, parts[i])
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
