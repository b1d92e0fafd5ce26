package parser

import "strings"

// lineClass is the outcome of the pre-parse classification of a line.
type lineClass uint8

const (
	lineRule lineClass = iota
	lineEmpty
	lineComment
	lineHeader
)

func (c lineClass) String() string {
	switch c {
	case lineEmpty:
		return "empty"
	case lineComment:
		return "comment"
	case lineHeader:
		return "header"
	default:
		return "rule"
	}
}

// normalizeLine trims surrounding whitespace (including the '\r' of CRLF input)
// and a leading byte-order mark.
func normalizeLine(line string) string {
	line = strings.TrimPrefix(line, "\uFEFF")
	return strings.TrimSpace(line)
}

// classifyLine decides whether a normalized line carries a rule.
// Blank lines, "!" comments and bracketed list headers such as
// "[AutoProxy 0.2.9]" do not.
func classifyLine(line string) lineClass {
	switch {
	case line == "":
		return lineEmpty
	case strings.HasPrefix(line, "!"):
		return lineComment
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return lineHeader
	default:
		return lineRule
	}
}

// splitAnchoredHost splits the body of a "||" rule into its host and the
// trailing literal. The host ends at the first '/', '^' or ':' (port).
//
// A '^' separator directly after the host stands for the ':' or '/' that
// always follows a host in a normalized URL. It is dropped when nothing
// follows it or when an explicit ':' or '/' does; otherwise it is kept as
// the first byte of the trailing literal for the domain matcher to consume.
func splitAnchoredHost(s string) (host, trailing string) {
	idx := strings.IndexAny(s, "/^:")
	if idx < 0 {
		return s, ""
	}
	host, trailing = s[:idx], s[idx:]
	if rest, ok := strings.CutPrefix(trailing, "^"); ok {
		if rest == "" || rest[0] == '/' || rest[0] == ':' {
			return host, rest
		}
	}
	return host, trailing
}
