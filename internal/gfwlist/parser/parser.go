// Package parser turns gfwlist/Adblock-style list text into domain.Rule values.
//
// Parsing is strict: the first malformed line aborts the whole list with a
// *domain.SyntaxError, so a caller never sees a partially parsed list.
package parser

import (
	"bufio"
	"io"
	"strings"

	logpkg "github.com/haukened/rr-gfwlist/internal/gfwlist/common/log"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/common/utils"
	"github.com/haukened/rr-gfwlist/internal/gfwlist/domain"
)

const maxLineBytes = 1 << 20

// ParseLine parses one line of list text. lineNum is the 1-based line number
// and becomes the rule's list order. The boolean result is false for lines
// that carry no rule (blank, comment, header); those never produce an error.
//
// Classification, in priority order:
//  1. "@@"      exception, the remainder is parsed as the rule body
//  2. "/…/"     regular expression
//  3. "||host"  domain anchor, with an optional trailing literal
//  4. "|…"      prefix anchored at the start of the URL ("|…|" anchors both ends)
//  5. "…|"      suffix anchored at the end of the URL
//  6. anything else is a wildcard substring
func ParseLine(line string, lineNum int) (domain.Rule, bool, error) {
	raw := normalizeLine(line)
	if classifyLine(raw) != lineRule {
		return domain.Rule{}, false, nil
	}

	rule := domain.Rule{Raw: raw, Line: lineNum}
	body := raw
	if strings.HasPrefix(body, "@") {
		if !strings.HasPrefix(body, "@@") {
			return domain.Rule{}, false, syntaxError(lineNum, raw, "exception marker must be \"@@\"")
		}
		rule.Exception = true
		body = body[2:]
		if strings.HasPrefix(body, "@") {
			return domain.Rule{}, false, syntaxError(lineNum, raw, "nested exception marker")
		}
	}

	if err := parseBody(&rule, body); err != nil {
		return domain.Rule{}, false, err
	}
	return rule, true, nil
}

// parseBody fills Kind, Host and Pattern of r from the rule body (the line
// without its exception marker).
func parseBody(r *domain.Rule, body string) error {
	if body == "" {
		return syntaxError(r.Line, r.Raw, "empty pattern")
	}

	switch {
	case strings.HasPrefix(body, "/"):
		if len(body) < 2 || !strings.HasSuffix(body, "/") {
			return syntaxError(r.Line, r.Raw, "unterminated regular expression")
		}
		src := body[1 : len(body)-1]
		if src == "" {
			return syntaxError(r.Line, r.Raw, "empty regular expression")
		}
		r.Kind = domain.RuleRegex
		r.Pattern = src

	case strings.HasPrefix(body, "||"):
		host, trailing := splitAnchoredHost(body[2:])
		// "*." adds nothing: subdomains already match. Any other '*' makes
		// a wildcard host, matched against each label-aligned host suffix.
		host = strings.TrimPrefix(host, "*.")
		host = utils.CanonicalHost(host)
		if host == "" {
			return syntaxError(r.Line, r.Raw, "empty host")
		}
		r.Kind = domain.RuleDomainAnchor
		r.Host = host
		r.Pattern = trailing

	case strings.HasPrefix(body, "|"):
		lit := body[1:]
		if strings.HasSuffix(lit, "|") {
			lit = lit[:len(lit)-1]
			r.AnchorEnd = true
		}
		if lit == "" {
			return syntaxError(r.Line, r.Raw, "empty pattern")
		}
		r.Kind = domain.RulePrefix
		r.Pattern = lit

	case strings.HasSuffix(body, "|"):
		lit := body[:len(body)-1]
		if lit == "" {
			return syntaxError(r.Line, r.Raw, "empty pattern")
		}
		r.Kind = domain.RuleSuffix
		r.Pattern = lit

	default:
		r.Kind = domain.RuleWildcard
		r.Pattern = body
	}
	return nil
}

// ParseList parses a whole list. It stops at the first syntax error.
//
// Behavior:
// - Blank lines, "!" comments and "[...]" headers are skipped and not counted
// - Rules keep their source order; Line is the physical line number
// - Duplicate lines are kept: each parsed line is one rule
func ParseList(r io.Reader, logger logpkg.Logger) ([]domain.Rule, error) {
	if logger == nil {
		logger = logpkg.NewNoopLogger()
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	out := make([]domain.Rule, 0, 256)
	logger.Debug(nil, "parse_list_start")
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		rule, ok, err := ParseLine(scanner.Text(), lineNum)
		if err != nil {
			logger.Debug(map[string]any{"line": lineNum, "error": err.Error()}, "parse_list_syntax_error")
			return nil, err
		}
		if !ok {
			logger.Debug(map[string]any{"line": lineNum, "class": classifyLine(normalizeLine(scanner.Text())).String()}, "skip_line")
			continue
		}
		out = append(out, rule)
	}
	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"error": err.Error()}, "parse_list_scan_error")
		return nil, err
	}
	logger.Debug(map[string]any{"lines": lineNum, "count": len(out)}, "parse_list_done")
	return out, nil
}

func syntaxError(line int, text, reason string) error {
	return &domain.SyntaxError{Line: line, Text: text, Reason: reason}
}
