package domain

import (
	"fmt"
	"strings"
)

// RuleKind identifies the syntactic form of a filter rule. It is a closed set;
// matchers dispatch on it with a switch.
//
// domain-anchor - "||host[/trailing]", matches the host and every subdomain
// prefix        - "|literal", matches from the start of the URL
// suffix        - "literal|", matches up to the end of the URL
// wildcard      - "lit*eral", matches anywhere in the URL
// regex         - "/source/", regular expression searched in the URL
type RuleKind uint8

const (
	// RuleDomainAnchor matches a host and all of its subdomains.
	RuleDomainAnchor RuleKind = iota
	// RulePrefix matches a wildcard literal anchored at the start of the URL.
	RulePrefix
	// RuleSuffix matches a wildcard literal anchored at the end of the URL.
	RuleSuffix
	// RuleWildcard matches a wildcard literal anywhere in the URL.
	RuleWildcard
	// RuleRegex matches a regular expression anywhere in the URL.
	RuleRegex
)

// String returns a stable string representation of the rule kind.
func (k RuleKind) String() string {
	switch k {
	case RuleDomainAnchor:
		return "domain-anchor"
	case RulePrefix:
		return "prefix"
	case RuleSuffix:
		return "suffix"
	case RuleWildcard:
		return "wildcard"
	case RuleRegex:
		return "regex"
	default:
		return fmt.Sprintf("RuleKind(%d)", k)
	}
}

// ParseRuleKind converts a string into a RuleKind (case-insensitive).
func ParseRuleKind(s string) (RuleKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "domain-anchor":
		return RuleDomainAnchor, nil
	case "prefix":
		return RulePrefix, nil
	case "suffix":
		return RuleSuffix, nil
	case "wildcard":
		return RuleWildcard, nil
	case "regex":
		return RuleRegex, nil
	default:
		return 0, fmt.Errorf("unsupported RuleKind: %q", s)
	}
}

// Rule is a single parsed filter rule. Rules are values and are never mutated
// after parsing.
//
// Notes:
//   - Raw is the trimmed source line and is what a block decision reports.
//   - Line is the 1-based line number in the list text and doubles as the list order.
//   - Host is only set for domain-anchor rules; it is lower-cased and IDNA ASCII,
//     and may hold '*' wildcards ("||google.*").
//   - Pattern is the wildcard literal, the trailing literal of a domain anchor,
//     or the regex source, depending on Kind. A trailing literal that starts
//     with '^' begins with the separator following the host.
type Rule struct {
	Kind      RuleKind
	Exception bool
	Raw       string
	Line      int
	Host      string
	Pattern   string
	AnchorEnd bool // prefix rule written as "|literal|": must match the whole URL
}

// Validate checks that the rule carries the fields its kind requires.
func (r Rule) Validate() error {
	if r.Raw == "" {
		return fmt.Errorf("rule raw text must not be empty")
	}
	switch r.Kind {
	case RuleDomainAnchor:
		if r.Host == "" {
			return fmt.Errorf("domain-anchor rule must have a host")
		}
	case RulePrefix, RuleSuffix, RuleWildcard, RuleRegex:
		if r.Pattern == "" {
			return fmt.Errorf("%s rule must have a pattern", r.Kind)
		}
	default:
		return fmt.Errorf("unsupported RuleKind: %d", r.Kind)
	}
	return nil
}

// HasTrailing reports whether a domain-anchor rule also constrains the URL
// text following the host.
func (r Rule) HasTrailing() bool {
	return r.Kind == RuleDomainAnchor && r.Pattern != ""
}

// HasWildcardHost reports whether a domain-anchor rule's host holds a '*'.
func (r Rule) HasWildcardHost() bool {
	return r.Kind == RuleDomainAnchor && strings.Contains(r.Host, "*")
}

// IsBlock is the inverse of Exception, for readability at call sites.
func (r Rule) IsBlock() bool { return !r.Exception }
