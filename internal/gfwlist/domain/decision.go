package domain

// MatchDecision represents the outcome of evaluating a URL against a filter list.
// Pure value type. Exception rules only ever suppress a block, so a decision
// never refers to one.
type MatchDecision struct {
	Blocked     bool     // true if a block rule applies and no exception does
	MatchedRule string   // raw text of the block rule that applied
	Kind        RuleKind // kind of the matched rule
	Line        int      // line number of the matched rule
}

// IsBlocked is a convenience accessor.
func (d MatchDecision) IsBlocked() bool { return d.Blocked }

// NotBlocked returns a not-blocked decision.
func NotBlocked() MatchDecision { return MatchDecision{Blocked: false} }

// BlockedBy returns a blocked decision attributed to the given rule.
func BlockedBy(r Rule) MatchDecision {
	return MatchDecision{Blocked: true, MatchedRule: r.Raw, Kind: r.Kind, Line: r.Line}
}
