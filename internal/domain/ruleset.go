package domain

// MissingOrganizationKey is the scoring_rules key whose weight is added
// when no ORG entity is found in the text.
const MissingOrganizationKey = "missing_organization"

// RuleSet holds the detector's labeled indicators and their weights.
// Loaded once from JSON at startup and treated as immutable; hot-reload
// replaces the whole set, never mutates it in place.
type RuleSet struct {
	// SuspiciousPatterns maps label -> regex source. Patterns are matched
	// case-insensitively against the email text.
	SuspiciousPatterns map[string]string `json:"suspicious_patterns"`

	// ExpressionRules maps label -> CEL expression over extracted text
	// features. A true result triggers the label's weight.
	ExpressionRules map[string]string `json:"expression_rules,omitempty"`

	// ScoringRules maps label -> integer weight, including the special
	// missing_organization key.
	ScoringRules map[string]int `json:"scoring_rules"`
}

// Weight returns the configured weight for a label, or 0 if unset.
func (rs *RuleSet) Weight(label string) int {
	return rs.ScoringRules[label]
}

// Empty reports whether the rule set carries no indicators at all.
func (rs *RuleSet) Empty() bool {
	return len(rs.SuspiciousPatterns) == 0 &&
		len(rs.ExpressionRules) == 0 &&
		len(rs.ScoringRules) == 0
}

// Rule kinds for persisted rule configurations.
const (
	RuleKindPattern    = "pattern"
	RuleKindExpression = "expression"
	RuleKindScore      = "score"
)

// RuleConfig is a single persisted detection rule. The repository stores
// rules row-per-label; RuleSetFromConfigs folds them back into a RuleSet.
type RuleConfig struct {
	ID          string `json:"id"` // the label
	TenantID    string `json:"tenantId"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`

	// Kind is "pattern", "expression", or "score" (weight-only entry
	// such as missing_organization).
	Kind string `json:"kind"`

	// Expression is the regex source or CEL expression; empty for
	// weight-only entries.
	Expression string `json:"expression,omitempty"`

	// Weight added to the total score when the rule triggers
	Weight int `json:"weight"`

	// Whether rule is active
	Enabled bool `json:"enabled"`
}

// RuleSetFromConfigs folds persisted rule rows into a RuleSet.
// Disabled rules are skipped.
func RuleSetFromConfigs(configs []*RuleConfig) *RuleSet {
	rs := &RuleSet{
		SuspiciousPatterns: make(map[string]string),
		ExpressionRules:    make(map[string]string),
		ScoringRules:       make(map[string]int),
	}

	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		switch cfg.Kind {
		case RuleKindPattern:
			rs.SuspiciousPatterns[cfg.ID] = cfg.Expression
		case RuleKindExpression:
			rs.ExpressionRules[cfg.ID] = cfg.Expression
		}
		rs.ScoringRules[cfg.ID] = cfg.Weight
	}

	return rs
}
