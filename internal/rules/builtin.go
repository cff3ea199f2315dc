package rules

import "github.com/AamirAhmadDon/phishing-detector/internal/domain"

// DefaultRuleSet returns the built-in indicators used when neither a
// ruleset file nor database rules are configured. Weights line up with
// the verdict thresholds: a plain-http credential lure with no named
// organization lands well past the phishing threshold.
func DefaultRuleSet() *domain.RuleSet {
	return &domain.RuleSet{
		SuspiciousPatterns: map[string]string{
			"urgent_language":      `urgent|immediately|act now|right away|within 24 hours`,
			"suspicious_url":       `http://\S+`,
			"account_verification": `verify your (identity|account)|confirm your account`,
			"credential_request":   `password|login credentials|social security number`,
			"threat_language":      `account (may|will) be (suspended|disabled|closed)|permanently disabled`,
			"generic_greeting":     `dear (user|customer|member|client)`,
		},
		ExpressionRules: map[string]string{
			"excessive_caps": `caps_ratio > 0.3 && word_count > 5`,
			"link_heavy":     `url_count >= 3`,
			"repeat_sender":  `sender_count > 10`,
		},
		ScoringRules: map[string]int{
			"urgent_language":             2,
			"suspicious_url":              3,
			"account_verification":        2,
			"credential_request":          2,
			"threat_language":             2,
			"generic_greeting":            1,
			"excessive_caps":              1,
			"link_heavy":                  2,
			"repeat_sender":               1,
			domain.MissingOrganizationKey: 2,
		},
	}
}
