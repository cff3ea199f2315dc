// Package rules provides rule set loading and the pattern and expression
// evaluation engines.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
)

var (
	// ErrRuleSetNotFound means the ruleset file does not exist.
	ErrRuleSetNotFound = errors.New("ruleset file not found")

	// ErrInvalidRuleSet means the file is not valid ruleset JSON.
	ErrInvalidRuleSet = errors.New("invalid ruleset")

	// ErrEmptyRuleSet means the file parsed but carries no rules.
	ErrEmptyRuleSet = errors.New("empty ruleset")
)

// LoadRuleSet reads a rule set from a JSON file. Any failure here is a
// configuration error and aborts detector construction.
func LoadRuleSet(path string) (*domain.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrRuleSetNotFound, path)
		}
		return nil, fmt.Errorf("failed to read ruleset %s: %w", path, err)
	}

	var rs domain.RuleSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleSet, err)
	}

	if rs.Empty() {
		return nil, fmt.Errorf("%w at %s", ErrEmptyRuleSet, path)
	}

	return &rs, nil
}

// ValidateRule checks a persisted rule's expression before it is saved.
// Pattern rules must compile as case-insensitive regexes, expression
// rules must compile as boolean CEL over the feature set, and score
// rules carry no expression at all.
func ValidateRule(kind, expression string) error {
	switch kind {
	case domain.RuleKindPattern:
		if _, err := regexp.Compile("(?i)" + expression); err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		return nil

	case domain.RuleKindExpression:
		e, err := NewExprEngine()
		if err != nil {
			return err
		}
		if _, err := e.compile(expression); err != nil {
			return fmt.Errorf("invalid expression: %w", err)
		}
		return nil

	case domain.RuleKindScore:
		if expression != "" {
			return fmt.Errorf("score rules must not carry an expression")
		}
		return nil

	default:
		return fmt.Errorf("unknown rule kind: %s", kind)
	}
}
