package rules

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// PatternEngine evaluates labeled regular expressions against email text.
// Patterns are compiled once at load time; a pattern that fails to compile
// is kept as a broken rule so every analysis surfaces a descriptive flag
// for it instead of failing the whole call.
type PatternEngine struct {
	mu         sync.RWMutex
	patterns   []*compiledPattern
	maxWorkers int
}

type compiledPattern struct {
	label      string
	source     string
	re         *regexp.Regexp // nil when compileErr is set
	compileErr error
}

// PatternResult is the output of evaluating one labeled pattern.
type PatternResult struct {
	Label   string
	Matches []string
	// Err is the compile error for a broken pattern. A broken pattern
	// contributes nothing to the score.
	Err error
}

// Triggered reports whether the pattern matched the text.
func (r PatternResult) Triggered() bool {
	return r.Err == nil && len(r.Matches) > 0
}

// NewPatternEngine creates a pattern engine.
func NewPatternEngine(maxWorkers int) *PatternEngine {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	return &PatternEngine{maxWorkers: maxWorkers}
}

// Load compiles the labeled patterns. Labels are sorted so evaluation
// order, and therefore flag order, is deterministic. Compile failures do
// not fail the load; the broken rule is kept and reported per analysis.
func (e *PatternEngine) Load(patterns map[string]string) {
	labels := make([]string, 0, len(patterns))
	for label := range patterns {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	compiled := make([]*compiledPattern, 0, len(labels))
	for _, label := range labels {
		source := patterns[label]
		cp := &compiledPattern{label: label, source: source}

		// Patterns match case-insensitively.
		re, err := regexp.Compile("(?i)" + source)
		if err != nil {
			cp.compileErr = fmt.Errorf("invalid regex pattern for %s: %w", label, err)
		} else {
			cp.re = re
		}
		compiled = append(compiled, cp)
	}

	e.mu.Lock()
	e.patterns = compiled
	e.mu.Unlock()
}

// EvaluateAll runs every loaded pattern against the text in parallel and
// returns results in load (label) order.
func (e *PatternEngine) EvaluateAll(ctx context.Context, text string) []PatternResult {
	e.mu.RLock()
	patterns := e.patterns
	e.mu.RUnlock()

	if len(patterns) == 0 {
		return nil
	}

	results := make([]PatternResult, len(patterns))
	var wg sync.WaitGroup

	// Limit concurrency with semaphore
	sem := make(chan struct{}, e.maxWorkers)

	for i, p := range patterns {
		wg.Add(1)
		go func(idx int, cp *compiledPattern) {
			defer wg.Done()

			sem <- struct{}{}        // Acquire
			defer func() { <-sem }() // Release

			result := PatternResult{Label: cp.label}
			if cp.compileErr != nil {
				result.Err = cp.compileErr
			} else {
				result.Matches = cp.re.FindAllString(text, -1)
			}
			results[idx] = result
		}(i, p)
	}

	wg.Wait()

	return results
}

// Count returns the number of loaded patterns, broken ones included.
func (e *PatternEngine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.patterns)
}
