package rules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// ExprEngine evaluates labeled CEL expressions over extracted text
// features. Expressions must produce a bool; a true result triggers the
// label's weight the same way a pattern match does.
type ExprEngine struct {
	mu    sync.RWMutex
	env   *cel.Env
	exprs []*compiledExpr
}

type compiledExpr struct {
	label      string
	source     string
	program    cel.Program // nil when compileErr is set
	compileErr error
}

// ExprResult is the output of evaluating one labeled expression.
type ExprResult struct {
	Label     string
	Triggered bool
	// Err is the compile or evaluation error for a broken expression.
	// A broken expression contributes nothing to the score.
	Err error
}

// NewExprEngine creates an expression engine with the feature variables
// declared.
func NewExprEngine() (*ExprEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("url_count", cel.IntType),
		cel.Variable("exclamation_count", cel.IntType),
		cel.Variable("word_count", cel.IntType),
		cel.Variable("caps_ratio", cel.DoubleType),
		cel.Variable("language", cel.StringType),
		cel.Variable("language_confidence", cel.DoubleType),
		cel.Variable("org_count", cel.IntType),
		cel.Variable("sender_count", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &ExprEngine{env: env}, nil
}

// Load compiles the labeled expressions in sorted label order. Compile
// failures are kept as broken rules and surfaced per analysis, mirroring
// invalid regex handling.
func (e *ExprEngine) Load(exprs map[string]string) {
	labels := make([]string, 0, len(exprs))
	for label := range exprs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	compiled := make([]*compiledExpr, 0, len(labels))
	for _, label := range labels {
		source := exprs[label]
		ce := &compiledExpr{label: label, source: source}

		program, err := e.compile(source)
		if err != nil {
			ce.compileErr = fmt.Errorf("invalid expression for %s: %w", label, err)
		} else {
			ce.program = program
		}
		compiled = append(compiled, ce)
	}

	e.mu.Lock()
	e.exprs = compiled
	e.mu.Unlock()
}

// EvaluateAll evaluates every loaded expression against the feature
// activation and returns results in load (label) order.
func (e *ExprEngine) EvaluateAll(features *Features) []ExprResult {
	e.mu.RLock()
	exprs := e.exprs
	e.mu.RUnlock()

	if len(exprs) == 0 {
		return nil
	}

	activation := features.Activation()

	results := make([]ExprResult, len(exprs))
	for i, ce := range exprs {
		result := ExprResult{Label: ce.label}

		if ce.compileErr != nil {
			result.Err = ce.compileErr
			results[i] = result
			continue
		}

		out, _, err := ce.program.Eval(activation)
		if err != nil {
			result.Err = fmt.Errorf("invalid expression for %s: %w", ce.label, err)
			results[i] = result
			continue
		}

		if b, ok := out.(types.Bool); ok {
			result.Triggered = bool(b)
		}
		results[i] = result
	}

	return results
}

// Count returns the number of loaded expressions, broken ones included.
func (e *ExprEngine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.exprs)
}

func (e *ExprEngine) compile(source string) (cel.Program, error) {
	ast, issues := e.env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("expression must return bool, got %s", ast.OutputType())
	}

	return e.env.Program(ast)
}
