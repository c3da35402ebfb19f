// Package policy decides whether a failed checkout attempt may be
// retried. Rules are boolean expressions over attempt parameters,
// compiled once at startup.
package policy

import (
	"fmt"

	"github.com/Knetic/govaluate"
)

// RuleConfig is one named retry rule. Expression must evaluate to a
// boolean over the parameters attempt_number, status and elapsed_ms.
type RuleConfig struct {
	Name       string
	Expression string
}

// Decision is the outcome of evaluating all rules for one retry
// request.
type Decision struct {
	Allow  bool
	Reason string // Set when a rule denied the retry
}

type compiledRule struct {
	name string
	expr *govaluate.EvaluableExpression
}

// RetryPolicy evaluates retry rules in order; the first rule that
// evaluates to false denies the retry.
type RetryPolicy struct {
	rules []compiledRule
}

// DefaultRules bounds a checkout to a small number of retries.
func DefaultRules() []RuleConfig {
	return []RuleConfig{
		{Name: "RetryBudget", Expression: "attempt_number <= 3"},
	}
}

// NewRetryPolicy compiles the given rules.
func NewRetryPolicy(rules []RuleConfig) (*RetryPolicy, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rc := range rules {
		expr, err := govaluate.NewEvaluableExpression(rc.Expression)
		if err != nil {
			return nil, fmt.Errorf("failed to compile retry rule %q: %w", rc.Name, err)
		}
		compiled = append(compiled, compiledRule{name: rc.Name, expr: expr})
	}
	return &RetryPolicy{rules: compiled}, nil
}

// Evaluate runs every rule against the attempt's parameters.
func (p *RetryPolicy) Evaluate(attemptNumber int, status string, elapsedMs int64) (Decision, error) {
	params := map[string]interface{}{
		"attempt_number": float64(attemptNumber),
		"status":         status,
		"elapsed_ms":     float64(elapsedMs),
	}

	for _, rule := range p.rules {
		result, err := rule.expr.Evaluate(params)
		if err != nil {
			return Decision{}, fmt.Errorf("failed to evaluate retry rule %q: %w", rule.name, err)
		}
		allowed, ok := result.(bool)
		if !ok {
			return Decision{}, fmt.Errorf("retry rule %q did not evaluate to a boolean", rule.name)
		}
		if !allowed {
			return Decision{Allow: false, Reason: fmt.Sprintf("retry denied by rule %s", rule.name)}, nil
		}
	}
	return Decision{Allow: true}, nil
}
