package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetryPolicy_BadExpression(t *testing.T) {
	_, err := NewRetryPolicy([]RuleConfig{{Name: "Broken", Expression: "attempt_number <<"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Broken")
}

func TestEvaluate_DefaultRules(t *testing.T) {
	p, err := NewRetryPolicy(DefaultRules())
	require.NoError(t, err)

	d, err := p.Evaluate(1, "failed", 1200)
	require.NoError(t, err)
	assert.True(t, d.Allow)

	d, err = p.Evaluate(4, "failed", 1200)
	require.NoError(t, err)
	assert.False(t, d.Allow)
	assert.Equal(t, "retry denied by rule RetryBudget", d.Reason)
}

func TestEvaluate_MultipleRules(t *testing.T) {
	p, err := NewRetryPolicy([]RuleConfig{
		{Name: "RetryBudget", Expression: "attempt_number <= 5"},
		{Name: "OnlyFailed", Expression: "status == 'failed'"},
	})
	require.NoError(t, err)

	d, err := p.Evaluate(2, "failed", 0)
	require.NoError(t, err)
	assert.True(t, d.Allow)

	d, err = p.Evaluate(2, "idle", 0)
	require.NoError(t, err)
	assert.False(t, d.Allow)
	assert.Equal(t, "retry denied by rule OnlyFailed", d.Reason)
}

func TestEvaluate_NonBooleanRule(t *testing.T) {
	p, err := NewRetryPolicy([]RuleConfig{{Name: "Numeric", Expression: "attempt_number + 1"}})
	require.NoError(t, err)

	_, err = p.Evaluate(1, "failed", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not evaluate to a boolean")
}
