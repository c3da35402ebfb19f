package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["amount", "payer_name"],
  "properties": {
    "amount": {"type": "number", "exclusiveMinimum": 0},
    "payer_name": {"type": "string", "minLength": 1}
  }
}`

func TestNewContractMonitor_BadSchema(t *testing.T) {
	_, err := NewContractMonitor(`{"type": 42}`)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cm, err := NewContractMonitor(testSchema)
	require.NoError(t, err)

	ok, errs, err := cm.Validate([]byte(`{"amount": 1000, "payer_name": "A"}`))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, errs)

	ok, errs, err = cm.Validate([]byte(`{"amount": 0, "payer_name": "A"}`))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotEmpty(t, errs)

	ok, errs, err = cm.Validate([]byte(`{"amount": 1000}`))
	require.NoError(t, err)
	assert.False(t, ok)
	require.NotEmpty(t, errs)
	assert.Contains(t, FormatErrors(errs), "payer_name")
}

func TestFormatErrors_Empty(t *testing.T) {
	assert.Equal(t, "", FormatErrors(nil))
}
