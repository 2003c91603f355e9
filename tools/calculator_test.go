package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aryok23/garden-advisor/core"
)

func invokeCalculator(t *testing.T, input string) *core.ToolResult {
	t.Helper()
	result, err := NewCalculator().Invoke(context.Background(), &core.ToolParams{
		UserID: "alice",
		Input:  json.RawMessage(input),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestCalculatorMultiplyDefault(t *testing.T) {
	result := invokeCalculator(t, `{"quantity": 5, "per_unit": 2.5}`)
	require.True(t, result.Success)

	data := result.Data.(map[string]interface{})
	assert.Equal(t, 12.5, data["result"])
	assert.Equal(t, "Result: 12.5", data["message"])
	assert.Equal(t, "5 × 2.5 = 12.5", data["expression"])
}

func TestCalculatorOperations(t *testing.T) {
	cases := []struct {
		input  string
		result float64
	}{
		{`{"quantity": 2, "per_unit": 3, "operation": "add"}`, 5},
		{`{"quantity": 10, "per_unit": 4, "operation": "subtract"}`, 6},
		{`{"quantity": 9, "per_unit": 3, "operation": "divide"}`, 3},
	}
	for _, tc := range cases {
		result := invokeCalculator(t, tc.input)
		require.True(t, result.Success, tc.input)
		data := result.Data.(map[string]interface{})
		assert.Equal(t, tc.result, data["result"], tc.input)
	}
}

func TestCalculatorDivisionByZero(t *testing.T) {
	result := invokeCalculator(t, `{"quantity": 1, "per_unit": 0, "operation": "divide"}`)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "division by zero")
}

func TestCalculatorMissingOperands(t *testing.T) {
	result := invokeCalculator(t, `{"quantity": 1}`)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "required")
}

func TestCalculatorUnknownOperation(t *testing.T) {
	result := invokeCalculator(t, `{"quantity": 1, "per_unit": 2, "operation": "modulo"}`)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unknown operation")
}
