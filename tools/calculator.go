package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Aryok23/garden-advisor/core"
)

// calculatorInput is the structured arithmetic request. The common case is
// water budgeting: quantity of plants times liters per plant.
type calculatorInput struct {
	core.BaseInput
	Operation string   `json:"operation,omitempty"`
	Quantity  *float64 `json:"quantity"`
	PerUnit   *float64 `json:"per_unit"`
}

var operatorSymbols = map[string]string{
	"add":      "+",
	"subtract": "-",
	"multiply": "×",
	"divide":   "÷",
}

// NewCalculator builds the quantity calculator tool.
func NewCalculator() core.Tool {
	return New("calculator").
		Description("Calculate garden quantities: water needs, fertilizer amounts, plant spacing. "+
			"Multiplies quantity by per_unit unless another operation is given. "+
			"Example: 5 tomato plants at 2.5 liters each -> quantity=5, per_unit=2.5.").
		Schema(BuildSchemaWithThought(map[string]interface{}{
			"quantity": NumberProperty("First operand, e.g. the number of plants"),
			"per_unit": NumberProperty("Second operand, e.g. liters per plant"),
			"operation": StringEnumProperty("Arithmetic operation (default: multiply)",
				"add", "subtract", "multiply", "divide"),
		}, "quantity", "per_unit")).
		Timeout(2 * time.Second).
		Handler(calculate).
		Build()
}

func calculate(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
	var in calculatorInput
	if err := json.Unmarshal(params.Input, &in); err != nil {
		return &core.ToolResult{Success: false, Error: fmt.Sprintf("invalid input: %v", err)}, nil
	}
	if in.Quantity == nil || in.PerUnit == nil {
		return &core.ToolResult{Success: false, Error: "quantity and per_unit are required"}, nil
	}

	op := in.Operation
	if op == "" {
		op = "multiply"
	}

	a, b := *in.Quantity, *in.PerUnit
	var result float64
	switch op {
	case "add":
		result = a + b
	case "subtract":
		result = a - b
	case "multiply":
		result = a * b
	case "divide":
		if b == 0 {
			return &core.ToolResult{Success: false, Error: "division by zero"}, nil
		}
		result = a / b
	default:
		return &core.ToolResult{Success: false, Error: fmt.Sprintf("unknown operation: %s", op)}, nil
	}

	formatted := strconv.FormatFloat(result, 'f', -1, 64)
	return &core.ToolResult{
		Success: true,
		Data: map[string]interface{}{
			"result":     result,
			"expression": fmt.Sprintf("%s %s %s = %s", formatNum(a), operatorSymbols[op], formatNum(b), formatted),
			"message":    fmt.Sprintf("Result: %s", formatted),
		},
	}, nil
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
