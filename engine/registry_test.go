package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aryok23/garden-advisor/core"
	"github.com/Aryok23/garden-advisor/tools"
)

func TestRegistryNamesSorted(t *testing.T) {
	r := NewToolRegistry()
	r.Register(
		tools.New("zebra").Schema(tools.ObjectSchema(nil)).Handler(okHandler).Build(),
		tools.New("apple").Schema(tools.ObjectSchema(nil)).Handler(okHandler).Build(),
	)
	assert.Equal(t, []string{"apple", "zebra"}, r.Names())
}

func okHandler(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
	return &core.ToolResult{Success: true, Data: "ok"}, nil
}

func TestValidateRequiredField(t *testing.T) {
	r := NewToolRegistry()
	def := tools.NewCalculator().Definition()

	err := r.Validate(def, json.RawMessage(`{"quantity": 5}`))
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "calculator", verr.Tool)
	assert.Contains(t, verr.Reason, "per_unit")
}

func TestValidateTypeMismatch(t *testing.T) {
	r := NewToolRegistry()
	def := tools.NewCalculator().Definition()

	err := r.Validate(def, json.RawMessage(`{"quantity": "five", "per_unit": 2}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity")
}

func TestValidateAccepts(t *testing.T) {
	r := NewToolRegistry()
	def := tools.NewCalculator().Definition()

	assert.NoError(t, r.Validate(def, json.RawMessage(`{"quantity": 5, "per_unit": 2.5}`)))
	assert.NoError(t, r.Validate(def, json.RawMessage(`{"quantity": 5, "per_unit": 2.5, "operation": "add", "thought": "x"}`)))
}

func TestDispatchUnknownTool(t *testing.T) {
	r := NewToolRegistry()
	result := r.Dispatch(context.Background(), &core.ToolCall{Name: "ghost", Input: json.RawMessage(`{}`)}, "alice")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unknown tool")
}

func TestDispatchTimeout(t *testing.T) {
	r := NewToolRegistry()
	r.Register(tools.New("sleepy").
		Schema(tools.ObjectSchema(nil)).
		Timeout(20 * time.Millisecond).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			<-ctx.Done()
			time.Sleep(time.Hour)
			return nil, nil
		}).
		Build())

	result := r.Dispatch(context.Background(), &core.ToolCall{Name: "sleepy", Input: json.RawMessage(`{}`)}, "alice")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "timed out")
}

func TestDispatchAbsorbsPanic(t *testing.T) {
	r := NewToolRegistry()
	r.Register(tools.New("boom").
		Schema(tools.ObjectSchema(nil)).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			panic("kaboom")
		}).
		Build())

	result := r.Dispatch(context.Background(), &core.ToolCall{Name: "boom", Input: json.RawMessage(`{}`)}, "alice")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "panicked")
}

func TestToAPITools(t *testing.T) {
	r := NewToolRegistry()
	r.Register(tools.NewCalculator())

	apiTools := r.ToAPITools()
	require.Len(t, apiTools, 1)
	require.NotNil(t, apiTools[0].OfTool)
	assert.Equal(t, "calculator", apiTools[0].OfTool.Name)
	assert.Contains(t, apiTools[0].OfTool.InputSchema.Required, "quantity")
}

func TestToAPIToolsFiltered(t *testing.T) {
	r := NewToolRegistry()
	r.Register(
		tools.NewCalculator(),
		tools.New("other").Schema(tools.ObjectSchema(nil)).Handler(okHandler).Build(),
	)

	apiTools := r.ToAPIToolsFiltered(FilterByNames("calculator"))
	require.Len(t, apiTools, 1)
	assert.Equal(t, "calculator", apiTools[0].OfTool.Name)
}
