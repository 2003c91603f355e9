package engine

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aryok23/garden-advisor/core"
	"github.com/Aryok23/garden-advisor/llm"
	"github.com/Aryok23/garden-advisor/tools"
)

func newTestEngine(backend llm.Backend, opts ...Option) *Engine {
	registry := NewToolRegistry()
	registry.Register(tools.NewCalculator())
	return NewEngine(backend, registry, opts...)
}

func TestRunDirectAnswer(t *testing.T) {
	backend := llm.NewMock(llm.TextMessage("Basil likes moist soil; water every 2-3 days."))
	e := newTestEngine(backend)

	out, err := e.Run(context.Background(), &Input{Query: "How often to water basil?", UserID: "alice"})
	require.NoError(t, err)

	assert.Equal(t, core.StateFinished, out.State)
	assert.Contains(t, out.Text, "every 2-3 days")
	assert.Empty(t, out.ToolsUsed)
	assert.Equal(t, 1, out.Steps)
}

func TestRunToolThenAnswer(t *testing.T) {
	backend := llm.NewMock(
		llm.ToolUseMessage("call-1", "calculator", map[string]interface{}{
			"thought":  "multiply plants by liters",
			"quantity": 5,
			"per_unit": 2.5,
		}),
		llm.TextMessage("You'll need 12.5 liters in total."),
	)
	e := newTestEngine(backend)

	out, err := e.Run(context.Background(), &Input{Query: "5 plants at 2.5L each?", UserID: "alice"})
	require.NoError(t, err)

	assert.Equal(t, core.StateFinished, out.State)
	assert.Contains(t, out.Text, "12.5")

	require.Len(t, out.Traces, 1)
	assert.Equal(t, "calculator", out.Traces[0].Action)
	assert.Equal(t, "multiply plants by liters", out.Traces[0].Thought)
	assert.True(t, out.Traces[0].Success)
	assert.Contains(t, out.Traces[0].Observation, "12.5")

	require.Len(t, out.ToolsUsed, 1)
	assert.Equal(t, "calculator", out.ToolsUsed[0].Tool)
}

func TestRunStepBudgetExhausted(t *testing.T) {
	// The model never stops calling tools; the loop must terminate anyway
	// with a usable fallback answer.
	backend := llm.NewMock(llm.ToolUseMessage("call-1", "calculator", map[string]interface{}{
		"quantity": 2,
		"per_unit": 3,
	}))
	e := newTestEngine(backend, WithMaxSteps(3))

	out, err := e.Run(context.Background(), &Input{Query: "loop forever", UserID: "alice"})
	require.NoError(t, err)

	assert.Equal(t, core.StateBudgetExhausted, out.State)
	assert.NotEmpty(t, out.Text)
	assert.Equal(t, 3, out.Steps)
	assert.Len(t, out.Traces, 3)
}

func TestRunFailingToolsStillTerminate(t *testing.T) {
	backend := llm.NewMock(
		llm.ToolUseMessage("call-1", "calculator", map[string]interface{}{
			"quantity": 1, "per_unit": 0, "operation": "divide",
		}),
		llm.ToolUseMessage("call-2", "calculator", map[string]interface{}{
			"quantity": 1, "per_unit": 0, "operation": "divide",
		}),
		llm.TextMessage("I couldn't compute that; division by zero isn't defined."),
	)
	e := newTestEngine(backend)

	out, err := e.Run(context.Background(), &Input{Query: "divide by zero", UserID: "alice"})
	require.NoError(t, err)

	assert.Equal(t, core.StateFinished, out.State)
	assert.NotEmpty(t, out.Text)
	for _, trace := range out.Traces {
		assert.False(t, trace.Success)
	}
}

func TestRunUnknownToolRecoversOnce(t *testing.T) {
	backend := llm.NewMock(
		llm.ToolUseMessage("call-1", "telescope", map[string]interface{}{"target": "moon"}),
		llm.TextMessage("Let me answer directly: water deeply but infrequently."),
	)
	e := newTestEngine(backend)

	out, err := e.Run(context.Background(), &Input{Query: "watering advice", UserID: "alice"})
	require.NoError(t, err)

	assert.Equal(t, core.StateFinished, out.State)
	assert.Contains(t, out.Text, "water deeply")

	require.Len(t, out.Traces, 1)
	assert.False(t, out.Traces[0].Success)
	assert.Contains(t, out.Traces[0].Observation, "unknown tool")
}

func TestRunInvalidParamsObserved(t *testing.T) {
	backend := llm.NewMock(
		llm.ToolUseMessage("call-1", "calculator", map[string]interface{}{"quantity": "five"}),
		llm.TextMessage("Roughly 12 liters."),
	)
	e := newTestEngine(backend)

	out, err := e.Run(context.Background(), &Input{Query: "how much water?", UserID: "alice"})
	require.NoError(t, err)

	assert.Equal(t, core.StateFinished, out.State)
	require.Len(t, out.Traces, 1)
	assert.False(t, out.Traces[0].Success)
	assert.Contains(t, out.Traces[0].Observation, "invalid parameters")
}

func TestRunBackendError(t *testing.T) {
	backend := llm.NewMock()
	backend.Err = errors.New("connection refused")
	e := newTestEngine(backend)

	out, err := e.Run(context.Background(), &Input{Query: "hello", UserID: "alice"})
	require.Error(t, err)
	assert.Equal(t, core.StateFailed, out.State)
	assert.Error(t, out.Err)
}

func TestRunWallClockBudget(t *testing.T) {
	backend := llm.NewMock(llm.ToolUseMessage("call-1", "calculator", map[string]interface{}{
		"quantity": 2, "per_unit": 3,
	}))
	e := newTestEngine(backend, WithBudget(1*time.Nanosecond))

	out, err := e.Run(context.Background(), &Input{Query: "slow", UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, core.StateBudgetExhausted, out.State)
	assert.NotEmpty(t, out.Text)
}

func TestRunHistoryRestored(t *testing.T) {
	backend := llm.NewMock(llm.TextMessage("As I said, every three days."))
	e := newTestEngine(backend)

	out, err := e.Run(context.Background(), &Input{
		Query:  "how often again?",
		UserID: "alice",
		History: []core.Turn{
			{Role: core.RoleUser, Text: "How often to water basil?"},
			{Role: core.RoleAgent, Text: "Every three days."},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, core.StateFinished, out.State)
}

func TestBuildSystemPromptSections(t *testing.T) {
	e := newTestEngine(llm.NewMock())
	prompt := e.buildSystemPrompt(&Input{
		Plan: &core.Plan{Intent: core.IntentWeather, Tools: []string{"weather"}, Rationale: "matched: weather"},
		Snippets: []core.KnowledgeSnippet{
			{SourceID: "seed-basil", Text: "Basil likes sun.", Score: 0.9},
		},
		MemoryContext: "=== RELEVANT PAST CONVERSATIONS ===\n1. something",
	})

	assert.Contains(t, prompt, "QUERY PLAN")
	assert.Contains(t, prompt, "weather")
	assert.Contains(t, prompt, "PLANT KNOWLEDGE")
	assert.Contains(t, prompt, "Basil likes sun.")
	assert.Contains(t, prompt, "RELEVANT PAST CONVERSATIONS")
}
