// Package engine runs the reason/act loop: it asks the model to think,
// dispatches selected tools, feeds observations back, and terminates within a
// bounded number of steps and a wall-clock budget.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Aryok23/garden-advisor/core"
	"github.com/Aryok23/garden-advisor/llm"
)

const (
	// DefaultMaxSteps bounds the number of think-act-observe cycles per turn.
	DefaultMaxSteps = 6

	// DefaultBudget bounds the wall-clock time of one turn.
	DefaultBudget = 60 * time.Second

	defaultMaxTokens = 2048
)

// Engine executes the reasoning loop against a model backend and a registry.
type Engine struct {
	backend   llm.Backend
	registry  *ToolRegistry
	model     string
	maxTokens int64
	maxSteps  int
	budget    time.Duration
	log       zerolog.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithModel pins the model used for loop invocations.
func WithModel(model string) Option {
	return func(e *Engine) { e.model = model }
}

// WithMaxTokens sets the per-invocation response token cap.
func WithMaxTokens(n int64) Option {
	return func(e *Engine) { e.maxTokens = n }
}

// WithMaxSteps sets the step budget.
func WithMaxSteps(n int) Option {
	return func(e *Engine) { e.maxSteps = n }
}

// WithBudget sets the wall-clock budget per turn.
func WithBudget(d time.Duration) Option {
	return func(e *Engine) { e.budget = d }
}

// NewEngine creates an engine with the given backend and tool registry.
func NewEngine(backend llm.Backend, registry *ToolRegistry, opts ...Option) *Engine {
	e := &Engine{
		backend:   backend,
		registry:  registry,
		model:     llm.DefaultModel,
		maxTokens: defaultMaxTokens,
		maxSteps:  DefaultMaxSteps,
		budget:    DefaultBudget,
		log:       log.With().Str("component", "engine").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's tool registry.
func (e *Engine) Registry() *ToolRegistry {
	return e.registry
}

// Input is one reasoning request. History, MemoryContext, and Snippets are
// assembled by the caller; the engine does not touch memory itself so that
// write-back can happen strictly after termination.
type Input struct {
	Query  string
	UserID string

	// Plan is the planner's hint; the loop may deviate from it.
	Plan *core.Plan

	// History is the short-term conversation window, chronological.
	History []core.Turn

	// MemoryContext is the formatted long-term recall, possibly empty.
	MemoryContext string

	// Snippets is the retrieved plant knowledge, possibly empty.
	Snippets []core.KnowledgeSnippet

	// SystemPrompt overrides the default instructions when non-empty.
	SystemPrompt string
}

// Output is the loop's result. Text is always non-empty for the
// BudgetExhausted state (best-effort); for Failed it is empty and Err is set.
type Output struct {
	State      core.TerminationState
	Text       string
	Traces     []*core.Trace
	ToolsUsed  []core.ToolExecution
	TokensUsed core.TokenUsage
	Steps      int
	Err        error
}

// Run executes the loop until the model answers, the budget runs out, or the
// backend becomes unreachable. All tool failures stay inside the loop as
// observations.
func (e *Engine) Run(ctx context.Context, in *Input) (*Output, error) {
	if e.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.budget)
		defer cancel()
	}

	session := NewSession(in.UserID)
	session.RestoreHistory(in.History)
	session.AddUserMessage(in.Query)

	systemPrompt := e.buildSystemPrompt(in)
	apiTools := e.registry.ToAPITools()

	var (
		totalTokens  core.TokenUsage
		toolsUsed    []core.ToolExecution
		lastText     string
		parseRetries int
		consecFails  int
		forceFinish  bool
	)

	exhausted := func() (*Output, error) {
		return &Output{
			State:      core.StateBudgetExhausted,
			Text:       e.bestEffortAnswer(lastText, session.Traces),
			Traces:     session.Traces,
			ToolsUsed:  toolsUsed,
			TokensUsed: totalTokens,
			Steps:      session.StepCount,
		}, nil
	}

	for {
		if ctx.Err() != nil {
			e.log.Warn().Str("user_id", in.UserID).Int("steps", session.StepCount).
				Msg("turn budget exhausted")
			return exhausted()
		}
		if session.StepCount >= e.maxSteps {
			e.log.Warn().Str("user_id", in.UserID).Int("max_steps", e.maxSteps).
				Msg("step budget exhausted")
			return exhausted()
		}
		session.StepCount++

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(e.model),
			MaxTokens: e.maxTokens,
			Messages:  session.Messages(),
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt},
			},
		}
		if len(apiTools) > 0 {
			params.Tools = apiTools
			if forceFinish {
				// Tools must stay declared while tool blocks are in the
				// history; tool_choice none forbids further calls.
				params.ToolChoice = anthropic.ToolChoiceUnionParam{
					OfNone: &anthropic.ToolChoiceNoneParam{},
				}
			}
		}

		resp, err := e.backend.CreateMessage(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				return exhausted()
			}
			e.log.Error().Err(err).Str("user_id", in.UserID).Msg("model backend unreachable")
			return &Output{
				State:      core.StateFailed,
				Traces:     session.Traces,
				ToolsUsed:  toolsUsed,
				TokensUsed: totalTokens,
				Steps:      session.StepCount,
				Err:        err,
			}, err
		}

		totalTokens.InputTokens += int(resp.Usage.InputTokens)
		totalTokens.OutputTokens += int(resp.Usage.OutputTokens)

		var textResponse string
		var toolUses []anthropic.ContentBlockUnion
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				textResponse += block.Text
			case "tool_use":
				toolUses = append(toolUses, block)
			}
		}
		if strings.TrimSpace(textResponse) != "" {
			lastText = textResponse
		}

		// No actions selected: the model has answered.
		if len(toolUses) == 0 {
			session.AddAssistantMessage(textResponse)
			return &Output{
				State:      core.StateFinished,
				Text:       strings.TrimSpace(lastText),
				Traces:     session.Traces,
				ToolsUsed:  toolsUsed,
				TokensUsed: totalTokens,
				Steps:      session.StepCount,
			}, nil
		}

		session.AddAssistantResponse(resp)

		var toolResults []anthropic.ContentBlockParamUnion
		for _, block := range toolUses {
			thought := extractThought(block.Input)

			trace := &core.Trace{
				ID:          uuid.New().String(),
				SessionID:   session.ID,
				Step:        session.StepCount,
				Thought:     thought,
				Action:      block.Name,
				ActionInput: block.Input,
				Timestamp:   time.Now().Unix(),
				Metadata:    make(map[string]string),
			}

			tool, known := e.registry.Get(block.Name)
			var validationErr error
			if known {
				validationErr = e.registry.Validate(tool.Definition(), block.Input)
			}

			// Unknown tools and schema violations are action-parse failures:
			// correct once, then force a plain answer.
			if !known || validationErr != nil {
				reason := fmt.Sprintf("unknown tool: %s (available: %s)",
					block.Name, strings.Join(e.registry.Names(), ", "))
				if validationErr != nil {
					reason = validationErr.Error()
				}
				parseRetries++
				if parseRetries > 1 {
					forceFinish = true
				}

				trace.Success = false
				trace.Observation = reason
				trace.Metadata["error_type"] = "invalid_action"
				session.AddTrace(trace)
				e.log.Info().Str("trace", trace.String()).Msg("scratchpad")

				toolResults = append(toolResults, anthropic.NewToolResultBlock(
					block.ID,
					reason+". Correct the tool call or answer directly.",
					true,
				))
				continue
			}

			call := &core.ToolCall{
				ID:    block.ID,
				Name:  block.Name,
				Input: block.Input,
				Step:  session.StepCount,
			}
			result := e.registry.Dispatch(ctx, call, in.UserID)

			trace.Success = result.Success
			trace.Observation = formatObservation(result)
			trace.LatencyMs = result.LatencyMs
			if !result.Success {
				trace.Metadata["error"] = result.Error
				consecFails++
			} else {
				consecFails = 0
			}
			if consecFails >= 2 {
				forceFinish = true
			}
			session.AddTrace(trace)
			e.log.Info().Str("trace", trace.String()).Msg("scratchpad")

			execution := core.ToolExecution{
				Tool:       block.Name,
				DurationMs: result.LatencyMs,
			}
			var inputAny interface{}
			_ = json.Unmarshal(block.Input, &inputAny)
			execution.Input = inputAny
			if result.Success {
				execution.Result = result.Data
			} else {
				execution.Error = result.Error
			}
			toolsUsed = append(toolsUsed, execution)

			toolResults = append(toolResults, anthropic.NewToolResultBlock(
				block.ID,
				trace.Observation,
				!result.Success,
			))
		}

		if forceFinish {
			toolResults = append(toolResults, anthropic.NewTextBlock(
				"Do not call any more tools. Answer the question now with what you already know; "+
					"if information is missing, say so plainly.",
			))
		}
		session.AddToolResults(toolResults)
	}
}

// bestEffortAnswer composes a usable reply when the budget runs out.
func (e *Engine) bestEffortAnswer(lastText string, traces []*core.Trace) string {
	if strings.TrimSpace(lastText) != "" {
		return strings.TrimSpace(lastText)
	}

	var observations []string
	for _, trace := range traces {
		if trace.Success && trace.Observation != "" {
			observations = append(observations, trace.Observation)
		}
	}
	if len(observations) > 0 {
		return "I ran out of time before I could finish reasoning about that, but here's what I found:\n" +
			strings.Join(observations, "\n")
	}
	return "I wasn't able to work that out in time. Could you ask again, perhaps more specifically?"
}

func (e *Engine) buildSystemPrompt(in *Input) string {
	var b strings.Builder

	if in.SystemPrompt != "" {
		b.WriteString(in.SystemPrompt)
	} else {
		b.WriteString(DefaultSystemPrompt)
	}

	if in.Plan != nil {
		b.WriteString("\n\nQUERY PLAN:\n")
		fmt.Fprintf(&b, "- intent: %s\n", in.Plan.Intent)
		if len(in.Plan.Tools) > 0 {
			fmt.Fprintf(&b, "- likely tools: %s\n", strings.Join(in.Plan.Tools, ", "))
		}
		if in.Plan.Rationale != "" {
			fmt.Fprintf(&b, "- rationale: %s\n", in.Plan.Rationale)
		}
		b.WriteString("The plan is a hint; deviate when the conversation calls for it.")
	}

	if len(in.Snippets) > 0 {
		b.WriteString("\n\n=== PLANT KNOWLEDGE ===\n")
		for i, snippet := range in.Snippets {
			fmt.Fprintf(&b, "%d. %s\n", i+1, snippet.Text)
		}
	}

	if in.MemoryContext != "" {
		b.WriteString("\n\n")
		b.WriteString(in.MemoryContext)
	}

	return b.String()
}

// extractThought lifts the model's reasoning out of the tool input.
func extractThought(input json.RawMessage) string {
	var base core.BaseInput
	if err := json.Unmarshal(input, &base); err != nil {
		return ""
	}
	return strings.TrimSpace(base.Thought)
}

// formatObservation renders a tool result as observation text for the
// scratchpad and the model.
func formatObservation(result *core.ToolResult) string {
	if result == nil {
		return "No result returned"
	}
	if !result.Success {
		return fmt.Sprintf("Failed: %s", result.Error)
	}

	switch v := result.Data.(type) {
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
		bytes, _ := json.Marshal(v)
		return string(bytes)
	case string:
		return v
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("Success: %v", v)
		}
		return string(bytes)
	}
}

// DefaultSystemPrompt is the garden advisor's base instruction set.
const DefaultSystemPrompt = `You are a Smart Garden Advisor helping users care for their plants.

You reason in steps:
1. Think about what information you need
2. Call a tool when you need specific data (weather, calculations, reminders)
3. Read the observation and decide whether to continue or answer
4. Answer the user in a friendly, practical tone

GUIDELINES:
- Use tools for facts you cannot know: current weather, arithmetic, reminder scheduling
- When a tool fails, acknowledge the missing data and give the best advice you can
- Remember the user's plants and previous conversations when context is provided
- Keep answers concrete: watering frequency, sunlight hours, soil type
- Include a "thought" field in tool calls explaining what you expect to learn`
