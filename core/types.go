// Package core defines the shared types of the garden advisor agent:
// conversation turns, plans, tools, and the reasoning trace.
package core

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Turn is one message within a conversation session.
// Turns are immutable once appended to the short-term window.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Message is an inbound message from the chat-platform gateway.
type Message struct {
	UserID  string `json:"user_id"`
	Text    string `json:"text"`
	Channel string `json:"channel,omitempty"`
}

// TerminationState describes how a reasoning loop ended.
type TerminationState string

const (
	// StateFinished means the model produced a final answer on its own.
	StateFinished TerminationState = "finished"

	// StateBudgetExhausted means the step or wall-clock budget ran out and
	// the answer is best-effort.
	StateBudgetExhausted TerminationState = "budget_exhausted"

	// StateFailed means the model backend was unreachable.
	StateFailed TerminationState = "failed"
)

// Answer is the agent's reply to one inbound message.
type Answer struct {
	Text      string           `json:"text"`
	State     TerminationState `json:"state"`
	ToolsUsed []ToolExecution  `json:"tools_used,omitempty"`
}

// Intent is a planner category for an inbound query.
type Intent string

const (
	IntentWeather     Intent = "weather"
	IntentPlantCare   Intent = "plant-care"
	IntentReminder    Intent = "reminder"
	IntentCalculation Intent = "calculation"
	IntentGeneral     Intent = "general"
	IntentUnknown     Intent = "unknown"
)

// Plan is the planner's per-query execution hint. The loop may deviate from
// the suggested tools; Complexity is telemetry only.
type Plan struct {
	Intent     Intent   `json:"intent"`
	Tools      []string `json:"tools"`
	Complexity float64  `json:"complexity"`
	Rationale  string   `json:"rationale"`
}

// KnowledgeSnippet is a retrieved fragment of the plant-care corpus.
type KnowledgeSnippet struct {
	SourceID string  `json:"source_id"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// ToolExecution records one tool invocation for telemetry.
type ToolExecution struct {
	Tool       string      `json:"tool"`
	Input      interface{} `json:"input,omitempty"`
	Result     interface{} `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
	DurationMs int64       `json:"duration_ms"`
}

// TokenUsage tracks model token consumption for one run.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
