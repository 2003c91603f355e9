package core

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultToolTimeout bounds a tool invocation when the definition does not
// declare its own timeout.
const DefaultToolTimeout = 10 * time.Second

// ToolDefinition declares a tool's name, description, parameter schema, and
// invocation timeout. Definitions are read-only after startup.
type ToolDefinition struct {
	Name        string
	Description string

	// InputSchema is a JSON Schema object describing the tool parameters.
	InputSchema map[string]interface{}

	// Timeout bounds one invocation. Zero means DefaultToolTimeout.
	Timeout time.Duration
}

// ToolParams carries the validated input of one invocation.
type ToolParams struct {
	// UserID identifies the user on whose behalf the tool runs.
	UserID string

	// Input is the raw JSON parameters, already validated against the schema.
	Input json.RawMessage

	// RequestID ties the invocation to the reasoning session.
	RequestID string
}

// ToolResult is the outcome of one invocation. Provider errors and timeouts
// are reported through Success=false and Error, never as a raised fault.
type ToolResult struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	LatencyMs int64       `json:"latency_ms"`
}

// ToolCall is an action selected by the model during the reasoning loop.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
	Step  int
}

// Tool is a callable capability registered with the engine.
type Tool interface {
	Definition() ToolDefinition
	Invoke(ctx context.Context, params *ToolParams) (*ToolResult, error)
}
