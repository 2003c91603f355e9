package tools

import (
	"context"
	"time"

	"github.com/Aryok23/garden-advisor/core"
)

// Handler executes one tool invocation.
type Handler func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error)

// Builder assembles a core.Tool from a name, schema, and handler.
type Builder struct {
	def     core.ToolDefinition
	handler Handler
}

// New starts a tool builder.
func New(name string) *Builder {
	return &Builder{def: core.ToolDefinition{Name: name}}
}

// Description sets the tool description shown to the model.
func (b *Builder) Description(description string) *Builder {
	b.def.Description = description
	return b
}

// Schema sets the JSON Schema for the tool parameters.
func (b *Builder) Schema(schema map[string]interface{}) *Builder {
	b.def.InputSchema = schema
	return b
}

// Timeout sets the per-invocation timeout.
func (b *Builder) Timeout(d time.Duration) *Builder {
	b.def.Timeout = d
	return b
}

// Handler sets the invocation function.
func (b *Builder) Handler(h Handler) *Builder {
	b.handler = h
	return b
}

// Build returns the finished tool.
func (b *Builder) Build() core.Tool {
	return &handlerTool{def: b.def, handler: b.handler}
}

type handlerTool struct {
	def     core.ToolDefinition
	handler Handler
}

func (t *handlerTool) Definition() core.ToolDefinition {
	return t.def
}

func (t *handlerTool) Invoke(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
	return t.handler(ctx, params)
}
