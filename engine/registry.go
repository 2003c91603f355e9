package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Aryok23/garden-advisor/core"
)

// ValidationError reports tool parameters that failed schema validation.
// It is recoverable: the loop feeds it back to the model as an observation.
type ValidationError struct {
	Tool   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameters for %s: %s", e.Tool, e.Reason)
}

// ToolRegistry holds the agent's callable capabilities. The registry is
// populated at startup and read-only afterwards, so lookups need no locking.
type ToolRegistry struct {
	tools map[string]core.Tool
	log   zerolog.Logger
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]core.Tool),
		log:   log.With().Str("component", "registry").Logger(),
	}
}

// Register adds tools to the registry. Later registrations overwrite earlier
// ones with the same name.
func (r *ToolRegistry) Register(tools ...core.Tool) {
	for _, tool := range tools {
		r.tools[tool.Definition().Name] = tool
	}
}

// Get returns the named tool.
func (r *ToolRegistry) Get(name string) (core.Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the registered tool names, sorted.
func (r *ToolRegistry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToAPITools converts all registered tools into API tool parameters.
func (r *ToolRegistry) ToAPITools() []anthropic.ToolUnionParam {
	return r.ToAPIToolsFiltered(nil)
}

// FilterByNames builds a filter keeping only the named tools.
func FilterByNames(names ...string) func(core.ToolDefinition) bool {
	keep := make(map[string]bool, len(names))
	for _, name := range names {
		keep[name] = true
	}
	return func(def core.ToolDefinition) bool {
		return keep[def.Name]
	}
}

// ToAPIToolsFiltered converts tools passing the filter into API parameters.
func (r *ToolRegistry) ToAPIToolsFiltered(filter func(core.ToolDefinition) bool) []anthropic.ToolUnionParam {
	var apiTools []anthropic.ToolUnionParam
	for _, name := range r.Names() {
		def := r.tools[name].Definition()
		if filter != nil && !filter(def) {
			continue
		}

		properties, _ := def.InputSchema["properties"].(map[string]interface{})
		required, _ := def.InputSchema["required"].([]string)

		apiTools = append(apiTools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        def.Name,
				Description: anthropic.String(def.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   required,
				},
			},
		})
	}
	return apiTools
}

// Validate checks raw parameters against the tool's declared schema:
// required fields must be present, and typed properties must carry a value of
// the declared JSON type.
func (r *ToolRegistry) Validate(def core.ToolDefinition, input json.RawMessage) error {
	if def.InputSchema == nil {
		return nil
	}

	var params map[string]interface{}
	if err := json.Unmarshal(input, &params); err != nil {
		return &ValidationError{Tool: def.Name, Reason: fmt.Sprintf("parameters are not a JSON object: %v", err)}
	}

	if required, ok := def.InputSchema["required"].([]string); ok {
		for _, field := range required {
			if _, present := params[field]; !present {
				return &ValidationError{Tool: def.Name, Reason: fmt.Sprintf("missing required field %q", field)}
			}
		}
	}

	properties, _ := def.InputSchema["properties"].(map[string]interface{})
	for field, value := range params {
		prop, ok := properties[field].(map[string]interface{})
		if !ok {
			continue
		}
		declared, _ := prop["type"].(string)
		if declared == "" || value == nil {
			continue
		}
		if !matchesJSONType(declared, value) {
			return &ValidationError{
				Tool:   def.Name,
				Reason: fmt.Sprintf("field %q must be of type %s", field, declared),
			}
		}
	}
	return nil
}

func matchesJSONType(declared string, value interface{}) bool {
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := value.(float64)
		return ok
	case "integer":
		f, ok := value.(float64)
		return ok && f == float64(int64(f))
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	default:
		return true
	}
}

// Dispatch validates and executes one tool call. Timeouts, provider errors,
// and panics are all absorbed into a ToolResult with Success=false; nothing
// escapes the registry boundary.
func (r *ToolRegistry) Dispatch(ctx context.Context, call *core.ToolCall, userID string) *core.ToolResult {
	start := time.Now()

	tool, ok := r.Get(call.Name)
	if !ok {
		return &core.ToolResult{
			Success:   false,
			Error:     fmt.Sprintf("unknown tool: %s", call.Name),
			LatencyMs: time.Since(start).Milliseconds(),
		}
	}

	def := tool.Definition()
	if err := r.Validate(def, call.Input); err != nil {
		r.log.Debug().Str("tool", call.Name).Err(err).Msg("parameter validation failed")
		return &core.ToolResult{
			Success:   false,
			Error:     err.Error(),
			LatencyMs: time.Since(start).Milliseconds(),
		}
	}

	timeout := def.Timeout
	if timeout == 0 {
		timeout = core.DefaultToolTimeout
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type invocation struct {
		result *core.ToolResult
		err    error
	}
	done := make(chan invocation, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- invocation{err: fmt.Errorf("tool panicked: %v", rec)}
			}
		}()
		result, err := tool.Invoke(tctx, &core.ToolParams{
			UserID:    userID,
			Input:     call.Input,
			RequestID: call.ID,
		})
		done <- invocation{result: result, err: err}
	}()

	var result *core.ToolResult
	select {
	case inv := <-done:
		switch {
		case inv.err != nil:
			result = &core.ToolResult{Success: false, Error: inv.err.Error()}
		case inv.result == nil:
			result = &core.ToolResult{Success: false, Error: "tool returned no result"}
		default:
			result = inv.result
		}
	case <-tctx.Done():
		result = &core.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("%s timed out after %s", call.Name, timeout),
		}
	}

	result.LatencyMs = time.Since(start).Milliseconds()
	r.log.Debug().
		Str("tool", call.Name).
		Bool("success", result.Success).
		Int64("latency_ms", result.LatencyMs).
		Msg("tool dispatched")
	return result
}
