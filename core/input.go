package core

// BaseInput provides common fields for all tool inputs.
// Tools embed this struct so the loop can lift the model's reasoning out of
// the tool parameters and into the scratchpad trace.
type BaseInput struct {
	// Thought contains the agent's reasoning about why it's using this tool.
	Thought string `json:"thought,omitempty"`
}
