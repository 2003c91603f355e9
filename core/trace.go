package core

import (
	"encoding/json"
	"fmt"
)

// Trace is one scratchpad entry: a thought-action-observation cycle from the
// reasoning loop. Traces are owned by a single loop invocation and discarded
// after the turn; only the memory write-back outlives them.
type Trace struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"session_id"`
	Step        int               `json:"step"`
	Thought     string            `json:"thought,omitempty"`
	Action      string            `json:"action"`
	ActionInput json.RawMessage   `json:"action_input,omitempty"`
	Observation string            `json:"observation"`
	Success     bool              `json:"success"`
	LatencyMs   int64             `json:"latency_ms"`
	Timestamp   int64             `json:"timestamp"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// String renders the trace for logging.
func (t *Trace) String() string {
	status := "ok"
	if !t.Success {
		status = "failed"
	}
	thought := t.Thought
	if len(thought) > 80 {
		thought = thought[:77] + "..."
	}
	obs := t.Observation
	if len(obs) > 120 {
		obs = obs[:117] + "..."
	}
	return fmt.Sprintf("step=%d action=%s status=%s thought=%q observation=%q",
		t.Step, t.Action, status, thought, obs)
}
