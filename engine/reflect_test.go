package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aryok23/garden-advisor/core"
	"github.com/Aryok23/garden-advisor/llm"
)

func TestReflectorImprovesDraft(t *testing.T) {
	backend := llm.NewMock(llm.TextMessage("Water your basil every 2-3 days, in the morning."))
	r := NewReflector(backend, "")

	traces := []*core.Trace{{Action: "weather", Success: true, Observation: "22C, clear"}}
	refined := r.Refine(context.Background(), "how often to water basil?", "water sometimes", traces)
	assert.Equal(t, "Water your basil every 2-3 days, in the morning.", refined)
	assert.Equal(t, 1, backend.Calls())
}

func TestReflectorKeepsDraftOnError(t *testing.T) {
	backend := llm.NewMock()
	backend.Err = assert.AnError
	r := NewReflector(backend, "")

	refined := r.Refine(context.Background(), "q", "the draft", nil)
	assert.Equal(t, "the draft", refined)
}

func TestReflectorStripsAnswerPrefix(t *testing.T) {
	backend := llm.NewMock(llm.TextMessage("Answer: Water every two days."))
	r := NewReflector(backend, "")

	refined := r.Refine(context.Background(), "q", "draft", nil)
	assert.Equal(t, "Water every two days.", refined)
}

func TestReflectorSkipsEmptyDraft(t *testing.T) {
	backend := llm.NewMock(llm.TextMessage("should not be called"))
	r := NewReflector(backend, "")

	assert.Equal(t, "", r.Refine(context.Background(), "q", "", nil))
	assert.Zero(t, backend.Calls())
}

func TestReflectorNilReceiver(t *testing.T) {
	var r *Reflector
	assert.Equal(t, "draft", r.Refine(context.Background(), "q", "draft", nil))
}
