package llm

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/pkg/errors"
)

// Mock is a scripted Backend for tests and for running the advisor without an
// API key. Responses are returned in order; when the script runs out, the
// last response repeats.
type Mock struct {
	mu        sync.Mutex
	responses []*anthropic.Message
	calls     int

	// Err, when set, is returned by every call instead of a response.
	Err error
}

// NewMock builds a mock backend with a scripted response sequence.
func NewMock(responses ...*anthropic.Message) *Mock {
	return &Mock{responses: responses}
}

// Calls reports how many times the backend was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *Mock) CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.responses) == 0 {
		return nil, errors.New("mock backend: no responses scripted")
	}

	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

// TextMessage builds a model response containing a single text block.
func TextMessage(text string) *anthropic.Message {
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: text},
		},
		Usage: anthropic.Usage{InputTokens: 1, OutputTokens: 1},
	}
}

// ToolUseMessage builds a model response selecting a tool with the given
// parameters, preceded by an optional thought rendered as text.
func ToolUseMessage(id, name string, input map[string]interface{}) *anthropic.Message {
	raw, _ := json.Marshal(input)
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "tool_use", ID: id, Name: name, Input: raw},
		},
		Usage: anthropic.Usage{InputTokens: 1, OutputTokens: 1},
	}
}
