package engine

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"

	"github.com/Aryok23/garden-advisor/core"
)

// Session holds the state of one reasoning loop invocation: the message
// history sent to the model and the scratchpad of traces collected so far.
// A session is owned by exactly one loop run and discarded after the turn.
type Session struct {
	ID     string
	UserID string

	StepCount int
	Traces    []*core.Trace

	messages []anthropic.MessageParam
}

// NewSession creates a session for one turn.
func NewSession(userID string) *Session {
	return &Session{
		ID:     uuid.New().String(),
		UserID: userID,
	}
}

// Messages returns the accumulated message history.
func (s *Session) Messages() []anthropic.MessageParam {
	return s.messages
}

// RestoreHistory seeds the session with the short-term conversation window.
func (s *Session) RestoreHistory(turns []core.Turn) {
	for _, turn := range turns {
		switch turn.Role {
		case core.RoleUser:
			s.messages = append(s.messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Text)))
		case core.RoleAgent:
			s.messages = append(s.messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Text)))
		}
	}
}

// AddUserMessage appends a user text message.
func (s *Session) AddUserMessage(text string) {
	s.messages = append(s.messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
}

// AddAssistantMessage appends an assistant text message.
func (s *Session) AddAssistantMessage(text string) {
	s.messages = append(s.messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
}

// AddAssistantResponse appends a full model response, preserving tool_use
// blocks so the follow-up tool results line up with their calls.
func (s *Session) AddAssistantResponse(resp *anthropic.Message) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			blocks = append(blocks, anthropic.NewTextBlock(block.Text))
		case "tool_use":
			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    block.ID,
					Name:  block.Name,
					Input: block.Input,
				},
			})
		}
	}
	if len(blocks) == 0 {
		return
	}
	s.messages = append(s.messages, anthropic.NewAssistantMessage(blocks...))
}

// AddToolResults appends tool result blocks as a user message.
func (s *Session) AddToolResults(results []anthropic.ContentBlockParamUnion) {
	if len(results) == 0 {
		return
	}
	s.messages = append(s.messages, anthropic.NewUserMessage(results...))
}

// AddTrace appends a scratchpad entry.
func (s *Session) AddTrace(trace *core.Trace) {
	s.Traces = append(s.Traces, trace)
}
