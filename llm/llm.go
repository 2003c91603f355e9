// Package llm wraps the language-model backend behind a small interface so
// the planner, engine, and reflection pass can share one client and tests can
// substitute a scripted mock.
package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
)

// DefaultModel is used when a caller does not pin a model.
const DefaultModel = "claude-sonnet-4-20250514"

// Backend is the sole boundary to model inference. Failures must be handled
// at the call site and converted into observations or degradations.
type Backend interface {
	CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
}

// Anthropic is the production Backend over the Anthropic Messages API.
type Anthropic struct {
	client *anthropic.Client
}

// NewAnthropic wraps an Anthropic client.
func NewAnthropic(client *anthropic.Client) *Anthropic {
	return &Anthropic{client: client}
}

// NewAnthropicFromKey builds a client from an API key.
func NewAnthropicFromKey(apiKey string) *Anthropic {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Anthropic{client: &client}
}

func (a *Anthropic) CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic messages.new")
	}
	return resp, nil
}

// Complete performs a single text completion with no tools. Used by the
// planner fallback and the reflection pass.
func Complete(ctx context.Context, b Backend, model, system, user string, maxTokens int64) (string, error) {
	if model == "" {
		model = DefaultModel
	}
	if maxTokens == 0 {
		maxTokens = 1024
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := b.CreateMessage(ctx, params)
	if err != nil {
		return "", err
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
