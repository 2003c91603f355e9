package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Aryok23/garden-advisor/core"
	"github.com/Aryok23/garden-advisor/llm"
)

// Reflector runs a single quality pass over the loop's draft answer. It never
// blocks delivery: any failure returns the draft unchanged.
type Reflector struct {
	backend   llm.Backend
	model     string
	maxTokens int64
	log       zerolog.Logger
}

// NewReflector builds a reflector on the given backend.
func NewReflector(backend llm.Backend, model string) *Reflector {
	if model == "" {
		model = llm.DefaultModel
	}
	return &Reflector{
		backend:   backend,
		model:     model,
		maxTokens: 1024,
		log:       log.With().Str("component", "reflector").Logger(),
	}
}

const reflectPrompt = `You review draft answers from a gardening assistant before they reach the user.

Check the draft against the question and the tool observations:
- Does it actually answer what was asked?
- Does it contradict any observation?
- Is it concrete and friendly?

If the draft is good, return it unchanged. Otherwise return an improved version.
Return ONLY the final answer text, nothing else.`

// Refine reviews a draft answer against the question and the scratchpad.
// On any backend error the draft is returned as-is.
func (r *Reflector) Refine(ctx context.Context, query, draft string, traces []*core.Trace) string {
	if r == nil || r.backend == nil || strings.TrimSpace(draft) == "" {
		return draft
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", query)
	if len(traces) > 0 {
		b.WriteString("Observations:\n")
		for _, trace := range traces {
			status := "ok"
			if !trace.Success {
				status = "failed"
			}
			fmt.Fprintf(&b, "- [%s %s] %s\n", trace.Action, status, trace.Observation)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Draft answer:\n%s", draft)

	refined, err := llm.Complete(ctx, r.backend, r.model, reflectPrompt, b.String(), r.maxTokens)
	if err != nil {
		r.log.Warn().Err(err).Msg("reflection pass failed, keeping draft")
		return draft
	}

	refined = strings.TrimSpace(refined)
	// Some models echo a label despite instructions.
	refined = strings.TrimSpace(strings.TrimPrefix(refined, "Answer:"))
	if refined == "" {
		return draft
	}
	return refined
}
