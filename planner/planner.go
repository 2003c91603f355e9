// Package planner classifies incoming queries before the reasoning loop runs.
// Classification is keyword-first with a cheap model fallback; it produces a
// hint, never a constraint, and never fails the turn.
package planner

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Aryok23/garden-advisor/core"
	"github.com/Aryok23/garden-advisor/llm"
)

// intentKeywords maps each intent to its trigger phrases. Matching is
// case-insensitive substring containment; first intent with a hit wins, in
// the declared priority order.
var intentKeywords = []struct {
	intent   core.Intent
	tools    []string
	keywords []string
}{
	{
		intent:   core.IntentWeather,
		tools:    []string{"weather"},
		keywords: []string{"weather", "rain", "temperature", "forecast", "should i water"},
	},
	{
		intent:   core.IntentReminder,
		tools:    []string{"reminder"},
		keywords: []string{"remind", "schedule", "set reminder", "notify"},
	},
	{
		intent:   core.IntentCalculation,
		tools:    []string{"calculator"},
		keywords: []string{"calculate", "how much", "how many", "liters", "gallons"},
	},
	{
		intent:   core.IntentPlantCare,
		tools:    nil,
		keywords: []string{"how to", "care for", "grow", "plant", "water frequency", "sunlight"},
	},
}

// searchKeywords route to the search tool on top of whatever intent matched.
var searchKeywords = []string{"search", "find", "look up", "information about"}

// Planner classifies queries. The backend is optional; without it,
// unclassified queries fall through to the general intent.
type Planner struct {
	backend llm.Backend
	model   string
	log     zerolog.Logger
}

// New creates a planner. backend may be nil to disable the model fallback.
func New(backend llm.Backend, model string) *Planner {
	if model == "" {
		model = llm.DefaultModel
	}
	return &Planner{
		backend: backend,
		model:   model,
		log:     log.With().Str("component", "planner").Logger(),
	}
}

// Plan classifies one query. It always returns a usable plan.
func (p *Planner) Plan(ctx context.Context, query string) *core.Plan {
	lowered := strings.ToLower(query)

	for _, entry := range intentKeywords {
		matched := matchedKeywords(lowered, entry.keywords)
		if len(matched) == 0 {
			continue
		}
		plan := &core.Plan{
			Intent:     entry.intent,
			Tools:      append([]string(nil), entry.tools...),
			Complexity: float64(len(matched)) / float64(len(entry.keywords)),
			Rationale:  "matched: " + strings.Join(matched, ", "),
		}
		if len(matchedKeywords(lowered, searchKeywords)) > 0 {
			plan.Tools = append(plan.Tools, "search")
		}
		return plan
	}

	if len(matchedKeywords(lowered, searchKeywords)) > 0 {
		return &core.Plan{
			Intent:     core.IntentGeneral,
			Tools:      []string{"search"},
			Complexity: 0.2,
			Rationale:  "search phrasing without a specific intent",
		}
	}

	return p.modelFallback(ctx, query)
}

// modelFallback asks the model for a one-word category when no keyword hit.
// Any failure degrades to the general intent.
func (p *Planner) modelFallback(ctx context.Context, query string) *core.Plan {
	general := &core.Plan{
		Intent:     core.IntentGeneral,
		Complexity: 0.1,
		Rationale:  "no keyword match",
	}
	if p.backend == nil {
		return general
	}

	const system = `Classify a gardening question into exactly one category.
Reply with one word: weather, plant-care, reminder, calculation, or general.`
	reply, err := llm.Complete(ctx, p.backend, p.model, system, query, 16)
	if err != nil {
		p.log.Debug().Err(err).Msg("classifier fallback failed, using general intent")
		return general
	}

	intent := parseIntent(reply)
	if intent == core.IntentUnknown {
		return general
	}
	return &core.Plan{
		Intent:     intent,
		Tools:      toolsForIntent(intent),
		Complexity: 0.3,
		Rationale:  "model classification",
	}
}

func parseIntent(reply string) core.Intent {
	word := strings.ToLower(strings.TrimSpace(reply))
	word = strings.Trim(word, ".\"'")
	word = strings.ReplaceAll(word, "_", "-")
	switch word {
	case string(core.IntentWeather):
		return core.IntentWeather
	case string(core.IntentPlantCare):
		return core.IntentPlantCare
	case string(core.IntentReminder):
		return core.IntentReminder
	case string(core.IntentCalculation):
		return core.IntentCalculation
	case string(core.IntentGeneral):
		return core.IntentGeneral
	default:
		return core.IntentUnknown
	}
}

func toolsForIntent(intent core.Intent) []string {
	switch intent {
	case core.IntentWeather:
		return []string{"weather"}
	case core.IntentReminder:
		return []string{"reminder"}
	case core.IntentCalculation:
		return []string{"calculator"}
	default:
		return nil
	}
}

func matchedKeywords(lowered string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}
