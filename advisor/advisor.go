// Package advisor wires the planner, reasoning engine, memory tiers, and
// knowledge retrieval into the conversational surface. One Process call is one
// turn; turns for the same user are serialized so memory stays consistent.
package advisor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Aryok23/garden-advisor/core"
	"github.com/Aryok23/garden-advisor/engine"
	"github.com/Aryok23/garden-advisor/memory"
	"github.com/Aryok23/garden-advisor/planner"
	"github.com/Aryok23/garden-advisor/rag"
	"github.com/Aryok23/garden-advisor/tools"
)

// Apology is the canned reply when the model backend is unreachable.
const Apology = "I'm having trouble thinking right now. Please try again in a moment."

// snippetLimit caps retrieved knowledge per turn.
const snippetLimit = 2

// Deps are the advisor's collaborators. Planner, Reflector, Memory, and
// Knowledge are optional; the engine is required.
type Deps struct {
	Engine    *engine.Engine
	Planner   *planner.Planner
	Reflector *engine.Reflector
	Memory    memory.Manager
	Window    *memory.Window
	Knowledge *rag.Retriever
	Reminders *tools.ReminderStore
	Weather   *tools.WeatherClient
}

// Advisor is the top-level conversational agent.
type Advisor struct {
	deps Deps
	log  zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an advisor.
func New(deps Deps) *Advisor {
	if deps.Window == nil {
		deps.Window = memory.NewWindow(memory.DefaultWindowSize)
	}
	return &Advisor{
		deps:  deps,
		log:   log.With().Str("component", "advisor").Logger(),
		locks: make(map[string]*sync.Mutex),
	}
}

// userLock returns the per-user turn lock, creating it on first use.
func (a *Advisor) userLock(userID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[userID] = lock
	}
	return lock
}

// Process handles one user message end to end: recall, plan, reason, reflect,
// and write back. Concurrent messages from the same user run one at a time.
func (a *Advisor) Process(ctx context.Context, msg core.Message) core.Answer {
	lock := a.userLock(msg.UserID)
	lock.Lock()
	defer lock.Unlock()

	history := a.deps.Window.Recent(msg.UserID)

	var memoryContext string
	if a.deps.Memory != nil {
		var err error
		memoryContext, err = a.deps.Memory.Retrieve(ctx, msg.UserID, msg.Text)
		if err != nil {
			a.log.Warn().Err(err).Str("user_id", msg.UserID).Msg("memory retrieval failed")
		}
	}

	var snippets []core.KnowledgeSnippet
	if a.deps.Knowledge != nil {
		var err error
		snippets, err = a.deps.Knowledge.Retrieve(ctx, msg.Text, snippetLimit)
		if err != nil {
			a.log.Warn().Err(err).Msg("knowledge retrieval failed")
		}
	}

	var plan *core.Plan
	if a.deps.Planner != nil {
		plan = a.deps.Planner.Plan(ctx, msg.Text)
		a.log.Debug().
			Str("user_id", msg.UserID).
			Str("intent", string(plan.Intent)).
			Strs("tools", plan.Tools).
			Msg("query planned")
	}

	out, err := a.deps.Engine.Run(ctx, &engine.Input{
		Query:         msg.Text,
		UserID:        msg.UserID,
		Plan:          plan,
		History:       history,
		MemoryContext: memoryContext,
		Snippets:      snippets,
	})
	if err != nil || out.State == core.StateFailed {
		a.log.Error().Err(err).Str("user_id", msg.UserID).Msg("turn failed")
		// Failed turns stay out of long-term memory; the exchange carries
		// no advice worth recalling.
		a.appendShortTerm(msg.UserID, msg.Text, Apology)
		return core.Answer{Text: Apology, State: core.StateFailed}
	}

	text := out.Text
	if a.deps.Reflector != nil && out.State == core.StateFinished {
		text = a.deps.Reflector.Refine(ctx, msg.Text, text, out.Traces)
	}

	a.appendShortTerm(msg.UserID, msg.Text, text)
	if a.deps.Memory != nil {
		// Write-back happens strictly after the loop terminated.
		exchange := memory.NewExchange(msg.UserID, msg.Text, text)
		if err := a.deps.Memory.RecordExchange(ctx, exchange); err != nil {
			a.log.Warn().Err(err).Str("user_id", msg.UserID).Msg("long-term write-back failed")
		}
	}

	return core.Answer{
		Text:      text,
		State:     out.State,
		ToolsUsed: out.ToolsUsed,
	}
}

func (a *Advisor) appendShortTerm(userID, userText, agentText string) {
	now := time.Now()
	a.deps.Window.Append(userID, core.Turn{Role: core.RoleUser, Text: userText, Timestamp: now})
	a.deps.Window.Append(userID, core.Turn{Role: core.RoleAgent, Text: agentText, Timestamp: now})
}
