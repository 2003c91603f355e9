package memory

import (
	"sync"

	"github.com/Aryok23/garden-advisor/core"
)

// DefaultWindowSize is the number of turns kept per user in short-term memory.
const DefaultWindowSize = 10

// Window is the short-term conversation memory: a bounded FIFO of turns per
// user, held in process. Oldest turns fall off when the bound is exceeded.
type Window struct {
	mu    sync.RWMutex
	size  int
	turns map[string][]core.Turn
}

// NewWindow creates a short-term window holding size turns per user.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{
		size:  size,
		turns: make(map[string][]core.Turn),
	}
}

// Append records a turn for the user, evicting the oldest beyond the bound.
func (w *Window) Append(userID string, turn core.Turn) {
	w.mu.Lock()
	defer w.mu.Unlock()

	turns := append(w.turns[userID], turn)
	if len(turns) > w.size {
		turns = turns[len(turns)-w.size:]
	}
	w.turns[userID] = turns
}

// Recent returns the user's turns, oldest first. The slice is a copy.
func (w *Window) Recent(userID string) []core.Turn {
	w.mu.RLock()
	defer w.mu.RUnlock()

	turns := w.turns[userID]
	out := make([]core.Turn, len(turns))
	copy(out, turns)
	return out
}

// Clear drops the user's short-term history.
func (w *Window) Clear(userID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.turns, userID)
}
