package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aryok23/garden-advisor/core"
)

func TestWindowAppendAndRecent(t *testing.T) {
	w := NewWindow(10)

	w.Append("alice", core.Turn{Role: core.RoleUser, Text: "hello"})
	w.Append("alice", core.Turn{Role: core.RoleAgent, Text: "hi there"})

	turns := w.Recent("alice")
	assert.Len(t, turns, 2)
	assert.Equal(t, core.RoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Text)
	assert.Equal(t, "hi there", turns[1].Text)
}

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(4)

	for i := 0; i < 10; i++ {
		w.Append("alice", core.Turn{Role: core.RoleUser, Text: fmt.Sprintf("turn %d", i)})
	}

	turns := w.Recent("alice")
	assert.Len(t, turns, 4)
	assert.Equal(t, "turn 6", turns[0].Text)
	assert.Equal(t, "turn 9", turns[3].Text)
}

func TestWindowIsolatesUsers(t *testing.T) {
	w := NewWindow(10)

	w.Append("alice", core.Turn{Role: core.RoleUser, Text: "my tomatoes"})
	w.Append("bob", core.Turn{Role: core.RoleUser, Text: "my cactus"})

	assert.Len(t, w.Recent("alice"), 1)
	assert.Len(t, w.Recent("bob"), 1)
	assert.Equal(t, "my tomatoes", w.Recent("alice")[0].Text)
	assert.Empty(t, w.Recent("carol"))
}

func TestWindowClear(t *testing.T) {
	w := NewWindow(10)

	w.Append("alice", core.Turn{Role: core.RoleUser, Text: "hello"})
	w.Clear("alice")

	assert.Empty(t, w.Recent("alice"))
}

func TestWindowRecentReturnsCopy(t *testing.T) {
	w := NewWindow(10)
	w.Append("alice", core.Turn{Role: core.RoleUser, Text: "original"})

	turns := w.Recent("alice")
	turns[0].Text = "mutated"

	assert.Equal(t, "original", w.Recent("alice")[0].Text)
}
