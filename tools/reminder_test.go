package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aryok23/garden-advisor/core"
)

func newTestStore(t *testing.T) *ReminderStore {
	t.Helper()
	store, err := NewReminderStore(filepath.Join(t.TempDir(), "reminders.db"), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestReminderSetAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rem, created, err := store.Set(ctx, "alice", "tomatoes", 3)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "tomatoes", rem.Plant)
	assert.Equal(t, 3, rem.IntervalDays)
	assert.True(t, rem.Active)

	reminders, err := store.ListActive(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, rem.ID, reminders[0].ID)
}

func TestReminderDuplicateCollapses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, created, err := store.Set(ctx, "alice", "basil", 2)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := store.Set(ctx, "alice", "basil", 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	reminders, err := store.ListActive(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, reminders, 1)
}

func TestReminderDifferentIntervalIsNew(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, created, err := store.Set(ctx, "alice", "basil", 2)
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = store.Set(ctx, "alice", "basil", 5)
	require.NoError(t, err)
	assert.True(t, created)

	reminders, err := store.ListActive(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, reminders, 2)
}

func TestReminderIsolatesUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.Set(ctx, "alice", "rose", 4)
	require.NoError(t, err)

	reminders, err := store.ListActive(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, reminders)
}

func TestReminderDeactivate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rem, _, err := store.Set(ctx, "alice", "cactus", 14)
	require.NoError(t, err)
	require.NoError(t, store.Deactivate(ctx, "alice", rem.ID))

	reminders, err := store.ListActive(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, reminders)

	assert.Error(t, store.Deactivate(ctx, "alice", "no-such-id"))
}

func TestReminderPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.db")
	ctx := context.Background()

	store, err := NewReminderStore(path, time.Minute)
	require.NoError(t, err)
	_, _, err = store.Set(ctx, "alice", "orchid", 7)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewReminderStore(path, time.Minute)
	require.NoError(t, err)
	defer reopened.Close()

	// The in-memory dedupe window is gone; the unique index must still
	// collapse the duplicate.
	_, created, err := reopened.Set(ctx, "alice", "orchid", 7)
	require.NoError(t, err)
	assert.False(t, created)

	reminders, err := reopened.ListActive(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, reminders, 1)
}

func TestReminderValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.Set(ctx, "", "basil", 2)
	assert.Error(t, err)
	_, _, err = store.Set(ctx, "alice", "  ", 2)
	assert.Error(t, err)
	_, _, err = store.Set(ctx, "alice", "basil", 0)
	assert.Error(t, err)
}

func TestReminderTool(t *testing.T) {
	store := newTestStore(t)

	result, err := store.Tool().Invoke(context.Background(), &core.ToolParams{
		UserID: "alice",
		Input:  json.RawMessage(`{"plant": "mint", "interval_days": 2, "thought": "user asked"}`),
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	data := result.Data.(map[string]interface{})
	assert.Contains(t, data["message"], "water mint every 2 day(s)")
	assert.Equal(t, true, data["created"])
}
