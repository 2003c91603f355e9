package tools

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/Aryok23/garden-advisor/core"
)

// Reminder is one durable watering reminder.
type Reminder struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Plant        string    `json:"plant"`
	IntervalDays int       `json:"interval_days"`
	CreatedAt    time.Time `json:"created_at"`
	Active       bool      `json:"active"`
}

// ReminderStore is the SQLite-backed reminder persistence. Identical
// (user, plant, interval) requests inside the dedupe window collapse to one
// row; a unique index is the durable backstop across restarts.
type ReminderStore struct {
	db           *sql.DB
	mu           sync.RWMutex
	dedupe       *ristretto.Cache
	dedupeWindow time.Duration
}

// NewReminderStore opens (or creates) the reminder database.
func NewReminderStore(path string, dedupeWindow time.Duration) (*ReminderStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open reminder database")
	}

	// WAL mode for concurrent sessions.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	createSQL := `CREATE TABLE IF NOT EXISTS reminders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		plant TEXT NOT NULL,
		interval_days INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		UNIQUE(user_id, plant, interval_days)
	)`
	if _, err := db.Exec(createSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create reminders table")
	}

	if dedupeWindow == 0 {
		dedupeWindow = 10 * time.Minute
	}

	dedupe, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 12,
		MaxCost:     1 << 16,
		BufferItems: 64,
	})
	if err != nil {
		log.Warn().Err(err).Msg("reminder dedupe cache disabled, relying on unique index")
		dedupe = nil
	}

	return &ReminderStore{db: db, dedupe: dedupe, dedupeWindow: dedupeWindow}, nil
}

// Close releases the database handle.
func (s *ReminderStore) Close() error {
	return s.db.Close()
}

func dedupeKey(userID, plant string, intervalDays int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", userID, strings.ToLower(plant), intervalDays)))
	return "reminder:" + hex.EncodeToString(h[:8])
}

// Set persists a reminder. Returns the stored reminder and whether a new row
// was created; a duplicate within the window or against the unique index
// reports created=false without error.
func (s *ReminderStore) Set(ctx context.Context, userID, plant string, intervalDays int) (*Reminder, bool, error) {
	if userID == "" {
		return nil, false, errors.New("user id is required")
	}
	if strings.TrimSpace(plant) == "" {
		return nil, false, errors.New("plant is required")
	}
	if intervalDays <= 0 {
		return nil, false, errors.New("interval must be at least 1 day")
	}
	plant = strings.TrimSpace(plant)

	key := dedupeKey(userID, plant, intervalDays)
	if s.dedupe != nil {
		if _, seen := s.dedupe.Get(key); seen {
			existing, err := s.find(ctx, userID, plant, intervalDays)
			if err == nil && existing != nil {
				return existing, false, nil
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rem := &Reminder{
		ID:           uuid.New().String(),
		UserID:       userID,
		Plant:        plant,
		IntervalDays: intervalDays,
		CreatedAt:    time.Now().UTC(),
		Active:       true,
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (id, user_id, plant, interval_days, created_at, active)
		 VALUES (?, ?, ?, ?, ?, 1)
		 ON CONFLICT(user_id, plant, interval_days) DO NOTHING`,
		rem.ID, rem.UserID, rem.Plant, rem.IntervalDays, rem.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, false, errors.Wrap(err, "insert reminder")
	}

	if s.dedupe != nil {
		s.dedupe.SetWithTTL(key, struct{}{}, 1, s.dedupeWindow)
		s.dedupe.Wait()
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		existing, err := s.findLocked(ctx, userID, plant, intervalDays)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	return rem, true, nil
}

func (s *ReminderStore) find(ctx context.Context, userID, plant string, intervalDays int) (*Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(ctx, userID, plant, intervalDays)
}

func (s *ReminderStore) findLocked(ctx context.Context, userID, plant string, intervalDays int) (*Reminder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, plant, interval_days, created_at, active
		 FROM reminders WHERE user_id = ? AND plant = ? AND interval_days = ?`,
		userID, plant, intervalDays,
	)
	return scanReminder(row)
}

// ListActive returns the user's active reminders, oldest first.
func (s *ReminderStore) ListActive(ctx context.Context, userID string) ([]*Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, plant, interval_days, created_at, active
		 FROM reminders WHERE user_id = ? AND active = 1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list reminders")
	}
	defer rows.Close()

	var reminders []*Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}

// Deactivate marks a reminder inactive.
func (s *ReminderStore) Deactivate(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET active = 0 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return errors.Wrap(err, "deactivate reminder")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return errors.Errorf("reminder %s not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReminder(row rowScanner) (*Reminder, error) {
	var rem Reminder
	var createdAt string
	var active int
	if err := row.Scan(&rem.ID, &rem.UserID, &rem.Plant, &rem.IntervalDays, &createdAt, &active); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("reminder not found")
		}
		return nil, errors.Wrap(err, "scan reminder")
	}
	rem.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rem.Active = active == 1
	return &rem, nil
}

// Tool exposes reminder scheduling as a registered capability.
func (s *ReminderStore) Tool() core.Tool {
	return New("reminder").
		Description("Schedule a recurring watering reminder for one of the user's plants. "+
			"Use when the user asks to be reminded to water something.").
		Schema(BuildSchemaWithThought(map[string]interface{}{
			"plant":         StringProperty("The plant to water, e.g. 'tomatoes'"),
			"interval_days": IntegerProperty("How often to water, in days"),
		}, "plant", "interval_days")).
		Timeout(5 * time.Second).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var in struct {
				core.BaseInput
				Plant        string `json:"plant"`
				IntervalDays int    `json:"interval_days"`
			}
			if err := json.Unmarshal(params.Input, &in); err != nil {
				return &core.ToolResult{Success: false, Error: fmt.Sprintf("invalid input: %v", err)}, nil
			}

			rem, created, err := s.Set(ctx, params.UserID, in.Plant, in.IntervalDays)
			if err != nil {
				return &core.ToolResult{Success: false, Error: fmt.Sprintf("failed to set reminder: %v", err)}, nil
			}

			msg := fmt.Sprintf("Reminder set: water %s every %d day(s)", rem.Plant, rem.IntervalDays)
			if !created {
				msg = fmt.Sprintf("Reminder already exists: water %s every %d day(s)", rem.Plant, rem.IntervalDays)
			}
			return &core.ToolResult{
				Success: true,
				Data: map[string]interface{}{
					"reminder": rem,
					"created":  created,
					"message":  msg,
				},
			}, nil
		}).
		Build()
}
