package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config tunes long-term recall.
type Config struct {
	// Enabled gates all long-term operations. When false the manager is a
	// no-op and the agent runs on short-term memory only.
	Enabled bool

	// MinSimilarity filters recall results below this cosine similarity.
	MinSimilarity float64

	// RecallLimit caps how many memories are retrieved per query.
	RecallLimit int
}

// DefaultConfig returns sensible recall settings.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		MinSimilarity: 0.3,
		RecallLimit:   3,
	}
}

// SimpleManager implements Manager over a Store and an Embedder.
type SimpleManager struct {
	store    Store
	embedder Embedder
	config   Config
	log      zerolog.Logger
}

// NewManager creates a memory manager.
func NewManager(store Store, embedder Embedder, config Config) *SimpleManager {
	return &SimpleManager{
		store:    store,
		embedder: embedder,
		config:   config,
		log:      log.With().Str("component", "memory").Logger(),
	}
}

// RecordExchange embeds and persists one completed exchange.
func (m *SimpleManager) RecordExchange(ctx context.Context, exchange *Exchange) error {
	if !m.config.Enabled {
		return nil
	}
	if exchange == nil || exchange.UserID == "" {
		return errors.New("exchange with user id is required")
	}

	embedding, err := m.embedder.Embed(ctx, exchange.FormatForEmbedding())
	if err != nil {
		return errors.Wrap(err, "embed exchange")
	}
	if err := m.store.Store(ctx, exchange, embedding); err != nil {
		return errors.Wrap(err, "store exchange")
	}

	m.log.Debug().
		Str("user_id", exchange.UserID).
		Strs("plants", exchange.Plants).
		Msg("exchange recorded")
	return nil
}

// Recall returns the user's memories relevant to the query, most similar
// first, filtered by the similarity floor.
func (m *SimpleManager) Recall(ctx context.Context, userID, query string, limit int) ([]Result, error) {
	if !m.config.Enabled {
		return nil, nil
	}
	if limit <= 0 {
		limit = m.config.RecallLimit
	}

	embedding, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "embed query")
	}

	results, err := m.store.Query(ctx, userID, embedding, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query memories")
	}

	filtered := results[:0]
	for _, r := range results {
		if r.Similarity >= m.config.MinSimilarity {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Retrieve formats relevant memories as a prompt section, or "" when there is
// nothing relevant. Recall failures degrade to "" so a turn never fails on
// memory.
func (m *SimpleManager) Retrieve(ctx context.Context, userID, query string) (string, error) {
	results, err := m.Recall(ctx, userID, query, 0)
	if err != nil {
		m.log.Warn().Err(err).Str("user_id", userID).Msg("memory recall failed, continuing without")
		return "", nil
	}
	if len(results) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("=== RELEVANT PAST CONVERSATIONS ===\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Memory.Format())
	}
	b.WriteString("Use this history naturally; do not recite it back verbatim.")
	return b.String(), nil
}

// PlantsFor aggregates plant mentions across the user's stored exchanges.
func (m *SimpleManager) PlantsFor(ctx context.Context, userID string) ([]string, error) {
	if !m.config.Enabled {
		return nil, nil
	}

	// No similarity floor here: this is an enumeration, not a lookup.
	embedding, err := m.embedder.Embed(ctx, "plants the user grows and cares for")
	if err != nil {
		return nil, errors.Wrap(err, "embed plants query")
	}
	results, err := m.store.Query(ctx, userID, embedding, 20)
	if err != nil {
		return nil, errors.Wrap(err, "query memories")
	}

	seen := make(map[string]bool)
	var plants []string
	for _, r := range results {
		for _, plant := range r.Memory.Plants {
			if !seen[plant] {
				seen[plant] = true
				plants = append(plants, plant)
			}
		}
	}
	return plants, nil
}

// Forget erases the user's long-term memory.
func (m *SimpleManager) Forget(ctx context.Context, userID string) error {
	if !m.config.Enabled {
		return nil
	}
	return m.store.Reset(ctx, userID)
}
