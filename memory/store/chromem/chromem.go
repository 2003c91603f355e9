// Package chromem persists long-term memories in chromem-go, an embedded pure
// Go vector database. Each user gets their own collection, so recall can never
// cross user boundaries.
package chromem

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Aryok23/garden-advisor/memory"
)

// Store implements memory.Store over chromem-go.
type Store struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
	log         zerolog.Logger
}

// New creates an in-memory store. Contents are lost on process exit.
func New() *Store {
	return &Store{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
		log:         log.With().Str("component", "chromem").Logger(),
	}
}

// NewPersistent creates a store backed by a directory on disk.
func NewPersistent(path string) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open chromem database")
	}
	return &Store{
		db:          db,
		collections: make(map[string]*chromem.Collection),
		log:         log.With().Str("component", "chromem").Logger(),
	}, nil
}

func collectionName(userID string) string {
	if userID == "" {
		return "global"
	}
	return "user_" + userID
}

func (s *Store) getOrCreateCollection(userID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[userID]
	s.mu.RUnlock()
	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, exists := s.collections[userID]; exists {
		return col, nil
	}

	// Embeddings are supplied by the caller, so no embedding func; default
	// cosine distance.
	col, err := s.db.GetOrCreateCollection(collectionName(userID), nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create collection")
	}
	s.collections[userID] = col
	return col, nil
}

// Store persists one exchange under the user's collection.
func (s *Store) Store(ctx context.Context, exchange *memory.Exchange, embedding []float32) error {
	col, err := s.getOrCreateCollection(exchange.UserID)
	if err != nil {
		return err
	}

	content, err := json.Marshal(exchange)
	if err != nil {
		return errors.Wrap(err, "marshal exchange")
	}

	metadata := map[string]string{
		"owner_id":   exchange.UserID,
		"created_at": exchange.Timestamp.Format(time.RFC3339),
	}
	if len(exchange.Plants) > 0 {
		metadata["plants"] = strings.Join(exchange.Plants, ",")
	}

	doc := chromem.Document{
		ID:        exchange.ID,
		Content:   string(content),
		Embedding: embedding,
		Metadata:  metadata,
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return errors.Wrap(err, "add document")
	}

	s.log.Debug().Str("user_id", exchange.UserID).Str("id", exchange.ID).Msg("exchange stored")
	return nil
}

// Query returns up to limit exchanges for the user, most similar first.
// chromem requires nResults <= collection size, so the limit is walked down
// until the query fits; an empty collection returns no results, no error.
func (s *Store) Query(ctx context.Context, userID string, embedding []float32, limit int) ([]memory.Result, error) {
	col, err := s.getOrCreateCollection(userID)
	if err != nil {
		return nil, err
	}

	where := map[string]string{"owner_id": userID}

	var raw []chromem.Result
	for currentLimit := limit; currentLimit >= 1; currentLimit-- {
		raw, err = col.QueryEmbedding(ctx, embedding, currentLimit, where, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if currentLimit == 1 {
				return nil, nil
			}
			continue
		}
		return nil, errors.Wrap(err, "chromem query")
	}

	var results []memory.Result
	for _, r := range raw {
		var exchange memory.Exchange
		if err := json.Unmarshal([]byte(r.Content), &exchange); err != nil {
			s.log.Warn().Err(err).Str("id", r.ID).Msg("skipping undecodable memory")
			continue
		}
		results = append(results, memory.Result{
			Memory:     &exchange,
			Similarity: float64(r.Similarity),
		})
	}
	return results, nil
}

// Reset removes all memories for the user.
func (s *Store) Reset(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := collectionName(userID)
	if err := s.db.DeleteCollection(name); err != nil {
		return errors.Wrapf(err, "delete collection %s", name)
	}
	delete(s.collections, userID)
	return nil
}

// Close releases resources. chromem holds state in memory (and flushes
// persistent writes eagerly), so there is nothing to do.
func (s *Store) Close() error {
	return nil
}

func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}

var _ memory.Store = (*Store)(nil)
