// Package memory implements the agent's two-tier memory: a bounded in-process
// short-term window per user, and a vector-backed long-term store of past
// exchanges keyed by user.
package memory

import (
	"context"
)

// Embedder converts text into vectors for semantic search.
type Embedder interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding dimensionality.
	Dimensions() int
}

// Result is one long-term recall hit.
type Result struct {
	Memory     *Exchange
	Similarity float64
}

// Store is the long-term persistence boundary. Implementations must keep
// users' memories strictly isolated from each other.
type Store interface {
	// Store persists one exchange under the user's collection.
	Store(ctx context.Context, exchange *Exchange, embedding []float32) error

	// Query returns up to limit exchanges for the user, most similar first.
	Query(ctx context.Context, userID string, embedding []float32, limit int) ([]Result, error)

	// Reset removes all memories for the user.
	Reset(ctx context.Context, userID string) error

	// Close releases store resources.
	Close() error
}

// Manager is the agent-facing memory API.
type Manager interface {
	// RecordExchange persists one completed user/agent exchange.
	RecordExchange(ctx context.Context, exchange *Exchange) error

	// Retrieve formats relevant long-term memories as model context.
	// Returns "" when nothing relevant exists.
	Retrieve(ctx context.Context, userID, query string) (string, error)

	// Recall returns raw relevant memories for programmatic use.
	Recall(ctx context.Context, userID, query string, limit int) ([]Result, error)

	// PlantsFor lists the plants mentioned across the user's stored exchanges.
	PlantsFor(ctx context.Context, userID string) ([]string, error)

	// Forget erases the user's long-term memory.
	Forget(ctx context.Context, userID string) error
}
