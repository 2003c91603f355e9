// Package mock provides a deterministic hash-based embedder for tests and for
// running without an embedding model. Identical texts embed identically;
// different texts almost always differ. The vectors carry no semantics.
package mock

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/Aryok23/garden-advisor/memory"
)

const defaultDimensions = 384

// Embedder implements memory.Embedder with seeded pseudo-random vectors.
type Embedder struct {
	dimensions int
}

// New creates a mock embedder with the default dimensionality.
func New() *Embedder {
	return &Embedder{dimensions: defaultDimensions}
}

// NewWithDimensions creates a mock embedder with a custom dimensionality.
func NewWithDimensions(dims int) *Embedder {
	if dims <= 0 {
		dims = defaultDimensions
	}
	return &Embedder{dimensions: dims}
}

// Embed generates a deterministic unit vector seeded by the text's hash.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	state := h.Sum64()

	vec := make([]float32, e.dimensions)
	var norm float64
	for i := range vec {
		// Linear congruential step keeps the sequence deterministic.
		state = state*6364136223846793005 + 1442695040888963407
		v := float64(int64(state>>11))/float64(1<<52) - 1.0
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// Dimensions returns the embedding dimensionality.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

var _ memory.Embedder = (*Embedder)(nil)
