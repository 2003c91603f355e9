//go:build !onnx

package main

import (
	"github.com/rs/zerolog/log"

	"github.com/Aryok23/garden-advisor/memory"
	"github.com/Aryok23/garden-advisor/memory/embedder/mock"
)

// newEmbedder returns the hash-based embedder. Build with -tags onnx for real
// semantic embeddings.
func newEmbedder() (memory.Embedder, error) {
	log.Warn().Msg("using hash embedder; memory recall matches exact phrasing only (build with -tags onnx for semantic recall)")
	return mock.New(), nil
}
