//go:build onnx

package main

import (
	"os"

	"github.com/pkg/errors"

	"github.com/Aryok23/garden-advisor/memory"
	"github.com/Aryok23/garden-advisor/memory/embedder/onnx"
)

// newEmbedder loads the local sentence-transformer model. Paths come from the
// environment so the binary stays relocatable.
func newEmbedder() (memory.Embedder, error) {
	modelPath := os.Getenv("ONNX_MODEL_PATH")
	tokenizerPath := os.Getenv("ONNX_TOKENIZER_PATH")
	if modelPath == "" || tokenizerPath == "" {
		return nil, errors.New("ONNX_MODEL_PATH and ONNX_TOKENIZER_PATH are required with the onnx build")
	}
	return onnx.New(onnx.Config{
		ModelPath:     modelPath,
		TokenizerPath: tokenizerPath,
	})
}
