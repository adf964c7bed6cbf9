// Package embedding turns text into fixed-length vectors via OpenAI, a local ONNX model,
// or a deterministic mock.
package embedding

import (
	"context"
	"strings"
)

// Embedder produces vector embeddings for text.
//
// Embed returns (nil, nil) for empty or whitespace-only text. EmbedBatch preserves input
// order and places nil at the position of every item that could not be embedded;
// it never fails as a whole.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) [][]float32
	Dimensions() int
	Close() error
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// embedEach embeds texts one at a time with fn, leaving nil for failures and blanks.
func embedEach(ctx context.Context, texts []string, fn func(context.Context, string) ([]float32, error)) [][]float32 {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if ctx.Err() != nil {
			break
		}
		if isBlank(text) {
			continue
		}
		emb, err := fn(ctx, text)
		if err != nil {
			continue
		}
		out[i] = emb
	}
	return out
}
