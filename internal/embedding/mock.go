package embedding

import (
	"context"

	"github.com/hyperjump/pharmassist/pkg/utils"
)

// MockEmbedder is a deterministic bag-of-words embedder. Each word is hashed into one
// dimension with a hashed sign, then the vector is L2-normalized, so texts sharing words
// have positive cosine similarity. Used in tests and when no provider is configured.
type MockEmbedder struct {
	dimensions int
}

var _ Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic embedding of text.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if isBlank(text) {
		return nil, nil
	}
	emb := make([]float32, e.dimensions)
	words := Words(text)
	if len(words) == 0 {
		// Punctuation-only text still gets a stable non-zero vector.
		words = []string{text}
	}
	for _, w := range words {
		h := HashString(w)
		sign := float32(1)
		if h&(1<<30) != 0 {
			sign = -1
		}
		emb[h%e.dimensions] += sign
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch embeds each text in order.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	return embedEach(ctx, texts, e.Embed)
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
