// Package vector provides the nearest-neighbour index over document embeddings.
package vector

import (
	"context"
	"errors"

	"github.com/hyperjump/pharmassist/internal/models"
)

// ErrDimensionMismatch is returned when a vector's length differs from the index dimensionality.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Index stores document embeddings and answers top-k cosine similarity queries.
type Index interface {
	// Upsert inserts entry, replacing any existing entry with the same document ID.
	Upsert(ctx context.Context, entry models.IndexEntry) error
	// Query returns at most k results ordered by similarity, highest first.
	// Ties keep insertion order. An empty index yields an empty slice.
	Query(ctx context.Context, embedding []float32, k int) ([]models.SearchResult, error)
	Get(id string) (models.Document, bool)
	Count() int
	Clear(ctx context.Context) error
	Dimensions() int
	Close() error
}
