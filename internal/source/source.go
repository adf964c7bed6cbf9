// Package source finds drug documents outside the vector index: the remote label API
// and, through Chain, any secondary source such as the local catalog.
package source

import (
	"context"

	"github.com/hyperjump/pharmassist/internal/models"
)

// Source looks up drug documents. Implementations degrade instead of failing: transport
// problems yield an empty result and are logged, never returned.
type Source interface {
	Search(ctx context.Context, query string, limit int) []models.Document
	FetchByID(ctx context.Context, id string) (*models.Document, bool)
}

// Chain tries each source in order and returns the first non-empty answer.
type Chain struct {
	sources []Source
}

var _ Source = (*Chain)(nil)

// NewChain composes sources; nil entries are skipped.
func NewChain(sources ...Source) *Chain {
	c := &Chain{}
	for _, s := range sources {
		if s != nil {
			c.sources = append(c.sources, s)
		}
	}
	return c
}

// Search returns the results of the first source that finds anything.
func (c *Chain) Search(ctx context.Context, query string, limit int) []models.Document {
	for _, s := range c.sources {
		if ctx.Err() != nil {
			break
		}
		if docs := s.Search(ctx, query, limit); len(docs) > 0 {
			return docs
		}
	}
	return []models.Document{}
}

// FetchByID returns the document from the first source that has it.
func (c *Chain) FetchByID(ctx context.Context, id string) (*models.Document, bool) {
	for _, s := range c.sources {
		if doc, ok := s.FetchByID(ctx, id); ok {
			return doc, true
		}
	}
	return nil, false
}

// Len returns the number of chained sources.
func (c *Chain) Len() int {
	return len(c.sources)
}
