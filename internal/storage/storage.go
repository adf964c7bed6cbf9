// Package storage persists index entries and fetched drug labels.
package storage

import (
	"context"

	"github.com/hyperjump/pharmassist/internal/models"
)

// EntryStore persists vector index entries so the index survives restarts.
type EntryStore interface {
	SaveEntry(ctx context.Context, entry models.IndexEntry) error
	LoadEntries(ctx context.Context) ([]models.IndexEntry, error)
	DeleteAllEntries(ctx context.Context) error
	CountEntries(ctx context.Context) (int64, error)
	Close() error
}

// LabelStore persists drug labels fetched from the label API. Entries never expire;
// DeleteLabel is the only eviction.
type LabelStore interface {
	PutLabel(ctx context.Context, label *models.DrugLabel) error
	GetLabel(ctx context.Context, id string) (*models.DrugLabel, error)
	DeleteLabel(ctx context.Context, id string) error
	ListLabels(ctx context.Context) ([]*models.DrugLabel, error)
	CountLabels(ctx context.Context) (int64, error)
	Close() error
}
