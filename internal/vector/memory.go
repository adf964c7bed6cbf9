package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hyperjump/pharmassist/internal/models"
	"github.com/hyperjump/pharmassist/internal/storage"
	"go.uber.org/zap"
)

// MemoryIndex is an in-memory vector index using brute-force cosine similarity.
// Entries are kept in insertion order so that equal scores rank the earlier entry first.
// With a store attached, writes go through to it and Restore reloads them at startup.
type MemoryIndex struct {
	dimensions int
	entries    []models.IndexEntry
	norms      []float64
	positions  map[string]int
	store      storage.EntryStore
	logger     *zap.Logger
	mu         sync.RWMutex
}

var _ Index = (*MemoryIndex)(nil)

// MemoryIndexOption configures a MemoryIndex.
type MemoryIndexOption func(*MemoryIndex)

// WithStore persists every upsert and clear to store.
func WithStore(store storage.EntryStore) MemoryIndexOption {
	return func(m *MemoryIndex) { m.store = store }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) MemoryIndexOption {
	return func(m *MemoryIndex) { m.logger = l }
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int, opts ...MemoryIndexOption) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	m := &MemoryIndex{
		dimensions: dimensions,
		positions:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Upsert inserts or replaces the entry for entry.Document.ID. A replaced entry keeps its
// original position for tie-breaking.
func (m *MemoryIndex) Upsert(ctx context.Context, entry models.IndexEntry) error {
	if entry.Document.ID == "" {
		return fmt.Errorf("entry has no document id")
	}
	if len(entry.Embedding) != m.dimensions {
		return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(entry.Embedding), m.dimensions)
	}
	vec := make([]float32, m.dimensions)
	copy(vec, entry.Embedding)
	entry.Embedding = vec

	// Persist before locking so queries are not held behind disk writes.
	if m.store != nil {
		if err := m.store.SaveEntry(ctx, entry); err != nil {
			return fmt.Errorf("failed to persist entry: %w", err)
		}
	}
	m.mu.Lock()
	m.putLocked(entry)
	size := len(m.entries)
	m.mu.Unlock()
	if m.logger != nil {
		m.logger.Debug("index upsert", zap.String("id", entry.Document.ID), zap.Int("size", size))
	}
	return nil
}

func (m *MemoryIndex) putLocked(entry models.IndexEntry) {
	norm := L2Norm(entry.Embedding)
	if i, ok := m.positions[entry.Document.ID]; ok {
		m.entries[i] = entry
		m.norms[i] = norm
		return
	}
	m.positions[entry.Document.ID] = len(m.entries)
	m.entries = append(m.entries, entry)
	m.norms = append(m.norms, norm)
}

// Query returns the top-k entries by cosine similarity. An empty index returns an
// empty slice whatever the query.
func (m *MemoryIndex) Query(ctx context.Context, embedding []float32, k int) ([]models.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.entries) == 0 {
		return []models.SearchResult{}, nil
	}
	if len(embedding) != m.dimensions {
		return nil, fmt.Errorf("%w: query has %d, expected %d", ErrDimensionMismatch, len(embedding), m.dimensions)
	}
	queryNorm := L2Norm(embedding)
	results := make([]models.SearchResult, len(m.entries))
	for i, e := range m.entries {
		results[i] = models.SearchResult{
			Document:   e.Document,
			Similarity: cosine(embedding, e.Embedding, queryNorm, m.norms[i]),
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Get returns the document stored under id.
func (m *MemoryIndex) Get(id string) (models.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.positions[id]
	if !ok {
		return models.Document{}, false
	}
	return m.entries[i].Document, true
}

// Count returns the number of entries in the index.
func (m *MemoryIndex) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Dimensions returns the embedding dimensionality the index accepts.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Clear removes every entry, including persisted ones.
func (m *MemoryIndex) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store != nil {
		if err := m.store.DeleteAllEntries(ctx); err != nil {
			return fmt.Errorf("failed to clear persisted entries: %w", err)
		}
	}
	m.entries = nil
	m.norms = nil
	m.positions = make(map[string]int)
	return nil
}

// Restore loads persisted entries into memory. Entries whose dimensionality does not
// match the index (for example after switching embedding provider) are skipped.
// It returns the number of entries loaded.
func (m *MemoryIndex) Restore(ctx context.Context) (int, error) {
	if m.store == nil {
		return 0, nil
	}
	entries, err := m.store.LoadEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load entries: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	loaded, skipped := 0, 0
	for _, e := range entries {
		if len(e.Embedding) != m.dimensions {
			skipped++
			continue
		}
		m.putLocked(e)
		loaded++
	}
	if skipped > 0 && m.logger != nil {
		m.logger.Warn("skipped persisted entries with mismatched dimensions",
			zap.Int("skipped", skipped), zap.Int("dimensions", m.dimensions))
	}
	return loaded, nil
}

// Close is a no-op; the attached store is owned by the caller.
func (m *MemoryIndex) Close() error {
	return nil
}
