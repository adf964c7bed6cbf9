package vector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/pharmassist/internal/models"
	"github.com/hyperjump/pharmassist/internal/storage"
)

func doc(id string, vec ...float32) models.IndexEntry {
	return models.IndexEntry{
		Document:  models.Document{ID: id, Text: "text of " + id},
		Embedding: vec,
	}
}

func TestMemoryIndex_UpsertQuery(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	for _, e := range []models.IndexEntry{
		doc("a", 1, 0, 0),
		doc("b", 0.9, 0.1, 0),
		doc("c", 0, 1, 0),
	} {
		if err := idx.Upsert(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	if idx.Count() != 3 {
		t.Errorf("Count=%d", idx.Count())
	}

	results, err := idx.Query(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Document.ID != "a" || results[1].Document.ID != "b" {
		t.Errorf("order: got %s, %s", results[0].Document.ID, results[1].Document.ID)
	}
	if math.Abs(results[0].Similarity-1) > 1e-9 {
		t.Errorf("top similarity: got %v", results[0].Similarity)
	}
}

func TestMemoryIndex_QueryReflexive(t *testing.T) {
	idx, _ := NewMemoryIndex(4)
	ctx := context.Background()
	vecs := map[string][]float32{
		"x": {0.2, -0.4, 1.5, 0.3},
		"y": {-1, 2, 0.5, 0.1},
		"z": {3, 0.1, -0.2, 0.9},
	}
	for _, id := range []string{"x", "y", "z"} {
		_ = idx.Upsert(ctx, doc(id, vecs[id]...))
	}
	for id, v := range vecs {
		results, err := idx.Query(ctx, v, 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 || results[0].Document.ID != id {
			t.Errorf("query with %s's own embedding returned %v", id, results)
		}
	}
}

func TestMemoryIndex_EmptyIndex(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	results, err := idx.Query(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("empty index should not error: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", results)
	}

	results, err = idx.Query(context.Background(), []float32{1, 0, 0}, 5)
	if err != nil || len(results) != 0 {
		t.Errorf("empty index with other dimensions: got %v, %v", results, err)
	}
}

func TestMemoryIndex_KLargerThanSize(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Upsert(ctx, doc("a", 1, 0))
	results, _ := idx.Query(ctx, []float32{1, 0}, 10)
	if len(results) != 1 {
		t.Errorf("got %d results", len(results))
	}
}

func TestMemoryIndex_TiesKeepInsertionOrder(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	for _, id := range []string{"first", "second", "third"} {
		_ = idx.Upsert(ctx, doc(id, 1, 1))
	}
	results, _ := idx.Query(ctx, []float32{1, 1}, 3)
	for i, want := range []string{"first", "second", "third"} {
		if results[i].Document.ID != want {
			t.Errorf("position %d: got %s, want %s", i, results[i].Document.ID, want)
		}
	}
}

func TestMemoryIndex_UpsertReplaces(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Upsert(ctx, doc("a", 1, 0))
	_ = idx.Upsert(ctx, doc("b", 1, 0))
	replacement := doc("a", 1, 0)
	replacement.Document.Text = "updated"
	if err := idx.Upsert(ctx, replacement); err != nil {
		t.Fatal(err)
	}
	if idx.Count() != 2 {
		t.Errorf("Count=%d after replace", idx.Count())
	}
	got, ok := idx.Get("a")
	if !ok || got.Text != "updated" {
		t.Errorf("Get(a) = %+v, %v", got, ok)
	}
	results, _ := idx.Query(ctx, []float32{1, 0}, 2)
	if results[0].Document.ID != "a" {
		t.Errorf("replaced entry should keep its slot; got %s first", results[0].Document.ID)
	}
}

func TestMemoryIndex_DimensionMismatch(t *testing.T) {
	idx, _ := NewMemoryIndex(3)
	ctx := context.Background()
	err := idx.Upsert(ctx, doc("a", 1, 0))
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if idx.Count() != 0 {
		t.Error("rejected entry should not be stored")
	}
	if err := idx.Upsert(ctx, doc("b", 1, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.Query(ctx, []float32{1}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("query: expected ErrDimensionMismatch, got %v", err)
	}
}

func TestMemoryIndex_Clear(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Upsert(ctx, doc("a", 1, 0))
	if err := idx.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if idx.Count() != 0 {
		t.Errorf("Count=%d after clear", idx.Count())
	}
	if _, ok := idx.Get("a"); ok {
		t.Error("cleared entry still retrievable")
	}
}

func TestMemoryIndex_StoreRestore(t *testing.T) {
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	idx, _ := NewMemoryIndex(2, WithStore(store))
	_ = idx.Upsert(ctx, doc("a", 1, 0))
	_ = idx.Upsert(ctx, doc("b", 0, 1))

	restored, _ := NewMemoryIndex(2, WithStore(store))
	n, err := restored.Restore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || restored.Count() != 2 {
		t.Errorf("restored %d entries, Count=%d", n, restored.Count())
	}
	results, _ := restored.Query(ctx, []float32{0, 1}, 1)
	if results[0].Document.ID != "b" {
		t.Errorf("got %s", results[0].Document.ID)
	}

	other, _ := NewMemoryIndex(3, WithStore(store))
	if n, _ := other.Restore(ctx); n != 0 {
		t.Errorf("mismatched dimensions should be skipped, loaded %d", n)
	}

	if err := idx.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if c, _ := store.CountEntries(ctx); c != 0 {
		t.Errorf("clear should remove persisted entries, %d left", c)
	}
}

func TestMemoryIndex_ConcurrentAccess(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = idx.Upsert(ctx, doc(fmt.Sprintf("d%d", i), float32(i), 1))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = idx.Query(ctx, []float32{1, 1}, 3)
		}()
	}
	wg.Wait()
	if idx.Count() != 20 {
		t.Errorf("Count=%d", idx.Count())
	}
}

// slowStore blocks SaveEntry until release is closed.
type slowStore struct {
	storage.EntryStore
	saving  chan struct{}
	release chan struct{}
}

func (s *slowStore) SaveEntry(ctx context.Context, _ models.IndexEntry) error {
	close(s.saving)
	<-s.release
	return nil
}

func TestMemoryIndex_QueryNotBlockedByPersistence(t *testing.T) {
	store := &slowStore{saving: make(chan struct{}), release: make(chan struct{})}
	idx, _ := NewMemoryIndex(2, WithStore(store))
	ctx := context.Background()

	upserted := make(chan error, 1)
	go func() { upserted <- idx.Upsert(ctx, doc("a", 1, 0)) }()
	<-store.saving

	queried := make(chan error, 1)
	go func() {
		_, err := idx.Query(ctx, []float32{1, 0}, 1)
		queried <- err
	}()
	select {
	case err := <-queried:
		if err != nil {
			t.Errorf("query: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("query blocked while an entry was being persisted")
	}

	close(store.release)
	if err := <-upserted; err != nil {
		t.Fatal(err)
	}
	if idx.Count() != 1 {
		t.Errorf("Count=%d after upsert", idx.Count())
	}
}
