package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/pharmassist/internal/errs"
	"github.com/hyperjump/pharmassist/internal/models"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open("", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	if _, err := c.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return c
}

func TestCatalog_SearchByName(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	tests := []struct {
		query  string
		wantID string
	}{
		{"Doliprane", "paracetamol_001"},
		{"acetaminophen", "paracetamol_001"},
		{"ibuprofen", "ibuprofen_001"},
		{"Ibuprofn", "ibuprofen_001"},
		{"amoxicillin dosage", "amoxicillin_001"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			labels, err := c.SearchLabels(ctx, tt.query, 3)
			if err != nil {
				t.Fatal(err)
			}
			if len(labels) == 0 {
				t.Fatal("no results")
			}
			if labels[0].ID != tt.wantID {
				t.Errorf("first result = %s, want %s", labels[0].ID, tt.wantID)
			}
		})
	}
}

func TestCatalog_SearchNoMatch(t *testing.T) {
	c := newTestCatalog(t)
	docs := c.Search(context.Background(), "zzzzzz", 5)
	if docs == nil || len(docs) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", docs)
	}
	if docs := c.Search(context.Background(), "  ", 5); len(docs) != 0 {
		t.Errorf("blank query returned %d docs", len(docs))
	}
}

func TestCatalog_SearchReturnsDocuments(t *testing.T) {
	c := newTestCatalog(t)
	docs := c.Search(context.Background(), "aspirin", 2)
	if len(docs) == 0 {
		t.Fatal("no documents")
	}
	doc := docs[0]
	if doc.ID != "aspirin_001" {
		t.Errorf("ID = %s", doc.ID)
	}
	if !strings.Contains(doc.Text, "Reye's syndrome") {
		t.Errorf("text missing contraindications: %s", doc.Text)
	}
	if doc.Metadata[models.MetaSource] != SourceCatalog {
		t.Errorf("source = %q", doc.Metadata[models.MetaSource])
	}
}

func TestCatalog_GetAndDelete(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	l, err := c.Get(ctx, "ibuprofen_001")
	if err != nil {
		t.Fatal(err)
	}
	if l.BrandName != "Advil" || len(l.ActiveIngredients) != 1 {
		t.Errorf("unexpected label: %+v", l)
	}
	if doc, ok := c.FetchByID(ctx, "ibuprofen_001"); !ok || doc.ID != "ibuprofen_001" {
		t.Errorf("FetchByID = %v, %v", doc, ok)
	}

	if err := c.Delete(ctx, "ibuprofen_001"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "ibuprofen_001"); !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCatalog_SeedOnlyWhenEmpty(t *testing.T) {
	c := newTestCatalog(t)
	n, err := c.Seed(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second seed added %d labels", n)
	}
	count, _ := c.Count()
	if count != uint64(len(SampleLabels())) {
		t.Errorf("Count = %d", count)
	}
}

func TestCatalog_AddReplaces(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()
	updated := &models.DrugLabel{ID: "aspirin_001", BrandName: "Aspirin", Warnings: "Updated warning text."}
	if err := c.Add(ctx, updated); err != nil {
		t.Fatal(err)
	}
	l, err := c.Get(ctx, "aspirin_001")
	if err != nil {
		t.Fatal(err)
	}
	if l.Warnings != "Updated warning text." {
		t.Errorf("Warnings = %q", l.Warnings)
	}
	count, _ := c.Count()
	if count != uint64(len(SampleLabels())) {
		t.Errorf("replace changed count to %d", count)
	}
	if err := c.Add(ctx, &models.DrugLabel{BrandName: "No ID"}); !errs.IsKind(err, errs.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCatalog_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.bleve")
	ctx := context.Background()

	c, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := c.Seed(ctx); err != nil || n == 0 {
		t.Fatalf("Seed = %d, %v", n, err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	c, err = Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, err := c.Get(ctx, "paracetamol_001"); err != nil {
		t.Errorf("label lost across reopen: %v", err)
	}
}
