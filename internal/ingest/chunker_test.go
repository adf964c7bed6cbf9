package ingest

import (
	"strings"
	"testing"

	"github.com/hyperjump/pharmassist/internal/models"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "w"
	}
	return strings.Join(w, " ")
}

func TestChunker_Split(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		overlap   int
		words     int
		wantParts int
	}{
		{"fits", 10, 2, 10, 1},
		{"disabled", 0, 0, 1000, 1},
		{"two parts", 10, 2, 15, 2},
		{"exact steps", 10, 2, 26, 3},
		{"one past", 10, 2, 27, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := models.Document{ID: "label-1", Text: words(tt.words), Metadata: map[string]string{"source": "test"}}
			parts := NewChunker(tt.size, tt.overlap).Split(doc)
			if len(parts) != tt.wantParts {
				t.Fatalf("got %d parts, want %d", len(parts), tt.wantParts)
			}
			if parts[0].ID != "label-1" {
				t.Errorf("first part ID = %q", parts[0].ID)
			}
		})
	}
}

func TestChunker_SplitMetadata(t *testing.T) {
	doc := models.Document{ID: "d", Text: "a b c d e f g", Metadata: map[string]string{"source": "test"}}
	parts := NewChunker(4, 1).Split(doc)
	if len(parts) != 2 {
		t.Fatalf("got %d parts", len(parts))
	}
	if parts[0].Text != "a b c d" || parts[1].Text != "d e f g" {
		t.Errorf("unexpected windows: %q / %q", parts[0].Text, parts[1].Text)
	}
	if parts[1].ID != "d#2" {
		t.Errorf("second ID = %q", parts[1].ID)
	}
	for i, p := range parts {
		if p.Metadata[models.MetaParentID] != "d" || p.Metadata["source"] != "test" {
			t.Errorf("part %d metadata = %v", i, p.Metadata)
		}
	}
	if parts[1].Metadata[models.MetaPart] != "2/2" {
		t.Errorf("part label = %q", parts[1].Metadata[models.MetaPart])
	}
	if _, ok := doc.Metadata[models.MetaParentID]; ok {
		t.Error("input metadata was modified")
	}
}
