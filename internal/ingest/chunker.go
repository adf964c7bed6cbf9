package ingest

import (
	"fmt"
	"strings"

	"github.com/hyperjump/pharmassist/internal/models"
)

// Chunker splits long documents into overlapping word windows.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker with the given window size and overlap, in words.
// A size of zero or less disables splitting.
func NewChunker(size, overlap int) *Chunker {
	return &Chunker{size: size, overlap: overlap}
}

// Split returns doc unchanged when it fits in one window. Otherwise the first part keeps
// doc.ID and later parts get "<id>#<n>"; every part records its parent id and position.
func (c *Chunker) Split(doc models.Document) []models.Document {
	words := strings.Fields(doc.Text)
	if c.size <= 0 || len(words) <= c.size {
		return []models.Document{doc}
	}
	step := c.size - c.overlap
	if step <= 0 {
		step = 1
	}

	total := 1 + (len(words)-c.size+step-1)/step
	parts := make([]models.Document, 0, total)
	for start := 0; ; start += step {
		end := min(start+c.size, len(words))
		n := len(parts) + 1

		meta := make(map[string]string, len(doc.Metadata)+2)
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		meta[models.MetaParentID] = doc.ID
		meta[models.MetaPart] = fmt.Sprintf("%d/%d", n, total)

		id := doc.ID
		if n > 1 {
			id = fmt.Sprintf("%s#%d", doc.ID, n)
		}
		parts = append(parts, models.Document{
			ID:       id,
			Text:     strings.Join(words[start:end], " "),
			Metadata: meta,
		})
		if end >= len(words) {
			break
		}
	}
	return parts
}
