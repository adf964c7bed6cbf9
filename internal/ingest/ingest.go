// Package ingest embeds documents into the vector index and keeps the label catalog
// in step with the label drop directory.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/pharmassist/internal/embedding"
	"github.com/hyperjump/pharmassist/internal/errs"
	"github.com/hyperjump/pharmassist/internal/extract"
	"github.com/hyperjump/pharmassist/internal/models"
	"github.com/hyperjump/pharmassist/internal/vector"
	"github.com/hyperjump/pharmassist/internal/watcher"
	"github.com/hyperjump/pharmassist/pkg/utils"
)

// LabelSink receives labels read from files. The catalog implements it.
type LabelSink interface {
	Add(ctx context.Context, labels ...*models.DrugLabel) error
	Delete(ctx context.Context, id string) error
}

// Result summarizes one ingestion call.
type Result struct {
	Indexed int      `json:"indexed"`
	Skipped []string `json:"skipped,omitempty"`
}

// Ingester embeds documents and upserts them into the index.
type Ingester struct {
	embedder  embedding.Embedder
	index     vector.Index
	chunker   *Chunker
	labels    LabelSink
	extractor *extract.Extractor
	logger    *zap.Logger

	mu    sync.Mutex
	files map[string][]string // path -> label ids read from it
}

var _ watcher.Handler = (*Ingester)(nil)

// Option configures an Ingester.
type Option func(*Ingester)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingester) { in.logger = l }
}

// WithChunker splits long documents before embedding.
func WithChunker(c *Chunker) Option {
	return func(in *Ingester) { in.chunker = c }
}

// WithLabelSink stores labels read from files, typically in the catalog.
func WithLabelSink(s LabelSink) Option {
	return func(in *Ingester) { in.labels = s }
}

// New creates an Ingester.
func New(embedder embedding.Embedder, index vector.Index, opts ...Option) *Ingester {
	in := &Ingester{
		embedder:  embedder,
		index:     index,
		chunker:   NewChunker(0, 0),
		extractor: extract.NewExtractor(),
		files:     make(map[string][]string),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.logger = utils.OrNop(in.logger).Named("ingest")
	return in
}

// Documents embeds docs with EmbedBatch and upserts every part that got an embedding.
// Parts that could not be embedded are reported in Result.Skipped, not as an error;
// an error means the index rejected a write.
func (in *Ingester) Documents(ctx context.Context, docs []models.Document) (Result, error) {
	var parts []models.Document
	for _, d := range docs {
		if strings.TrimSpace(d.Text) == "" {
			continue
		}
		parts = append(parts, in.chunker.Split(d)...)
	}
	res := Result{}
	if len(parts) == 0 {
		return res, nil
	}

	texts := make([]string, len(parts))
	for i, p := range parts {
		texts[i] = p.Text
	}
	embeddings := in.embedder.EmbedBatch(ctx, texts)

	for i, p := range parts {
		if embeddings[i] == nil {
			res.Skipped = append(res.Skipped, p.ID)
			continue
		}
		if err := in.index.Upsert(ctx, models.IndexEntry{Document: p, Embedding: embeddings[i]}); err != nil {
			return res, fmt.Errorf("failed to index %s: %w", p.ID, err)
		}
		res.Indexed++
	}
	if len(res.Skipped) > 0 {
		in.logger.Warn("documents skipped without embeddings", zap.Strings("ids", res.Skipped))
	}
	in.logger.Debug("documents ingested", zap.Int("indexed", res.Indexed), zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

// AddDocument ingests one client-supplied document, generating an id when none is given.
// Unlike Documents, an embedding failure is returned to the caller, and nothing is
// indexed unless every part was embedded.
func (in *Ingester) AddDocument(ctx context.Context, input models.DocumentInput) (*models.Document, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, errs.Validation("document text is required")
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}
	doc := models.Document{ID: id, Text: text, Metadata: input.Metadata}

	parts := in.chunker.Split(doc)
	texts := make([]string, len(parts))
	for i, p := range parts {
		texts[i] = p.Text
	}
	embeddings := in.embedder.EmbedBatch(ctx, texts)
	for i, p := range parts {
		if embeddings[i] == nil {
			return nil, errs.Provider(fmt.Sprintf("failed to embed document part %s", p.ID), ctx.Err())
		}
	}
	for i, p := range parts {
		if err := in.index.Upsert(ctx, models.IndexEntry{Document: p, Embedding: embeddings[i]}); err != nil {
			return nil, fmt.Errorf("failed to index document: %w", err)
		}
	}
	return &doc, nil
}

// Labels stores labels in the label sink (if any) and ingests their documents.
func (in *Ingester) Labels(ctx context.Context, labels []*models.DrugLabel) (Result, error) {
	return in.labelsFrom(ctx, labels, "")
}

func (in *Ingester) labelsFrom(ctx context.Context, labels []*models.DrugLabel, path string) (Result, error) {
	if in.labels != nil && len(labels) > 0 {
		if err := in.labels.Add(ctx, labels...); err != nil {
			return Result{}, fmt.Errorf("failed to store labels: %w", err)
		}
	}
	docs := make([]models.Document, 0, len(labels))
	for _, l := range labels {
		doc := l.ToDocument()
		if path != "" {
			doc.Metadata[models.MetaPath] = path
		}
		docs = append(docs, doc)
	}
	return in.Documents(ctx, docs)
}

// File reads the labels in path and ingests them. Labels previously read from the same
// path but no longer present are dropped from the label sink.
func (in *Ingester) File(ctx context.Context, path string) (Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{}, fmt.Errorf("absolute path: %w", err)
	}
	labels, err := in.extractor.Labels(abs)
	if err != nil {
		return Result{}, err
	}
	ids := make([]string, len(labels))
	for i, l := range labels {
		ids[i] = l.ID
	}
	in.mu.Lock()
	stale := difference(in.files[abs], ids)
	in.files[abs] = ids
	in.mu.Unlock()
	in.dropLabels(ctx, stale)

	res, err := in.labelsFrom(ctx, labels, abs)
	if err != nil {
		return res, err
	}
	in.logger.Info("label file ingested",
		zap.String("path", abs),
		zap.Int("labels", len(labels)),
		zap.Int("indexed", res.Indexed))
	return res, nil
}

// Directory ingests every regular file under dir whose extension is in exts
// (all files when exts is empty). It returns the number of files ingested and the first error.
func (in *Ingester) Directory(ctx context.Context, dir string, exts []string) (int, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", dir)
	}
	n := 0
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !d.Type().IsRegular() || !watcher.MatchExtension(path, exts) {
			return nil
		}
		if _, err := in.File(ctx, path); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// FileChanged implements watcher.Handler.
func (in *Ingester) FileChanged(ctx context.Context, path string) {
	if _, err := in.File(ctx, path); err != nil {
		in.logger.Warn("failed to ingest label file", zap.String("path", path), zap.Error(err))
	}
}

// FileRemoved implements watcher.Handler. The file's labels leave the catalog; indexed
// documents stay until the index is cleared.
func (in *Ingester) FileRemoved(ctx context.Context, path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	in.mu.Lock()
	ids := in.files[abs]
	delete(in.files, abs)
	in.mu.Unlock()
	in.dropLabels(ctx, ids)
	if len(ids) > 0 {
		in.logger.Info("label file removed", zap.String("path", abs), zap.Int("labels", len(ids)))
	}
}

func (in *Ingester) dropLabels(ctx context.Context, ids []string) {
	if in.labels == nil {
		return
	}
	for _, id := range ids {
		if err := in.labels.Delete(ctx, id); err != nil {
			in.logger.Warn("failed to drop label", zap.String("id", id), zap.Error(err))
		}
	}
}

// difference returns the entries of a that are not in b.
func difference(a, b []string) []string {
	if len(a) == 0 {
		return nil
	}
	keep := make(map[string]struct{}, len(b))
	for _, s := range b {
		keep[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := keep[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
