// Package assistant is the entry point for every user-facing operation: it ties context
// assembly, answer generation, drug search, interaction checks and index maintenance together.
package assistant

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/pharmassist/internal/answer"
	"github.com/hyperjump/pharmassist/internal/errs"
	"github.com/hyperjump/pharmassist/internal/ingest"
	"github.com/hyperjump/pharmassist/internal/interaction"
	"github.com/hyperjump/pharmassist/internal/models"
	"github.com/hyperjump/pharmassist/internal/rag"
	"github.com/hyperjump/pharmassist/internal/source"
	"github.com/hyperjump/pharmassist/internal/storage"
	"github.com/hyperjump/pharmassist/internal/vector"
	"github.com/hyperjump/pharmassist/pkg/utils"
)

// Limits bounds request sizes.
type Limits struct {
	MaxSnippets        int
	SearchDefaultLimit int
	SearchMaxLimit     int
}

// CatalogCounter reports the number of labels in the local catalog.
type CatalogCounter interface {
	Count() (uint64, error)
}

// LabelCache reports the number of labels held by the label API client.
type LabelCache interface {
	CacheSize() int
}

// Option configures optional status reporting.
type Option func(*Service)

// WithCatalog reports the catalog size in Status.
func WithCatalog(c CatalogCounter) Option {
	return func(s *Service) { s.catalog = c }
}

// WithLabelCache reports the label cache size in Status.
func WithLabelCache(c LabelCache) Option {
	return func(s *Service) { s.labelCache = c }
}

// WithDataPaths reports disk usage of the named paths in Status.
func WithDataPaths(paths map[string]string) Option {
	return func(s *Service) { s.dataPaths = paths }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service runs the assistant operations.
type Service struct {
	assembler    *rag.Assembler
	generator    *answer.Generator
	interactions *interaction.Checker
	sources      source.Source
	ingester     *ingest.Ingester
	index        vector.Index
	limits       Limits

	catalog    CatalogCounter
	labelCache LabelCache
	dataPaths  map[string]string
	logger     *zap.Logger
}

// New creates a Service. sources may be nil, in which case drug search returns nothing.
func New(
	assembler *rag.Assembler,
	generator *answer.Generator,
	interactions *interaction.Checker,
	sources source.Source,
	ingester *ingest.Ingester,
	index vector.Index,
	limits Limits,
	opts ...Option,
) *Service {
	if limits.SearchDefaultLimit <= 0 {
		limits.SearchDefaultLimit = 10
	}
	if limits.SearchMaxLimit < limits.SearchDefaultLimit {
		limits.SearchMaxLimit = limits.SearchDefaultLimit
	}
	s := &Service{
		assembler:    assembler,
		generator:    generator,
		interactions: interactions,
		sources:      sources,
		ingester:     ingester,
		index:        index,
		limits:       limits,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = utils.OrNop(s.logger).Named("assistant")
	return s
}

// Ask answers a drug question. Only invalid input is an error; upstream failures are
// reported in the answer text.
func (s *Service) Ask(ctx context.Context, req models.AskRequest) (*models.DrugAnswer, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	query := req.Query()
	c, err := s.assembler.GetContext(ctx, query, s.limits.MaxSnippets)
	if err != nil {
		return nil, err
	}
	a := s.generator.Answer(ctx, query, c, req.Language)
	s.logger.Info("question answered",
		zap.String("query", query),
		zap.String("type", string(a.QueryType)),
		zap.Bool("context_used", a.ContextUsed),
		zap.Bool("fallback", c.FallbackUsed),
		zap.Duration("took", time.Since(start)))
	return a, nil
}

// SearchDrugs looks the query up in the document sources without touching the index.
func (s *Service) SearchDrugs(ctx context.Context, q models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	if err := q.Validate(s.limits.SearchDefaultLimit, s.limits.SearchMaxLimit); err != nil {
		return nil, err
	}
	docs := []models.Document{}
	if s.sources != nil {
		docs = s.sources.Search(ctx, q.Query, q.Limit)
	}
	return &models.SearchResponse{
		Query:     q.Query,
		Documents: docs,
		Total:     len(docs),
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// CheckInteractions validates and answers an interaction request.
func (s *Service) CheckInteractions(ctx context.Context, req models.InteractionRequest) (*models.InteractionReport, error) {
	return s.interactions.Check(ctx, req)
}

// AddDocument embeds and indexes a client-supplied document.
func (s *Service) AddDocument(ctx context.Context, input models.DocumentInput) (*models.Document, error) {
	doc, err := s.ingester.AddDocument(ctx, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("document added", zap.String("id", doc.ID))
	return doc, nil
}

// GetDocument returns an indexed document.
func (s *Service) GetDocument(_ context.Context, id string) (*models.Document, error) {
	doc, ok := s.index.Get(id)
	if !ok {
		return nil, errs.NotFound("document not found")
	}
	return &doc, nil
}

// ClearIndex evicts every document from the index.
func (s *Service) ClearIndex(ctx context.Context) (int, error) {
	n := s.index.Count()
	if err := s.index.Clear(ctx); err != nil {
		return 0, errs.New(errs.KindInternal, "failed to clear index", err)
	}
	s.logger.Info("index cleared", zap.Int("documents", n))
	return n, nil
}

// Health is the liveness report.
type Health struct {
	Status        string `json:"status"`
	LLMConfigured bool   `json:"llm_configured"`
}

// Health reports whether the service is up and whether answers can be generated.
func (s *Service) Health() Health {
	h := Health{Status: "ok", LLMConfigured: s.generator.Configured()}
	if !h.LLMConfigured {
		h.Status = "degraded"
	}
	return h
}

// Status is the operational report.
type Status struct {
	Health
	IndexedDocuments    int                `json:"indexed_documents"`
	EmbeddingDimensions int                `json:"embedding_dimensions"`
	CatalogLabels       uint64             `json:"catalog_labels"`
	CachedLabels        int                `json:"cached_labels"`
	DiskUsage           *storage.DiskUsage `json:"disk_usage,omitempty"`
}

// Status gathers index, catalog and disk statistics.
func (s *Service) Status(_ context.Context) (*Status, error) {
	st := &Status{
		Health:              s.Health(),
		IndexedDocuments:    s.index.Count(),
		EmbeddingDimensions: s.index.Dimensions(),
	}
	if s.catalog != nil {
		n, err := s.catalog.Count()
		if err != nil {
			return nil, errs.New(errs.KindInternal, "failed to count catalog labels", err)
		}
		st.CatalogLabels = n
	}
	if s.labelCache != nil {
		st.CachedLabels = s.labelCache.CacheSize()
	}
	if len(s.dataPaths) > 0 {
		usage, err := storage.MeasureDiskUsage(s.dataPaths)
		if err != nil {
			s.logger.Warn("disk usage unavailable", zap.Error(err))
		} else {
			st.DiskUsage = usage
		}
	}
	return st, nil
}
