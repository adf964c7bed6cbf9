// Package rag assembles retrieval context for a query: embed, search the index, filter
// by relevance, and fall back once to the document sources when nothing relevant is indexed.
package rag

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/pharmassist/internal/embedding"
	"github.com/hyperjump/pharmassist/internal/errs"
	"github.com/hyperjump/pharmassist/internal/ingest"
	"github.com/hyperjump/pharmassist/internal/models"
	"github.com/hyperjump/pharmassist/internal/source"
	"github.com/hyperjump/pharmassist/internal/vector"
	"github.com/hyperjump/pharmassist/pkg/utils"
)

// MinQueryLength is the shortest query, in characters after trimming, that is embedded.
const MinQueryLength = 2

// SnippetSeparator joins snippets in Context.Text.
const SnippetSeparator = "\n\n---\n\n"

// DefaultRelevanceThreshold is used when Options.RelevanceThreshold is nil.
const DefaultRelevanceThreshold = 0.3

// Options tunes context assembly. Zero values take the defaults in NewAssembler.
type Options struct {
	// RelevanceThreshold applies to (similarity+1)/2; results must exceed it.
	// Nil means DefaultRelevanceThreshold; 0 keeps every result with positive relevance.
	RelevanceThreshold *float64
	MaxSnippets        int
	MaxSnippetChars    int
	FallbackLimit      int
}

// Assembler builds a Context for a query.
type Assembler struct {
	embedder embedding.Embedder
	index    vector.Index
	source   source.Source
	ingester *ingest.Ingester
	opts      Options
	threshold float64
	logger    *zap.Logger

	fallbacks singleflight.Group
}

// NewAssembler wires the pipeline. src may be nil, which disables the fallback round.
func NewAssembler(embedder embedding.Embedder, index vector.Index, src source.Source, ingester *ingest.Ingester, opts Options, logger *zap.Logger) *Assembler {
	threshold := DefaultRelevanceThreshold
	if opts.RelevanceThreshold != nil {
		threshold = *opts.RelevanceThreshold
	}
	if opts.MaxSnippets <= 0 {
		opts.MaxSnippets = 3
	}
	if opts.MaxSnippetChars <= 0 {
		opts.MaxSnippetChars = 500
	}
	if opts.FallbackLimit <= 0 {
		opts.FallbackLimit = 2
	}
	if ingester == nil {
		ingester = ingest.New(embedder, index, ingest.WithLogger(logger))
	}
	return &Assembler{
		embedder:  embedder,
		index:     index,
		source:    src,
		ingester:  ingester,
		opts:      opts,
		threshold: threshold,
		logger:    utils.OrNop(logger).Named("rag"),
	}
}

// GetContext returns the context for query with at most maxSnippets snippets
// (the configured default when maxSnippets <= 0). The only error is a validation
// error for queries shorter than MinQueryLength; retrieval failures degrade to the
// "no information" sentinel.
func (a *Assembler) GetContext(ctx context.Context, query string, maxSnippets int) (*models.Context, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinQueryLength {
		return nil, errs.Validation(fmt.Sprintf("query must be at least %d characters", MinQueryLength))
	}
	if maxSnippets <= 0 {
		maxSnippets = a.opts.MaxSnippets
	}

	results := a.retrieve(ctx, q, maxSnippets)
	fallback := false
	if len(results) == 0 && a.source != nil {
		fallback = true
		a.fallback(ctx, q)
		results = a.retrieve(ctx, q, maxSnippets)
	}
	return a.build(q, results, maxSnippets, fallback), nil
}

// retrieve embeds q and returns the index hits that pass the relevance threshold.
// Failures are logged and yield no results.
func (a *Assembler) retrieve(ctx context.Context, q string, k int) []models.SearchResult {
	emb, err := a.embedder.Embed(ctx, q)
	if err != nil || emb == nil {
		a.logger.Warn("query embedding failed", zap.String("query", q), zap.Error(err))
		return nil
	}
	hits, err := a.index.Query(ctx, emb, k)
	if err != nil {
		a.logger.Warn("index query failed", zap.String("query", q), zap.Error(err))
		return nil
	}
	relevant := hits[:0:0]
	for _, h := range hits {
		if h.Relevance() > a.threshold {
			relevant = append(relevant, h)
		}
	}
	a.logger.Debug("retrieved",
		zap.String("query", q),
		zap.Int("hits", len(hits)),
		zap.Int("relevant", len(relevant)))
	return relevant
}

// fallback searches the sources and ingests what they return. Concurrent fallbacks for
// the same normalized query share one round; the shared round is not cancelled when one
// caller goes away, and each external call inside it carries its own timeout.
func (a *Assembler) fallback(ctx context.Context, q string) {
	key := utils.NormalizeQuery(q)
	_, _, _ = a.fallbacks.Do(key, func() (interface{}, error) {
		fctx := context.WithoutCancel(ctx)
		docs := a.source.Search(fctx, q, a.opts.FallbackLimit)
		if len(docs) == 0 {
			a.logger.Info("fallback found nothing", zap.String("query", q))
			return nil, nil
		}
		res, err := a.ingester.Documents(fctx, docs)
		if err != nil {
			a.logger.Warn("fallback ingestion failed", zap.String("query", q), zap.Error(err))
			return nil, nil
		}
		a.logger.Info("fallback ingested documents",
			zap.String("query", q),
			zap.Int("found", len(docs)),
			zap.Int("indexed", res.Indexed))
		return nil, nil
	})
}

func (a *Assembler) build(q string, results []models.SearchResult, maxSnippets int, fallback bool) *models.Context {
	if len(results) > maxSnippets {
		results = results[:maxSnippets]
	}
	if len(results) == 0 {
		return &models.Context{
			Text:         NoInformation(q),
			Sources:      []models.SearchResult{},
			FallbackUsed: fallback,
		}
	}
	snippets := make([]string, len(results))
	for i, r := range results {
		snippets[i] = fmt.Sprintf("[Source %d]\n%s...", i+1, utils.Prefix(r.Document.Text, a.opts.MaxSnippetChars))
	}
	return &models.Context{
		Text:         strings.Join(snippets, SnippetSeparator),
		Snippets:     snippets,
		Sources:      results,
		Used:         true,
		FallbackUsed: fallback,
	}
}

// Threshold returns a pointer to v for Options.RelevanceThreshold.
func Threshold(v float64) *float64 {
	return &v
}

// NoInformation is the context text used when nothing relevant was found.
func NoInformation(query string) string {
	return "No information found for: " + strings.TrimSpace(query)
}
