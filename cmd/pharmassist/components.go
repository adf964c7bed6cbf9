package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/pharmassist/internal/answer"
	"github.com/hyperjump/pharmassist/internal/assistant"
	"github.com/hyperjump/pharmassist/internal/catalog"
	"github.com/hyperjump/pharmassist/internal/config"
	"github.com/hyperjump/pharmassist/internal/embedding"
	"github.com/hyperjump/pharmassist/internal/ingest"
	"github.com/hyperjump/pharmassist/internal/interaction"
	"github.com/hyperjump/pharmassist/internal/llm"
	"github.com/hyperjump/pharmassist/internal/rag"
	"github.com/hyperjump/pharmassist/internal/source"
	"github.com/hyperjump/pharmassist/internal/storage"
	"github.com/hyperjump/pharmassist/internal/vector"
)

// Components holds initialized services.
type Components struct {
	Store      *storage.SQLiteStorage
	LabelStore *storage.SQLiteStorage
	Embedder   embedding.Embedder
	Index      *vector.MemoryIndex
	Catalog    *catalog.Catalog
	Labels     *source.LabelClient
	Ingester   *ingest.Ingester
	Assistant  *assistant.Service
}

// Close releases components in reverse order of creation.
func (c *Components) Close() {
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.LabelStore != nil {
		_ = c.LabelStore.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *Components, err error) {
	c := &Components{}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	c.Store, err = storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	c.Embedder = newEmbedder(cfg, logger)
	c.Index, err = vector.NewMemoryIndex(c.Embedder.Dimensions(),
		vector.WithStore(c.Store),
		vector.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}
	restored, err := c.Index.Restore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore vector index: %w", err)
	}

	c.Catalog, err = catalog.Open(cfg.Storage.CatalogIndexPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if cfg.Sources.SeedCatalogOrDefault() {
		if _, err := c.Catalog.Seed(ctx); err != nil {
			return nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
	}

	sources := []source.Source{}
	if !cfg.Sources.Offline {
		c.LabelStore, err = storage.NewSQLiteStorage(cfg.Storage.LabelCachePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open label cache: %w", err)
		}
		c.Labels = source.NewLabelClient(source.LabelClientOptions{
			BaseURL: cfg.Sources.LabelAPIURL,
			Timeout: cfg.Sources.Timeout,
			Store:   c.LabelStore,
			Logger:  logger,
		})
		sources = append(sources, c.Labels)
	}
	sources = append(sources, c.Catalog)
	chain := source.NewChain(sources...)

	c.Ingester = ingest.New(c.Embedder, c.Index,
		ingest.WithLogger(logger),
		ingest.WithChunker(ingest.NewChunker(cfg.RAG.ChunkWords, cfg.RAG.ChunkOverlap)),
		ingest.WithLabelSink(c.Catalog))

	var completer llm.Completer
	if cfg.OpenAI.APIKey != "" {
		completer = llm.NewClient(llm.NewOpenAI(cfg.OpenAI), llm.OptionsFromConfig(cfg.LLM, cfg.OpenAI), logger)
	}
	generator, err := answer.NewGenerator(completer, cfg.Languages, logger)
	if err != nil {
		return nil, err
	}

	assembler := rag.NewAssembler(c.Embedder, c.Index, chain, c.Ingester, rag.Options{
		RelevanceThreshold: rag.Threshold(cfg.RAG.Threshold()),
		MaxSnippets:        cfg.RAG.MaxSnippets,
		MaxSnippetChars:    cfg.RAG.MaxSnippetChars,
		FallbackLimit:      cfg.RAG.FallbackLimit,
	}, logger)

	opts := []assistant.Option{
		assistant.WithLogger(logger),
		assistant.WithCatalog(c.Catalog),
		assistant.WithDataPaths(map[string]string{
			"database":    cfg.Storage.DatabasePath,
			"label_cache": cfg.Storage.CacheDir,
			"catalog":     cfg.Storage.CatalogIndexPath,
		}),
	}
	if c.Labels != nil {
		opts = append(opts, assistant.WithLabelCache(c.Labels))
	}
	c.Assistant = assistant.New(
		assembler,
		generator,
		interaction.NewChecker(cfg.Languages, logger),
		chain,
		c.Ingester,
		c.Index,
		assistant.Limits{
			MaxSnippets:        cfg.RAG.MaxSnippets,
			SearchDefaultLimit: cfg.Sources.DefaultLimit,
			SearchMaxLimit:     cfg.Sources.MaxLimit,
		},
		opts...,
	)

	logger.Info("components initialized",
		zap.String("embedding_provider", providerName(c.Embedder)),
		zap.Int("dimensions", c.Embedder.Dimensions()),
		zap.Int("restored_documents", restored),
		zap.Int("sources", chain.Len()),
		zap.Bool("llm_configured", completer != nil))
	return c, nil
}

// newEmbedder builds the configured embedding provider. Providers that cannot start
// (no API key, no ONNX runtime) fall back to mock embeddings with the same dimensions.
func newEmbedder(cfg *config.Config, logger *zap.Logger) embedding.Embedder {
	ec := cfg.Embedding
	switch ec.Provider {
	case config.ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			logger.Warn("no OpenAI API key, using mock embeddings")
			return embedding.NewMockEmbedder(ec.Dimensions)
		}
		return embedding.NewOpenAIEmbedder(llm.NewOpenAI(cfg.OpenAI), embedding.OpenAIOptions{
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			BatchSize:  ec.BatchSize,
			BatchDelay: ec.BatchDelay,
			MaxRetries: cfg.OpenAI.MaxRetries,
			RetryDelay: cfg.OpenAI.RetryDelay,
			Timeout:    ec.Timeout,
			CacheSize:  ec.CacheSize,
		}, logger)
	case config.ProviderONNX:
		e, err := embedding.NewONNXEmbedder(ec.ModelPath, ec.Dimensions, ec.MaxTokens, ec.CacheSize)
		if err != nil {
			logger.Warn("ONNX embedder unavailable, using mock embeddings",
				zap.String("model_path", ec.ModelPath), zap.Error(err))
			return embedding.NewMockEmbedder(ec.Dimensions)
		}
		return e
	default:
		return embedding.NewMockEmbedder(ec.Dimensions)
	}
}

func providerName(e embedding.Embedder) string {
	switch e.(type) {
	case *embedding.OpenAIEmbedder:
		return config.ProviderOpenAI
	case *embedding.ONNXEmbedder:
		return config.ProviderONNX
	default:
		return config.ProviderMock
	}
}
