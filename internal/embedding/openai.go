package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/pharmassist/internal/errs"
	"github.com/hyperjump/pharmassist/pkg/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// OpenAIOptions tunes an OpenAIEmbedder. Zero values fall back to the defaults below.
type OpenAIOptions struct {
	Model      string
	Dimensions int
	BatchSize  int
	BatchDelay time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	CacheSize  int
}

const (
	defaultOpenAIModel = "text-embedding-ada-002"
	defaultBatchSize   = 16
	defaultTimeout     = 30 * time.Second
)

// OpenAIEmbedder calls the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	opts   OpenAIOptions
	cache  *EmbeddingCache
	logger *zap.Logger
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder wraps client. Dimensions must match what the model returns.
func NewOpenAIEmbedder(client *openai.Client, opts OpenAIOptions, logger *zap.Logger) *OpenAIEmbedder {
	if opts.Model == "" {
		opts.Model = defaultOpenAIModel
	}
	if opts.Dimensions <= 0 {
		opts.Dimensions = 1536
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &OpenAIEmbedder{
		client: client,
		opts:   opts,
		cache:  NewEmbeddingCache(opts.CacheSize),
		logger: utils.OrNop(logger).Named("embedding"),
	}
}

// Embed returns the embedding for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if isBlank(text) {
		return nil, nil
	}
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}
	vecs, err := e.request(ctx, []string{text}, e.opts.MaxRetries)
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, vecs[0])
	return vecs[0], nil
}

// EmbedBatch embeds texts in sub-batches of BatchSize, pacing requests at most one per
// BatchDelay. When a sub-batch fails, its items are retried one at a time so a single
// bad input only costs its own slot.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	pending := make([]int, 0, len(texts))
	for i, text := range texts {
		if isBlank(text) {
			continue
		}
		if cached, ok := e.cache.Get(text); ok {
			out[i] = cached
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return out
	}

	// One pacer per call: concurrent batches do not wait on each other.
	pacer := rate.NewLimiter(rate.Every(e.opts.BatchDelay), 1)

	for start := 0; start < len(pending); start += e.opts.BatchSize {
		end := min(start+e.opts.BatchSize, len(pending))
		idx := pending[start:end]

		if err := pacer.Wait(ctx); err != nil {
			break
		}
		inputs := make([]string, len(idx))
		for j, i := range idx {
			inputs[j] = texts[i]
		}

		vecs, err := e.request(ctx, inputs, e.opts.MaxRetries)
		if err == nil {
			for j, i := range idx {
				out[i] = vecs[j]
				e.cache.Set(texts[i], vecs[j])
			}
			continue
		}

		e.logger.Warn("embedding batch failed, retrying items individually",
			zap.Int("batch_size", len(idx)), zap.Error(err))
		for _, i := range idx {
			if err := pacer.Wait(ctx); err != nil {
				break
			}
			vecs, err := e.request(ctx, []string{texts[i]}, 0)
			if err != nil {
				e.logger.Debug("embedding item failed", zap.Int("index", i), zap.Error(err))
				continue
			}
			out[i] = vecs[0]
			e.cache.Set(texts[i], vecs[0])
		}
	}
	return out
}

// request sends inputs, retrying retryable failures up to retries times.
func (e *OpenAIEmbedder) request(ctx context.Context, inputs []string, retries int) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := utils.CalculateBackoff(e.opts.RetryDelay, attempt)
			select {
			case <-ctx.Done():
				return nil, errs.Transport("embedding request cancelled", ctx.Err())
			case <-time.After(delay):
			}
		}
		vecs, err := e.create(ctx, inputs)
		if err == nil {
			return vecs, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (e *OpenAIEmbedder) create(ctx context.Context, inputs []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	req := openai.EmbeddingRequestStrings{
		Input: inputs,
		Model: openai.EmbeddingModel(e.opts.Model),
	}
	// Only the text-embedding-3 family accepts a dimensions parameter.
	if strings.HasPrefix(e.opts.Model, "text-embedding-3") {
		req.Dimensions = e.opts.Dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, classify(err)
	}

	vecs := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, errs.Provider("embedding index out of range", fmt.Errorf("index %d", d.Index))
		}
		vecs[d.Index] = d.Embedding
	}
	for i, v := range vecs {
		if len(v) != e.opts.Dimensions {
			return nil, errs.Provider("unexpected embedding size",
				fmt.Errorf("item %d: got %d dimensions, want %d", i, len(v), e.opts.Dimensions))
		}
	}
	return vecs, nil
}

// classify maps go-openai errors onto the error taxonomy. Errors reported by the API
// itself are provider errors; anything that never got a structured reply is transport.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return errs.Provider(apiErr.Message, err)
	}
	return errs.Transport("embedding request failed", err)
}

func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
	}
	return errs.IsKind(err, errs.KindTransport) && !errors.Is(err, context.Canceled)
}

// Dimensions returns the embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.opts.Dimensions
}

// Close is a no-op; the HTTP client is shared.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
