package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hyperjump/pharmassist/internal/errs"
	"github.com/hyperjump/pharmassist/internal/models"
	"github.com/hyperjump/pharmassist/internal/storage"
	"github.com/hyperjump/pharmassist/pkg/utils"
	"go.uber.org/zap"
)

const (
	defaultLabelTimeout = 10 * time.Second
	maxResponseBytes    = 8 << 20
)

// LabelClientOptions configures a LabelClient.
type LabelClientOptions struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	// Store persists fetched labels; nil keeps the cache in memory only.
	Store  storage.LabelStore
	Logger *zap.Logger
}

// LabelClient queries an openFDA-compatible drug label API. Fetched labels are cached
// by id in memory and in Store; cached labels never expire.
type LabelClient struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	store   storage.LabelStore
	logger  *zap.Logger

	mu    sync.RWMutex
	cache map[string]*models.DrugLabel
}

var _ Source = (*LabelClient)(nil)

// NewLabelClient creates a client for the label API at opts.BaseURL.
func NewLabelClient(opts LabelClientOptions) *LabelClient {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultLabelTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &LabelClient{
		baseURL: opts.BaseURL,
		timeout: opts.Timeout,
		http:    opts.HTTPClient,
		store:   opts.Store,
		logger:  utils.OrNop(opts.Logger).Named("labels"),
		cache:   make(map[string]*models.DrugLabel),
	}
}

// Search returns label documents whose brand or generic name matches query.
// Failures are logged and yield an empty slice.
func (c *LabelClient) Search(ctx context.Context, query string, limit int) []models.Document {
	labels, err := c.SearchLabels(ctx, query, limit)
	if err != nil {
		c.logger.Warn("label search failed", zap.String("query", query), zap.Error(err))
		return []models.Document{}
	}
	docs := make([]models.Document, 0, len(labels))
	for _, l := range labels {
		docs = append(docs, l.ToDocument())
	}
	return docs
}

// SearchLabels queries the API by brand and generic name. A query with no match
// returns an empty slice and no error.
func (c *LabelClient) SearchLabels(ctx context.Context, query string, limit int) ([]*models.DrugLabel, error) {
	term := strings.TrimSpace(strings.ReplaceAll(query, `"`, ""))
	if term == "" {
		return []*models.DrugLabel{}, nil
	}
	if limit <= 0 {
		limit = 1
	}
	search := fmt.Sprintf(`openfda.brand_name:"%s" openfda.generic_name:"%s"`, term, term)
	labels, err := c.get(ctx, search, limit)
	if err != nil {
		return nil, err
	}
	for _, l := range labels {
		c.remember(ctx, l)
	}
	return labels, nil
}

// FetchByID returns the label document with the given id. Cached labels skip the network.
func (c *LabelClient) FetchByID(ctx context.Context, id string) (*models.Document, bool) {
	label, err := c.FetchLabel(ctx, id)
	if err != nil {
		if !errs.IsKind(err, errs.KindNotFound) {
			c.logger.Warn("label fetch failed", zap.String("id", id), zap.Error(err))
		}
		return nil, false
	}
	doc := label.ToDocument()
	return &doc, true
}

// FetchLabel returns the label with the given id from memory, the store, or the API, in that order.
func (c *LabelClient) FetchLabel(ctx context.Context, id string) (*models.DrugLabel, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errs.Validation("label id is required")
	}

	c.mu.RLock()
	label, ok := c.cache[id]
	c.mu.RUnlock()
	if ok {
		return label, nil
	}

	if c.store != nil {
		label, err := c.store.GetLabel(ctx, id)
		if err == nil {
			c.mu.Lock()
			c.cache[id] = label
			c.mu.Unlock()
			return label, nil
		}
		if !errs.IsKind(err, errs.KindNotFound) {
			c.logger.Warn("label cache read failed", zap.String("id", id), zap.Error(err))
		}
	}

	labels, err := c.get(ctx, fmt.Sprintf(`id:"%s"`, strings.ReplaceAll(id, `"`, "")), 1)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, errs.NotFound(fmt.Sprintf("label %s not found", id))
	}
	c.remember(ctx, labels[0])
	return labels[0], nil
}

// Invalidate evicts id from the memory and persistent caches.
func (c *LabelClient) Invalidate(ctx context.Context, id string) error {
	c.mu.Lock()
	delete(c.cache, id)
	c.mu.Unlock()
	if c.store != nil {
		return c.store.DeleteLabel(ctx, id)
	}
	return nil
}

// CacheSize returns the number of labels held in memory.
func (c *LabelClient) CacheSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func (c *LabelClient) remember(ctx context.Context, label *models.DrugLabel) {
	c.mu.Lock()
	c.cache[label.ID] = label
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.PutLabel(ctx, label); err != nil {
			c.logger.Warn("label cache write failed", zap.String("id", label.ID), zap.Error(err))
		}
	}
}

// get runs one search request. A 404 is the API's way of saying "no match".
func (c *LabelClient) get(ctx context.Context, search string, limit int) ([]*models.DrugLabel, error) {
	if c.baseURL == "" {
		return nil, errs.Transport("label API not configured", nil)
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errs.Transport("invalid label API URL", err)
	}
	q := u.Query()
	q.Set("search", search)
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errs.Transport("failed to build label request", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errs.Transport("label API timed out", err)
		}
		return nil, errs.Transport("label API request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errs.Transport("failed to read label response", err)
	}
	c.logger.Debug("label API request",
		zap.String("search", search),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode == http.StatusNotFound {
		return []*models.DrugLabel{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.Transport("label API error", fmt.Errorf("status %d: %s", resp.StatusCode, utils.Truncate(string(body), 200)))
	}

	labels, err := ParseLabels(body)
	if err != nil {
		return nil, errs.Transport("malformed label response", err)
	}
	return labels, nil
}
