// Package catalog is the local drug label catalog: a Bleve index over labels that
// serves as the offline secondary source behind the remote label API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/hyperjump/pharmassist/internal/errs"
	"github.com/hyperjump/pharmassist/internal/models"
	"github.com/hyperjump/pharmassist/internal/source"
	"github.com/hyperjump/pharmassist/pkg/utils"
)

// SourceCatalog tags labels that were added to the local catalog without a source of their own.
const SourceCatalog = "catalog"

// Field boosts. Name hits should outrank a passing mention in another label's text.
const (
	nameBoost    = 3.0
	genericBoost = 2.0
	fuzziness    = 1
)

// labelDoc is what gets indexed. Data holds the label JSON and is stored but not indexed.
type labelDoc struct {
	Name        string `json:"name"`
	Generic     string `json:"generic"`
	Ingredients string `json:"ingredients"`
	Content     string `json:"content"`
	Data        string `json:"data"`
}

// Catalog is a Bleve-backed store of drug labels.
type Catalog struct {
	index  bleve.Index
	logger *zap.Logger
}

var _ source.Source = (*Catalog)(nil)

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	// Standard analyzer (lowercase + tokenize, no stemming) so drug names match exactly.
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	doc.AddFieldMappingsAt("name", text)
	doc.AddFieldMappingsAt("generic", text)
	doc.AddFieldMappingsAt("ingredients", text)
	doc.AddFieldMappingsAt("content", text)

	stored := bleve.NewTextFieldMapping()
	stored.Index = false
	stored.Store = true
	stored.IncludeInAll = false
	doc.AddFieldMappingsAt("data", stored)

	im.DefaultMapping = doc
	return im
}

// Open creates or opens the catalog at path. An empty path keeps the catalog in memory.
// If the mapping changes, remove the index directory to rebuild it.
func Open(path string, logger *zap.Logger) (*Catalog, error) {
	logger = utils.OrNop(logger).Named("catalog")
	if path == "" {
		index, err := bleve.NewMemOnly(newMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory catalog: %w", err)
		}
		return &Catalog{index: index, logger: logger}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open catalog index: %w", openErr)
		}
		return &Catalog{index: index, logger: logger}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}
	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog index: %w", err)
	}
	return &Catalog{index: index, logger: logger}, nil
}

// Add indexes labels in one batch, replacing labels with the same id.
func (c *Catalog) Add(ctx context.Context, labels ...*models.DrugLabel) error {
	batch := c.index.NewBatch()
	for _, l := range labels {
		if l == nil || l.ID == "" {
			return errs.Validation("label id is required")
		}
		if l.Source == "" {
			l.Source = SourceCatalog
		}
		data, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("failed to encode label %s: %w", l.ID, err)
		}
		doc := labelDoc{
			Name:        l.Name(),
			Generic:     l.GenericName,
			Ingredients: strings.Join(l.ActiveIngredients, " "),
			Content:     l.ToDocument().Text,
			Data:        string(data),
		}
		if err := batch.Index(l.ID, doc); err != nil {
			return fmt.Errorf("failed to index label %s: %w", l.ID, err)
		}
	}
	if err := c.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to write catalog batch: %w", err)
	}
	return nil
}

// Get returns the label with the given id.
func (c *Catalog) Get(ctx context.Context, id string) (*models.DrugLabel, error) {
	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{id}))
	req.Fields = []string{"data"}
	res, err := c.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}
	if len(res.Hits) == 0 {
		return nil, errs.NotFound(fmt.Sprintf("label %s not in catalog", id))
	}
	return decodeHit(res.Hits[0].Fields)
}

// SearchLabels returns up to limit labels matching query, best first. Names are
// matched with typo tolerance; the label text is matched exactly.
func (c *Catalog) SearchLabels(ctx context.Context, query string, limit int) ([]*models.DrugLabel, error) {
	terms := utils.NormalizeQuery(query)
	if terms == "" {
		return []*models.DrugLabel{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	req := bleve.NewSearchRequest(buildQuery(terms))
	req.Size = limit
	req.Fields = []string{"data"}
	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}

	labels := make([]*models.DrugLabel, 0, len(res.Hits))
	for _, hit := range res.Hits {
		l, err := decodeHit(hit.Fields)
		if err != nil {
			c.logger.Warn("skipping unreadable catalog entry", zap.String("id", hit.ID), zap.Error(err))
			continue
		}
		labels = append(labels, l)
	}
	return labels, nil
}

// buildQuery ORs boosted name matches, fuzzy name terms, and a plain content match.
func buildQuery(terms string) blevequery.Query {
	name := bleve.NewMatchQuery(terms)
	name.SetField("name")
	name.SetBoost(nameBoost)

	generic := bleve.NewMatchQuery(terms)
	generic.SetField("generic")
	generic.SetBoost(genericBoost)

	ingredients := bleve.NewMatchQuery(terms)
	ingredients.SetField("ingredients")

	content := bleve.NewMatchQuery(terms)
	content.SetField("content")

	queries := []blevequery.Query{name, generic, ingredients, content}
	for _, term := range strings.Fields(terms) {
		// Very short terms match too much at edit distance 1.
		if len([]rune(term)) < 4 {
			continue
		}
		for _, field := range []string{"name", "generic"} {
			fq := bleve.NewFuzzyQuery(term)
			fq.SetFuzziness(fuzziness)
			fq.SetField(field)
			queries = append(queries, fq)
		}
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Search implements source.Source. Errors are logged and yield an empty slice.
func (c *Catalog) Search(ctx context.Context, query string, limit int) []models.Document {
	labels, err := c.SearchLabels(ctx, query, limit)
	if err != nil {
		c.logger.Warn("catalog search failed", zap.String("query", query), zap.Error(err))
		return []models.Document{}
	}
	docs := make([]models.Document, 0, len(labels))
	for _, l := range labels {
		docs = append(docs, l.ToDocument())
	}
	return docs
}

// FetchByID implements source.Source.
func (c *Catalog) FetchByID(ctx context.Context, id string) (*models.Document, bool) {
	l, err := c.Get(ctx, id)
	if err != nil {
		return nil, false
	}
	doc := l.ToDocument()
	return &doc, true
}

// Delete removes a label from the catalog.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	return c.index.Delete(id)
}

// Count returns the number of labels in the catalog.
func (c *Catalog) Count() (uint64, error) {
	return c.index.DocCount()
}

// Close closes the underlying index.
func (c *Catalog) Close() error {
	return c.index.Close()
}

func decodeHit(fields map[string]interface{}) (*models.DrugLabel, error) {
	raw, ok := fields["data"].(string)
	if !ok {
		return nil, fmt.Errorf("catalog entry has no stored label")
	}
	var l models.DrugLabel
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return nil, fmt.Errorf("failed to decode catalog label: %w", err)
	}
	return &l, nil
}
