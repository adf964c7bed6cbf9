package models

// SearchResult is a nearest-neighbour hit. Similarity is cosine similarity in [-1, 1].
type SearchResult struct {
	Document   Document `json:"document"`
	Similarity float64  `json:"similarity"`
}

// Relevance rescales Similarity from [-1, 1] to [0, 1].
func (r SearchResult) Relevance() float64 {
	return (r.Similarity + 1) / 2
}

// Context is the assembled retrieval context for one query.
type Context struct {
	// Text is the formatted context, or a "no information" sentinel. Never empty.
	Text     string         `json:"text"`
	Snippets []string       `json:"snippets,omitempty"`
	Sources  []SearchResult `json:"sources,omitempty"`
	// Used is true when at least one snippet survived the relevance filter.
	Used bool `json:"used"`
	// FallbackUsed is true when the document source was consulted.
	FallbackUsed bool `json:"fallback_used,omitempty"`
}
