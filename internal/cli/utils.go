// Package cli formats pharmassist results for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/pharmassist/internal/assistant"
	"github.com/hyperjump/pharmassist/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAnswer writes an answer to w.
func WriteAnswer(w io.Writer, a *models.DrugAnswer, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, a)
	case OutputCompact:
		fmt.Fprintln(w, strings.Join(strings.Fields(a.Answer), " "))
		return nil
	}
	fmt.Fprintf(w, "\n%s\n\n", a.Answer)
	fmt.Fprintf(w, "type: %s | language: %s | confidence: %.2f | sources: %d\n",
		a.QueryType, a.Language, a.Confidence, a.SourcesUsed)
	for i, src := range a.Sources {
		name := src.Document.Metadata[models.MetaDrugName]
		if name == "" {
			name = src.Document.ID
		}
		fmt.Fprintf(w, "  [%d] %s (relevance %.2f)\n", i+1, name, src.Relevance())
	}
	if len(a.Suggestions) > 0 {
		fmt.Fprintln(w, "\nYou could also ask:")
		for _, s := range a.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	fmt.Fprintf(w, "\n%s\n", a.Disclaimer)
	return nil
}

// WriteSearchResults writes drug search results to w.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, doc := range response.Documents {
			fmt.Fprintf(w, "%s\t%s\t%s\n", doc.ID, doc.Metadata[models.MetaSource], TruncateWords(firstLine(doc.Text), 12))
		}
		return nil
	}
	fmt.Fprintf(w, "\nFound %d results for %q in %dms\n\n", response.Total, response.Query, response.QueryTime)
	for i := range response.Documents {
		writeOneDocument(w, i+1, &response.Documents[i])
	}
	return nil
}

func writeOneDocument(w io.Writer, rank int, doc *models.Document) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "[%d] %s", rank, doc.ID)
	if src := doc.Metadata[models.MetaSource]; src != "" {
		fmt.Fprintf(w, " (%s)", src)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "\n%s\n\n", Truncate(doc.Text, 300))
}

// WriteStatus writes a status report to w.
func WriteStatus(w io.Writer, st *assistant.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "status:             %s\n", st.Status)
	fmt.Fprintf(w, "llm_configured:     %t\n", st.LLMConfigured)
	fmt.Fprintf(w, "indexed_documents:  %d   # documents in the vector index\n", st.IndexedDocuments)
	fmt.Fprintf(w, "embedding_dims:     %d\n", st.EmbeddingDimensions)
	fmt.Fprintf(w, "catalog_labels:     %d   # labels in the local catalog\n", st.CatalogLabels)
	fmt.Fprintf(w, "cached_labels:      %d   # labels fetched from the label API\n", st.CachedLabels)
	if st.DiskUsage != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d\n", st.DiskUsage.TotalBytes)
		names := make([]string, 0, len(st.DiskUsage.Paths))
		for name := range st.DiskUsage.Paths {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-16s  %d\n", name+":", st.DiskUsage.Paths[name])
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Truncate truncates s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
