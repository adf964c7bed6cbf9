package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/pharmassist/internal/assistant"
	"github.com/hyperjump/pharmassist/internal/models"
	"github.com/hyperjump/pharmassist/internal/storage"
)

func sampleAnswer() *models.DrugAnswer {
	return &models.DrugAnswer{
		Query:       "aspirin",
		Answer:      "Aspirin relieves pain.\nTake with food.",
		ContextUsed: true,
		Language:    "en",
		Sources: []models.SearchResult{{
			Document:   models.Document{ID: "aspirin_001", Metadata: map[string]string{models.MetaDrugName: "Aspirin"}},
			Similarity: 0.5,
		}},
		SourcesUsed: 1,
		QueryType:   models.QueryTypeGeneral,
		Confidence:  0.6,
		Suggestions: []string{"What are the side effects?"},
		Disclaimer:  "Consult a healthcare professional.",
	}
}

func TestWriteAnswer_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, sampleAnswer(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Aspirin relieves pain.",
		"confidence: 0.60",
		"[1] Aspirin (relevance 0.75)",
		"- What are the side effects?",
		"Consult a healthcare professional.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteAnswer_compactAndJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, sampleAnswer(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "Aspirin relieves pain. Take with food.\n" {
		t.Errorf("compact: got %q", got)
	}

	buf.Reset()
	if err := WriteAnswer(&buf, sampleAnswer(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.DrugAnswer
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.SourcesUsed != 1 || decoded.Language != "en" {
		t.Errorf("decoded: %+v", decoded)
	}
}

func TestWriteSearchResults(t *testing.T) {
	response := &models.SearchResponse{
		Query: "ibuprofen",
		Documents: []models.Document{
			{ID: "ibuprofen_001", Text: "Drug: Advil\nGeneric name: Ibuprofen", Metadata: map[string]string{models.MetaSource: "catalog"}},
		},
		Total:     1,
		QueryTime: 3,
	}

	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputText); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); !strings.Contains(out, "Found 1 results") || !strings.Contains(out, "[1] ibuprofen_001 (catalog)") {
		t.Errorf("text output:\n%s", out)
	}

	buf.Reset()
	if err := WriteSearchResults(&buf, response, OutputCompact); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "ibuprofen_001\tcatalog\tDrug: Advil\n" {
		t.Errorf("compact: got %q", got)
	}
}

func TestWriteSearchResults_empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, &models.SearchResponse{Query: "q", Documents: []models.Document{}}, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.SearchResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("empty response JSON decode: %v", err)
	}
	if decoded.Total != 0 || decoded.Documents == nil {
		t.Errorf("decoded: %+v", decoded)
	}
}

func TestWriteStatus(t *testing.T) {
	st := &assistant.Status{
		Health:           assistant.Health{Status: "degraded"},
		IndexedDocuments: 12,
		CatalogLabels:    4,
		DiskUsage:        &storage.DiskUsage{TotalBytes: 30, Paths: map[string]int64{"database": 10, "catalog": 20}},
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, st, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "indexed_documents:  12") || !strings.Contains(out, "disk_usage_bytes:   30") {
		t.Errorf("status output:\n%s", out)
	}
	if strings.Index(out, "catalog:") > strings.Index(out, "database:") {
		t.Error("disk usage paths should be sorted")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"compact", OutputCompact, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{"empty", "", 5, ""},
		{"short", "hi", 5, "hi"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world", 5, "hello..."},
		{"multibyte", "éèàçù", 2, "éè..."},
		{"maxLen zero", "ab", 0, "ab"},
		{"maxLen negative", "ab", -1, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.s, tt.maxLen)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxWords int
		want     string
	}{
		{"empty", "", 3, ""},
		{"few words", "one two", 3, "one two"},
		{"exact", "one two three", 3, "one two three"},
		{"more", "one two three four", 3, "one two three..."},
		{"single long", "word", 1, "word"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWords(tt.s, tt.maxWords)
			if got != tt.want {
				t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
			}
		})
	}
}
