package models

// QueryType is the category a question is classified into.
type QueryType string

const (
	QueryTypeDrugInfo    QueryType = "drug_info"
	QueryTypeSideEffects QueryType = "side_effects"
	QueryTypeGeneral     QueryType = "general"
)

// DrugAnswer is the final response to a question. It is never persisted.
type DrugAnswer struct {
	Query       string         `json:"query"`
	Answer      string         `json:"answer"`
	ContextUsed bool           `json:"context_used"`
	Language    string         `json:"language"`
	Sources     []SearchResult `json:"sources,omitempty"`
	SourcesUsed int            `json:"sources_used"`
	QueryType   QueryType      `json:"query_type"`
	Confidence  float64        `json:"confidence"`
	Suggestions []string       `json:"suggestions,omitempty"`
	Disclaimer  string         `json:"disclaimer"`
}

// InteractionReport is the response to an interaction check.
type InteractionReport struct {
	Drugs      []string `json:"drugs"`
	Available  bool     `json:"analysis_available"`
	Severity   string   `json:"severity"`
	Analysis   string   `json:"analysis"`
	Language   string   `json:"language"`
	Disclaimer string   `json:"disclaimer"`
}
