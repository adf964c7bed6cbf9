package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/pharmassist/internal/errs"
)

// Input bounds, checked before any embedding or completion call.
const (
	MaxDrugNameLength = 100
	MaxQuestionLength = 1000
	MaxDrugs          = 10
)

// AskRequest is a natural-language drug question. DrugName is accepted as an alias of Question.
type AskRequest struct {
	Question string `json:"question,omitempty"`
	DrugName string `json:"drug_name,omitempty"`
	Language string `json:"language,omitempty"`
}

// Query returns the question text, falling back to DrugName.
func (r *AskRequest) Query() string {
	if q := strings.TrimSpace(r.Question); q != "" {
		return q
	}
	return strings.TrimSpace(r.DrugName)
}

// Validate returns a validation error when no question is given.
func (r *AskRequest) Validate() error {
	q := r.Query()
	if q == "" {
		return errs.Validation("question is required")
	}
	if strings.TrimSpace(r.Question) == "" && utf8.RuneCountInString(q) > MaxDrugNameLength {
		return errs.Validation(fmt.Sprintf("drug_name must be at most %d characters", MaxDrugNameLength))
	}
	if utf8.RuneCountInString(q) > MaxQuestionLength {
		return errs.Validation(fmt.Sprintf("question must be at most %d characters", MaxQuestionLength))
	}
	return nil
}

// SearchQuery is a drug search over the document sources.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Validate ensures the query is non-empty and clamps Limit to [1, maxLimit].
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return errs.Validation("query cannot be empty")
	}
	if utf8.RuneCountInString(q.Query) > MaxDrugNameLength {
		return errs.Validation(fmt.Sprintf("query must be at most %d characters", MaxDrugNameLength))
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}

// SearchResponse is the result of a drug search over the document sources.
type SearchResponse struct {
	Query     string     `json:"query"`
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
	QueryTime int64      `json:"query_time_ms"`
}

// InteractionRequest asks for an interaction analysis between drugs.
type InteractionRequest struct {
	Drugs       []string          `json:"drugs"`
	PatientInfo map[string]string `json:"patient_info,omitempty"`
	Language    string            `json:"language,omitempty"`
}

// Validate bounds the number of drugs and the length of each name.
func (r *InteractionRequest) Validate() error {
	if len(r.Drugs) > MaxDrugs {
		return errs.Validation(fmt.Sprintf("at most %d drugs can be checked at once", MaxDrugs))
	}
	for _, d := range r.Drugs {
		if utf8.RuneCountInString(strings.TrimSpace(d)) > MaxDrugNameLength {
			return errs.Validation(fmt.Sprintf("drug names must be at most %d characters", MaxDrugNameLength))
		}
	}
	return nil
}

// DistinctDrugs returns the trimmed, case-insensitively de-duplicated drug names in input order.
func (r *InteractionRequest) DistinctDrugs() []string {
	seen := make(map[string]struct{}, len(r.Drugs))
	out := make([]string, 0, len(r.Drugs))
	for _, d := range r.Drugs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		key := strings.ToLower(d)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	return out
}
