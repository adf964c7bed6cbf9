package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperjump/pharmassist/internal/models"
)

// SourceOpenFDA tags labels that came from the remote label API.
const SourceOpenFDA = "openfda"

// fdaResponse is the envelope returned by the openFDA drug label endpoint.
type fdaResponse struct {
	Results []fdaLabel `json:"results"`
}

// fdaLabel holds the subset of openFDA label fields we use. Every section is a list of strings.
type fdaLabel struct {
	ID      string `json:"id"`
	SetID   string `json:"set_id"`
	OpenFDA struct {
		BrandName     []string `json:"brand_name"`
		GenericName   []string `json:"generic_name"`
		SubstanceName []string `json:"substance_name"`
		Route         []string `json:"route"`
		ProductType   []string `json:"product_type"`
	} `json:"openfda"`
	ActiveIngredient  []string `json:"active_ingredient"`
	Indications       []string `json:"indications_and_usage"`
	Dosage            []string `json:"dosage_and_administration"`
	Contraindications []string `json:"contraindications"`
	Warnings          []string `json:"warnings"`
	AdverseReactions  []string `json:"adverse_reactions"`
	Interactions      []string `json:"drug_interactions"`
}

func (f *fdaLabel) toLabel() *models.DrugLabel {
	id := f.ID
	if id == "" {
		id = f.SetID
	}
	ingredients := f.OpenFDA.SubstanceName
	if len(ingredients) == 0 {
		ingredients = f.ActiveIngredient
	}
	return &models.DrugLabel{
		ID:                id,
		BrandName:         first(f.OpenFDA.BrandName),
		GenericName:       first(f.OpenFDA.GenericName),
		ProductType:       first(f.OpenFDA.ProductType),
		ActiveIngredients: ingredients,
		Route:             strings.Join(f.OpenFDA.Route, ", "),
		Indications:       joinSections(f.Indications),
		Dosage:            joinSections(f.Dosage),
		Contraindications: joinSections(f.Contraindications),
		Warnings:          joinSections(f.Warnings),
		AdverseReactions:  joinSections(f.AdverseReactions),
		Interactions:      joinSections(f.Interactions),
		Source:            SourceOpenFDA,
	}
}

// ParseLabels decodes openFDA label JSON. It accepts the API envelope ({"results": [...]}),
// a bare array of labels, or a single label object. Labels without an id or a name are dropped.
func ParseLabels(data []byte) ([]*models.DrugLabel, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty label document")
	}

	var raw []fdaLabel
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse label array: %w", err)
		}
	case '{':
		var resp fdaResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse label response: %w", err)
		}
		raw = resp.Results
		if resp.Results == nil {
			var single fdaLabel
			if err := json.Unmarshal(data, &single); err != nil {
				return nil, fmt.Errorf("failed to parse label: %w", err)
			}
			raw = []fdaLabel{single}
		}
	default:
		return nil, fmt.Errorf("label document is not JSON")
	}

	labels := make([]*models.DrugLabel, 0, len(raw))
	for i := range raw {
		l := raw[i].toLabel()
		if l.ID == "" || l.Name() == "" {
			continue
		}
		labels = append(labels, l)
	}
	return labels, nil
}

func first(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func joinSections(values []string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}
