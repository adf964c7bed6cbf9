package models

import (
	"fmt"
	"strings"
)

// DrugLabel is a normalized drug-label record from the label API or the local catalog.
type DrugLabel struct {
	ID                string   `json:"id"`
	BrandName         string   `json:"brand_name"`
	GenericName       string   `json:"generic_name,omitempty"`
	ProductType       string   `json:"product_type,omitempty"`
	ActiveIngredients []string `json:"active_ingredients,omitempty"`
	Route             string   `json:"route,omitempty"`
	Description       string   `json:"description,omitempty"`
	Indications       string   `json:"indications,omitempty"`
	Dosage            string   `json:"dosage,omitempty"`
	Contraindications string   `json:"contraindications,omitempty"`
	Warnings          string   `json:"warnings,omitempty"`
	AdverseReactions  string   `json:"adverse_reactions,omitempty"`
	Interactions      string   `json:"interactions,omitempty"`
	Source            string   `json:"source,omitempty"`
}

// Name returns the brand name, or the generic name when no brand is known.
func (l *DrugLabel) Name() string {
	if l.BrandName != "" {
		return l.BrandName
	}
	return l.GenericName
}

// ToDocument flattens the label into a Document. Empty sections are omitted.
func (l *DrugLabel) ToDocument() Document {
	var b strings.Builder
	line := func(label, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}
	line("Drug", l.Name())
	if l.GenericName != l.Name() {
		line("Generic name", l.GenericName)
	}
	line("Type", l.ProductType)
	line("Active ingredients", strings.Join(l.ActiveIngredients, ", "))
	line("Route", l.Route)
	line("Description", l.Description)
	line("Indications", l.Indications)
	line("Dosage", l.Dosage)
	line("Contraindications", l.Contraindications)
	line("Warnings", l.Warnings)
	line("Adverse reactions", l.AdverseReactions)
	line("Interactions", l.Interactions)

	meta := map[string]string{
		MetaDrugName: l.Name(),
		MetaLabelID:  l.ID,
	}
	if l.Source != "" {
		meta[MetaSource] = l.Source
	}
	return Document{
		ID:       l.ID,
		Text:     strings.TrimSpace(b.String()),
		Metadata: meta,
	}
}
