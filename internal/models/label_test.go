package models

import (
	"strings"
	"testing"
)

func TestDrugLabel_ToDocument(t *testing.T) {
	l := &DrugLabel{
		ID:                "paracetamol_001",
		BrandName:         "Doliprane",
		GenericName:       "Acetaminophen",
		ActiveIngredients: []string{"paracetamol 500 mg"},
		Route:             "ORAL",
		Source:            "catalog",
	}
	doc := l.ToDocument()
	if doc.ID != "paracetamol_001" {
		t.Errorf("ID: got %s", doc.ID)
	}
	for _, want := range []string{"Drug: Doliprane", "Generic name: Acetaminophen", "Route: ORAL", "Active ingredients: paracetamol 500 mg"} {
		if !strings.Contains(doc.Text, want) {
			t.Errorf("text missing %q:\n%s", want, doc.Text)
		}
	}
	if strings.Contains(doc.Text, "Warnings:") {
		t.Error("empty sections should be omitted")
	}
	if doc.Metadata[MetaDrugName] != "Doliprane" || doc.Metadata[MetaSource] != "catalog" {
		t.Errorf("metadata: %v", doc.Metadata)
	}
}

func TestDrugLabel_NameFallsBackToGeneric(t *testing.T) {
	l := &DrugLabel{ID: "x", GenericName: "ibuprofen"}
	if l.Name() != "ibuprofen" {
		t.Errorf("got %s", l.Name())
	}
	if strings.Contains(l.ToDocument().Text, "Generic name") {
		t.Error("generic name should not repeat when it is the display name")
	}
}
