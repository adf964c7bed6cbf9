package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/pharmassist/internal/models"
)

// SampleLabels returns the labels loaded into an empty catalog so the service can
// answer common questions before any label has been fetched or dropped in.
func SampleLabels() []*models.DrugLabel {
	return []*models.DrugLabel{
		{
			ID:                "paracetamol_001",
			BrandName:         "Doliprane",
			GenericName:       "Acetaminophen",
			ProductType:       "Analgesic and antipyretic",
			ActiveIngredients: []string{"Paracetamol"},
			Route:             "Oral",
			Indications:       "Mild to moderate pain, fever.",
			Dosage:            "500-1000 mg every 4-6 hours, maximum 4000 mg per day.",
			Contraindications: "Severe hepatic impairment.",
			AdverseReactions:  "Rare: skin reactions, hepatotoxicity at high doses.",
			Interactions:      "Anticoagulants (warfarin): monitor INR with prolonged use. Alcohol increases the risk of liver damage.",
		},
		{
			ID:                "ibuprofen_001",
			BrandName:         "Advil",
			GenericName:       "Ibuprofen",
			ProductType:       "Non-steroidal anti-inflammatory drug",
			ActiveIngredients: []string{"Ibuprofen"},
			Route:             "Oral",
			Indications:       "Pain, fever, inflammation.",
			Dosage:            "200-400 mg every 6-8 hours, maximum 1200 mg per day without medical advice.",
			Contraindications: "Active peptic ulcer, severe heart failure, third trimester of pregnancy.",
			Warnings:          "Risk of gastrointestinal bleeding. Use the lowest effective dose for the shortest time.",
			AdverseReactions:  "Stomach pain, nausea, heartburn, dizziness.",
			Interactions:      "Aspirin, anticoagulants, corticosteroids, ACE inhibitors, diuretics.",
		},
		{
			ID:                "aspirin_001",
			BrandName:         "Aspirin",
			GenericName:       "Acetylsalicylic acid",
			ProductType:       "Analgesic, antipyretic and antiplatelet agent",
			ActiveIngredients: []string{"Acetylsalicylic acid"},
			Route:             "Oral",
			Indications:       "Pain, fever, prevention of cardiovascular events at low dose.",
			Dosage:            "Pain and fever: 500-1000 mg every 4-6 hours, maximum 3000 mg per day. Antiplatelet: 75-160 mg once daily.",
			Contraindications: "Children under 16 (Reye's syndrome), active bleeding, severe renal or hepatic impairment.",
			Warnings:          "Increased bleeding risk. Stop before surgery on medical advice.",
			AdverseReactions:  "Gastric irritation, bleeding, allergic reactions.",
			Interactions:      "Anticoagulants, other NSAIDs, methotrexate.",
		},
		{
			ID:                "amoxicillin_001",
			BrandName:         "Clamoxyl",
			GenericName:       "Amoxicillin",
			ProductType:       "Penicillin antibiotic",
			ActiveIngredients: []string{"Amoxicillin"},
			Route:             "Oral",
			Indications:       "Bacterial infections of the ear, nose, throat, respiratory tract and urinary tract.",
			Dosage:            "Adults: 500 mg every 8 hours or 1 g every 12 hours, depending on the infection.",
			Contraindications: "Allergy to penicillins.",
			AdverseReactions:  "Diarrhea, nausea, skin rash.",
			Interactions:      "Methotrexate, allopurinol, oral anticoagulants.",
		},
	}
}

// Seed loads SampleLabels when the catalog is empty. It returns the number of labels added.
func (c *Catalog) Seed(ctx context.Context) (int, error) {
	n, err := c.Count()
	if err != nil {
		return 0, fmt.Errorf("failed to count catalog: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	labels := SampleLabels()
	if err := c.Add(ctx, labels...); err != nil {
		return 0, err
	}
	c.logger.Info("seeded catalog with sample labels", zap.Int("count", len(labels)))
	return len(labels), nil
}
