package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/pharmassist/internal/fileid"
	"github.com/hyperjump/pharmassist/internal/models"
)

// formularyColumns maps normalized header names to label fields.
var formularyColumns = map[string]func(l *models.DrugLabel, v string){
	"id":                 func(l *models.DrugLabel, v string) { l.ID = v },
	"name":               func(l *models.DrugLabel, v string) { l.BrandName = v },
	"brand":              func(l *models.DrugLabel, v string) { l.BrandName = v },
	"brand name":         func(l *models.DrugLabel, v string) { l.BrandName = v },
	"drug":               func(l *models.DrugLabel, v string) { l.BrandName = v },
	"generic":            func(l *models.DrugLabel, v string) { l.GenericName = v },
	"generic name":       func(l *models.DrugLabel, v string) { l.GenericName = v },
	"dci":                func(l *models.DrugLabel, v string) { l.GenericName = v },
	"type":               func(l *models.DrugLabel, v string) { l.ProductType = v },
	"product type":       func(l *models.DrugLabel, v string) { l.ProductType = v },
	"active ingredients": setIngredients,
	"active ingredient":  setIngredients,
	"ingredients":        setIngredients,
	"route":              func(l *models.DrugLabel, v string) { l.Route = v },
	"description":        func(l *models.DrugLabel, v string) { l.Description = v },
	"indications":        func(l *models.DrugLabel, v string) { l.Indications = v },
	"dosage":             func(l *models.DrugLabel, v string) { l.Dosage = v },
	"contraindications":  func(l *models.DrugLabel, v string) { l.Contraindications = v },
	"warnings":           func(l *models.DrugLabel, v string) { l.Warnings = v },
	"side effects":       func(l *models.DrugLabel, v string) { l.AdverseReactions = v },
	"adverse reactions":  func(l *models.DrugLabel, v string) { l.AdverseReactions = v },
	"interactions":       func(l *models.DrugLabel, v string) { l.Interactions = v },
}

func setIngredients(l *models.DrugLabel, v string) {
	for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ';' || r == ',' }) {
		if part = strings.TrimSpace(part); part != "" {
			l.ActiveIngredients = append(l.ActiveIngredients, part)
		}
	}
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "-", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// formularyLabels reads every sheet whose first non-empty row names at least one known
// column, producing one label per data row. Rows without a drug name are skipped.
func formularyLabels(content []byte, path string) ([]*models.DrugLabel, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	var labels []*models.DrugLabel
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		header := -1
		var setters []func(*models.DrugLabel, string)
		for i, row := range rows {
			if len(row) == 0 {
				continue
			}
			setters = make([]func(*models.DrugLabel, string), len(row))
			known := 0
			for j, cell := range row {
				if set, ok := formularyColumns[normalizeHeader(cell)]; ok {
					setters[j] = set
					known++
				}
			}
			if known > 0 {
				header = i
			}
			break
		}
		if header < 0 {
			continue
		}

		for i := header + 1; i < len(rows); i++ {
			l := &models.DrugLabel{}
			for j, cell := range rows[i] {
				if j < len(setters) && setters[j] != nil {
					if cell = strings.TrimSpace(cell); cell != "" {
						setters[j](l, cell)
					}
				}
			}
			if l.Name() == "" {
				continue
			}
			if l.ID == "" {
				// Spreadsheet rows are 1-based.
				l.ID = fileid.RowID(path, sheet, i+1)
			}
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		return nil, ErrNoText
	}
	return labels, nil
}

// extractSheetText returns every sheet as tab-separated lines.
func extractSheetText(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
	}
	return strings.TrimSpace(b.String()), nil
}
