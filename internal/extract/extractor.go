// Package extract turns files dropped into the label directory into drug labels.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/pharmassist/internal/fileid"
	"github.com/hyperjump/pharmassist/internal/models"
	"github.com/hyperjump/pharmassist/internal/source"
)

// SourceFile tags labels read from the drop directory.
const SourceFile = "file"

// ErrNoText is returned when a file contains no extractable text.
var ErrNoText = errors.New("no extractable text")

// Extractor reads label files and package inserts.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts text from content based on ext, which includes the leading dot.
// Unknown extensions are treated as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".odt", ".rtf":
		return extractWithCat(content)
	case ".xlsx":
		return extractSheetText(content)
	default:
		return extractPlain(content)
	}
}

// Labels reads the file at path and returns the labels it describes:
//   - .json: openFDA label records, one label each
//   - .xlsx: a formulary sheet with a header row, one label per row
//   - anything else: one label whose description is the extracted text
//
// File-derived ids are stable per path, so re-reading a file replaces its labels.
func (e *Extractor) Labels(path string) ([]*models.DrugLabel, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))

	var labels []*models.DrugLabel
	switch ext {
	case ".json":
		labels, err = source.ParseLabels(content)
	case ".xlsx":
		labels, err = formularyLabels(content, path)
	default:
		var text string
		text, err = e.ExtractBytes(content, ext)
		if err == nil {
			text = strings.TrimSpace(text)
			if text == "" {
				return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrNoText)
			}
			labels = []*models.DrugLabel{{
				ID:          fileid.LabelID(path),
				BrandName:   TitleFromPath(path),
				Description: text,
			}}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	for _, l := range labels {
		l.Source = SourceFile
	}
	return labels, nil
}

// TitleFromPath turns "doliprane_1000-notice.pdf" into "doliprane 1000 notice".
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.Join(strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	}), " ")
}
