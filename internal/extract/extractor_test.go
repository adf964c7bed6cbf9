package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/pharmassist/internal/fileid"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// docx builds a .docx zip whose main part holds one w:p per paragraph.
func docx(docPath string, withContentTypes bool, paragraphs ...string) []byte {
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p w:rsidR="00A1"><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`)
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if withContentTypes {
		ct, _ := w.Create("[Content_Types].xml")
		_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/` + docPath + `"/>
</Types>`))
	}
	fw, _ := w.Create(docPath)
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="r"><w:body>` + body.String() + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func formulary(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return buf.Bytes()
}

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	tests := []struct {
		name, ext, in, want string
	}{
		{"txt", ".txt", "Take with food\nTwice daily", "Take with food\nTwice daily"},
		{"markdown utf8", ".md", "posologie: 1 comprim\xc3\xa9", "posologie: 1 comprimé"},
		{"invalid utf8", ".txt", "dose\x80max", "dose\ufffdmax"},
		{"unknown extension", ".xyz", "raw content", "raw content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes([]byte(tt.in), tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_docx(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes(docx("word/document.xml", false, "Doliprane 1000 mg", "Take one tablet"), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Doliprane 1000 mg\nTake one tablet" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxCustomMainPart(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes(docx("word/document2.xml", true, "Content from document2"), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Content from document2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxErrors(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for non-zip docx")
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, _ = w.Create("other.xml")
	_ = w.Close()
	if _, err := e.ExtractBytes(buf.Bytes(), ".docx"); err == nil {
		t.Error("expected error when the document part is missing")
	}
}

func TestExtractBytes_pdfInvalid(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("%PDF-garbage"), ".pdf"); err == nil {
		t.Error("expected error for invalid PDF")
	}
}

func TestExtractBytes_xlsx(t *testing.T) {
	content := formulary(t, [][]string{{"Name", "Dosage"}, {"Advil", "200 mg"}})
	got, err := NewExtractor().ExtractBytes(content, ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Name\tDosage\nAdvil\t200 mg" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	if _, err := NewExtractor().Extract("/nonexistent/path/file.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLabels_json(t *testing.T) {
	path := writeFile(t, "labels.json", []byte(`{"results":[
		{"id":"adv-1","openfda":{"brand_name":["Advil"],"generic_name":["IBUPROFEN"]},"warnings":["Stomach bleeding warning"]},
		{"id":"nameless"}
	]}`))
	labels, err := NewExtractor().Labels(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 1 {
		t.Fatalf("got %d labels", len(labels))
	}
	if labels[0].ID != "adv-1" || labels[0].Source != SourceFile {
		t.Errorf("unexpected label: %+v", labels[0])
	}
}

func TestLabels_formulary(t *testing.T) {
	content := formulary(t, [][]string{
		{"Brand_Name", "Generic", "Active Ingredients", "Side effects", "Notes"},
		{"Doliprane", "Acetaminophen", "paracetamol; caffeine", "Rare skin reactions", "ignored"},
		{"", "", "", "", "blank row"},
		{"Advil", "Ibuprofen", "ibuprofen", "Nausea", ""},
	})
	path := writeFile(t, "formulary.xlsx", content)

	labels, err := NewExtractor().Labels(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 2 {
		t.Fatalf("got %d labels, want 2", len(labels))
	}
	first := labels[0]
	if first.BrandName != "Doliprane" || first.GenericName != "Acetaminophen" || first.AdverseReactions != "Rare skin reactions" {
		t.Errorf("unexpected first label: %+v", first)
	}
	if len(first.ActiveIngredients) != 2 || first.ActiveIngredients[1] != "caffeine" {
		t.Errorf("ActiveIngredients = %v", first.ActiveIngredients)
	}
	if first.ID != fileid.RowID(path, "Sheet1", 2) {
		t.Errorf("ID = %q", first.ID)
	}
	if labels[1].ID != fileid.RowID(path, "Sheet1", 4) {
		t.Errorf("second ID = %q", labels[1].ID)
	}
}

func TestLabels_formularyWithoutKnownColumns(t *testing.T) {
	path := writeFile(t, "misc.xlsx", formulary(t, [][]string{{"Foo", "Bar"}, {"1", "2"}}))
	if _, err := NewExtractor().Labels(path); !errors.Is(err, ErrNoText) {
		t.Errorf("expected ErrNoText, got %v", err)
	}
}

func TestLabels_textDocument(t *testing.T) {
	path := writeFile(t, "doliprane_1000-notice.txt", []byte("  Doliprane 1000 mg tablets.\nDo not exceed 3 g per day.  "))
	labels, err := NewExtractor().Labels(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 1 {
		t.Fatalf("got %d labels", len(labels))
	}
	l := labels[0]
	if l.ID != fileid.LabelID(path) {
		t.Errorf("ID = %q", l.ID)
	}
	if l.BrandName != "doliprane 1000 notice" {
		t.Errorf("BrandName = %q", l.BrandName)
	}
	if !strings.HasPrefix(l.Description, "Doliprane 1000 mg") {
		t.Errorf("Description = %q", l.Description)
	}
}

func TestLabels_emptyDocument(t *testing.T) {
	path := writeFile(t, "empty.md", []byte("   \n"))
	if _, err := NewExtractor().Labels(path); !errors.Is(err, ErrNoText) {
		t.Errorf("expected ErrNoText, got %v", err)
	}
}

func TestTitleFromPath(t *testing.T) {
	tests := map[string]string{
		"/labels/advil.pdf":                 "advil",
		"/labels/doliprane_1000-notice.pdf": "doliprane 1000 notice",
		"amoxicillin 500.v2.docx":           "amoxicillin 500 v2",
	}
	for in, want := range tests {
		if got := TitleFromPath(in); got != want {
			t.Errorf("TitleFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}
