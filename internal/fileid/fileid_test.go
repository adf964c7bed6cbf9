package fileid

import (
	"strings"
	"testing"
)

func TestLabelID(t *testing.T) {
	id := LabelID("/labels/doliprane.pdf")
	if id != LabelID("/labels/doliprane.pdf") {
		t.Error("same path should give same id")
	}
	if !strings.HasPrefix(id, prefix) || len(id) != len(prefix)+24 {
		t.Errorf("unexpected id format: %q", id)
	}
	if id == LabelID("/labels/advil.pdf") {
		t.Error("different paths should give different ids")
	}
}

func TestLabelID_normalized(t *testing.T) {
	tests := []string{"/labels/a.pdf", "/labels/./a.pdf", "/labels//a.pdf", "/x/../labels/a.pdf"}
	want := LabelID(tests[0])
	for _, p := range tests[1:] {
		if got := LabelID(p); got != want {
			t.Errorf("LabelID(%q) = %q, want %q", p, got, want)
		}
	}
}

func TestRowID(t *testing.T) {
	a := RowID("/labels/formulary.xlsx", "Sheet1", 2)
	b := RowID("/labels/formulary.xlsx", "Sheet1", 3)
	if a == b {
		t.Error("rows should get distinct ids")
	}
	if !strings.HasPrefix(a, LabelID("/labels/formulary.xlsx")) {
		t.Errorf("row id should extend the file id: %q", a)
	}
	if !IsFileID(a) || IsFileID("paracetamol_001") {
		t.Error("IsFileID mismatch")
	}
}
