package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("paracétamol", 6); got != "paracé..." {
		t.Errorf("multi-byte truncation: got %q", got)
	}
}

func TestPrefix(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"aspirin", 3, "asp"},
		{"aspirin", 50, "aspirin"},
		{"été", 2, "ét"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Prefix(tt.in, tt.n); got != tt.want {
			t.Errorf("Prefix(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestNormalizeQuery(t *testing.T) {
	if got := NormalizeQuery("  Aspirin   DOSAGE\n"); got != "aspirin dosage" {
		t.Errorf("got %q", got)
	}
}

func TestContainsAny(t *testing.T) {
	if !ContainsAny("What is the DOSAGE of aspirin?", []string{"dosage"}) {
		t.Error("expected case-insensitive match")
	}
	if ContainsAny("aspirin", []string{"", "ibuprofen"}) {
		t.Error("expected no match")
	}
}
