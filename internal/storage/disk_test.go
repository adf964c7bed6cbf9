package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMeasureDiskUsage(t *testing.T) {
	dir := t.TempDir()

	f1 := filepath.Join(dir, "f1.db")
	if err := os.WriteFile(f1, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f1+"-wal", []byte("wal"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "catalog")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}

	usage, err := MeasureDiskUsage(map[string]string{
		"database": f1,
		"catalog":  sub,
		"missing":  filepath.Join(dir, "nope"),
		"unset":    "",
	})
	if err != nil {
		t.Fatal(err)
	}
	if usage.Paths["database"] != 8 {
		t.Errorf("database: got %d bytes, want 8 (file + wal)", usage.Paths["database"])
	}
	if usage.Paths["catalog"] != 2 {
		t.Errorf("catalog: got %d bytes, want 2", usage.Paths["catalog"])
	}
	if usage.Paths["missing"] != 0 || usage.Paths["unset"] != 0 {
		t.Errorf("missing paths should count as zero: %v", usage.Paths)
	}
	if usage.TotalBytes != 10 {
		t.Errorf("total: got %d, want 10", usage.TotalBytes)
	}
}
