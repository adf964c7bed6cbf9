// Package fileid derives stable label ids for files in the label drop directory.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

const prefix = "file:"

// LabelID returns a stable id for the file at path. The same cleaned path always yields
// the same id, so re-dropping a file replaces its label instead of adding a new one.
func LabelID(path string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(path)))
	return prefix + hex.EncodeToString(hash[:12])
}

// RowID returns a stable id for one row of a formulary spreadsheet.
func RowID(path, sheet string, row int) string {
	return fmt.Sprintf("%s#%s:%d", LabelID(path), sheet, row)
}

// IsFileID reports whether id was produced by this package.
func IsFileID(id string) bool {
	return len(id) > len(prefix) && id[:len(prefix)] == prefix
}
