package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// DiskUsage is the on-disk footprint of the named data paths.
type DiskUsage struct {
	TotalBytes int64            `json:"total_bytes"`
	Paths      map[string]int64 `json:"paths"`
}

// MeasureDiskUsage sums the size of each named path (file or directory, recursively).
// Missing paths count as zero.
func MeasureDiskUsage(paths map[string]string) (*DiskUsage, error) {
	usage := &DiskUsage{Paths: make(map[string]int64, len(paths))}
	for name, p := range paths {
		n, err := pathSize(p)
		if err != nil {
			return nil, err
		}
		usage.Paths[name] = n
		usage.TotalBytes += n
	}
	return usage, nil
}

func pathSize(p string) (int64, error) {
	if p == "" {
		return 0, nil
	}
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	if !info.IsDir() {
		// SQLite in WAL mode keeps recent writes beside the main file.
		total := info.Size()
		for _, suffix := range []string{"-wal", "-shm"} {
			if side, err := os.Stat(p + suffix); err == nil {
				total += side.Size()
			}
		}
		return total, nil
	}
	var total int64
	err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
