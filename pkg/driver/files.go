package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// WriteFiles places the rendered unit files under dir, creating it as
// needed. Returns the written paths in name order.
func WriteFiles(dir string, files map[string][]byte) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("driver: empty output dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("driver: create output dir: %w", err)
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, files[name], 0o644); err != nil {
			return nil, fmt.Errorf("driver: write %s: %w", name, err)
		}
		written = append(written, path)
	}
	return written, nil
}
