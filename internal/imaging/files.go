package imaging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IsImageFile reports whether the file name has an extension the loader
// can decode.
func IsImageFile(filename string) bool {
	return formatFromExt(filename) != "unknown"
}

// ListImageFiles returns the image files directly inside dir, sorted by
// name. Subdirectories are not descended into.
func ListImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !IsImageFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// BaseName returns the file name without directory and extension; it is
// the identifier records of that image are named after.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
