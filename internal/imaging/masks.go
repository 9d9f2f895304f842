package imaging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/tiff"

	"github.com/ironsheep/map-coverage/internal/classify"
)

// MaskWriter persists masks as grayscale images (255 = set) in a directory.
type MaskWriter struct {
	Dir string

	// Format is "tif", "png" or "webp". WebP masks are always lossless.
	Format string
}

// NewMaskWriter returns a writer for dir, creating the directory.
func NewMaskWriter(dir, format string) (*MaskWriter, error) {
	switch format {
	case "tif", "png", "webp":
	default:
		return nil, fmt.Errorf("unsupported mask format %q", format)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create mask directory: %w", err)
	}
	return &MaskWriter{Dir: dir, Format: format}, nil
}

// WriteMask writes m as <Dir>/<name>.<Format> and returns the file path.
// Characters that are invalid in file names are replaced in name.
func (w *MaskWriter) WriteMask(name string, m *classify.Mask) (string, error) {
	path := filepath.Join(w.Dir, SanitizeFilename(name)+"."+w.Format)
	img := m.Image()

	switch w.Format {
	case "png":
		if err := imaging.Save(img, path); err != nil {
			return "", fmt.Errorf("failed to write mask %s: %w", path, err)
		}
		return path, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create mask %s: %w", path, err)
	}

	switch w.Format {
	case "webp":
		err = webp.Encode(f, img, &webp.Options{Lossless: true})
	default:
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to encode mask %s: %w", path, err)
	}
	return path, nil
}

// SanitizeFilename replaces characters that are invalid in file names.
func SanitizeFilename(filename string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filename
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	return strings.Trim(result, " .")
}
