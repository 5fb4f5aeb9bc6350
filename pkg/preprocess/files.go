package preprocess

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// UniquePath returns base when no file exists there, otherwise the first free
// "name [n].ext" variant, starting at n = 1.
func UniquePath(base string) string {
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return base
	}
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s [%d]%s", name, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// SaveUnique writes img to dir/name, creating dir if needed, without
// overwriting an existing file. The format follows the extension of name.
// It returns the path written.
func SaveUnique(img image.Image, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := UniquePath(filepath.Join(dir, name))
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("failed to save processed image: %w", err)
	}
	return path, nil
}
