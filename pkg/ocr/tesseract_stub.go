//go:build !ocr

package ocr

import "context"

// Tesseract is a placeholder used when the binary is built without the "ocr"
// build tag. Every operation fails with ErrNotEnabled.
type Tesseract struct{}

// NewTesseract returns ErrNotEnabled. Rebuild with -tags ocr to use Tesseract.
func NewTesseract(opts ...Option) (*Tesseract, error) {
	return nil, ErrNotEnabled
}

// Recognize returns ErrNotEnabled.
func (t *Tesseract) Recognize(context.Context, []byte, string) (string, error) {
	return "", ErrNotEnabled
}

// Close is a no-op. It is safe to call on a nil engine.
func (t *Tesseract) Close() error {
	return nil
}
