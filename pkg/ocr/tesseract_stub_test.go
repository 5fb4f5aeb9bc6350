//go:build !ocr

package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubNotEnabled(t *testing.T) {
	engine, err := NewTesseract(WithLanguage("ind"))
	require.ErrorIs(t, err, ErrNotEnabled)
	assert.Nil(t, engine)

	var stub *Tesseract
	_, err = stub.Recognize(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrNotEnabled)
	assert.NoError(t, stub.Close())
}
