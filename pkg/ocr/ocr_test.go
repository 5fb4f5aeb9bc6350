package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOptionsDefaults(t *testing.T) {
	o := newOptions()
	assert.Equal(t, DefaultLanguage, o.language)
	assert.Equal(t, 3, o.pageSegMode)
	assert.Empty(t, o.tessdataPrefix)
}

func TestOptionsApply(t *testing.T) {
	o := newOptions(
		WithLanguage("ind+eng"),
		WithPageSegMode(6),
		WithTessdataPrefix("/usr/share/tessdata"),
	)
	assert.Equal(t, "ind+eng", o.language)
	assert.Equal(t, 6, o.pageSegMode)
	assert.Equal(t, "/usr/share/tessdata", o.tessdataPrefix)
}

func TestWithPageSegModeIgnoresInvalid(t *testing.T) {
	assert.Equal(t, 3, newOptions(WithPageSegMode(-1)).pageSegMode)
	assert.Equal(t, 3, newOptions(WithPageSegMode(14)).pageSegMode)
}
