// Package ocr defines the OCR engine contract used by the scan pipeline and
// provides a Tesseract implementation.
//
// An Engine is a black box turning image bytes plus a language hint into
// plain text. Callers treat the text as untrusted and noisy.
//
// The Tesseract engine wraps gosseract, which needs libtesseract at build
// time. It is compiled only with the "ocr" build tag:
//
//	go build -tags ocr ./...
//
// Without the tag NewTesseract returns ErrNotEnabled.
package ocr

import (
	"context"
	"errors"
)

// DefaultLanguage is the Tesseract language pack for Bahasa Indonesia.
const DefaultLanguage = "ind"

// ErrNotEnabled is returned by NewTesseract when the binary was built
// without the "ocr" build tag.
var ErrNotEnabled = errors.New("tesseract support not enabled; rebuild with -tags ocr")

// ErrClosed is returned by Recognize once the engine has been closed.
var ErrClosed = errors.New("ocr engine is closed")

//go:generate mockgen -destination=mock/engine_mock.go -package=mock github.com/gardar/ktpocr/pkg/ocr Engine

// Engine recognizes text in an image.
type Engine interface {
	// Recognize returns the text found in image. lang is a Tesseract style
	// language hint ("ind", "ind+eng"); empty means the engine default.
	Recognize(ctx context.Context, image []byte, lang string) (string, error)

	// Close releases any resources held by the engine.
	Close() error
}

// options holds the Tesseract configuration.
type options struct {
	language       string
	pageSegMode    int
	tessdataPrefix string
}

// Option configures the Tesseract engine.
type Option func(*options)

// WithLanguage sets the default recognition language(s), "+" separated.
func WithLanguage(lang string) Option {
	return func(o *options) {
		o.language = lang
	}
}

// WithPageSegMode sets the Tesseract page segmentation mode (0-13).
// Invalid modes are ignored.
func WithPageSegMode(mode int) Option {
	return func(o *options) {
		if mode < 0 || mode > 13 {
			return
		}
		o.pageSegMode = mode
	}
}

// WithTessdataPrefix points Tesseract at a non-default tessdata directory.
func WithTessdataPrefix(prefix string) Option {
	return func(o *options) {
		o.tessdataPrefix = prefix
	}
}

func newOptions(opts ...Option) *options {
	o := &options{
		language:    DefaultLanguage,
		pageSegMode: 3,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
