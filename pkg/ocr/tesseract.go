//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract is an Engine backed by libtesseract. It keeps a pool of clients
// so concurrent recognitions never share one. It is safe for concurrent use,
// including Close racing with Recognize.
type Tesseract struct {
	pool atomic.Pointer[sync.Pool]
	opts *options
}

// NewTesseract validates the configuration against libtesseract and returns
// a ready engine.
func NewTesseract(opts ...Option) (*Tesseract, error) {
	o := newOptions(opts...)

	check := gosseract.NewClient()
	if err := configure(check, o); err != nil {
		check.Close()
		return nil, err
	}
	check.Close()

	t := &Tesseract{opts: o}
	t.pool.Store(&sync.Pool{
		New: func() any {
			client := gosseract.NewClient()
			_ = configure(client, o) // validated above
			return client
		},
	})
	return t, nil
}

func configure(client *gosseract.Client, o *options) error {
	if o.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(o.tessdataPrefix); err != nil {
			return fmt.Errorf("failed to set tessdata prefix %q: %w", o.tessdataPrefix, err)
		}
	}
	if o.language != "" {
		if err := client.SetLanguage(strings.Split(o.language, "+")...); err != nil {
			return fmt.Errorf("failed to set language %q: %w", o.language, err)
		}
	}
	if o.pageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(o.pageSegMode)); err != nil {
			return fmt.Errorf("failed to set page segmentation mode %d: %w", o.pageSegMode, err)
		}
	}
	return nil
}

// Recognize runs Tesseract on image. The call returns early when ctx is
// cancelled; the client finishes in the background before returning to the
// pool.
func (t *Tesseract) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	pool := t.pool.Load()
	if pool == nil {
		return "", ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		text string
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		client := pool.Get().(*gosseract.Client)
		text, reusable, err := t.recognize(client, image, lang)
		if reusable {
			pool.Put(client)
		} else {
			client.Close()
		}
		resultCh <- result{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		return res.text, res.err
	}
}

// recognize runs one recognition on client. reusable reports whether the
// client is still configured with the engine defaults and may go back to the
// pool.
func (t *Tesseract) recognize(client *gosseract.Client, image []byte, lang string) (text string, reusable bool, err error) {
	reusable = true
	if lang != "" && lang != t.opts.language {
		if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
			return "", false, fmt.Errorf("failed to set language %q: %w", lang, err)
		}
		defer func() {
			if t.opts.language == "" {
				// Nothing to restore to; the client keeps lang.
				reusable = false
				return
			}
			if resetErr := client.SetLanguage(strings.Split(t.opts.language, "+")...); resetErr != nil {
				reusable = false
			}
		}()
	}

	if err := client.SetImageFromBytes(image); err != nil {
		return "", reusable, fmt.Errorf("failed to set image: %w", err)
	}
	text, err = client.Text()
	if err != nil {
		return "", reusable, fmt.Errorf("OCR failed: %w", err)
	}
	return text, reusable, nil
}

// Close drops the client pool. Recognitions already in flight finish on the
// pool they started with; pooled clients are released by the garbage
// collector.
func (t *Tesseract) Close() error {
	t.pool.Store(nil)
	return nil
}
