package ktp

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrExtraction is returned when extraction fails for a reason other than the
// content of the input. No partial record is returned with it.
var ErrExtraction = errors.New("ktp extraction failed")

// Config holds the tunable parts of the extraction heuristics.
type Config struct {
	// LocalityNoise lists fragments (usually the issuing city printed next to
	// the occupation) removed from the positionally inferred Pekerjaan.
	LocalityNoise []string
}

// DefaultConfig returns the configuration tuned on Jakarta Timur cards.
func DefaultConfig() Config {
	return Config{
		LocalityNoise: []string{"JAKARTA TIMUR"},
	}
}

// Result is the outcome of one extraction.
type Result struct {
	Record   Record   // Extracted fields
	Warnings []string // Non-fatal conditions, e.g. a truncated positional fallback
}

// Extract reads the OCR text of a KTP line by line and returns the fields it
// could identify. Lines no label matches are ignored. Extract never returns a
// partially built record together with an error.
func Extract(text string, cfg Config) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("%w: %v", ErrExtraction, r)
		}
	}()

	b := newRecordBuilder()
	pos := newPositionalExtractor(cfg.LocalityNoise)

	for i, line := range SplitLines(text) {
		if pos.consuming() {
			pos.feed(line, b)
		}

		rule, entries, ok := matchLine(line)
		if !ok {
			continue
		}
		for _, e := range entries {
			b.label(e.Field, Normalize(e.Field, e.Value))
		}
		if rule.Anchor {
			pos.anchor(i)
		}
	}

	if warning, partial := pos.finish(); partial {
		res.Warnings = append(res.Warnings, warning)
	}
	res.Record = b.build()
	return res, nil
}

// SplitLines folds compatibility glyphs (full-width colons, ligatures) to their
// plain forms and splits text into lines. Carriage returns are dropped.
func SplitLines(text string) []string {
	text = norm.NFKC.String(text)
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
