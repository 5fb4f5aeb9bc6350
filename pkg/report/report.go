// Package report renders an extracted KTP record.
//
// Console output follows the classic layout: a banner framed by 40 "="
// characters and one "key: value" line per field with keys padded to 20
// columns. JSON and YAML keep schema order. WritePDF produces a one page
// report with the card image, a hidden text layer over it and the record
// table.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gardar/ktpocr/pkg/ktp"
)

// KeyWidth is the column width keys are padded to on the console.
const KeyWidth = 20

const (
	RecordBanner = "STRUCTURED EXTRACTION RESULT"
	TextBanner   = "OCR TEXT EXTRACTION RESULT"
)

var rule = strings.Repeat("=", 40)

func writeBanner(w io.Writer, title string) error {
	_, err := fmt.Fprintf(w, "\n%s\n%s\n%s\n", rule, title, rule)
	return err
}

// WriteConsole prints the record under the structured result banner.
func WriteConsole(w io.Writer, rec ktp.Record) error {
	if err := writeBanner(w, RecordBanner); err != nil {
		return err
	}
	for _, e := range rec.Entries() {
		if _, err := fmt.Fprintf(w, "%-*s: %s\n", KeyWidth, e.Field, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// WriteText prints the raw OCR text under the text result banner.
func WriteText(w io.Writer, text string) error {
	if err := writeBanner(w, TextBanner); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

// WriteJSON writes the record as an indented JSON object in schema order.
func WriteJSON(w io.Writer, rec ktp.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode record as JSON: %w", err)
	}
	return nil
}

// WriteYAML writes the record as a YAML mapping in schema order.
func WriteYAML(w io.Writer, rec ktp.Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode record as YAML: %w", err)
	}
	return enc.Close()
}
