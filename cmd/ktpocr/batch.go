package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gardar/ktpocr/pkg/ktp"
	"github.com/gardar/ktpocr/pkg/report"
	"github.com/gardar/ktpocr/pkg/scan"
)

// batchEntry is one item of the batch JSON and YAML outputs.
type batchEntry struct {
	Source   string     `json:"source" yaml:"source"`
	Record   ktp.Record `json:"record" yaml:"record"`
	Warnings []string   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Error    string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// expandImages resolves a -images pattern to a sorted list of files.
func expandImages(pattern string) ([]string, error) {
	paths, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid -images pattern: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files match %s", scan.ErrInputNotFound, pattern)
	}
	sort.Strings(paths)
	return paths, nil
}

func (c *cli) batch(ctx context.Context, scanner *scan.Scanner) error {
	paths, err := expandImages(c.opts.images)
	if err != nil {
		return err
	}
	c.logger.Info("scanning images", zap.Int("count", len(paths)), zap.Int("concurrency", c.cfg.Concurrency))

	results := scanner.ScanAll(ctx, paths)

	entries := make([]batchEntry, 0, len(results))
	failed := 0
	for _, res := range results {
		entry := batchEntry{Source: res.Source, Record: res.Record, Warnings: res.Warnings}
		fmt.Fprintf(c.stdout, "\n%s\n", res.Source)
		if res.Err != nil {
			failed++
			entry.Error = res.Err.Error()
			fmt.Fprintf(c.stdout, "error: %v\n", res.Err)
		} else {
			if c.opts.raw {
				if err := report.WriteText(c.stdout, res.Text); err != nil {
					return err
				}
			}
			if err := report.WriteConsole(c.stdout, res.Record); err != nil {
				return err
			}
		}
		entries = append(entries, entry)
	}

	if c.opts.jsonPath != "" {
		if err := writeFile(c.opts.jsonPath, func(w io.Writer) error { return writeBatchJSON(w, entries) }); err != nil {
			return err
		}
	}
	if c.opts.yamlPath != "" {
		if err := writeFile(c.opts.yamlPath, func(w io.Writer) error { return writeBatchYAML(w, entries) }); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scans failed", failed, len(results))
	}
	return nil
}

func writeBatchJSON(w io.Writer, entries []batchEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(entries)
}

func writeBatchYAML(w io.Writer, entries []batchEntry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return err
	}
	return enc.Close()
}
