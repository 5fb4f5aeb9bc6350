// Package scan runs the card pipeline: load, binarize, recognize, extract.
//
// A Scanner accepts three kinds of input. Images go through preprocess and
// an ocr.Engine; plain text dumps and hOCR files skip recognition. All of
// them end in ktp.Extract.
package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gardar/ktpocr/pkg/hocr"
	"github.com/gardar/ktpocr/pkg/ktp"
	"github.com/gardar/ktpocr/pkg/ocr"
	"github.com/gardar/ktpocr/pkg/preprocess"
)

var (
	// ErrInputNotFound is returned when the input file does not exist.
	ErrInputNotFound = errors.New("input not found")
	// ErrRecognition wraps failures of the OCR engine.
	ErrRecognition = errors.New("text recognition failed")
)

// Config holds the pipeline settings.
type Config struct {
	Extract       ktp.Config
	Language      string // OCR language hint, "+" separated
	SaveProcessed bool   // keep the binarized image under OutputDir
	OutputDir     string
	Concurrency   int // parallel scans in ScanAll, <= 0 means 1
}

// DefaultConfig returns the settings of a plain single card run.
func DefaultConfig() Config {
	return Config{
		Extract:     ktp.DefaultConfig(),
		Language:    ocr.DefaultLanguage,
		OutputDir:   "output",
		Concurrency: 1,
	}
}

// Result is the outcome of one scan.
type Result struct {
	Source        string
	Text          string // OCR text handed to extraction
	Record        ktp.Record
	Warnings      []string
	Layout        *hocr.Document // word layout, when the source provides one
	Image         []byte         // binarized PNG, for image sources
	ProcessedPath string         // where the binarized image was saved, if at all
	Err           error          // set by ScanAll when this item failed
}

// Scanner runs scans. It is safe for concurrent use when its engine is.
type Scanner struct {
	engine ocr.Engine
	cfg    Config
	logger *zap.Logger

	saveMu sync.Mutex
}

// New returns a Scanner. engine may be nil when only text and hOCR inputs
// are scanned. A nil logger discards logs.
func New(engine ocr.Engine, cfg Config, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Scanner{engine: engine, cfg: cfg, logger: logger}
}

// ScanImage binarizes the image at path, recognizes it and extracts the
// record.
func (s *Scanner) ScanImage(ctx context.Context, path string) (*Result, error) {
	if err := checkInput(path); err != nil {
		return nil, err
	}
	if s.engine == nil {
		return nil, fmt.Errorf("%w: no OCR engine configured", ErrRecognition)
	}

	logger := s.logger.With(zap.String("source", path))
	logger.Debug("starting image processing")

	img, err := preprocess.Open(path)
	if err != nil {
		return nil, err
	}
	binary := preprocess.Binarize(img)

	res := &Result{Source: path}
	if s.cfg.SaveProcessed {
		saved, err := s.saveProcessed(binary, path)
		if err != nil {
			return nil, err
		}
		res.ProcessedPath = saved
		logger.Info("processed image saved", zap.String("path", saved))
	}

	res.Image, err = preprocess.EncodePNG(binary)
	if err != nil {
		return nil, err
	}

	logger.Debug("extracting text", zap.String("language", s.cfg.Language))
	text, err := s.engine.Recognize(ctx, res.Image, s.cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRecognition, path, err)
	}
	res.Text = text

	if err := s.extract(res, logger); err != nil {
		return nil, err
	}
	return res, nil
}

// ScanText extracts the record from a plain OCR text dump.
func (s *Scanner) ScanText(path string) (*Result, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	res := &Result{Source: path, Text: string(data)}
	if err := s.extract(res, s.logger.With(zap.String("source", path))); err != nil {
		return nil, err
	}
	return res, nil
}

// ScanHOCR extracts the record from an hOCR file, one text line per hOCR
// line.
func (s *Scanner) ScanHOCR(path string) (*Result, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	doc, err := hocr.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR %s: %w", path, err)
	}
	res := &Result{Source: path, Text: doc.Text(), Layout: doc}
	if err := s.extract(res, s.logger.With(zap.String("source", path))); err != nil {
		return nil, err
	}
	return res, nil
}

// ScanAll scans every image in paths with at most Config.Concurrency scans
// in flight. Results keep the order of paths. A failed scan sets Err on its
// own result and does not stop the others.
func (s *Scanner) ScanAll(ctx context.Context, paths []string) []*Result {
	results := make([]*Result, len(paths))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res, err := s.ScanImage(ctx, path)
			if err != nil {
				s.logger.Error("scan failed", zap.String("source", path), zap.Error(err))
				res = &Result{Source: path, Err: err}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Scanner) extract(res *Result, logger *zap.Logger) error {
	logger.Debug("parsing structured data")
	out, err := ktp.Extract(res.Text, s.cfg.Extract)
	if err != nil {
		return fmt.Errorf("%s: %w", res.Source, err)
	}
	res.Record = out.Record
	res.Warnings = out.Warnings
	for _, w := range out.Warnings {
		logger.Warn("incomplete extraction", zap.String("warning", w))
	}
	logger.Debug("extraction finished", zap.Int("fields", out.Record.Len()))
	return nil
}

// saveProcessed writes the binarized image as "<name>_processed.jpg" under
// the output directory. Saves are serialized so concurrent scans of equally
// named files get distinct names.
func (s *Scanner) saveProcessed(img *image.Gray, source string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return preprocess.SaveUnique(img, s.cfg.OutputDir, stem+"_processed.jpg")
}

func checkInput(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return nil
}

func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
