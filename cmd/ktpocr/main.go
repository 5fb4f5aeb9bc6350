// ktpocr extracts the fields of an Indonesian identity card (KTP).
//
// The card image is binarized, recognized with Tesseract or Google Document
// AI and the OCR text is mapped onto the 14 KTP fields. A saved OCR text dump
// or an hOCR file can be used instead of an image.
//
// Usage:
//
//	ktpocr [-config config.yml] (-image card.jpg | -images 'cards/**/*.jpg' | -text ocr.txt | -hocr ocr.hocr) [options]
//
// Input flags (exactly one, or IMAGE_PATH in the environment):
//
//	-image string   Path to a card image
//	-images string  Glob of card images to scan in batch (supports **)
//	-text string    Path to a plain OCR text dump
//	-hocr string    Path to an hOCR file
//
// Engine options:
//
//	-engine string        tesseract or gdocai (default from config, tesseract)
//	-lang string          OCR language, "+" separated (default ind)
//	-save-processed       Keep the binarized image in the output directory
//	-output-dir string    Directory for processed images
//	-debug-api string     Path to save each Document AI response as JSON
//
// Output options:
//
//	-json string   Path to save the record as JSON
//	-yaml string   Path to save the record as YAML
//	-pdf string    Path to save a PDF report (single input only)
//	-raw           Also print the OCR text
//
// Configuration:
//
// Settings are read from the YAML file given with -config, then from a
// dotenv file (-env, default .env), then from TESSDATA_PREFIX, IMAGE_PATH,
// OUTPUT_DIR and KTPOCR_CONCURRENCY. Flags win over all of them. Document
// AI authenticates with GOOGLE_APPLICATION_CREDENTIALS.
//
//	engine: gdocai
//	language: ind
//	localities: ["JAKARTA TIMUR"]
//	gdocai:
//	  project_id: "your-gcp-project-id"
//	  location: "us"
//	  processor_id: "your-processor-id"
//
// Exit status is 2 when the input does not exist and 1 on any other failure.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"go.uber.org/zap"

	"github.com/gardar/ktpocr/pkg/gdocai"
	"github.com/gardar/ktpocr/pkg/ocr"
	"github.com/gardar/ktpocr/pkg/preprocess"
	"github.com/gardar/ktpocr/pkg/report"
	"github.com/gardar/ktpocr/pkg/scan"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitNotFound = 2
)

type options struct {
	configPath string
	envPath    string

	image  string
	images string
	text   string
	hocr   string

	engine        string
	lang          string
	saveProcessed bool
	outputDir     string
	debugAPI      string

	jsonPath string
	yamlPath string
	pdfPath  string
	raw      bool
	logLevel string

	provided map[string]bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("ktpocr", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{provided: make(map[string]bool)}
	fs.StringVar(&o.configPath, "config", "", "Path to the config YAML file")
	fs.StringVar(&o.envPath, "env", "", "Path to a dotenv file (default .env when present)")
	fs.StringVar(&o.image, "image", "", "Path to a card image")
	fs.StringVar(&o.images, "images", "", "Glob of card images to scan in batch")
	fs.StringVar(&o.text, "text", "", "Path to a plain OCR text dump")
	fs.StringVar(&o.hocr, "hocr", "", "Path to an hOCR file")
	fs.StringVar(&o.engine, "engine", "", "OCR engine: tesseract or gdocai")
	fs.StringVar(&o.lang, "lang", "", "OCR language, \"+\" separated")
	fs.BoolVar(&o.saveProcessed, "save-processed", false, "Keep the binarized image in the output directory")
	fs.StringVar(&o.outputDir, "output-dir", "", "Directory for processed images")
	fs.StringVar(&o.debugAPI, "debug-api", "", "Path to save Document AI responses as JSON")
	fs.StringVar(&o.jsonPath, "json", "", "Path to save the record as JSON")
	fs.StringVar(&o.yamlPath, "yaml", "", "Path to save the record as YAML")
	fs.StringVar(&o.pdfPath, "pdf", "", "Path to save a PDF report")
	fs.BoolVar(&o.raw, "raw", false, "Also print the OCR text")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		o.provided[f.Name] = true
	})

	for _, name := range []string{"config", "env", "image", "images", "text", "hocr", "output-dir", "debug-api", "json", "yaml", "pdf"} {
		if o.provided[name] && fs.Lookup(name).Value.String() == "" {
			return nil, fmt.Errorf("-%s flag requires a value", name)
		}
	}
	return o, nil
}

// inputCount is the number of input flags given.
func (o *options) inputCount() int {
	n := 0
	for _, v := range []string{o.image, o.images, o.text, o.hocr} {
		if v != "" {
			n++
		}
	}
	return n
}

// apply lets flags override the loaded configuration.
func (o *options) apply(cfg *Config) {
	if o.engine != "" {
		cfg.Engine = o.engine
	}
	if o.lang != "" {
		cfg.Language = o.lang
	}
	if o.provided["save-processed"] {
		cfg.SaveProcessed = o.saveProcessed
	}
	if o.outputDir != "" {
		cfg.OutputDir = o.outputDir
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return exitFailure
	}

	logger, level, err := newLogger(stderr, "info")
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitFailure
	}
	defer logger.Sync() //nolint:errcheck

	envPath, envRequired := o.envPath, true
	if envPath == "" {
		envPath, envRequired = ".env", false
	}
	cfg, err := loadConfig(o.configPath, envPath, envRequired)
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return exitFailure
	}
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return exitFailure
	}
	lvl, _ := parseLevel(cfg.LogLevel)
	level.SetLevel(lvl)

	if o.inputCount() == 0 && cfg.ImagePath != "" {
		o.image = cfg.ImagePath
	}
	switch {
	case o.inputCount() != 1:
		logger.Error("exactly one of -image, -images, -text or -hocr is required")
		return exitFailure
	case o.pdfPath != "" && o.images != "":
		logger.Error("-pdf is only supported for a single input")
		return exitFailure
	}

	app := &cli{opts: o, cfg: cfg, logger: logger, stdout: stdout}
	err = app.execute(ctx)
	switch {
	case err == nil:
		logger.Info("process completed")
		return exitOK
	case errors.Is(err, scan.ErrInputNotFound):
		logger.Error("input not found", zap.Error(err))
		return exitNotFound
	default:
		logger.Error("process failed", zap.Error(err))
		return exitFailure
	}
}

type cli struct {
	opts   *options
	cfg    *Config
	logger *zap.Logger
	stdout io.Writer
}

func (c *cli) execute(ctx context.Context) error {
	var engine ocr.Engine
	if c.opts.image != "" || c.opts.images != "" {
		var err error
		engine, err = c.newEngine(ctx)
		if err != nil {
			return err
		}
		defer engine.Close()
	}
	scanner := scan.New(engine, c.cfg.scanConfig(), c.logger)

	if c.opts.images != "" {
		return c.batch(ctx, scanner)
	}

	var (
		res *scan.Result
		err error
	)
	switch {
	case c.opts.image != "":
		res, err = scanner.ScanImage(ctx, c.opts.image)
	case c.opts.text != "":
		res, err = scanner.ScanText(c.opts.text)
	default:
		res, err = scanner.ScanHOCR(c.opts.hocr)
	}
	if err != nil {
		return err
	}
	return c.writeResult(res)
}

func (c *cli) newEngine(ctx context.Context) (ocr.Engine, error) {
	switch c.cfg.Engine {
	case engineGDocAI:
		engine, err := gdocai.New(ctx, c.cfg.GDocAI)
		if err != nil {
			return nil, err
		}
		if c.opts.debugAPI != "" {
			engine.OnDocument = c.dumpDocument
		}
		c.logger.Debug("using Document AI", zap.String("processor", c.cfg.GDocAI.ProcessorName()))
		return engine, nil
	default:
		engine, err := ocr.NewTesseract(
			ocr.WithLanguage(c.cfg.Language),
			ocr.WithPageSegMode(c.cfg.PageSegMode),
			ocr.WithTessdataPrefix(c.cfg.TessdataPrefix),
		)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("using Tesseract", zap.String("language", c.cfg.Language))
		return engine, nil
	}
}

// dumpDocument saves a raw Document AI response next to -debug-api without
// overwriting earlier dumps.
func (c *cli) dumpDocument(doc *documentaipb.Document) {
	out, err := gdocai.ToJSON(doc)
	if err != nil {
		c.logger.Warn("failed to convert API response to JSON", zap.Error(err))
		return
	}
	path := preprocess.UniquePath(c.opts.debugAPI)
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		c.logger.Warn("failed to write API response JSON", zap.Error(err))
		return
	}
	c.logger.Info("API response JSON saved", zap.String("path", path))
}

func (c *cli) writeResult(res *scan.Result) error {
	if c.opts.raw {
		if err := report.WriteText(c.stdout, res.Text); err != nil {
			return err
		}
	}
	if err := report.WriteConsole(c.stdout, res.Record); err != nil {
		return err
	}

	if c.opts.jsonPath != "" {
		if err := writeFile(c.opts.jsonPath, func(w io.Writer) error { return report.WriteJSON(w, res.Record) }); err != nil {
			return err
		}
		c.logger.Info("record saved", zap.String("path", c.opts.jsonPath))
	}
	if c.opts.yamlPath != "" {
		if err := writeFile(c.opts.yamlPath, func(w io.Writer) error { return report.WriteYAML(w, res.Record) }); err != nil {
			return err
		}
		c.logger.Info("record saved", zap.String("path", c.opts.yamlPath))
	}
	if c.opts.pdfPath != "" {
		opts := report.DefaultPDFOptions()
		opts.Image = res.Image
		opts.Layout = res.Layout
		opts.Warnings = res.Warnings
		if err := writeFile(c.opts.pdfPath, func(w io.Writer) error { return report.WritePDF(w, res.Record, opts) }); err != nil {
			return err
		}
		c.logger.Info("report saved", zap.String("path", c.opts.pdfPath))
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return write(f)
}
