// Package gdocai recognizes card images with Google Document AI.
//
// Engine implements ocr.Engine on top of a Document AI OCR processor. The
// raw image is sent with language hints and the response is rebuilt into an
// hocr.Document, one line per Document AI page line, so the extraction
// pipeline sees the same line structure it gets from Tesseract.
//
// Usage requirements:
//
// - Google Cloud project with Document AI API enabled
// - Document AI processor configured for OCR
// - Authentication via GOOGLE_APPLICATION_CREDENTIALS environment variable
package gdocai

import (
	"context"
	"errors"
	"fmt"
	"os"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// Config identifies the Document AI processor.
type Config struct {
	ProjectID   string `yaml:"project_id"`
	Location    string `yaml:"location"`
	ProcessorID string `yaml:"processor_id"`
}

// Validate reports the first missing setting.
func (c Config) Validate() error {
	switch {
	case c.ProjectID == "":
		return errors.New("gdocai: project_id is required")
	case c.Location == "":
		return errors.New("gdocai: location is required")
	case c.ProcessorID == "":
		return errors.New("gdocai: processor_id is required")
	}
	return nil
}

// ProcessorName is the resource name of the processor.
func (c Config) ProcessorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// Endpoint is the regional API endpoint for the processor location.
func (c Config) Endpoint() string {
	return fmt.Sprintf("%s-documentai.googleapis.com:443", c.Location)
}

// processor is the slice of the Document AI client the engine uses.
type processor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

// Engine is an ocr.Engine backed by a Document AI processor. It is safe for
// concurrent use.
type Engine struct {
	cfg    Config
	client processor

	// OnDocument, when set, receives every raw response before it is
	// converted. Used for debug dumps.
	OnDocument func(*documentaipb.Document)
}

// New creates a client for the configured processor. Credentials come from
// GOOGLE_APPLICATION_CREDENTIALS when set, otherwise from the default
// application credentials. Extra client options are appended.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientOpts := []option.ClientOption{option.WithEndpoint(cfg.Endpoint())}
	if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(creds))
	}
	clientOpts = append(clientOpts, opts...)

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	return &Engine{cfg: cfg, client: client}, nil
}

// Recognize sends image to Document AI and returns its text, one line per
// detected line and pages separated by a blank line.
func (e *Engine) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	if len(image) == 0 {
		return "", errors.New("gdocai: empty image")
	}

	doc, err := e.Process(ctx, image, lang)
	if err != nil {
		return "", err
	}

	converted := DocumentFromProto(doc)
	if len(converted.Pages) == 0 {
		return doc.GetText(), nil
	}
	return converted.Text(), nil
}

// Process sends image to Document AI and returns the raw Document proto.
func (e *Engine) Process(ctx context.Context, image []byte, lang string) (*documentaipb.Document, error) {
	req := newProcessRequest(e.cfg, image, detectMimeType(image), languageHints(lang))

	resp, err := e.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}
	doc := resp.GetDocument()
	if doc == nil {
		return nil, errors.New("gdocai: response carries no document")
	}
	if e.OnDocument != nil {
		e.OnDocument(doc)
	}
	return doc, nil
}

// Close releases the underlying client.
func (e *Engine) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}
