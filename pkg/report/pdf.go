package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/ktpocr/pkg/hocr"
	"github.com/gardar/ktpocr/pkg/ktp"
)

// ID-1 card size in millimetres.
const (
	cardWidth  = 85.6
	cardHeight = 53.98
)

// FontConfig contains font settings for text rendering
type FontConfig struct {
	Name        string  // Font name (e.g., "Helvetica")
	Style       string  // Font style ("", "B", "I", "BI")
	Size        float64 // Default font size
	AscentRatio float64 // Vertical positioning ratio
}

// DefaultFont is Helvetica, a core PDF font that needs no embedding
var DefaultFont = FontConfig{
	Name:        "Helvetica",
	Style:       "",
	Size:        10,
	AscentRatio: 0.718,
}

// PDFOptions controls WritePDF.
type PDFOptions struct {
	Title    string
	Font     FontConfig
	Image    []byte         // card image, PNG, JPEG or GIF; optional
	Layout   *hocr.Document // word boxes of Image, drawn as a hidden text layer
	Warnings []string
	Debug    bool // draw the text layer visibly with word boxes
}

// DefaultPDFOptions returns options with the default font and title.
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		Title: "KTP Extraction Report",
		Font:  DefaultFont,
	}
}

// WritePDF renders rec as a single A4 page.
func WritePDF(w io.Writer, rec ktp.Record, opts PDFOptions) error {
	if opts.Font.Name == "" {
		opts.Font = DefaultFont
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(opts.Title, true)
	pdf.SetCreator("ktpocr", true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(opts.Font.Name, "B", opts.Font.Size+4)
	pdf.CellFormat(0, 10, latin1(opts.Title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(opts.Image) > 0 {
		if err := drawCard(pdf, opts); err != nil {
			return err
		}
	}

	drawRecordTable(pdf, rec, opts.Font)

	if len(opts.Warnings) > 0 {
		pdf.Ln(4)
		pdf.SetFont(opts.Font.Name, "I", opts.Font.Size-1)
		pdf.SetTextColor(160, 60, 0)
		for _, warning := range opts.Warnings {
			pdf.MultiCell(0, 5, latin1("Warning: "+warning), "", "L", false)
		}
		pdf.SetTextColor(0, 0, 0)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}
	return nil
}

// drawCard places the card image at ID-1 width and overlays the text layer
// when a layout is available.
func drawCard(pdf *fpdf.Fpdf, opts PDFOptions) error {
	cfg, imageType, err := detectImageType(opts.Image)
	if err != nil {
		return err
	}

	width := cardWidth
	height := cardHeight
	if cfg.Width > 0 {
		height = width * float64(cfg.Height) / float64(cfg.Width)
	}

	x, y := pdf.GetX(), pdf.GetY()
	imgOpts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
	pdf.RegisterImageOptionsReader("card", imgOpts, bytes.NewReader(opts.Image))
	pdf.ImageOptions("card", x, y, width, height, false, imgOpts, 0, "")

	if opts.Layout != nil && len(opts.Layout.Pages) > 0 {
		page := opts.Layout.Pages[0]
		srcW, srcH := page.BBox.X2, page.BBox.Y2
		if srcW <= 0 || srcH <= 0 {
			srcW, srcH = float64(cfg.Width), float64(cfg.Height)
		}
		transform := func(px, py float64) (float64, float64) {
			return x + px/srcW*width, y + py/srcH*height
		}
		if err := drawTextLayer(pdf, page, transform, opts.Font, opts.Debug); err != nil {
			return err
		}
	}

	pdf.SetXY(x, y+height+6)
	return pdf.Error()
}

// drawTextLayer draws every word of page at its box, invisible unless debug
// is set.
func drawTextLayer(pdf *fpdf.Fpdf, page hocr.Page, transform func(x, y float64) (float64, float64),
	font FontConfig, debug bool) error {

	layer := pdf.AddLayer("OCR Text", true)
	pdf.BeginLayer(layer)
	pdf.SetFont(font.Name, font.Style, font.Size)
	if debug {
		pdf.SetTextColor(255, 0, 0)
	} else {
		pdf.SetAlpha(0.0, "Normal")
	}

	encodingErrors, wordCount := 0, 0
	for _, line := range page.Lines {
		for _, word := range line.Words {
			if word.Text == "" {
				continue
			}
			wordCount++

			text, err := charmap.ISO8859_1.NewEncoder().String(word.Text)
			if err != nil {
				encodingErrors++
				text = latin1(word.Text)
			}

			x1, y1 := transform(word.BBox.X1, word.BBox.Y1)
			x2, y2 := transform(word.BBox.X2, word.BBox.Y2)
			if sw := pdf.GetStringWidth(text); sw > 0 && x2 > x1 {
				pdf.SetFontSize(font.Size * (x2 - x1) / sw)
			}
			_, size := pdf.GetFontSize()
			pdf.Text(x1, y1+size*font.AscentRatio, text)
			pdf.SetFontSize(font.Size)

			if debug {
				pdf.Rect(x1, y1, x2-x1, y2-y1, "D")
			}
		}
	}

	if debug {
		pdf.SetTextColor(0, 0, 0)
	} else {
		pdf.SetAlpha(1.0, "Normal")
	}
	pdf.EndLayer()

	if wordCount > 0 && encodingErrors > wordCount/10 {
		return fmt.Errorf("character encoding issues in %d of %d words", encodingErrors, wordCount)
	}
	return nil
}

func drawRecordTable(pdf *fpdf.Fpdf, rec ktp.Record, font FontConfig) {
	const keyWidth, valueWidth, rowHeight = 50.0, 130.0, 7.0

	pdf.SetFont(font.Name, "B", font.Size)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(keyWidth, rowHeight, "Field", "1", 0, "L", true, 0, "")
	pdf.CellFormat(valueWidth, rowHeight, "Value", "1", 1, "L", true, 0, "")

	pdf.SetFont(font.Name, font.Style, font.Size)
	if rec.Len() == 0 {
		pdf.CellFormat(keyWidth+valueWidth, rowHeight, "No fields extracted", "1", 1, "C", false, 0, "")
		return
	}
	for _, e := range rec.Entries() {
		pdf.CellFormat(keyWidth, rowHeight, latin1(e.Field.String()), "1", 0, "L", false, 0, "")
		pdf.CellFormat(valueWidth, rowHeight, latin1(e.Value), "1", 1, "L", false, 0, "")
	}
}

// detectImageType returns the image dimensions and the fpdf type name.
func detectImageType(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("failed to decode image config: %w", err)
	}
	switch format {
	case "png", "jpeg", "gif":
		return cfg, strings.ToUpper(format), nil
	}
	return image.Config{}, "", fmt.Errorf("unsupported image format %q for PDF", format)
}

// latin1 maps s onto ISO-8859-1, the encoding of the core PDF fonts.
// Runes outside it become the charmap replacement byte.
func latin1(s string) string {
	out, err := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder()).String(s)
	if err != nil {
		return s
	}
	return out
}
