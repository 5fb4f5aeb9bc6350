package hocr

import "strings"

// Document represents a parsed hOCR document
type Document struct {
	Title    string            // Document title
	Language string            // Document language
	Metadata map[string]string // ocr-system, ocr-langs and similar meta tags
	Pages    []Page            // Pages in the document
}

// Page is one page of recognized text
// Corresponds to hOCR element with class: 'ocr_page'
type Page struct {
	ID        string      // Unique identifier
	Number    int         // Physical page number (ppageno), 0 when absent
	ImageName string      // Source image filename
	Lang      string      // Language code for this page
	BBox      BoundingBox // Page coordinates
	Lines     []Line      // Every line on the page, in document order
}

// Line represents a line of text
type Line struct {
	ID       string      // Unique identifier
	Class    string      // hOCR class the line was found under
	BBox     BoundingBox // Line coordinates
	Baseline string      // Baseline information
	Words    []Word      // Words in this line
}

// Word is a recognized word with bounding box
// Corresponds to hOCR element with class: 'ocrx_word'
type Word struct {
	ID         string      // Unique identifier
	Text       string      // The actual text content
	BBox       BoundingBox // Word coordinates
	Confidence float64     // Recognition confidence (0-100)
}

// BoundingBox represents a rectangle in the document
// Used to store hOCR 'bbox' property values
type BoundingBox struct {
	X1 float64 // Left coordinate
	Y1 float64 // Top coordinate
	X2 float64 // Right coordinate
	Y2 float64 // Bottom coordinate
}

// NewBoundingBox creates a bounding box from the top-left (x1, y1) and
// bottom-right (x2, y2) corners.
func NewBoundingBox(x1, y1, x2, y2 float64) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Text joins the words of the line with single spaces.
func (l Line) Text() string {
	words := make([]string, 0, len(l.Words))
	for _, w := range l.Words {
		if w.Text != "" {
			words = append(words, w.Text)
		}
	}
	return strings.Join(words, " ")
}

// Text renders the page with one text line per hOCR line.
func (p Page) Text() string {
	lines := make([]string, 0, len(p.Lines))
	for _, l := range p.Lines {
		lines = append(lines, l.Text())
	}
	return strings.Join(lines, "\n")
}

// Text renders the document page by page, pages separated by a blank line.
func (d *Document) Text() string {
	pages := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		pages = append(pages, p.Text())
	}
	return strings.Join(pages, "\n\n")
}
