package gdocai

import (
	"fmt"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/ktpocr/pkg/hocr"
)

// DocumentFromProto rebuilds a Document AI response as an hocr.Document.
// Every page line becomes an hocr.Line holding the tokens whose text anchor
// falls inside it.
func DocumentFromProto(doc *documentaipb.Document) *hocr.Document {
	out := &hocr.Document{
		Language: documentLanguage(doc),
		Metadata: map[string]string{"ocr-system": "google-documentai"},
	}
	if doc == nil {
		return out
	}
	for i, page := range doc.Pages {
		out.Pages = append(out.Pages, pageFromProto(page, doc.Text, i+1))
	}
	return out
}

func pageFromProto(page *documentaipb.Document_Page, fullText string, pageNumber int) hocr.Page {
	if n := int(page.GetPageNumber()); n > 0 {
		pageNumber = n
	}
	out := hocr.Page{
		ID:     fmt.Sprintf("page_%d", pageNumber),
		Number: pageNumber,
	}
	if len(page.DetectedLanguages) > 0 {
		out.Lang = page.DetectedLanguages[0].LanguageCode
	}
	if dim := page.GetDimension(); dim != nil {
		out.BBox = hocr.NewBoundingBox(0, 0, float64(dim.Width), float64(dim.Height))
	}

	for lidx, line := range page.Lines {
		out.Lines = append(out.Lines, lineFromProto(line, page, fullText, pageNumber, lidx))
	}
	return out
}

func lineFromProto(line *documentaipb.Document_Page_Line, page *documentaipb.Document_Page,
	fullText string, pageNumber, lineIdx int) hocr.Line {

	out := hocr.Line{
		ID:    fmt.Sprintf("line_%d_%d", pageNumber, lineIdx),
		Class: "ocr_line",
	}
	if bbox, ok := boundingBox(line.Layout, page.Dimension); ok {
		out.BBox = bbox
	}

	for tidx, token := range page.Tokens {
		if !containedIn(token.Layout, line.Layout) {
			continue
		}
		text := cleanTokenText(textFromLayout(token.Layout, fullText))
		if text == "" {
			continue
		}
		word := hocr.Word{
			ID:   fmt.Sprintf("word_%d_%d_%d", pageNumber, lineIdx, tidx),
			Text: text,
		}
		if bbox, ok := boundingBox(token.Layout, page.Dimension); ok {
			word.BBox = bbox
		}
		if token.Layout != nil {
			word.Confidence = float64(token.Layout.Confidence * 100)
		}
		out.Words = append(out.Words, word)
	}

	// Responses without tokens still carry the line text.
	if len(out.Words) == 0 {
		if text := cleanTokenText(textFromLayout(line.Layout, fullText)); text != "" {
			out.Words = []hocr.Word{{
				ID:   fmt.Sprintf("word_%d_%d_0", pageNumber, lineIdx),
				Text: text,
				BBox: out.BBox,
			}}
			if line.Layout != nil {
				out.Words[0].Confidence = float64(line.Layout.Confidence * 100)
			}
		}
	}
	return out
}

// boundingBox converts the layout polygon to pixel coordinates. Normalized
// vertices are scaled by the page dimension.
func boundingBox(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) (hocr.BoundingBox, bool) {
	poly := layout.GetBoundingPoly()
	if poly == nil {
		return hocr.BoundingBox{}, false
	}

	var xs, ys []float64
	switch {
	case len(poly.NormalizedVertices) > 0 && dim != nil:
		for _, v := range poly.NormalizedVertices {
			xs = append(xs, float64(v.X*dim.Width))
			ys = append(ys, float64(v.Y*dim.Height))
		}
	case len(poly.Vertices) > 0:
		for _, v := range poly.Vertices {
			xs = append(xs, float64(v.X))
			ys = append(ys, float64(v.Y))
		}
	default:
		return hocr.BoundingBox{}, false
	}

	return hocr.NewBoundingBox(minOf(xs), minOf(ys), maxOf(xs), maxOf(ys)), true
}

// containedIn reports whether the first text segment of element lies inside
// the first text segment of parent.
func containedIn(element, parent *documentaipb.Document_Page_Layout) bool {
	es := element.GetTextAnchor().GetTextSegments()
	ps := parent.GetTextAnchor().GetTextSegments()
	if len(es) == 0 || len(ps) == 0 {
		return false
	}
	return es[0].StartIndex >= ps[0].StartIndex && es[0].EndIndex <= ps[0].EndIndex
}

// documentLanguage finds the most common language in the document
// by counting language occurrences across pages and tokens.
func documentLanguage(doc *documentaipb.Document) string {
	langCount := make(map[string]int)
	for _, page := range doc.GetPages() {
		for _, lang := range page.DetectedLanguages {
			langCount[lang.LanguageCode]++
		}
		for _, token := range page.Tokens {
			for _, lang := range token.DetectedLanguages {
				langCount[lang.LanguageCode]++
			}
		}
	}

	var best string
	var highest int
	for lang, count := range langCount {
		if count > highest || (count == highest && lang < best) {
			highest = count
			best = lang
		}
	}
	return best
}

func minOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		m = min(m, v)
	}
	return m
}

func maxOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		m = max(m, v)
	}
	return m
}
