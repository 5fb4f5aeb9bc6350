package hocr

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
)

// ErrNoPages is returned when the input holds no ocr_page element.
var ErrNoPages = errors.New("no ocr_page elements found in hOCR data")

// lineClasses are the hOCR classes Tesseract emits for a line of text.
var lineClasses = []string{"ocr_line", "ocr_header", "ocr_caption", "ocr_textfloat"}

var charsetPattern = regexp.MustCompile(`(?i)charset\s*=\s*["']?([\w.:-]+)`)

// Parse converts raw hOCR data into a Document.
func Parse(data []byte) (*Document, error) {
	decoded, err := toUTF8(data)
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR HTML: %w", err)
	}

	doc := &Document{Metadata: make(map[string]string)}
	extractDocumentMeta(doc, root)

	walk(root, func(n *html.Node) bool {
		if hasClass(n, "ocr_page") {
			doc.Pages = append(doc.Pages, processPage(n))
			return false
		}
		return true
	})

	if len(doc.Pages) == 0 {
		return nil, ErrNoPages
	}
	return doc, nil
}

// toUTF8 decodes data according to the charset declared in its head.
// Unknown charsets are read as ISO-8859-1.
func toUTF8(data []byte) ([]byte, error) {
	head := data
	if len(head) > 2048 {
		head = head[:2048]
	}
	m := charsetPattern.FindSubmatch(head)
	if m == nil {
		return data, nil
	}

	enc, name := charset.Lookup(string(m[1]))
	if name == "utf-8" {
		return data, nil
	}
	if enc == nil {
		enc = charmap.ISO8859_1
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", m[1], err)
	}
	return decoded, nil
}

// ParseTitle breaks down an hOCR title attribute into its components
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

// ParseBoundingBoxFromTitle extracts a bounding box from a title string
// Returns nil if the title carries no complete bbox
func ParseBoundingBoxFromTitle(title string) *BoundingBox {
	bbox, ok := ParseTitle(title)["bbox"]
	if !ok || len(bbox) < 4 {
		return nil
	}
	var c [4]float64
	for i := range c {
		v, err := strconv.ParseFloat(bbox[i], 64)
		if err != nil {
			return nil
		}
		c[i] = v
	}
	result := NewBoundingBox(c[0], c[1], c[2], c[3])
	return &result
}

// extractDocumentMeta reads the html lang attribute, the title and the ocr-*
// meta tags.
func extractDocumentMeta(doc *Document, root *html.Node) {
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "html":
			if lang := getAttrVal(n, "lang"); lang != "" {
				doc.Language = lang
			} else if lang := getAttrVal(n, "xml:lang"); lang != "" {
				doc.Language = lang
			}
		case "title":
			doc.Title = extractTextContent(n)
		case "meta":
			name, content := getAttrVal(n, "name"), getAttrVal(n, "content")
			if strings.HasPrefix(name, "ocr-") && content != "" {
				doc.Metadata[name] = content
			}
		case "body":
			return false
		}
		return true
	})
}

func processPage(n *html.Node) Page {
	page := Page{
		ID:   getAttrVal(n, "id"),
		Lang: getAttrVal(n, "lang"),
	}
	title := getAttrVal(n, "title")
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		page.BBox = *bbox
	}
	props := ParseTitle(title)
	if image, ok := props["image"]; ok && len(image) > 0 {
		page.ImageName = strings.Trim(strings.Join(image, " "), `"`)
	}
	if ppageno, ok := props["ppageno"]; ok && len(ppageno) > 0 {
		page.Number, _ = strconv.Atoi(ppageno[0])
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, func(node *html.Node) bool {
			if class, ok := lineClass(node); ok {
				page.Lines = append(page.Lines, processLine(node, class))
				return false
			}
			return true
		})
	}
	return page
}

func processLine(n *html.Node, class string) Line {
	line := Line{
		ID:    getAttrVal(n, "id"),
		Class: class,
	}
	title := getAttrVal(n, "title")
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		line.BBox = *bbox
	}
	if baseline, ok := ParseTitle(title)["baseline"]; ok {
		line.Baseline = strings.Join(baseline, " ")
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, func(node *html.Node) bool {
			if hasClass(node, "ocrx_word") {
				line.Words = append(line.Words, processWord(node))
				return false
			}
			return true
		})
	}
	return line
}

func processWord(n *html.Node) Word {
	word := Word{
		ID:   getAttrVal(n, "id"),
		Text: extractTextContent(n),
	}
	title := getAttrVal(n, "title")
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		word.BBox = *bbox
	}
	if conf, ok := ParseTitle(title)["x_wconf"]; ok && len(conf) > 0 {
		word.Confidence, _ = strconv.ParseFloat(conf[0], 64)
	}
	return word
}

// walk visits n and its descendants depth first. Children of a node are
// skipped when visit returns false for it.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func lineClass(n *html.Node) (string, bool) {
	for _, class := range lineClasses {
		if hasClass(n, class) {
			return class, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(getAttrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// extractTextContent gets all text from a node and its children
func extractTextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(extractTextContent(c))
	}
	return strings.TrimSpace(sb.String())
}

// Get the value of a specific attribute from a node
func getAttrVal(n *html.Node, attrName string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrName {
			return attr.Val
		}
	}
	return ""
}
