// Package hocr reads hOCR, the HTML based format Tesseract and other engines
// use to publish OCR results with layout.
//
// The package keeps the part of the hOCR hierarchy the KTP pipeline needs:
// Document → Pages → Lines → Words. Areas and paragraphs are flattened away;
// lines keep their document order, which is what line oriented field
// extraction depends on.
//
// Key Types:
//
// - Document: An entire hOCR document
// - Page: A single page with class 'ocr_page'
// - Line: A text line ('ocr_line', 'ocr_header', 'ocr_caption', 'ocr_textfloat')
// - Word: A recognized word with class 'ocrx_word'
// - BoundingBox: A rectangle in page coordinates
//
// Main Functions:
//
// - Parse: Parses hOCR HTML into a Document
// - Document.Text: Renders the document as plain text, one line per hOCR line
package hocr
