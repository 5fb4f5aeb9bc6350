package gdocai

import (
	"bytes"
	"net/http"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

// tesseractToBCP47 maps Tesseract language packs to the BCP-47 codes
// Document AI accepts as hints.
var tesseractToBCP47 = map[string]string{
	"ind": "id",
	"eng": "en",
	"jav": "jv",
	"sun": "su",
	"msa": "ms",
}

// newProcessRequest builds the request for one raw image.
func newProcessRequest(cfg Config, content []byte, mimeType string, hints []string) *documentaipb.ProcessRequest {
	req := &documentaipb.ProcessRequest{
		Name: cfg.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
		SkipHumanReview: true,
	}
	if len(hints) > 0 {
		req.ProcessOptions = &documentaipb.ProcessOptions{
			OcrConfig: &documentaipb.OcrConfig{
				Hints: &documentaipb.OcrConfig_Hints{LanguageHints: hints},
			},
		}
	}
	return req
}

// languageHints converts a "+" separated Tesseract language string.
// Unknown codes are passed through.
func languageHints(lang string) []string {
	var hints []string
	for _, code := range strings.Split(lang, "+") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if mapped, ok := tesseractToBCP47[code]; ok {
			code = mapped
		}
		hints = append(hints, code)
	}
	return hints
}

// detectMimeType sniffs the image format. TIFF is checked by hand since
// http.DetectContentType does not know it.
func detectMimeType(data []byte) string {
	if bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")) {
		return "image/tiff"
	}
	return http.DetectContentType(data)
}
