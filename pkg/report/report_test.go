package report

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ktpocr/pkg/hocr"
	"github.com/gardar/ktpocr/pkg/ktp"
)

func sampleRecord(t *testing.T) ktp.Record {
	t.Helper()
	res, err := ktp.Extract("NIK : 3171234567890123\nNama : BUDI SANTOSO\nRT/RW : 001002\n", ktp.DefaultConfig())
	require.NoError(t, err)
	return res.Record
}

func TestWriteConsole(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteConsole(&buf, sampleRecord(t)))

	want := "\n" + strings.Repeat("=", 40) + "\nSTRUCTURED EXTRACTION RESULT\n" + strings.Repeat("=", 40) + "\n" +
		"NIK                 : 3171234567890123\n" +
		"Nama                : BUDI SANTOSO\n" +
		"RT/RW               : 001/002\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteConsoleEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteConsole(&buf, ktp.Record{}))
	assert.True(t, strings.HasSuffix(buf.String(), RecordBanner+"\n"+strings.Repeat("=", 40)+"\n"))
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, "NIK : 1"))
	assert.Contains(t, buf.String(), TextBanner)
	assert.True(t, strings.HasSuffix(buf.String(), "NIK : 1\n"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRecord(t)))

	out := buf.String()
	assert.JSONEq(t, `{"NIK":"3171234567890123","Nama":"BUDI SANTOSO","RT/RW":"001/002"}`, out)
	assert.Less(t, strings.Index(out, `"NIK"`), strings.Index(out, `"RT/RW"`))
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, sampleRecord(t)))

	assert.Equal(t, "NIK: \"3171234567890123\"\nNama: BUDI SANTOSO\nRT/RW: 001/002\n", buf.String())
}

func cardPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 200, 126))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(10, 10, color.Gray{Y: 0})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestWritePDF(t *testing.T) {
	layout := &hocr.Document{Pages: []hocr.Page{{
		BBox: hocr.NewBoundingBox(0, 0, 200, 126),
		Lines: []hocr.Line{{Words: []hocr.Word{
			{Text: "NIK", BBox: hocr.NewBoundingBox(10, 10, 40, 20)},
			{Text: "3171234567890123", BBox: hocr.NewBoundingBox(50, 10, 190, 20)},
		}}},
	}}}

	opts := DefaultPDFOptions()
	opts.Image = cardPNG(t)
	opts.Layout = layout
	opts.Warnings = []string{"reached end of text"}

	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleRecord(t), opts))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestWritePDFWithoutImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, ktp.Record{}, PDFOptions{Title: "Empty"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWritePDFBadImage(t *testing.T) {
	opts := DefaultPDFOptions()
	opts.Image = []byte("not an image")

	err := WritePDF(&bytes.Buffer{}, ktp.Record{}, opts)
	assert.ErrorContains(t, err, "failed to decode image config")
}

func TestLatin1(t *testing.T) {
	assert.Equal(t, "JAKARTA", latin1("JAKARTA"))
	assert.Equal(t, "caf\xe9", latin1("café"))
	assert.Equal(t, "\x1a", latin1("漢"))
	assert.Equal(t, "JAKARTA \x1a", latin1("JAKARTA 漢"))
}
