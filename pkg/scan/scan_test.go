package scan

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gardar/ktpocr/pkg/ktp"
	"github.com/gardar/ktpocr/pkg/ocr/mock"
	"github.com/gardar/ktpocr/pkg/preprocess"
)

const cardText = `PROVINSI DKI JAKARTA
JAKARTA TIMUR
NIK : 3171234567890123
Nama : BUDI SANTOSO
RT/RW : 001002
KEBON MANGGIS
MATRAMAN
ISLAM
KAWIN
KARYAWAN SWASTA WNI
`

func writeCardImage(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 64; x++ {
			c := color.RGBA{R: 230, G: 230, B: 230, A: 255}
			if x > 10 && x < 50 && y > 15 && y < 25 {
				c = color.RGBA{R: 20, G: 20, B: 20, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	data, err := preprocess.EncodePNG(img)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func testConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	return cfg
}

func TestScanImage(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mock.NewMockEngine(ctrl)
	engine.EXPECT().
		Recognize(gomock.Any(), gomock.Any(), "ind").
		DoAndReturn(func(_ context.Context, img []byte, _ string) (string, error) {
			_, err := preprocess.Decode(img)
			require.NoError(t, err)
			return cardText, nil
		})

	path := writeCardImage(t, t.TempDir(), "card.png")
	s := New(engine, testConfig(t), zaptest.NewLogger(t))

	res, err := s.ScanImage(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, res.Source)
	assert.NotEmpty(t, res.Image)
	assert.Empty(t, res.ProcessedPath)
	assert.Empty(t, res.Warnings)

	nik, _ := res.Record.Get(ktp.NIK)
	assert.Equal(t, "3171234567890123", nik)
	rtrw, _ := res.Record.Get(ktp.RTRW)
	assert.Equal(t, "001/002", rtrw)
	job, _ := res.Record.Get(ktp.Pekerjaan)
	assert.Equal(t, "KARYAWAN SWASTA WNI", job)
	nationality, _ := res.Record.Get(ktp.Kewarganegaraan)
	assert.Equal(t, "WNI", nationality)
}

func TestScanImageSavesProcessed(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mock.NewMockEngine(ctrl)
	engine.EXPECT().Recognize(gomock.Any(), gomock.Any(), gomock.Any()).Return(cardText, nil).Times(2)

	cfg := testConfig(t)
	cfg.SaveProcessed = true
	s := New(engine, cfg, nil)
	path := writeCardImage(t, t.TempDir(), "card.png")

	first, err := s.ScanImage(context.Background(), path)
	require.NoError(t, err)
	second, err := s.ScanImage(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.OutputDir, "card_processed.jpg"), first.ProcessedPath)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "card_processed [1].jpg"), second.ProcessedPath)
	assert.FileExists(t, first.ProcessedPath)
	assert.FileExists(t, second.ProcessedPath)
}

func TestScanImageMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := New(mock.NewMockEngine(ctrl), testConfig(t), nil)

	_, err := s.ScanImage(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"))
	assert.ErrorIs(t, err, ErrInputNotFound)
}

func TestScanImageRecognitionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mock.NewMockEngine(ctrl)
	cause := errors.New("tesseract crashed")
	engine.EXPECT().Recognize(gomock.Any(), gomock.Any(), gomock.Any()).Return("", cause)

	s := New(engine, testConfig(t), nil)
	_, err := s.ScanImage(context.Background(), writeCardImage(t, t.TempDir(), "card.png"))

	assert.ErrorIs(t, err, ErrRecognition)
	assert.ErrorIs(t, err, cause)
}

func TestScanImageWithoutEngine(t *testing.T) {
	s := New(nil, testConfig(t), nil)
	_, err := s.ScanImage(context.Background(), writeCardImage(t, t.TempDir(), "card.png"))
	assert.ErrorIs(t, err, ErrRecognition)
}

func TestScanTextLogsWarnings(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := New(nil, testConfig(t), zap.New(core))

	path := filepath.Join(t.TempDir(), "ocr.txt")
	require.NoError(t, os.WriteFile(path, []byte("NIK : 3171234567890123\nRT/RW : 001002"), 0644))

	res, err := s.ScanText(path)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Record.Len())
	require.Len(t, res.Warnings, 1)

	entries := logs.FilterMessage("incomplete extraction").All()
	require.Len(t, entries, 1)
	assert.Equal(t, path, entries[0].ContextMap()["source"])
	assert.Equal(t, res.Warnings[0], entries[0].ContextMap()["warning"])
}

func TestScanTextMissing(t *testing.T) {
	s := New(nil, testConfig(t), nil)
	_, err := s.ScanText(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, ErrInputNotFound)
}

func TestScanHOCR(t *testing.T) {
	src := `<html><body><div class="ocr_page" id="page_1" title="bbox 0 0 100 60">
<span class="ocr_line" id="line_1"><span class="ocrx_word">NIK</span> <span class="ocrx_word">:</span> <span class="ocrx_word">3171234567890123</span></span>
<span class="ocr_line" id="line_2"><span class="ocrx_word">Nama</span> <span class="ocrx_word">:</span> <span class="ocrx_word">BUDI</span></span>
</div></body></html>`
	path := filepath.Join(t.TempDir(), "card.hocr")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	s := New(nil, testConfig(t), nil)
	res, err := s.ScanHOCR(path)
	require.NoError(t, err)

	require.NotNil(t, res.Layout)
	assert.Equal(t, "NIK : 3171234567890123\nNama : BUDI", res.Text)
	name, _ := res.Record.Get(ktp.Nama)
	assert.Equal(t, "BUDI", name)
}

func TestScanHOCRInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.hocr")
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0644))

	s := New(nil, testConfig(t), nil)
	_, err := s.ScanHOCR(path)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInputNotFound)
}

func TestScanAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mock.NewMockEngine(ctrl)
	engine.EXPECT().Recognize(gomock.Any(), gomock.Any(), gomock.Any()).Return(cardText, nil).Times(2)

	dir := t.TempDir()
	paths := []string{
		writeCardImage(t, dir, "a.png"),
		filepath.Join(dir, "missing.png"),
		writeCardImage(t, dir, "b.png"),
	}

	cfg := testConfig(t)
	cfg.Concurrency = 2
	core, logs := observer.New(zap.ErrorLevel)
	results := New(engine, cfg, zap.New(core)).ScanAll(context.Background(), paths)

	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, paths[i], res.Source)
	}
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, ErrInputNotFound)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 1, logs.FilterMessage("scan failed").Len())
}
