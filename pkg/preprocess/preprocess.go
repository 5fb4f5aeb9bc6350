// Package preprocess prepares card photos for OCR.
//
// Tesseract reads KTP scans far more reliably once the coloured background
// pattern is removed. This package converts an image to grayscale and
// binarizes it with a global Otsu threshold, and stores processed images next
// to earlier runs without overwriting them.
//
// Supported inputs are whatever image.Decode understands after the imports of
// this package: JPEG, PNG, GIF, BMP, TIFF (via imaging) and WebP.
//
// Main Functions:
//
// - Open: Decodes an image file, honouring EXIF orientation
// - Binarize: Grayscale conversion followed by Otsu thresholding
// - OtsuThreshold: Computes the Otsu threshold of an image
// - SaveUnique: Saves an image without overwriting earlier output
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Open decodes the image at path. Errors from a missing file satisfy
// errors.Is(err, fs.ErrNotExist).
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	return img, nil
}

// Decode decodes image bytes.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Binarize converts img to grayscale and thresholds it with Otsu's method.
// Pixels brighter than the threshold become white, the rest black.
func Binarize(img image.Image) *image.Gray {
	gray := imaging.Grayscale(img)
	t := OtsuThreshold(gray)

	b := gray.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if luminance(gray, x, y) > t {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// OtsuThreshold returns the threshold that maximizes the between-class
// variance of the luminance histogram of img.
func OtsuThreshold(img image.Image) uint8 {
	var hist [256]int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[luminance(img, x, y)]++
		}
	}

	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var (
		sumB      float64
		wB        int
		maxVar    float64
		threshold uint8
	)
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > maxVar {
			maxVar = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// EncodePNG encodes img as PNG, the format handed to the OCR engines.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func luminance(img image.Image, x, y int) uint8 {
	switch im := img.(type) {
	case *image.Gray:
		return im.GrayAt(x, y).Y
	case *image.NRGBA:
		// imaging.Grayscale stores the gray level in every channel.
		return im.Pix[im.PixOffset(x, y)]
	default:
		return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
	}
}
