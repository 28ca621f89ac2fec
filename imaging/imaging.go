// Package imaging wraps decode, encode and the geometric transforms the OCR
// pipeline needs. Formats beyond the stdlib set (BMP, TIFF) are registered via
// golang.org/x/image so tile extraction accepts the same inputs as the
// recognizer.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Decode parses an encoded image and reports the detected format.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// DecodeFile reads and decodes the image at path.
func DecodeFile(path string) (image.Image, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	return Decode(data)
}

// EncodePNG serializes an image as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Crop extracts the given rectangle. The rectangle is interpreted in the
// image's own coordinate space and must intersect its bounds.
func Crop(img image.Image, rect image.Rectangle) (image.Image, error) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("crop rectangle outside image bounds")
	}
	if sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect), nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(dst, image.Point{}, img, rect, draw.Src, nil)
	return dst, nil
}

// Scale resamples img to width×height using the given scaler.
func Scale(img image.Image, width, height int, scaler draw.Scaler) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// FitWithin downscales img to fit maxWidth×maxHeight preserving aspect ratio,
// using Catmull-Rom resampling. Images already within bounds are returned
// unchanged; this never upscales.
func FitWithin(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if (maxWidth <= 0 || w <= maxWidth) && (maxHeight <= 0 || h <= maxHeight) {
		return img
	}
	ratio := 1.0
	if maxWidth > 0 && w > maxWidth {
		ratio = float64(maxWidth) / float64(w)
	}
	if maxHeight > 0 && h > maxHeight {
		if r := float64(maxHeight) / float64(h); r < ratio {
			ratio = r
		}
	}
	nw, nh := int(float64(w)*ratio), int(float64(h)*ratio)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return Scale(img, nw, nh, draw.CatmullRom)
}

// Upscale enlarges img by an integer factor using Catmull-Rom resampling,
// which keeps small glyph edges smooth enough for recognition.
func Upscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	return Scale(img, b.Dx()*factor, b.Dy()*factor, draw.CatmullRom)
}

// Grayscale converts img to 8-bit grayscale.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
