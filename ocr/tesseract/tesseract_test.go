package tesseract

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/ocrkit/ocr"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func renderText(t *testing.T, text string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 240, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(text)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestEngineRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	engine := New()
	pass, err := engine.Recognize(context.Background(), ocr.Request{
		Image:     renderText(t, "Hello OCR"),
		PSM:       6,
		Languages: []string{"eng"},
	})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	got := strings.ToLower(pass.RawText)
	if !strings.Contains(got, "hello") {
		t.Fatalf("unexpected OCR output: %q", pass.RawText)
	}
	if len(pass.Tokens) == 0 {
		t.Fatal("expected word tokens")
	}
	if pass.MeanConfidence <= 0 || pass.MeanConfidence > 100 {
		t.Fatalf("mean confidence out of range: %v", pass.MeanConfidence)
	}
	for _, tok := range pass.Tokens {
		if tok.Confidence <= 0 {
			t.Fatalf("sentinel-confidence token leaked: %+v", tok)
		}
		if tok.Width <= 0 || tok.Height <= 0 {
			t.Fatalf("degenerate token box: %+v", tok)
		}
	}
}

func TestEngineRejectsGarbageImage(t *testing.T) {
	ensureTesseractAvailable(t)

	engine := New()
	if _, err := engine.Recognize(context.Background(), ocr.Request{Image: []byte("junk"), PSM: 6}); err == nil {
		t.Fatal("expected error for undecodable image")
	}
}
