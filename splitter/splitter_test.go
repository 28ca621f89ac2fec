package splitter

import (
	"encoding/base64"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/wudi/ocrkit/geometry"
	"github.com/wudi/ocrkit/imaging"
)

var testCfg = geometry.SplitConfig{
	MaxWidth:             2550,
	MaxHeight:            3300,
	Overlap:              100,
	AspectRatioThreshold: 5.0,
}

func grayImage(w, h int) image.Image {
	return image.NewGray(image.Rect(0, 0, w, h))
}

func TestSplitNotNeeded(t *testing.T) {
	res := Split(grayImage(800, 600), testCfg)
	if !res.Success {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.ShouldSplit || res.TileCount != 0 || len(res.Tiles) != 0 {
		t.Fatalf("no split expected: %+v", res)
	}
	if res.OriginalDimensions != [2]int{800, 600} {
		t.Fatalf("dimensions = %v", res.OriginalDimensions)
	}
}

func TestSplitTallImage(t *testing.T) {
	res := Split(grayImage(600, 7000), testCfg)
	if !res.Success {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if !res.ShouldSplit || res.SplitDirection != "vertical" {
		t.Fatalf("expected vertical split: %+v", res)
	}
	if res.TileCount != len(res.Tiles) || res.TileCount == 0 {
		t.Fatalf("inconsistent tile count: %+v", res)
	}
	for i, tile := range res.Tiles {
		if tile.Index != i+1 {
			t.Fatalf("tile index = %d, want %d (1-based)", tile.Index, i+1)
		}
		if tile.Format != "png" {
			t.Fatalf("format = %q", tile.Format)
		}
		raw, err := base64.StdEncoding.DecodeString(tile.Data)
		if err != nil {
			t.Fatalf("tile %d payload is not base64: %v", tile.Index, err)
		}
		img, format, err := imaging.Decode(raw)
		if err != nil || format != "png" {
			t.Fatalf("tile %d payload is not a png: %v", tile.Index, err)
		}
		if img.Bounds().Dx() != tile.Dimensions[0] || img.Bounds().Dy() != tile.Dimensions[1] {
			t.Fatalf("tile %d dimensions mismatch: %v vs %v", tile.Index, img.Bounds(), tile.Dimensions)
		}
		if w := tile.Box[2] - tile.Box[0]; w != tile.Dimensions[0] {
			t.Fatalf("tile %d box/dimension mismatch: %+v", tile.Index, tile)
		}
	}
	last := res.Tiles[len(res.Tiles)-1]
	if last.Box[3] != 7000 {
		t.Fatalf("last tile must reach image boundary: %+v", last)
	}
}

func TestSplitFileMissing(t *testing.T) {
	res := SplitFile(filepath.Join(t.TempDir(), "nope.png"), testCfg)
	if res.Success || res.Error == "" {
		t.Fatalf("expected failure document: %+v", res)
	}
}

func TestSplitFileRoundTrip(t *testing.T) {
	data, err := imaging.EncodePNG(grayImage(5100, 800))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "wide.png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	res := SplitFile(path, testCfg)
	if !res.Success || !res.ShouldSplit {
		t.Fatalf("expected split: %+v", res)
	}
	if res.SplitDirection != "horizontal" {
		t.Fatalf("direction = %q, want horizontal", res.SplitDirection)
	}
}
