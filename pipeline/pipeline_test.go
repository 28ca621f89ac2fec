package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/wudi/ocrkit/cache"
	"github.com/wudi/ocrkit/geometry"
	"github.com/wudi/ocrkit/imaging"
	"github.com/wudi/ocrkit/ocr"
	"github.com/wudi/ocrkit/preprocess"
)

// scriptedEngine numbers its invocations and fails on request.
type scriptedEngine struct {
	calls    atomic.Int64
	failCall int64 // 1-based call number to fail, 0 = never
}

func (s *scriptedEngine) Name() string { return "scripted" }

func (s *scriptedEngine) Recognize(ctx context.Context, req ocr.Request) (ocr.Pass, error) {
	n := s.calls.Add(1)
	if n == s.failCall {
		return ocr.Pass{}, errors.New("scripted failure")
	}
	tok := ocr.TokenBox{Text: fmt.Sprintf("t%d", n), Confidence: 80, X: 5, Y: 5, Width: 10, Height: 10}
	return ocr.Pass{
		RawText:        fmt.Sprintf("call-%d", n),
		MeanConfidence: 80,
		Tokens:         []ocr.TokenBox{tok},
	}, nil
}

func testImage(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(w/2, h/2, color.Gray{Y: 0})
	return img
}

func singlePassConfig() Config {
	cfg := Default()
	cfg.Recognition.PSMSecondary = cfg.Recognition.PSMPrimary
	cfg.Preprocess = preprocess.Options{}
	cfg.CacheEnabled = false
	return cfg
}

func newTestProcessor(t *testing.T, cfg Config, engine ocr.Engine) *Processor {
	t.Helper()
	cfg.ScratchDir = t.TempDir()
	p, err := New(cfg, engine, WithCache(cache.NewMem()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestProcessSinglePass(t *testing.T) {
	engine := &scriptedEngine{}
	p := newTestProcessor(t, singlePassConfig(), engine)

	doc := p.Process(context.Background(), testImage(200, 200))
	if !doc.Success {
		t.Fatalf("unexpected failure: %s", doc.Error)
	}
	if engine.calls.Load() != 1 {
		t.Fatalf("engine invoked %d times, want 1 (identical PSMs)", engine.calls.Load())
	}
	if doc.PrimaryText != doc.SecondaryText || doc.PrimaryConfidence != doc.SecondaryConfidence {
		t.Fatalf("identical PSMs should mirror passes: %+v", doc)
	}
	if doc.ChunkCount != 0 {
		t.Fatalf("single pass chunk count = %d, want 0", doc.ChunkCount)
	}
	if len(doc.BoundingBoxes) != 1 || doc.BoundingBoxes[0].X != 5 {
		t.Fatalf("boxes should keep local coordinates: %+v", doc.BoundingBoxes)
	}
}

func TestProcessChunkedVerticalStrips(t *testing.T) {
	engine := &scriptedEngine{}
	cfg := singlePassConfig()
	cfg.Chunk = geometry.SplitConfig{MaxWidth: 100, MaxHeight: 100, Overlap: 10, AspectRatioThreshold: 100}
	p := newTestProcessor(t, cfg, engine)

	// 100x250 with 100px tiles stepping 90: offsets 0, 90, 150.
	doc := p.Process(context.Background(), testImage(100, 250))
	if !doc.Success {
		t.Fatalf("unexpected failure: %s", doc.Error)
	}
	if doc.ChunkCount != 3 {
		t.Fatalf("chunk count = %d, want 3", doc.ChunkCount)
	}
	if doc.PrimaryText != "call-1\ncall-2\ncall-3" {
		t.Fatalf("texts not joined in chunk order: %q", doc.PrimaryText)
	}
	wantY := []int{5, 95, 155}
	if len(doc.BoundingBoxes) != 3 {
		t.Fatalf("box count = %d, want 3", len(doc.BoundingBoxes))
	}
	for i, box := range doc.BoundingBoxes {
		if box.Y != wantY[i] || box.X != 5 {
			t.Fatalf("box %d not re-based: %+v, want y=%d", i, box, wantY[i])
		}
	}
}

func TestProcessChunkedTileFailureIsIsolated(t *testing.T) {
	engine := &scriptedEngine{failCall: 2}
	cfg := singlePassConfig()
	cfg.Chunk = geometry.SplitConfig{MaxWidth: 100, MaxHeight: 100, Overlap: 10, AspectRatioThreshold: 100}
	p := newTestProcessor(t, cfg, engine)

	doc := p.Process(context.Background(), testImage(100, 250))
	if !doc.Success {
		t.Fatalf("document must survive a failing tile: %s", doc.Error)
	}
	if doc.ChunkCount != 3 {
		t.Fatalf("chunk count = %d, want 3", doc.ChunkCount)
	}
	if doc.PrimaryText != "call-1\ncall-3" {
		t.Fatalf("failed tile should contribute nothing: %q", doc.PrimaryText)
	}
	if len(doc.BoundingBoxes) != 2 {
		t.Fatalf("box count = %d, want 2", len(doc.BoundingBoxes))
	}
}

func TestProcessChunkedCleansTileFiles(t *testing.T) {
	engine := &scriptedEngine{failCall: 2}
	cfg := singlePassConfig()
	cfg.Chunk = geometry.SplitConfig{MaxWidth: 100, MaxHeight: 100, Overlap: 10, AspectRatioThreshold: 100}
	cfg.ScratchDir = t.TempDir()
	p, err := New(cfg, engine, WithCache(cache.NewMem()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	p.Process(context.Background(), testImage(100, 250))

	leftovers, err := filepath.Glob(filepath.Join(cfg.ScratchDir, "tile-*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("tile files leaked: %v", leftovers)
	}
}

func TestProcessFileMissingImage(t *testing.T) {
	p := newTestProcessor(t, singlePassConfig(), &scriptedEngine{})
	doc := p.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	if doc.Success {
		t.Fatal("expected failure document")
	}
	if doc.Error == "" {
		t.Fatal("failure document must carry an error message")
	}
}

func TestProcessFileUndecodableImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := newTestProcessor(t, singlePassConfig(), &scriptedEngine{})
	doc := p.ProcessFile(context.Background(), path)
	if doc.Success {
		t.Fatal("expected failure document for undecodable image")
	}
}

func TestProcessSmartResizeDownscales(t *testing.T) {
	engine := &recordingEngine{}
	cfg := singlePassConfig()
	cfg.MaxResizeWidth = 100
	cfg.MaxResizeHeight = 100
	// Keep the image under chunking thresholds but over resize bounds.
	cfg.Chunk = geometry.SplitConfig{MaxWidth: 1000, MaxHeight: 1000, Overlap: 10, AspectRatioThreshold: 100}
	p := newTestProcessor(t, cfg, engine)

	doc := p.Process(context.Background(), testImage(400, 200))
	if !doc.Success {
		t.Fatalf("unexpected failure: %s", doc.Error)
	}
	img, _, err := imaging.Decode(engine.lastImage)
	if err != nil {
		t.Fatalf("decode recognized surface: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Fatalf("surface not resized: %v", img.Bounds())
	}
}

type recordingEngine struct {
	lastImage []byte
}

func (r *recordingEngine) Name() string { return "recording" }

func (r *recordingEngine) Recognize(ctx context.Context, req ocr.Request) (ocr.Pass, error) {
	r.lastImage = req.Image
	return ocr.Pass{RawText: "ok", MeanConfidence: 50}, nil
}
