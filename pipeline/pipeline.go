// Package pipeline orchestrates document OCR: it decides between single-pass
// and chunked processing, prepares and recognizes each surface, and shapes the
// final result document.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/wudi/ocrkit/cache"
	"github.com/wudi/ocrkit/geometry"
	"github.com/wudi/ocrkit/imaging"
	"github.com/wudi/ocrkit/observability"
	"github.com/wudi/ocrkit/ocr"
	"github.com/wudi/ocrkit/preprocess"
)

// Processor runs the OCR pipeline for one document at a time. Tile state is
// owned per run; only the surface cache is shared across runs.
type Processor struct {
	cfg     Config
	engine  ocr.Engine
	pre     *preprocess.Preprocessor
	cache   cache.Cache
	logger  observability.Logger
	scratch string
}

// Option customizes a Processor.
type Option func(*Processor)

// WithLogger sets the logger; the default is a nop.
func WithLogger(l observability.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithCache substitutes the surface cache, letting tests use an in-memory
// implementation instead of scratch-directory I/O.
func WithCache(c cache.Cache) Option {
	return func(p *Processor) { p.cache = c }
}

// New builds a Processor. The scratch directory (config or system temp) is
// created eagerly; it holds cached surfaces and temporary tile files.
func New(cfg Config, engine ocr.Engine, opts ...Option) (*Processor, error) {
	scratch := cfg.ScratchDir
	if scratch == "" {
		scratch = filepath.Join(os.TempDir(), "ocrkit")
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	p := &Processor{
		cfg:     cfg,
		engine:  engine,
		logger:  observability.NopLogger{},
		scratch: scratch,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		if cfg.CacheEnabled {
			dir, err := cache.NewDir(filepath.Join(scratch, "cache"))
			if err != nil {
				return nil, err
			}
			p.cache = dir
		} else {
			p.cache = cache.Nop{}
		}
	}
	p.pre = preprocess.New(p.cache, p.logger)
	return p, nil
}

// ProcessFile runs the whole pipeline for the image at path. Failures before
// any tiling begins (unreadable or undecodable image, degenerate chunk
// configuration) abort the document; once tiling has started, failures are
// isolated per tile.
func (p *Processor) ProcessFile(ctx context.Context, path string) DocumentResult {
	img, _, err := imaging.DecodeFile(path)
	if err != nil {
		return Failure(err)
	}
	return p.Process(ctx, img)
}

// Process runs the pipeline over an already decoded image.
func (p *Processor) Process(ctx context.Context, img image.Image) DocumentResult {
	size := geometry.Size{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	plan, err := geometry.PlanSplit(size, p.cfg.Chunk)
	if err != nil {
		return Failure(fmt.Errorf("plan chunks: %w", err))
	}
	if !plan.NeedsSplit {
		return p.processSingle(ctx, img)
	}
	p.logger.Info("processing chunked",
		observability.String("mode", string(plan.Mode)),
		observability.Int("tiles", len(plan.Tiles)),
	)
	return p.processChunked(ctx, img, plan)
}

func (p *Processor) processSingle(ctx context.Context, img image.Image) DocumentResult {
	img = imaging.FitWithin(img, p.cfg.MaxResizeWidth, p.cfg.MaxResizeHeight)
	raw, err := imaging.EncodePNG(img)
	if err != nil {
		return Failure(fmt.Errorf("encode surface: %w", err))
	}

	prep := p.pre.Prepare(raw, p.cfg.Preprocess)
	res, err := ocr.RunDualPass(ctx, p.engine, prep.Surface, p.cfg.Recognition, p.logger)
	if err != nil {
		return Failure(err)
	}

	boxes := res.Consensus.Tokens
	if boxes == nil {
		boxes = []ocr.TokenBox{}
	}
	return DocumentResult{
		Success:             true,
		PrimaryText:         res.Primary.RawText,
		PrimaryConfidence:   res.Primary.MeanConfidence,
		SecondaryText:       res.Secondary.RawText,
		SecondaryConfidence: res.Secondary.MeanConfidence,
		ConsensusText:       res.Consensus.RawText,
		ConsensusSource:     string(res.Source),
		BoundingBoxes:       boxes,
	}
}

// processChunked handles tiles sequentially so tile files and cache lookups
// never collide between chunks. A failing tile degrades to an empty
// ChunkResult; one damaged tile must not lose the rest of the document.
func (p *Processor) processChunked(ctx context.Context, img image.Image, plan geometry.Plan) DocumentResult {
	chunks := make([]ChunkResult, 0, len(plan.Tiles))
	for _, tile := range plan.Tiles {
		chunk, err := p.processTile(ctx, img, tile)
		if err != nil {
			p.logger.Warn("tile degraded to empty chunk",
				observability.Int("tile", tile.Index),
				observability.Error("error", err),
			)
			chunk = ChunkResult{Index: tile.Index, OffsetX: tile.X0, OffsetY: tile.Y0}
		}
		chunks = append(chunks, chunk)
	}
	return Merge(chunks)
}

func (p *Processor) processTile(ctx context.Context, img image.Image, tile geometry.Tile) (ChunkResult, error) {
	cropped, err := imaging.Crop(img, image.Rect(tile.X0, tile.Y0, tile.X1, tile.Y1))
	if err != nil {
		return ChunkResult{}, fmt.Errorf("crop tile %d: %w", tile.Index, err)
	}
	raw, err := imaging.EncodePNG(cropped)
	if err != nil {
		return ChunkResult{}, fmt.Errorf("encode tile %d: %w", tile.Index, err)
	}

	// The tile transits scratch storage and is read back from there, so
	// preprocessing and recognition consume exactly the bytes the tile file
	// holds. The file is removed on every exit path.
	tmp, err := os.CreateTemp(p.scratch, "tile-*.png")
	if err != nil {
		return ChunkResult{}, fmt.Errorf("create tile file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return ChunkResult{}, fmt.Errorf("write tile file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return ChunkResult{}, fmt.Errorf("close tile file: %w", err)
	}
	spooled, err := os.ReadFile(tmp.Name())
	if err != nil {
		return ChunkResult{}, fmt.Errorf("read tile file: %w", err)
	}

	prep := p.pre.Prepare(spooled, p.cfg.Preprocess)
	res, err := ocr.RunDualPass(ctx, p.engine, prep.Surface, p.cfg.Recognition, p.logger)
	if err != nil {
		return ChunkResult{}, fmt.Errorf("recognize tile %d: %w", tile.Index, err)
	}
	return chunkFromDual(tile.Index, res, tile.X0, tile.Y0), nil
}
