// Package preprocess runs the optional surface-preparation pipeline ahead of
// recognition: grayscale, upscale, denoise, binarize, deskew, in that order.
// Preparation is an optimization, never a correctness requirement: any failure
// degrades to the unmodified input, and the outcome records that degradation
// so callers can log it instead of silently swallowing it.
package preprocess

import (
	"fmt"
	"math"

	"github.com/wudi/ocrkit/cache"
	"github.com/wudi/ocrkit/imaging"
	"github.com/wudi/ocrkit/observability"
)

// Options are the independently toggleable pipeline stages. Grayscale
// conversion and binarization are implicit whenever preprocessing is enabled.
type Options struct {
	Enabled bool
	Upscale bool
	Denoise bool
	Deskew  bool
}

// Signature serializes the flags that affect pixel output, for use in cache
// keys.
func (o Options) Signature() string {
	return fmt.Sprintf("u%dd%ds%d", b2i(o.Upscale), b2i(o.Denoise), b2i(o.Deskew))
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Outcome says how the returned surface was produced.
type Outcome string

const (
	// OutcomeApplied means the pipeline ran and produced a new surface.
	OutcomeApplied Outcome = "applied"
	// OutcomeCached means a previously prepared surface was reused.
	OutcomeCached Outcome = "cached"
	// OutcomeDisabled means preprocessing was off and the input passed through.
	OutcomeDisabled Outcome = "disabled"
	// OutcomePassthrough means a stage failed and the unmodified input was
	// returned; Result.Reason carries the failure.
	OutcomePassthrough Outcome = "passthrough"
)

// Result is a prepared surface plus how it came to be.
type Result struct {
	Surface []byte
	Outcome Outcome
	Reason  error
}

// Preprocessor prepares surfaces with content-addressed caching.
type Preprocessor struct {
	cache  cache.Cache
	logger observability.Logger

	// UpscaleFactor is the fixed enlargement applied when Options.Upscale is
	// set; small print becomes legible to the recognizer at 2x.
	UpscaleFactor int
	// SkewThresholdDeg is the minimum estimated skew before a corrective
	// rotation is applied, avoiding resampling artifacts on straight input.
	SkewThresholdDeg float64
}

// New builds a Preprocessor over the given cache. A nil cache disables
// caching; a nil logger is replaced with a nop.
func New(c cache.Cache, logger observability.Logger) *Preprocessor {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Preprocessor{
		cache:            c,
		logger:           logger,
		UpscaleFactor:    2,
		SkewThresholdDeg: 0.5,
	}
}

// Prepare runs the pipeline over the raw encoded image and returns a PNG
// surface. A cache hit short-circuits the pipeline entirely; cache writes are
// best-effort and never fail the call.
func (p *Preprocessor) Prepare(raw []byte, opts Options) Result {
	if !opts.Enabled {
		return Result{Surface: raw, Outcome: OutcomeDisabled}
	}

	key := cache.Key{ContentHash: cache.HashBytes(raw), Signature: opts.Signature()}
	if data, ok := p.cache.Get(key); ok {
		return Result{Surface: data, Outcome: OutcomeCached}
	}

	img, _, err := imaging.Decode(raw)
	if err != nil {
		return p.passthrough(raw, fmt.Errorf("decode surface: %w", err))
	}

	gray := imaging.Grayscale(img)
	if opts.Upscale {
		gray = imaging.Grayscale(imaging.Upscale(gray, p.UpscaleFactor))
	}
	if opts.Denoise {
		gray = imaging.BoxBlur(gray)
	}
	gray = imaging.Binarize(gray)
	if opts.Deskew {
		if angle := imaging.EstimateSkew(gray); math.Abs(angle) > p.SkewThresholdDeg {
			gray = imaging.Rotate(gray, -angle)
		}
	}

	out, err := imaging.EncodePNG(gray)
	if err != nil {
		return p.passthrough(raw, fmt.Errorf("encode surface: %w", err))
	}

	if err := p.cache.Put(key, out); err != nil {
		p.logger.Warn("cache write failed", observability.String("key", key.String()), observability.Error("error", err))
	}
	return Result{Surface: out, Outcome: OutcomeApplied}
}

func (p *Preprocessor) passthrough(raw []byte, reason error) Result {
	p.logger.Warn("preprocess degraded to passthrough", observability.Error("error", reason))
	return Result{Surface: raw, Outcome: OutcomePassthrough, Reason: reason}
}
