package ocr

import (
	"context"
	"fmt"

	"github.com/wudi/ocrkit/observability"
	"github.com/wudi/ocrkit/parallel"
)

// DualResult carries both configured passes and the consensus chosen between
// them. When the two PSMs are identical the secondary pass is a copy of the
// primary and only one engine invocation occurred.
type DualResult struct {
	Primary   Pass
	Secondary Pass
	Consensus Pass
	Source    Source
}

// RunDualPass recognizes one surface with the two configured page-segmentation
// modes and selects the higher-confidence pass, hedging against
// segmentation-mode sensitivity. Distinct passes run concurrently on
// independent engine invocations. If one pass fails it degrades to an empty
// pass (logged, observable through zero confidence); if both fail the call
// fails.
func RunDualPass(ctx context.Context, engine Engine, image []byte, cfg Config, logger observability.Logger) (DualResult, error) {
	if logger == nil {
		logger = observability.NopLogger{}
	}

	if cfg.PSMPrimary == cfg.PSMSecondary {
		pass, err := engine.Recognize(ctx, cfg.request(image, cfg.PSMPrimary))
		if err != nil {
			return DualResult{}, fmt.Errorf("recognize psm %d: %w", cfg.PSMPrimary, err)
		}
		return DualResult{Primary: pass, Secondary: pass, Consensus: pass, Source: SourcePrimary}, nil
	}

	results := parallel.Run(ctx,
		func(ctx context.Context) (Pass, error) {
			return engine.Recognize(ctx, cfg.request(image, cfg.PSMPrimary))
		},
		func(ctx context.Context) (Pass, error) {
			return engine.Recognize(ctx, cfg.request(image, cfg.PSMSecondary))
		},
	)
	if results[0].Err != nil && results[1].Err != nil {
		return DualResult{}, fmt.Errorf("both passes failed: %v; %w", results[0].Err, results[1].Err)
	}
	primary, secondary := results[0].Value, results[1].Value
	if results[0].Err != nil {
		logger.Warn("primary pass degraded to empty", observability.Int("psm", cfg.PSMPrimary), observability.Error("error", results[0].Err))
		primary = Pass{}
	}
	if results[1].Err != nil {
		logger.Warn("secondary pass degraded to empty", observability.Int("psm", cfg.PSMSecondary), observability.Error("error", results[1].Err))
		secondary = Pass{}
	}

	res := DualResult{Primary: primary, Secondary: secondary}
	res.Consensus, res.Source = Consensus(primary, secondary)
	return res, nil
}

// Consensus picks the pass with the higher mean confidence; ties favor the
// primary pass.
func Consensus(primary, secondary Pass) (Pass, Source) {
	if primary.MeanConfidence >= secondary.MeanConfidence {
		return primary, SourcePrimary
	}
	return secondary, SourceSecondary
}
