package pipeline

import (
	"fmt"

	"github.com/wudi/ocrkit/geometry"
	"github.com/wudi/ocrkit/ocr"
	"github.com/wudi/ocrkit/preprocess"
)

// Config is the immutable per-run configuration. It is built once from
// defaults, then a preset overlay, then explicit overrides; it is never
// mutated in place after that.
type Config struct {
	// Recognition holds the dual-pass engine settings.
	Recognition ocr.Config
	// Preprocess toggles the surface-preparation stages.
	Preprocess preprocess.Options
	// CacheEnabled controls the content-addressed surface cache.
	CacheEnabled bool
	// ScratchDir is the shared scratch area for cache entries and temporary
	// tile files. Empty means the system temp directory.
	ScratchDir string
	// Chunk holds the chunking thresholds used by the dimension check. They
	// are independent from any splitter-tool configuration but follow the same
	// decision rule.
	Chunk geometry.SplitConfig
	// MaxResizeWidth and MaxResizeHeight bound the single-pass smart resize;
	// images exceeding either are downscaled (never upscaled) before
	// recognition. Zero disables the bound.
	MaxResizeWidth  int
	MaxResizeHeight int
}

// Default returns the stock configuration: OEM 3, PSM 6 primary against PSM 3
// secondary, preprocessing on with all optional stages off, caching on, and
// US-Letter-at-300dpi chunking thresholds.
func Default() Config {
	return Config{
		Recognition: ocr.Config{
			EngineMode:   3,
			PSMPrimary:   6,
			PSMSecondary: 3,
		},
		Preprocess:   preprocess.Options{Enabled: true},
		CacheEnabled: true,
		Chunk: geometry.SplitConfig{
			MaxWidth:             2550,
			MaxHeight:            3300,
			Overlap:              100,
			AspectRatioThreshold: 5.0,
		},
	}
}

// preset overlays named option bundles on top of defaults. Explicit override
// keys applied afterwards win over the preset.
func preset(cfg Config, name string) (Config, error) {
	switch name {
	case "", "balanced":
		return cfg, nil
	case "fast":
		// One recognition pass, no surface preparation.
		cfg.Recognition.PSMSecondary = cfg.Recognition.PSMPrimary
		cfg.Preprocess = preprocess.Options{}
		return cfg, nil
	case "accurate":
		cfg.Preprocess = preprocess.Options{Enabled: true, Upscale: true, Denoise: true, Deskew: true}
		return cfg, nil
	default:
		return cfg, fmt.Errorf("unknown performance preset %q", name)
	}
}

// Build constructs a Config from a flat key/value override document, typically
// parsed from the optional JSON argument. Unrecognized keys are ignored;
// recognized keys override in place. The "preset" key is applied before any
// other override so explicit fields always win.
func Build(overrides map[string]any) (Config, error) {
	cfg := Default()
	if overrides == nil {
		return cfg, nil
	}

	if name, ok := overrides["preset"]; ok {
		s, ok := name.(string)
		if !ok {
			return cfg, fmt.Errorf("preset must be a string, got %T", name)
		}
		var err error
		if cfg, err = preset(cfg, s); err != nil {
			return cfg, err
		}
	}

	for key, value := range overrides {
		var err error
		switch key {
		case "preset":
			// Already applied.
		case "engine_mode":
			cfg.Recognition.EngineMode, err = intValue(key, value)
		case "psm_primary":
			cfg.Recognition.PSMPrimary, err = intValue(key, value)
		case "psm_secondary":
			cfg.Recognition.PSMSecondary, err = intValue(key, value)
		case "language":
			var s string
			if s, err = stringValue(key, value); err == nil {
				cfg.Recognition.Languages = []string{s}
			}
		case "preprocess":
			cfg.Preprocess.Enabled, err = boolValue(key, value)
		case "upscale":
			cfg.Preprocess.Upscale, err = boolValue(key, value)
		case "denoise":
			cfg.Preprocess.Denoise, err = boolValue(key, value)
		case "deskew":
			cfg.Preprocess.Deskew, err = boolValue(key, value)
		case "cache_enabled":
			cfg.CacheEnabled, err = boolValue(key, value)
		case "scratch_dir":
			cfg.ScratchDir, err = stringValue(key, value)
		case "max_width":
			cfg.Chunk.MaxWidth, err = intValue(key, value)
		case "max_height":
			cfg.Chunk.MaxHeight, err = intValue(key, value)
		case "overlap":
			cfg.Chunk.Overlap, err = intValue(key, value)
		case "aspect_ratio_threshold":
			cfg.Chunk.AspectRatioThreshold, err = floatValue(key, value)
		case "max_resize_width":
			cfg.MaxResizeWidth, err = intValue(key, value)
		case "max_resize_height":
			cfg.MaxResizeHeight, err = intValue(key, value)
		default:
			// Unrecognized keys are ignored.
		}
		if err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// JSON numbers decode as float64; accept both for integer keys.
func intValue(key string, v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("config key %q: expected number, got %T", key, v)
	}
}

func floatValue(key string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("config key %q: expected number, got %T", key, v)
	}
}

func boolValue(key string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("config key %q: expected boolean, got %T", key, v)
	}
	return b, nil
}

func stringValue(key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("config key %q: expected string, got %T", key, v)
	}
	return s, nil
}
