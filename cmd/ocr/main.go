// Command ocr runs tiled dual-pass OCR over one image and writes the result
// document to stdout.
//
// Usage: ocr <image_path> [config_json]
//
// The optional second argument is a flat JSON object overriding named
// defaults (psm_primary, max_width, preset, ...); unrecognized keys are
// ignored. The exit status is non-zero only for usage, missing-file, and
// configuration errors; runtime failures are reported in the JSON document
// with "success": false.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/wudi/ocrkit/observability"
	"github.com/wudi/ocrkit/ocr/tesseract"
	"github.com/wudi/ocrkit/pipeline"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: ocr <image_path> [config_json]")
	}
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("image not found: %s", path)
	}

	var overrides map[string]any
	if len(args) == 2 {
		if err := json.Unmarshal([]byte(args[1]), &overrides); err != nil {
			return fmt.Errorf("parse config document: %w", err)
		}
	}
	cfg, err := pipeline.Build(overrides)
	if err != nil {
		return err
	}

	logger := observability.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	proc, err := pipeline.New(cfg, tesseract.New(), pipeline.WithLogger(logger))
	if err != nil {
		return err
	}

	doc := proc.ProcessFile(context.Background(), path)
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(doc)
}
