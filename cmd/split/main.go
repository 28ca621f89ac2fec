// Command split plans and extracts overlapping tiles from an oversized or
// extreme-aspect-ratio image, writing the tile payloads as a single JSON
// document on stdout.
//
// Usage: split <image_path> [config_json]
//
// Recognized config keys: max_width, max_height, overlap,
// aspect_ratio_threshold. Unrecognized keys are ignored.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/wudi/ocrkit/pipeline"
	"github.com/wudi/ocrkit/splitter"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: split <image_path> [config_json]")
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

	res := splitter.SplitFile(path, cfg.Chunk)
	return json.NewEncoder(os.Stdout).Encode(res)
}
