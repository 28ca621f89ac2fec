// Package splitter implements the tile-extraction tool: it plans a split for
// an oversized or extreme-aspect-ratio image and returns the tiles themselves
// as base64 PNG payloads, ready for separate upload or processing.
package splitter

import (
	"encoding/base64"
	"fmt"
	"image"

	"github.com/wudi/ocrkit/geometry"
	"github.com/wudi/ocrkit/imaging"
)

// Tile is one extracted tile. Index is 1-based in the output contract; Box is
// the source rectangle [x0, y0, x1, y1].
type Tile struct {
	Index      int    `json:"index"`
	Data       string `json:"data"`
	Format     string `json:"format"`
	Dimensions [2]int `json:"dimensions"`
	Box        [4]int `json:"box"`
}

// Result is the splitter tool's output document.
type Result struct {
	Success            bool   `json:"success"`
	Error              string `json:"error,omitempty"`
	ShouldSplit        bool   `json:"should_split"`
	OriginalDimensions [2]int `json:"original_dimensions,omitempty"`
	Tiles              []Tile `json:"tiles"`
	TileCount          int    `json:"tile_count"`
	SplitDirection     string `json:"split_direction,omitempty"`
}

// SplitFile decodes the image at path and extracts tiles per cfg. All
// failures, including decode errors, are reported in the result document.
func SplitFile(path string, cfg geometry.SplitConfig) Result {
	img, _, err := imaging.DecodeFile(path)
	if err != nil {
		return Result{Error: err.Error(), Tiles: []Tile{}}
	}
	return Split(img, cfg)
}

// Split plans and extracts tiles from a decoded image.
func Split(img image.Image, cfg geometry.SplitConfig) Result {
	size := geometry.Size{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	plan, err := geometry.PlanSplit(size, cfg)
	if err != nil {
		return Result{Error: err.Error(), Tiles: []Tile{}}
	}

	res := Result{
		Success:            true,
		ShouldSplit:        plan.NeedsSplit,
		OriginalDimensions: [2]int{size.Width, size.Height},
		Tiles:              []Tile{},
	}
	if !plan.NeedsSplit {
		return res
	}
	res.SplitDirection = string(plan.Mode)

	for _, t := range plan.Tiles {
		cropped, err := imaging.Crop(img, image.Rect(t.X0, t.Y0, t.X1, t.Y1))
		if err != nil {
			return Result{Error: fmt.Sprintf("crop tile %d: %v", t.Index+1, err), Tiles: []Tile{}}
		}
		data, err := imaging.EncodePNG(cropped)
		if err != nil {
			return Result{Error: fmt.Sprintf("encode tile %d: %v", t.Index+1, err), Tiles: []Tile{}}
		}
		res.Tiles = append(res.Tiles, Tile{
			Index:      t.Index + 1,
			Data:       base64.StdEncoding.EncodeToString(data),
			Format:     "png",
			Dimensions: [2]int{t.Width(), t.Height()},
			Box:        [4]int{t.X0, t.Y0, t.X1, t.Y1},
		})
	}
	res.TileCount = len(res.Tiles)
	return res
}
