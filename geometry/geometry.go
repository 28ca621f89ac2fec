// Package geometry computes tile grids for oversized or extreme-aspect-ratio
// images. A plan describes whether an image needs splitting and, if so, the
// overlapping crop rectangles that cover it without gaps.
package geometry

import "fmt"

// Size holds pixel dimensions of a source image.
type Size struct {
	Width  int
	Height int
}

// AspectRatio returns max(w,h)/min(w,h).
func (s Size) AspectRatio() float64 {
	w, h := float64(s.Width), float64(s.Height)
	if w >= h {
		return w / h
	}
	return h / w
}

// SplitConfig controls when and how an image is divided into tiles.
type SplitConfig struct {
	// MaxWidth and MaxHeight are the per-tile limits; exceeding either on the
	// source image triggers a split along that axis.
	MaxWidth  int
	MaxHeight int
	// Overlap is the shared pixel margin between adjacent tiles, so text that
	// straddles a cut appears whole in at least one tile. Must be smaller than
	// both tile limits or the step size degenerates.
	Overlap int
	// AspectRatioThreshold triggers a split for elongated images even when
	// neither absolute limit is exceeded. A zero or negative value disables
	// the aspect check; only the absolute limits then decide.
	AspectRatioThreshold float64
}

// Mode identifies the split strategy chosen for an image.
type Mode string

const (
	// ModeNone means the image fits within limits and is processed whole.
	ModeNone Mode = "none"
	// ModeHorizontal splits along the x axis into full-height column strips.
	ModeHorizontal Mode = "horizontal"
	// ModeVertical splits along the y axis into full-width row strips.
	ModeVertical Mode = "vertical"
	// ModeGrid splits along both axes, row-major.
	ModeGrid Mode = "grid"
)

// Tile is a half-open crop rectangle [X0,X1)×[Y0,Y1) in source-image
// coordinates. Index is the sequential processing position (row-major for
// grids); Row and Col are only meaningful in grid mode.
type Tile struct {
	X0, Y0, X1, Y1 int
	Index          int
	Row, Col       int
}

// Width returns the tile width in pixels.
func (t Tile) Width() int { return t.X1 - t.X0 }

// Height returns the tile height in pixels.
func (t Tile) Height() int { return t.Y1 - t.Y0 }

// Plan is the output of PlanSplit.
type Plan struct {
	NeedsSplit bool
	Mode       Mode
	Tiles      []Tile
	// Rows and Cols describe the grid shape; for strip modes one of them is 1.
	Rows, Cols int
}

// PlanSplit decides whether an image needs tiling and computes the tile
// rectangles. Splitting triggers when width exceeds MaxWidth, height exceeds
// MaxHeight, or the aspect ratio exceeds a positive AspectRatioThreshold.
// When only the aspect check fires, the larger dimension is treated as the
// exceeding one
// (height wins ties), so a tall ribbon splits into row strips and a wide one
// into column strips.
func PlanSplit(size Size, cfg SplitConfig) (Plan, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return Plan{}, fmt.Errorf("invalid image size %dx%d", size.Width, size.Height)
	}
	if cfg.MaxWidth <= 0 || cfg.MaxHeight <= 0 {
		return Plan{}, fmt.Errorf("invalid tile limits %dx%d", cfg.MaxWidth, cfg.MaxHeight)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.MaxWidth || cfg.Overlap >= cfg.MaxHeight {
		return Plan{}, fmt.Errorf("overlap %d must be in [0, min(%d, %d))", cfg.Overlap, cfg.MaxWidth, cfg.MaxHeight)
	}

	exceedsW := size.Width > cfg.MaxWidth
	exceedsH := size.Height > cfg.MaxHeight
	aspectHit := cfg.AspectRatioThreshold > 0 && size.AspectRatio() > cfg.AspectRatioThreshold

	if !exceedsW && !exceedsH && !aspectHit {
		return Plan{NeedsSplit: false, Mode: ModeNone}, nil
	}

	var mode Mode
	switch {
	case exceedsW && exceedsH:
		mode = ModeGrid
	case exceedsH:
		mode = ModeVertical
	case exceedsW:
		mode = ModeHorizontal
	case size.Height >= size.Width:
		// Aspect-only trigger: orient by the larger dimension.
		mode = ModeVertical
	default:
		mode = ModeHorizontal
	}

	var tiles []Tile
	rows, cols := 1, 1
	switch mode {
	case ModeHorizontal:
		xs := axisSpans(size.Width, cfg.MaxWidth, cfg.Overlap)
		cols = len(xs)
		for i, x := range xs {
			tiles = append(tiles, Tile{X0: x.lo, Y0: 0, X1: x.hi, Y1: size.Height, Index: i})
		}
	case ModeVertical:
		ys := axisSpans(size.Height, cfg.MaxHeight, cfg.Overlap)
		rows = len(ys)
		for i, y := range ys {
			tiles = append(tiles, Tile{X0: 0, Y0: y.lo, X1: size.Width, Y1: y.hi, Index: i})
		}
	case ModeGrid:
		xs := axisSpans(size.Width, cfg.MaxWidth, cfg.Overlap)
		ys := axisSpans(size.Height, cfg.MaxHeight, cfg.Overlap)
		rows, cols = len(ys), len(xs)
		for r, y := range ys {
			for c, x := range xs {
				tiles = append(tiles, Tile{
					X0: x.lo, Y0: y.lo, X1: x.hi, Y1: y.hi,
					Index: r*cols + c,
					Row:   r, Col: c,
				})
			}
		}
	}

	return Plan{NeedsSplit: true, Mode: mode, Tiles: tiles, Rows: rows, Cols: cols}, nil
}

type span struct{ lo, hi int }

// axisSpans covers [0, dim) with tiles of tileSize stepping by
// tileSize-overlap. Offsets are clamped so the final tile ends exactly at the
// image boundary; the tile shrinks only when the image itself is smaller than
// one tile. The final tile may overlap its neighbor by more than the
// configured overlap, never less.
func axisSpans(dim, tileSize, overlap int) []span {
	if dim <= tileSize {
		return []span{{0, dim}}
	}
	step := tileSize - overlap
	count := 1 + ceilDiv(dim-tileSize, step)
	spans := make([]span, 0, count)
	for i := 0; i < count; i++ {
		off := i * step
		if off > dim-tileSize {
			off = dim - tileSize
		}
		spans = append(spans, span{off, off + tileSize})
	}
	return spans
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }
