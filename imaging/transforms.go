package imaging

import (
	"image"
	"image/color"
	"math"
)

// BoxBlur applies a 3x3 mean filter, the smoothing step used to knock down
// scanner noise before thresholding. Border pixels average only the in-bounds
// neighborhood.
func BoxBlur(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var sum, n int
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					px, py := x+dx, y+dy
					if px < b.Min.X || px >= b.Max.X || py < b.Min.Y || py >= b.Max.Y {
						continue
					}
					sum += int(src.GrayAt(px, py).Y)
					n++
				}
			}
			dst.SetGray(x, y, color.Gray{Y: uint8(sum / n)})
		}
	}
	return dst
}

// OtsuThreshold computes the global threshold that maximizes between-class
// variance of the gray histogram.
func OtsuThreshold(src *image.Gray) uint8 {
	var hist [256]int
	b := src.Bounds()
	total := b.Dx() * b.Dy()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[src.GrayAt(x, y).Y]++
		}
	}
	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i) * float64(c)
	}
	var sumBg, wBg float64
	var best float64
	var threshold uint8
	for t := 0; t < 256; t++ {
		wBg += float64(hist[t])
		if wBg == 0 {
			continue
		}
		wFg := float64(total) - wBg
		if wFg == 0 {
			break
		}
		sumBg += float64(t) * float64(hist[t])
		meanBg := sumBg / wBg
		meanFg := (sumAll - sumBg) / wFg
		between := wBg * wFg * (meanBg - meanFg) * (meanBg - meanFg)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// Binarize maps pixels at or below the Otsu threshold to black and the rest
// to white.
func Binarize(src *image.Gray) *image.Gray {
	t := OtsuThreshold(src)
	b := src.Bounds()
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if src.GrayAt(x, y).Y <= t {
				dst.SetGray(x, y, color.Gray{Y: 0})
			} else {
				dst.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return dst
}

// EstimateSkew returns the dominant rotation of foreground (dark) pixels in
// degrees, derived from second-order central moments of the pixel
// distribution. Positive angles are counter-clockwise. Returns 0 when there is
// no foreground.
func EstimateSkew(src *image.Gray) float64 {
	t := OtsuThreshold(src)
	b := src.Bounds()

	var n, sumX, sumY float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if src.GrayAt(x, y).Y <= t {
				n++
				sumX += float64(x)
				sumY += float64(y)
			}
		}
	}
	if n == 0 {
		return 0
	}
	cx, cy := sumX/n, sumY/n

	var mu11, mu20, mu02 float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if src.GrayAt(x, y).Y <= t {
				dx, dy := float64(x)-cx, float64(y)-cy
				mu11 += dx * dy
				mu20 += dx * dx
				mu02 += dy * dy
			}
		}
	}
	if mu20 == mu02 && mu11 == 0 {
		return 0
	}
	return 0.5 * math.Atan2(2*mu11, mu20-mu02) * 180 / math.Pi
}

// Rotate turns img by the given angle in degrees about its center, keeping the
// original bounds and filling exposed corners with white. Sampling is
// nearest-neighbor on the inverse mapping, which is adequate for the small
// deskew corrections this pipeline applies.
func Rotate(src *image.Gray, degrees float64) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	cx := float64(b.Min.X) + float64(b.Dx())/2
	cy := float64(b.Min.Y) + float64(b.Dy())/2
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// Inverse rotation back into source space.
			dx, dy := float64(x)-cx, float64(y)-cy
			sx := int(math.Round(cx + dx*cos + dy*sin))
			sy := int(math.Round(cy - dx*sin + dy*cos))
			if sx >= b.Min.X && sx < b.Max.X && sy >= b.Min.Y && sy < b.Max.Y {
				dst.SetGray(x, y, src.GrayAt(sx, sy))
			} else {
				dst.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return dst
}
