package ocr

import "context"

// TokenBox is a single recognized token with its rectangle in the coordinate
// space of the surface it was recognized on. Confidence is the engine's score
// in [0, 100].
type TokenBox struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// Pass is the outcome of one recognition invocation.
type Pass struct {
	RawText string
	// MeanConfidence averages token confidences strictly greater than zero;
	// tokens the engine reports with zero or negative confidence are excluded
	// rather than counted as zero. Empty token sets yield 0.
	MeanConfidence float64
	Tokens         []TokenBox
}

// MeanConfidence computes the positive-confidence mean over tokens.
func MeanConfidence(tokens []TokenBox) float64 {
	var sum float64
	var n int
	for _, tok := range tokens {
		if tok.Confidence > 0 {
			sum += tok.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Request describes one recognition invocation.
type Request struct {
	// Image is the encoded surface (PNG unless the caller knows better).
	Image []byte
	// PSM is the page segmentation mode for this pass.
	PSM int
	// EngineMode selects the recognition engine variant (Tesseract OEM).
	EngineMode int
	// Languages lists trained-data hints (e.g. "eng").
	Languages []string
	// Variables passes engine-specific knobs through without widening the API,
	// the same way callers tune Tesseract variables.
	Variables map[string]string
}

// Engine is the recognition provider contract: one prepared surface in, one
// pass out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, req Request) (Pass, error)
}

// Source identifies which configured pass produced the consensus transcript.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
)

// Config holds the dual-pass recognition settings.
type Config struct {
	EngineMode   int
	PSMPrimary   int
	PSMSecondary int
	Languages    []string
	Variables    map[string]string
}

// request builds the engine request for one PSM.
func (c Config) request(image []byte, psm int) Request {
	return Request{
		Image:      image,
		PSM:        psm,
		EngineMode: c.EngineMode,
		Languages:  c.Languages,
		Variables:  c.Variables,
	}
}
