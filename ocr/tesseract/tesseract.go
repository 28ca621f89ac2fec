// Package tesseract implements the ocr.Engine contract on top of the
// gosseract client. Each invocation uses its own client instance, so
// concurrent passes share no mutable state.
package tesseract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/wudi/ocrkit/ocr"
)

// Engine is a Tesseract-backed recognizer.
type Engine struct {
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract engine.
func New() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize runs one Tesseract pass over the encoded image and extracts
// word-level tokens with confidences.
func (e *Engine) Recognize(ctx context.Context, req ocr.Request) (ocr.Pass, error) {
	select {
	case <-ctx.Done():
		return ocr.Pass{}, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(req.Image); err != nil {
		return ocr.Pass{}, fmt.Errorf("set image: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(req.PSM)); err != nil {
		return ocr.Pass{}, fmt.Errorf("set psm %d: %w", req.PSM, err)
	}
	if len(req.Languages) > 0 {
		if err := c.SetLanguage(req.Languages...); err != nil {
			return ocr.Pass{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if req.EngineMode > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("tessedit_ocr_engine_mode"), strconv.Itoa(req.EngineMode)); err != nil {
			return ocr.Pass{}, fmt.Errorf("set engine mode: %w", err)
		}
	}
	for k, v := range req.Variables {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return ocr.Pass{}, fmt.Errorf("set variable %s: %w", k, err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return ocr.Pass{}, fmt.Errorf("recognize text: %w", err)
	}

	tokens := extractTokens(c)
	return ocr.Pass{
		RawText:        strings.TrimSpace(text),
		MeanConfidence: ocr.MeanConfidence(tokens),
		Tokens:         tokens,
	}, nil
}

// extractTokens pulls word-level boxes, dropping entries Tesseract reports
// with the no-confidence sentinel (zero or negative).
func extractTokens(c *gosseract.Client) []ocr.TokenBox {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil
	}
	tokens := make([]ocr.TokenBox, 0, len(boxes))
	for _, b := range boxes {
		if b.Confidence <= 0 {
			continue
		}
		tokens = append(tokens, ocr.TokenBox{
			Text:       b.Word,
			Confidence: b.Confidence,
			X:          b.Box.Min.X,
			Y:          b.Box.Min.Y,
			Width:      b.Box.Dx(),
			Height:     b.Box.Dy(),
		})
	}
	return tokens
}
