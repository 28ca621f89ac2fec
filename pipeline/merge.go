package pipeline

import (
	"strings"

	"github.com/wudi/ocrkit/ocr"
)

// Merge recombines per-chunk results into one document-level result.
//
// A chunk is valid when either pass produced non-empty text after trimming;
// empty chunks (blank tiles over background) are dropped from both the text
// join and the confidence average so they cannot dilute it. Texts are joined
// in chunk order with line breaks, preserving reading order. Per-side
// confidence is the arithmetic mean of the valid chunks' per-chunk means,
// weighting every chunk equally regardless of token count. Token boxes of
// each chunk's consensus pass are offset by the chunk origin; widths and
// heights are untouched because tiles are recognized at source resolution.
func Merge(chunks []ChunkResult) DocumentResult {
	var (
		primaryTexts   []string
		secondaryTexts []string
		primarySum     float64
		secondarySum   float64
		valid          int
	)
	boxes := []ocr.TokenBox{}

	for _, c := range chunks {
		pText := strings.TrimSpace(c.Primary.RawText)
		sText := strings.TrimSpace(c.Secondary.RawText)
		if pText == "" && sText == "" {
			continue
		}
		valid++
		primaryTexts = append(primaryTexts, pText)
		secondaryTexts = append(secondaryTexts, sText)
		primarySum += c.Primary.MeanConfidence
		secondarySum += c.Secondary.MeanConfidence

		for _, tok := range c.Consensus.Tokens {
			tok.X += c.OffsetX
			tok.Y += c.OffsetY
			boxes = append(boxes, tok)
		}
	}

	var primaryConf, secondaryConf float64
	if valid > 0 {
		primaryConf = primarySum / float64(valid)
		secondaryConf = secondarySum / float64(valid)
	}

	primaryText := strings.Join(primaryTexts, "\n")
	secondaryText := strings.Join(secondaryTexts, "\n")

	consensusText := primaryText
	source := ocr.SourcePrimary
	if secondaryConf > primaryConf {
		consensusText = secondaryText
		source = ocr.SourceSecondary
	}

	return DocumentResult{
		Success:             true,
		PrimaryText:         primaryText,
		PrimaryConfidence:   primaryConf,
		SecondaryText:       secondaryText,
		SecondaryConfidence: secondaryConf,
		ConsensusText:       consensusText,
		ConsensusSource:     string(source),
		BoundingBoxes:       boxes,
		ChunkCount:          len(chunks),
	}
}
