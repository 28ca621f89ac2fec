package pipeline

import "github.com/wudi/ocrkit/ocr"

// DocumentResult is the structured document every processing run produces,
// written as the tool's sole stdout payload. Runtime failures are reported
// here with Success=false rather than raised past the processing boundary.
type DocumentResult struct {
	Success             bool           `json:"success"`
	Error               string         `json:"error,omitempty"`
	PrimaryText         string         `json:"primary_text"`
	PrimaryConfidence   float64        `json:"primary_confidence"`
	SecondaryText       string         `json:"secondary_text"`
	SecondaryConfidence float64        `json:"secondary_confidence"`
	ConsensusText       string         `json:"consensus_text"`
	ConsensusSource     string         `json:"consensus_source"`
	BoundingBoxes       []ocr.TokenBox `json:"bounding_boxes"`
	ChunkCount          int            `json:"chunk_count"`
}

// Failure wraps an error into the failure document shape.
func Failure(err error) DocumentResult {
	return DocumentResult{Success: false, Error: err.Error(), BoundingBoxes: []ocr.TokenBox{}}
}

// ChunkResult is one tile's recognition outcome plus the tile origin used to
// re-base its token boxes into source-image coordinates. A failed tile is
// represented by the zero value: empty passes, zero confidence, no boxes.
type ChunkResult struct {
	Index     int
	Primary   ocr.Pass
	Secondary ocr.Pass
	Consensus ocr.Pass
	Source    ocr.Source
	OffsetX   int
	OffsetY   int
}

// chunkFromDual pairs a dual-pass result with its tile origin.
func chunkFromDual(index int, res ocr.DualResult, offsetX, offsetY int) ChunkResult {
	return ChunkResult{
		Index:     index,
		Primary:   res.Primary,
		Secondary: res.Secondary,
		Consensus: res.Consensus,
		Source:    res.Source,
		OffsetX:   offsetX,
		OffsetY:   offsetY,
	}
}
