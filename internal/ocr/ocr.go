// Package ocr turns text detected on a floor-plan image into room regions.
//
// A Detector returns raw word boxes in image pixels. The Clusterer merges
// split room codes, attaches nearby label text to each code, classifies the
// room and drops duplicate detections. ToRegions converts the result into
// percent-of-image regions.
package ocr

import (
	"context"
	"errors"

	"floorplan-editor/internal/region"
	"floorplan-editor/pkg/geometry"
)

// ErrDetection wraps any failure of the text detection backend. No partial
// results are returned when it occurs.
var ErrDetection = errors.New("text detection failed")

// Block is one piece of detected text with its bounds in image pixels.
type Block struct {
	Text   string        `json:"text"`
	Bounds geometry.Rect `json:"bounds"`
}

// Room is a clustered detection in image pixels.
type Room struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Category    region.Category `json:"category"`
	PixelBounds geometry.Rect   `json:"pixelBounds"`
}

// Detector finds text blocks in an encoded image.
type Detector interface {
	DetectText(ctx context.Context, image []byte) ([]Block, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, image []byte) ([]Block, error)

// DetectText implements Detector.
func (f DetectorFunc) DetectText(ctx context.Context, image []byte) ([]Block, error) {
	return f(ctx, image)
}

// Options holds the clustering thresholds. Multipliers are relative to the
// size of the letter or code block being matched.
type Options struct {
	// Vertical code repair: number block below a single letter.
	RepairMaxDX float64 `json:"repairMaxDx"`
	RepairMaxDY float64 `json:"repairMaxDy"`

	// Pixel slack allowed for blocks that overlap slightly.
	Tolerance float64 `json:"tolerance"`

	// Label association around a code anchor.
	AlignMaxDX    float64 `json:"alignMaxDx"`
	NeighborMaxDX float64 `json:"neighborMaxDx"`
	NeighborMaxDY float64 `json:"neighborMaxDy"`

	// Overlap ratio (intersection over the smaller area) above which the
	// smaller room is treated as a duplicate.
	OverlapThreshold float64 `json:"overlapThreshold"`

	UtilityPrefixes []string `json:"utilityPrefixes"`
	UtilityKeywords []string `json:"utilityKeywords"`
	OfficeKeywords  []string `json:"officeKeywords"`
	SpecialKeywords []string `json:"specialKeywords"`
}

// DefaultOptions returns thresholds tuned for scanned school floor plans.
func DefaultOptions() Options {
	return Options{
		RepairMaxDX:      1.5,
		RepairMaxDY:      4.5,
		Tolerance:        5,
		AlignMaxDX:       0.5,
		NeighborMaxDX:    1.2,
		NeighborMaxDY:    1.5,
		OverlapThreshold: 0.4,
		UtilityPrefixes:  []string{"W"},
		UtilityKeywords:  []string{"廁", "衛", "toilet", "restroom"},
		OfficeKeywords:   []string{"辦公", "處", "室", "office"},
		SpecialKeywords:  []string{"圖書", "音", "藝", "禮堂", "器材", "library", "music", "auditorium"},
	}
}
