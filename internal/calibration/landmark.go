package calibration

import (
	"fmt"

	"floorplan-editor/internal/region"
	"floorplan-editor/pkg/geometry"
)

// Landmarks are the three template regions the operator clicks, in order.
type Landmarks struct {
	TopLeft  region.Region
	FarRight region.Region
	Bottom   region.Region
}

// At returns the landmark for a 1-based calibration step.
func (l Landmarks) At(step int) (region.Region, bool) {
	switch step {
	case 1:
		return l.TopLeft, true
	case 2:
		return l.FarRight, true
	case 3:
		return l.Bottom, true
	}
	return region.Region{}, false
}

// Pairs links each landmark center to the matching click.
func (l Landmarks) Pairs(clicks []geometry.Point2D) []Pair {
	anchors := []region.Region{l.TopLeft, l.FarRight, l.Bottom}
	pairs := make([]Pair, 0, len(clicks))
	for i, c := range clicks {
		if i >= len(anchors) {
			break
		}
		pairs = append(pairs, Pair{Template: anchors[i].Center(), Click: c})
	}
	return pairs
}

// LandmarkSelector picks calibration landmarks from a region list.
type LandmarkSelector interface {
	Select(list region.List) (Landmarks, error)
}

// ConventionSelector looks landmarks up by region code. Each slot lists
// candidate codes in priority order. When none match, the top-left slot
// uses the first region, far-right the region with the largest x and
// bottom the region with the largest y. Ties keep the earliest region.
type ConventionSelector struct {
	TopLeft  []string `json:"topLeft"`
	FarRight []string `json:"farRight"`
	Bottom   []string `json:"bottom"`
}

// DefaultConvention returns the codes used by the built-in school templates.
func DefaultConvention() ConventionSelector {
	return ConventionSelector{
		TopLeft:  []string{"W301"},
		FarRight: []string{"C310"},
		Bottom:   []string{"C127", "W104"},
	}
}

// Select implements LandmarkSelector.
func (s ConventionSelector) Select(list region.List) (Landmarks, error) {
	if len(list) < 2 {
		return Landmarks{}, ErrTooFewRegions
	}
	maxX, _ := list.MaxBy(func(a, b region.Region) bool { return b.Bounds.X > a.Bounds.X })
	maxY, _ := list.MaxBy(func(a, b region.Region) bool { return b.Bounds.Y > a.Bounds.Y })

	return Landmarks{
		TopLeft:  byCode(list, s.TopLeft, list[0]),
		FarRight: byCode(list, s.FarRight, maxX),
		Bottom:   byCode(list, s.Bottom, maxY),
	}, nil
}

func byCode(list region.List, codes []string, fallback region.Region) region.Region {
	for _, code := range codes {
		if r, ok := list.FindByCode(code); ok {
			return r
		}
	}
	return fallback
}

// ExplicitSelector designates landmarks by region ID.
type ExplicitSelector struct {
	TopLeft  string
	FarRight string
	Bottom   string
}

// Select implements LandmarkSelector.
func (s ExplicitSelector) Select(list region.List) (Landmarks, error) {
	if len(list) < 2 {
		return Landmarks{}, ErrTooFewRegions
	}
	var l Landmarks
	for _, slot := range []struct {
		id  string
		dst *region.Region
	}{
		{s.TopLeft, &l.TopLeft},
		{s.FarRight, &l.FarRight},
		{s.Bottom, &l.Bottom},
	} {
		r, ok := list.Find(slot.id)
		if !ok {
			return Landmarks{}, fmt.Errorf("landmark region %q not found", slot.id)
		}
		*slot.dst = r
	}
	return l, nil
}
