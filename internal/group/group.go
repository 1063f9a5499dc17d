// Package group moves and rescales a selected set of regions as one unit.
package group

import (
	"floorplan-editor/internal/region"
	"floorplan-editor/internal/selection"
	"floorplan-editor/pkg/geometry"
)

// ClickThreshold is the displacement, in percent, below which a drag on
// both axes is treated as a click.
const ClickThreshold = 0.5

// Bounds returns the bounding box of the selected regions. It returns false
// when no selected ID references a region in list.
func Bounds(list region.List, sel selection.Set) (geometry.Rect, bool) {
	return geometry.BoundsOf(sel.Regions(list).Bounds())
}

// Translate returns a new list with every selected region offset by (dx, dy).
func Translate(list region.List, sel selection.Set, dx, dy float64) region.List {
	return list.Map(func(r region.Region) region.Region {
		if sel.Has(r.ID) {
			r.Bounds = r.Bounds.Offset(dx, dy)
		}
		return r
	})
}

// IsClick reports whether a displacement is too small to count as a move.
func IsClick(dx, dy float64) bool {
	return abs(dx) < ClickThreshold && abs(dy) < ClickThreshold
}

// Drag translates the selection by the pointer displacement since the press.
// Points are in clamped percent coordinates.
type Drag struct {
	sel   selection.Set
	start geometry.Point2D
	delta geometry.Point2D
}

// BeginDrag starts dragging sel from p.
func BeginDrag(sel selection.Set, p geometry.Point2D) *Drag {
	return &Drag{sel: sel, start: p}
}

// Move records the pointer position and returns the displacement so far.
func (d *Drag) Move(p geometry.Point2D) geometry.Point2D {
	d.delta = p.Sub(d.start)
	return d.delta
}

// Delta returns the last displacement recorded by Move.
func (d *Drag) Delta() geometry.Point2D { return d.delta }

// Selection returns the set being dragged.
func (d *Drag) Selection() selection.Set { return d.sel }

// Preview returns the list as it would look if the drag ended at p.
// Nothing is committed.
func (d *Drag) Preview(list region.List, p geometry.Point2D) region.List {
	delta := d.Move(p)
	return Translate(list, d.sel, delta.X, delta.Y)
}

// End finishes the drag at p. It returns false and the input list when the
// displacement is below the click threshold.
func (d *Drag) End(list region.List, p geometry.Point2D) (region.List, bool) {
	delta := d.Move(p)
	if IsClick(delta.X, delta.Y) {
		return list, false
	}
	return Translate(list, d.sel, delta.X, delta.Y), true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
