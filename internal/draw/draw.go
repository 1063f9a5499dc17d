// Package draw implements click-drag creation of new regions.
package draw

import (
	"fmt"

	"floorplan-editor/internal/region"
	"floorplan-editor/pkg/geometry"
)

// MinSize is the minimum width and height, in percent, for a drawn region.
const MinSize = 2.0

// Drawer tracks one rubber-band rectangle from press to release.
type Drawer struct {
	active    bool
	anchor    geometry.Point2D
	candidate geometry.Rect
}

// Pending is a drawn rectangle awaiting a code and name from the operator.
type Pending struct {
	ID     string
	Bounds geometry.Rect
}

// Begin anchors a zero-sized candidate at p.
func (d *Drawer) Begin(p geometry.Point2D) {
	d.active = true
	d.anchor = p
	d.candidate = geometry.Rect{X: p.X, Y: p.Y}
}

// Update recomputes the candidate as the box spanned by the anchor and p.
func (d *Drawer) Update(p geometry.Point2D) geometry.Rect {
	if !d.active {
		return geometry.Rect{}
	}
	d.candidate = geometry.RectFromCorners(d.anchor, p)
	return d.candidate
}

// End finishes the gesture. It returns false when the candidate is too
// small in either dimension, which is treated as a click.
func (d *Drawer) End() (Pending, bool) {
	if !d.active {
		return Pending{}, false
	}
	c := d.candidate
	d.Reset()
	if c.Width > MinSize && c.Height > MinSize {
		return Pending{ID: region.NewID(), Bounds: c}, true
	}
	return Pending{}, false
}

// Active reports whether a gesture is in progress.
func (d *Drawer) Active() bool { return d.active }

// Candidate returns the current preview rectangle.
func (d *Drawer) Candidate() geometry.Rect { return d.candidate }

// Reset abandons the gesture.
func (d *Drawer) Reset() {
	*d = Drawer{}
}

// Commit appends the pending rectangle to list as a named region.
// The list is returned unchanged on error.
func (p Pending) Commit(list region.List, code, name string, category region.Category) (region.List, error) {
	r := region.New(code, name, category, p.Bounds)
	if p.ID != "" {
		r.ID = p.ID
	}
	out, err := list.Add(r)
	if err != nil {
		return list, fmt.Errorf("commit drawn region: %w", err)
	}
	return out, nil
}
