package group

import (
	"fmt"
	"math"
	"strings"

	"floorplan-editor/internal/region"
	"floorplan-editor/internal/selection"
	"floorplan-editor/pkg/geometry"
)

// MinExtent is the smallest width or height, in percent, a resized box may have.
const MinExtent = 0.5

// Handle is one of the eight resize handles on a selection box.
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

// Handles returns all handles, corners first.
func Handles() []Handle {
	return []Handle{HandleNW, HandleNE, HandleSW, HandleSE, HandleN, HandleS, HandleE, HandleW}
}

// ParseHandle validates a handle name.
func ParseHandle(s string) (Handle, error) {
	h := Handle(strings.ToLower(s))
	for _, known := range Handles() {
		if h == known {
			return h, nil
		}
	}
	return "", fmt.Errorf("unknown resize handle %q", s)
}

func (h Handle) north() bool { return strings.Contains(string(h), "n") }
func (h Handle) south() bool { return strings.Contains(string(h), "s") }
func (h Handle) east() bool  { return strings.Contains(string(h), "e") }
func (h Handle) west() bool  { return strings.Contains(string(h), "w") }

// Position returns where the handle sits on box.
func (h Handle) Position(box geometry.Rect) geometry.Point2D {
	p := box.Center()
	if h.west() {
		p.X = box.X
	}
	if h.east() {
		p.X = box.Right()
	}
	if h.north() {
		p.Y = box.Y
	}
	if h.south() {
		p.Y = box.Bottom()
	}
	return p
}

// ResizeBox moves the edges of start named by the handle by (dx, dy).
// Width and height never drop below MinExtent. A west or north edge moves
// the origin by the full delta even when the extent is floored.
func ResizeBox(start geometry.Rect, h Handle, dx, dy float64) geometry.Rect {
	box := start
	if h.east() {
		box.Width = math.Max(MinExtent, start.Width+dx)
	}
	if h.west() {
		box.X = start.X + dx
		box.Width = math.Max(MinExtent, start.Width-dx)
	}
	if h.south() {
		box.Height = math.Max(MinExtent, start.Height+dy)
	}
	if h.north() {
		box.Y = start.Y + dy
		box.Height = math.Max(MinExtent, start.Height-dy)
	}
	return box
}

// Remap rescales orig from startBox into newBox, preserving its relative
// position and size. An axis with zero start extent keeps a ratio of 1.
func Remap(orig, startBox, newBox geometry.Rect) geometry.Rect {
	ratioW, ratioH := 1.0, 1.0
	if startBox.Width > 0 {
		ratioW = newBox.Width / startBox.Width
	}
	if startBox.Height > 0 {
		ratioH = newBox.Height / startBox.Height
	}
	return geometry.Rect{
		X:      newBox.X + (orig.X-startBox.X)*ratioW,
		Y:      newBox.Y + (orig.Y-startBox.Y)*ratioH,
		Width:  orig.Width * ratioW,
		Height: orig.Height * ratioH,
	}
}

// Resize is an in-progress group resize. Pointer positions are unclamped
// percent coordinates so that dragging past the image edge keeps scaling.
type Resize struct {
	handle   Handle
	sel      selection.Set
	pointer  geometry.Point2D
	startBox geometry.Rect
	start    map[string]geometry.Rect
}

// BeginResize snapshots the selection box and the bounds of every selected
// region. It returns false for an empty or fully stale selection.
func BeginResize(list region.List, sel selection.Set, h Handle, pointer geometry.Point2D) (*Resize, bool) {
	box, ok := Bounds(list, sel)
	if !ok {
		return nil, false
	}
	start := make(map[string]geometry.Rect, sel.Len())
	for _, r := range sel.Regions(list) {
		start[r.ID] = r.Bounds
	}
	return &Resize{handle: h, sel: sel, pointer: pointer, startBox: box, start: start}, true
}

// Handle returns the handle being dragged.
func (rs *Resize) Handle() Handle { return rs.handle }

// StartBox returns the selection box at the start of the gesture.
func (rs *Resize) StartBox() geometry.Rect { return rs.startBox }

// Box returns the selection box for the pointer at p.
func (rs *Resize) Box(p geometry.Point2D) geometry.Rect {
	return ResizeBox(rs.startBox, rs.handle, p.X-rs.pointer.X, p.Y-rs.pointer.Y)
}

// Preview returns the remapped list for the pointer at p without rounding.
func (rs *Resize) Preview(list region.List, p geometry.Point2D) region.List {
	return rs.apply(list, rs.Box(p), false)
}

// Commit returns the final list for the pointer at p with bounds rounded to
// two decimal places.
func (rs *Resize) Commit(list region.List, p geometry.Point2D) region.List {
	return rs.apply(list, rs.Box(p), true)
}

func (rs *Resize) apply(list region.List, box geometry.Rect, round bool) region.List {
	return list.Map(func(r region.Region) region.Region {
		if !rs.sel.Has(r.ID) {
			return r
		}
		orig, ok := rs.start[r.ID]
		if !ok {
			orig = r.Bounds
		}
		r.Bounds = Remap(orig, rs.startBox, box)
		if round {
			r.Bounds = r.Bounds.Round(2)
		}
		return r
	})
}
