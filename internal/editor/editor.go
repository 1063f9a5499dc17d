// Package editor drives region editing from pointer gestures.
//
// The editor is an explicit state machine: every mode change goes through
// transition, and listeners see each (prev, next) pair. It never keeps the
// region list; each call borrows the host's list and returns a new one.
package editor

import (
	"fmt"
	"math"

	"floorplan-editor/internal/calibration"
	"floorplan-editor/internal/draw"
	"floorplan-editor/internal/group"
	"floorplan-editor/internal/region"
	"floorplan-editor/internal/selection"
	"floorplan-editor/internal/viewport"
	"floorplan-editor/pkg/geometry"

	"go.uber.org/zap"
)

// HandleRadius is the pick radius of a resize handle, in screen pixels.
const HandleRadius = 6.0

// Gesture is one press-move-release sequence.
type Gesture struct {
	mode     Mode
	target   Target
	regionID string

	drawer  draw.Drawer
	marquee selection.Marquee
	drag    *group.Drag
	resize  *group.Resize

	solved     bool
	toggledOff bool
}

// Mode returns the mode the gesture runs in.
func (g *Gesture) Mode() Mode { return g.mode }

// Target returns what the gesture started on.
func (g *Gesture) Target() Target { return g.target }

// Editor holds the editing session state for one floor plan.
type Editor struct {
	tool      Tool
	mode      Mode
	sel       selection.Set
	mapper    viewport.Mapper
	active    *Gesture
	session   *calibration.Session
	listeners []ModeListener
	logger    *zap.Logger
}

// New creates an idle editor with the select tool. A nil logger discards output.
func New(logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{logger: logger}
}

// OnModeChange registers a listener for mode transitions.
func (e *Editor) OnModeChange(l ModeListener) {
	e.listeners = append(e.listeners, l)
}

func (e *Editor) transition(next Mode) {
	prev := e.mode
	if prev == next {
		return
	}
	e.mode = next
	e.logger.Debug("editor mode transition", zap.Stringer("from", prev), zap.Stringer("to", next))
	for _, l := range e.listeners {
		l(prev, next)
	}
}

// Mode returns the current mode.
func (e *Editor) Mode() Mode { return e.mode }

// Tool returns the current tool.
func (e *Editor) Tool() Tool { return e.tool }

// SetTool switches tools. Any gesture in progress is abandoned.
func (e *Editor) SetTool(t Tool) {
	if e.active != nil {
		e.Abort(e.active)
	}
	e.tool = t
}

// SetViewport sets the on-screen rectangle of the rendered image.
func (e *Editor) SetViewport(screen geometry.Rect) {
	e.mapper = viewport.New(screen)
}

// Mapper returns the current coordinate mapper.
func (e *Editor) Mapper() viewport.Mapper { return e.mapper }

// Selection returns the current selection.
func (e *Editor) Selection() selection.Set { return e.sel }

// SetSelection replaces the selection, dropping IDs not in list.
func (e *Editor) SetSelection(s selection.Set, list region.List) selection.Set {
	e.sel = s.Prune(list)
	return e.sel
}

// SelectAll selects every region.
func (e *Editor) SelectAll(list region.List) selection.Set {
	e.sel = selection.All(list)
	return e.sel
}

// ClearSelection empties the selection.
func (e *Editor) ClearSelection() {
	e.sel = selection.New()
}

// Sync drops selected IDs that no longer exist in list. Hosts call it
// whenever they replace the list from outside the editor.
func (e *Editor) Sync(list region.List) selection.Set {
	e.sel = e.sel.Prune(list)
	return e.sel
}

// SelectionBox returns the bounding box of the selection.
func (e *Editor) SelectionBox(list region.List) (geometry.Rect, bool) {
	return group.Bounds(list, e.sel)
}

// HitTest resolves what lies under a screen point: a resize handle of the
// selection box first, then the topmost region, then the selection box.
func (e *Editor) HitTest(list region.List, raw geometry.Point2D) Target {
	if box, ok := e.SelectionBox(list); ok && e.tool == ToolSelect {
		for _, h := range group.Handles() {
			hp := e.mapper.ToPixel(h.Position(box))
			if math.Abs(hp.X-raw.X) <= HandleRadius && math.Abs(hp.Y-raw.Y) <= HandleRadius {
				return Target{Kind: TargetHandle, Handle: h}
			}
		}
	}

	p := e.mapper.ToPercentUnclamped(raw)
	if r, ok := list.TopmostAt(p); ok {
		return Target{Kind: TargetRegion, RegionID: r.ID}
	}
	if box, ok := e.SelectionBox(list); ok && box.Contains(p) {
		return Target{Kind: TargetGroup}
	}
	return Target{Kind: TargetBackground}
}

// Start begins a gesture at a screen point. It returns nil when the press
// does nothing, for example a region press with the draw tool.
func (e *Editor) Start(list region.List, target Target, raw geometry.Point2D, mods Modifiers) *Gesture {
	if e.mode == ModeCalibrating {
		return e.startCalibrationClick(raw)
	}
	if e.active != nil {
		e.Abort(e.active)
	}

	p := e.mapper.ToPercent(raw)
	g := &Gesture{target: target}

	switch target.Kind {
	case TargetHandle:
		if e.tool != ToolSelect {
			return nil
		}
		rs, ok := group.BeginResize(list, e.sel, target.Handle, e.mapper.ToPercentUnclamped(raw))
		if !ok {
			return nil
		}
		g.mode, g.resize = ModeResizing, rs

	case TargetRegion:
		if e.tool != ToolSelect || !list.Has(target.RegionID) {
			return nil
		}
		if mods.Additive() {
			e.sel = e.sel.Toggle(target.RegionID)
		} else if !e.sel.Has(target.RegionID) {
			e.sel = selection.New(target.RegionID)
		}
		if !e.sel.Has(target.RegionID) {
			// Toggled out of the selection: nothing under the pointer to drag.
			g.mode, g.toggledOff = ModeIdle, true
			break
		}
		g.mode, g.regionID = ModeDragging, target.RegionID
		g.drag = group.BeginDrag(e.sel, p)

	case TargetGroup:
		if e.tool != ToolSelect || e.sel.Empty() {
			return nil
		}
		g.mode = ModeDragging
		g.drag = group.BeginDrag(e.sel, p)

	default:
		if e.tool == ToolDraw {
			e.sel = selection.New()
			g.mode = ModeDrawing
			g.drawer.Begin(p)
		} else {
			if !mods.Additive() {
				e.sel = selection.New()
			}
			g.mode = ModeSelecting
			g.marquee.Begin(p, mods.Additive())
		}
	}

	e.active = g
	e.transition(g.mode)
	return g
}

// Move updates a gesture and returns what to draw. The region list is
// never changed.
func (e *Editor) Move(g *Gesture, list region.List, raw geometry.Point2D) Preview {
	if g == nil || g != e.active {
		return Preview{}
	}
	p := e.mapper.ToPercent(raw)

	switch g.mode {
	case ModeDrawing:
		return Preview{Rect: g.drawer.Update(p), HasRect: true}
	case ModeSelecting:
		return Preview{Rect: g.marquee.Update(p), HasRect: true}
	case ModeDragging:
		return Preview{Regions: g.drag.Preview(list, p)}
	case ModeResizing:
		pu := e.mapper.ToPercentUnclamped(raw)
		return Preview{Regions: g.resize.Preview(list, pu), Box: g.resize.Box(pu), HasBox: true}
	}
	return Preview{}
}

// End finishes a gesture at a screen point and returns its outcome.
func (e *Editor) End(g *Gesture, list region.List, raw geometry.Point2D) Result {
	if g == nil {
		return Result{Selection: e.sel}
	}
	if g.mode == ModeCalibrating {
		return e.calibrationResult(g)
	}
	if g != e.active {
		return Result{Selection: e.sel}
	}
	defer e.finish()
	if g.toggledOff {
		return Result{Kind: ResultSelection, Selection: e.sel}
	}

	p := e.mapper.ToPercent(raw)
	switch g.mode {
	case ModeDrawing:
		g.drawer.Update(p)
		if pending, ok := g.drawer.End(); ok {
			return Result{Kind: ResultPending, Pending: pending, Selection: e.sel}
		}

	case ModeSelecting:
		g.marquee.Update(p)
		if sel, ok := g.marquee.End(e.sel, list); ok {
			e.sel = sel
		}
		return Result{Kind: ResultSelection, Selection: e.sel}

	case ModeDragging:
		out, moved := g.drag.End(list, p)
		if moved {
			return Result{Kind: ResultMoved, Regions: out, Selection: e.sel}
		}
		if g.regionID != "" && e.sel.Len() == 1 && e.sel.Has(g.regionID) {
			return Result{Kind: ResultClicked, Clicked: g.regionID, Selection: e.sel}
		}
		return Result{Kind: ResultSelection, Selection: e.sel}

	case ModeResizing:
		out := g.resize.Commit(list, e.mapper.ToPercentUnclamped(raw))
		return Result{Kind: ResultResized, Regions: out, Selection: e.sel}
	}
	return Result{Selection: e.sel}
}

// Abort abandons a gesture without committing anything.
func (e *Editor) Abort(g *Gesture) {
	if g == nil || g != e.active {
		return
	}
	e.finish()
}

func (e *Editor) finish() {
	e.active = nil
	if e.mode != ModeCalibrating {
		e.transition(ModeIdle)
	}
}

// Commit names a drawn rectangle and adds it to list.
func (e *Editor) Commit(list region.List, p draw.Pending, code, name string, category region.Category) (region.List, error) {
	return p.Commit(list, code, name, category)
}

// Delete removes one region and drops it from the selection.
func (e *Editor) Delete(list region.List, id string) region.List {
	out := list.Remove(id)
	e.Sync(out)
	return out
}

// DeleteSelected removes every selected region.
func (e *Editor) DeleteSelected(list region.List) region.List {
	out := list.RemoveAll(e.sel.IDs())
	e.sel = selection.New()
	return out
}

// Clear removes all regions.
func (e *Editor) Clear(region.List) region.List {
	e.sel = selection.New()
	return region.List{}
}

// UpdateRegion replaces one region with fn(region). The result must still
// be a valid region.
func (e *Editor) UpdateRegion(list region.List, id string, fn func(region.Region) region.Region) (region.List, error) {
	r, ok := list.Find(id)
	if !ok {
		return list, fmt.Errorf("region %q not found", id)
	}
	if err := fn(r).Validate(); err != nil {
		return list, fmt.Errorf("update region %q: %w", id, err)
	}
	return list.Update(id, fn), nil
}
