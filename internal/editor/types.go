package editor

import (
	"floorplan-editor/internal/calibration"
	"floorplan-editor/internal/draw"
	"floorplan-editor/internal/group"
	"floorplan-editor/internal/region"
	"floorplan-editor/internal/selection"
	"floorplan-editor/pkg/geometry"
)

// Mode enumerates the editing states.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDrawing
	ModeSelecting
	ModeDragging
	ModeResizing
	ModeCalibrating
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDrawing:
		return "drawing"
	case ModeSelecting:
		return "selecting"
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	case ModeCalibrating:
		return "calibrating"
	default:
		return "unknown"
	}
}

// Tool is the pointer tool chosen by the operator.
type Tool int

const (
	ToolSelect Tool = iota
	ToolDraw
)

func (t Tool) String() string {
	if t == ToolDraw {
		return "draw"
	}
	return "select"
}

// ModeListener is called on each mode transition.
type ModeListener func(prev, next Mode)

// Modifiers are the keyboard modifiers held during a press.
type Modifiers struct {
	Shift bool
	Ctrl  bool
}

// Additive reports whether the press should add to the selection.
func (m Modifiers) Additive() bool { return m.Shift || m.Ctrl }

// TargetKind is what a press landed on.
type TargetKind int

const (
	TargetBackground TargetKind = iota
	TargetRegion
	TargetGroup
	TargetHandle
)

// Target identifies the object under the pointer.
type Target struct {
	Kind     TargetKind
	RegionID string
	Handle   group.Handle
}

// ResultKind says what a finished gesture produced.
type ResultKind int

const (
	ResultNone ResultKind = iota
	ResultPending
	ResultSelection
	ResultMoved
	ResultResized
	ResultClicked
	ResultCalibration
)

func (k ResultKind) String() string {
	switch k {
	case ResultPending:
		return "pending"
	case ResultSelection:
		return "selection"
	case ResultMoved:
		return "moved"
	case ResultResized:
		return "resized"
	case ResultClicked:
		return "clicked"
	case ResultCalibration:
		return "calibration"
	default:
		return "none"
	}
}

// Result is the outcome of a gesture. Regions is set only for moved and
// resized results; Selection always holds the selection after the gesture.
type Result struct {
	Kind      ResultKind
	Regions   region.List
	Selection selection.Set
	Pending   draw.Pending
	Clicked   string

	Transform calibration.Transform
	Solved    bool
}

// Preview is what to draw while a gesture is in progress. Nothing in it
// has been committed.
type Preview struct {
	// Regions replaces the host list for rendering, nil when unchanged.
	Regions region.List
	// Rect is the draw candidate or marquee, valid when HasRect is set.
	Rect    geometry.Rect
	HasRect bool
	// Box is the resize box, valid when HasBox is set.
	Box    geometry.Rect
	HasBox bool
}
