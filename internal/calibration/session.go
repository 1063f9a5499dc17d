package calibration

import (
	"fmt"
	"math"

	"floorplan-editor/internal/region"
	"floorplan-editor/pkg/geometry"
)

// Steps is the number of landmark clicks in a three-point calibration.
const Steps = 3

// Nudge limits for manual adjustment.
const (
	MoveStepFine    = 0.1
	MoveStepCoarse  = 1.0
	ScaleStepFine   = 0.005
	ScaleStepCoarse = 0.05
	MinScale        = 0.1
)

// NudgeKey is an arrow key direction.
type NudgeKey int

const (
	NudgeLeft NudgeKey = iota
	NudgeRight
	NudgeUp
	NudgeDown
)

// Session is one calibration pass over a template. The base list is never
// modified; Preview renders the current transform and Apply bakes it in.
type Session struct {
	base      region.List
	landmarks Landmarks
	step      int
	clicks    []geometry.Point2D
	transform Transform
	solved    bool
}

// NewSession starts a calibration over list, waiting for the first
// landmark click.
func NewSession(list region.List, selector LandmarkSelector) (*Session, error) {
	if selector == nil {
		selector = DefaultConvention()
	}
	l, err := selector.Select(list)
	if err != nil {
		return nil, fmt.Errorf("select landmarks: %w", err)
	}
	return &Session{
		base:      list.Clone(),
		landmarks: l,
		step:      1,
		transform: Identity(),
	}, nil
}

// Step returns the 1-based landmark the session is waiting for, or 0 when
// no clicks are expected (solved, or adjusting manually).
func (s *Session) Step() int { return s.step }

// Landmarks returns the selected landmark regions.
func (s *Session) Landmarks() Landmarks { return s.landmarks }

// Landmark returns the region the operator should click at the given step.
func (s *Session) Landmark(step int) (region.Region, bool) {
	return s.landmarks.At(step)
}

// Clicks returns the clicks recorded so far.
func (s *Session) Clicks() []geometry.Point2D {
	out := make([]geometry.Point2D, len(s.clicks))
	copy(out, s.clicks)
	return out
}

// Solved reports whether the last three-point pass completed.
func (s *Session) Solved() bool { return s.solved }

// Click records a landmark click at p in percent coordinates and returns
// true when it completed the solve. The first click moves the preview so
// that the top-left landmark sits under the pointer at the current scale.
func (s *Session) Click(p geometry.Point2D) bool {
	switch s.step {
	case 1:
		s.clicks = []geometry.Point2D{p}
		t1 := s.landmarks.TopLeft.Center()
		s.transform.X = p.X - t1.X*s.transform.ScaleX
		s.transform.Y = p.Y - t1.Y*s.transform.ScaleY
		s.step = 2
	case 2:
		s.clicks = append(s.clicks, p)
		s.step = 3
	case 3:
		s.clicks = append(s.clicks, p)
		s.transform = Solve(s.landmarks, [3]geometry.Point2D{s.clicks[0], s.clicks[1], s.clicks[2]})
		s.step = 0
		s.solved = true
		return true
	}
	return false
}

// Fit replaces the transform with a least-squares fit over pairs, for
// operators who clicked more landmarks than the three-point solve uses.
func (s *Session) Fit(pairs []Pair) error {
	t, err := FitLeastSquares(pairs)
	if err != nil {
		return err
	}
	s.transform = t
	s.step = 0
	s.solved = true
	return nil
}

// Refine refits the transform by least squares over every recorded click
// instead of the two pairs per axis that Solve uses.
func (s *Session) Refine() error {
	if len(s.clicks) < 2 {
		return fmt.Errorf("%w: need at least 2 clicks, got %d", ErrNotSolved, len(s.clicks))
	}
	return s.Fit(s.landmarks.Pairs(s.clicks))
}

// Residual returns the mean landmark error of the current transform over
// the recorded clicks.
func (s *Session) Residual() float64 {
	return Residual(s.landmarks.Pairs(s.clicks), s.transform)
}

// Restart clears the clicks and waits for the first landmark again.
// The current transform is kept until the first click replaces it.
func (s *Session) Restart() {
	s.clicks = nil
	s.step = 1
	s.solved = false
}

// SetManual sets the transform directly. The scale is used as given.
func (s *Session) SetManual(t Transform) {
	s.transform = t
}

// Nudge adjusts the transform one keyboard step. With scale set, left/up
// shrink and right/down grow the matching axis; otherwise the arrows move.
// Coarse selects the larger step.
func (s *Session) Nudge(key NudgeKey, scale, coarse bool) Transform {
	move, grow := MoveStepFine, ScaleStepFine
	if coarse {
		move, grow = MoveStepCoarse, ScaleStepCoarse
	}

	t := s.transform
	if scale {
		switch key {
		case NudgeRight:
			t.ScaleX += grow
		case NudgeLeft:
			t.ScaleX = math.Max(MinScale, t.ScaleX-grow)
		case NudgeDown:
			t.ScaleY += grow
		case NudgeUp:
			t.ScaleY = math.Max(MinScale, t.ScaleY-grow)
		}
	} else {
		switch key {
		case NudgeRight:
			t.X += move
		case NudgeLeft:
			t.X -= move
		case NudgeDown:
			t.Y += move
		case NudgeUp:
			t.Y -= move
		}
	}
	s.transform = t
	return t
}

// ResetTransform returns the transform to identity.
func (s *Session) ResetTransform() {
	s.transform = Identity()
}

// Transform returns the current transform.
func (s *Session) Transform() Transform { return s.transform }

// Base returns the pre-calibration list.
func (s *Session) Base() region.List { return s.base.Clone() }

// Preview returns the base list with the current transform applied, for
// rendering only.
func (s *Session) Preview() region.List {
	return s.transform.Apply(s.base)
}

// Apply returns the calibrated list.
func (s *Session) Apply() region.List {
	return s.transform.Apply(s.base)
}

// Cancel discards the transform and returns the pre-calibration list.
func (s *Session) Cancel() region.List {
	return s.base.Clone()
}
