package editor

import (
	"errors"

	"floorplan-editor/internal/calibration"
	"floorplan-editor/internal/region"
	"floorplan-editor/internal/selection"
	"floorplan-editor/pkg/geometry"

	"go.uber.org/zap"
)

var errNotCalibrating = errors.New("not calibrating")

// BeginCalibration enters calibration mode over list. The list is not
// changed until ApplyCalibration.
func (e *Editor) BeginCalibration(list region.List, selector calibration.LandmarkSelector) error {
	s, err := calibration.NewSession(list, selector)
	if err != nil {
		return err
	}
	if e.active != nil {
		e.Abort(e.active)
	}
	e.session = s
	e.sel = selection.New()
	e.transition(ModeCalibrating)

	l := s.Landmarks()
	e.logger.Info("calibration started",
		zap.Int("regions", len(list)),
		zap.String("top_left", l.TopLeft.Code),
		zap.String("far_right", l.FarRight.Code),
		zap.String("bottom", l.Bottom.Code),
	)
	return nil
}

// Calibration returns the active calibration session, or nil.
func (e *Editor) Calibration() *calibration.Session { return e.session }

// startCalibrationClick records a landmark click. Presses are ignored
// while the session is not waiting for a click.
func (e *Editor) startCalibrationClick(raw geometry.Point2D) *Gesture {
	if e.session == nil || e.session.Step() == 0 {
		return nil
	}
	step := e.session.Step()
	solved := e.session.Click(e.mapper.ToPercent(raw))
	e.logger.Debug("calibration click", zap.Int("step", step), zap.Bool("solved", solved))
	if solved {
		e.logger.Info("calibration solved",
			zap.Stringer("transform", e.session.Transform()),
			zap.Float64("residual", e.session.Residual()),
		)
	}
	return &Gesture{mode: ModeCalibrating, solved: solved}
}

func (e *Editor) calibrationResult(g *Gesture) Result {
	r := Result{Kind: ResultCalibration, Selection: e.sel, Solved: g.solved}
	if e.session != nil {
		r.Transform = e.session.Transform()
	}
	return r
}

// RenderList returns the list to draw: the calibration preview while
// calibrating, otherwise list itself.
func (e *Editor) RenderList(list region.List) region.List {
	if e.mode == ModeCalibrating && e.session != nil {
		return e.session.Preview()
	}
	return list
}

// Nudge adjusts the calibration transform one keyboard step.
func (e *Editor) Nudge(key calibration.NudgeKey, scale, coarse bool) (calibration.Transform, error) {
	if e.session == nil {
		return calibration.Transform{}, errNotCalibrating
	}
	return e.session.Nudge(key, scale, coarse), nil
}

// SetManualTransform sets the calibration transform directly.
func (e *Editor) SetManualTransform(t calibration.Transform) error {
	if e.session == nil {
		return errNotCalibrating
	}
	e.session.SetManual(t)
	return nil
}

// RefineCalibration refits the transform to the recorded clicks by least
// squares.
func (e *Editor) RefineCalibration() (calibration.Transform, error) {
	if e.session == nil {
		return calibration.Transform{}, errNotCalibrating
	}
	if err := e.session.Refine(); err != nil {
		return calibration.Transform{}, err
	}
	e.logger.Info("calibration refined",
		zap.Stringer("transform", e.session.Transform()),
		zap.Float64("residual", e.session.Residual()),
	)
	return e.session.Transform(), nil
}

// ResetTransform returns the calibration transform to identity.
func (e *Editor) ResetTransform() error {
	if e.session == nil {
		return errNotCalibrating
	}
	e.session.ResetTransform()
	return nil
}

// RestartCalibration waits for the first landmark click again.
func (e *Editor) RestartCalibration() error {
	if e.session == nil {
		return errNotCalibrating
	}
	e.session.Restart()
	return nil
}

// ApplyCalibration bakes the transform into the regions, leaves
// calibration mode and selects every region for follow-up adjustment.
func (e *Editor) ApplyCalibration() (region.List, selection.Set, error) {
	if e.session == nil {
		return nil, e.sel, errNotCalibrating
	}
	out := e.session.Apply()
	e.logger.Info("calibration applied", zap.Stringer("transform", e.session.Transform()))
	e.session = nil
	e.sel = selection.All(out)
	e.transition(ModeIdle)
	return out, e.sel, nil
}

// CancelCalibration leaves calibration mode and returns the
// pre-calibration list unchanged.
func (e *Editor) CancelCalibration() (region.List, error) {
	if e.session == nil {
		return nil, errNotCalibrating
	}
	out := e.session.Cancel()
	e.session = nil
	e.transition(ModeIdle)
	return out, nil
}
