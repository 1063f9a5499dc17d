package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"floorplan-editor/internal/calibration"
	"floorplan-editor/internal/editor"
	"floorplan-editor/internal/ocr"
	"floorplan-editor/internal/region"
	"floorplan-editor/internal/template"
	"floorplan-editor/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func room(code string, x, y float64) region.Region {
	return region.New(code, code, region.CategoryClassroom, geometry.NewRect(x, y, 5, 5))
}

func TestUndoRedo(t *testing.T) {
	s := NewState(nil, 0)
	changes := 0
	s.On(EventRegionsChanged, func(interface{}) { changes++ })

	a := region.List{room("C101", 1, 1)}
	b := append(a.Clone(), room("C102", 10, 10))
	s.SetRegions(a)
	s.SetRegions(b)
	assert.Len(t, s.Regions(), 2)
	assert.True(t, s.Modified)

	require.True(t, s.Undo())
	assert.Equal(t, a, s.Regions())
	require.True(t, s.Undo())
	assert.Empty(t, s.Regions())
	assert.False(t, s.Undo())

	require.True(t, s.Redo())
	assert.Equal(t, a, s.Regions())
	assert.True(t, s.CanRedo())

	// A new change drops the redo branch.
	s.SetRegions(b)
	assert.False(t, s.CanRedo())
	assert.Equal(t, 6, changes)
}

func TestUndoDepthIsBounded(t *testing.T) {
	s := NewState(nil, 2)
	for i := 0; i < 5; i++ {
		s.SetRegions(region.List{room("C10"+string(rune('0'+i)), float64(i), 0)})
	}
	assert.True(t, s.Undo())
	assert.True(t, s.Undo())
	assert.False(t, s.Undo())
}

func TestDeleteSelectedRecordsHistory(t *testing.T) {
	s := NewState(nil, 0)
	list := region.List{room("C101", 1, 1), room("C102", 10, 10)}
	s.SetRegions(list)
	s.Editor.SelectAll(list)

	s.DeleteSelected()
	assert.Empty(t, s.Regions())
	assert.True(t, s.Editor.Selection().Empty())

	require.True(t, s.Undo())
	assert.Len(t, s.Regions(), 2)
}

func TestApplyResultMoved(t *testing.T) {
	s := NewState(nil, 0)
	list := region.List{room("C101", 1, 1)}
	s.SetRegions(list)

	moved := list.Map(func(r region.Region) region.Region {
		r.Bounds = r.Bounds.Offset(2, 0)
		return r
	})
	s.ApplyResult(editor.Result{Kind: editor.ResultMoved, Regions: moved})
	assert.InDelta(t, 3, s.Regions()[0].Bounds.X, 1e-9)

	s.ApplyResult(editor.Result{Kind: editor.ResultNone})
	assert.InDelta(t, 3, s.Regions()[0].Bounds.X, 1e-9)
}

func TestCtrlDeselectIsNotAnEdit(t *testing.T) {
	s := NewState(nil, 0)
	list := region.List{room("C101", 10, 10), room("C102", 60, 10)}
	s.SetRegions(list)
	s.SetModified(false)
	s.Editor.SetViewport(geometry.NewRect(0, 0, 1000, 1000))
	s.Editor.SelectAll(list)

	press := geometry.Point2D{X: 620, Y: 120}
	target := s.Editor.HitTest(list, press)
	require.Equal(t, editor.TargetRegion, target.Kind)
	g := s.Editor.Start(list, target, press, editor.Modifiers{Ctrl: true})
	require.NotNil(t, g)
	s.Editor.Move(g, list, geometry.Point2D{X: 800, Y: 300})
	s.ApplyResult(s.Editor.End(g, list, geometry.Point2D{X: 800, Y: 300}))

	assert.Equal(t, list, s.Regions())
	assert.False(t, s.Modified)
	assert.Equal(t, []string{list[0].ID}, s.Editor.Selection().IDs())
	require.True(t, s.Undo())
	assert.False(t, s.CanUndo())
}

func TestLoadTemplateWithLandmarks(t *testing.T) {
	s := NewState(nil, 0)
	tpl, err := template.Builtin("elementary")
	require.NoError(t, err)

	require.NoError(t, s.LoadTemplateWithLandmarks(tpl, [3]int{0, 2, 11}))
	lm := s.Editor.Calibration().Landmarks()
	assert.Equal(t, tpl.Rooms[0].Code, lm.TopLeft.Code)
	assert.Equal(t, tpl.Rooms[2].Code, lm.FarRight.Code)
	assert.Equal(t, tpl.Rooms[11].Code, lm.Bottom.Code)
	assert.Equal(t, s.Regions()[2].ID, lm.FarRight.ID)

	require.NoError(t, s.CancelCalibration())
	before := s.Regions()
	assert.Error(t, s.LoadTemplateWithLandmarks(tpl, [3]int{0, 1, len(tpl.Rooms)}))
	assert.Equal(t, before, s.Regions())
}

func TestRefineCalibration(t *testing.T) {
	s := NewState(nil, 0)
	assert.Error(t, s.RefineCalibration())

	tpl, err := template.Builtin("elementary")
	require.NoError(t, err)
	require.NoError(t, s.LoadTemplate(tpl))
	s.Editor.SetViewport(geometry.NewRect(0, 0, 100, 100))
	assert.ErrorIs(t, s.RefineCalibration(), calibration.ErrNotSolved)

	lm := s.Editor.Calibration().Landmarks()
	clicks := []geometry.Point2D{
		lm.TopLeft.Bounds.Center().Add(geometry.Point2D{X: 2, Y: 1}),
		lm.FarRight.Bounds.Center().Add(geometry.Point2D{X: 2.5, Y: 1}),
		lm.Bottom.Bounds.Center().Add(geometry.Point2D{X: 1.5, Y: 2}),
	}
	for _, c := range clicks {
		g := s.Editor.Start(s.Regions(), editor.Target{}, c, editor.Modifiers{})
		s.ApplyResult(s.Editor.End(g, s.Regions(), c))
	}
	require.True(t, s.Editor.Calibration().Solved())

	var got calibration.Transform
	s.On(EventCalibrationChanged, func(data interface{}) { got = data.(calibration.Transform) })
	require.NoError(t, s.RefineCalibration())

	want, err := calibration.FitLeastSquares(lm.Pairs(clicks))
	require.NoError(t, err)
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.ScaleX, got.ScaleX, 1e-9)
	assert.InDelta(t, want.ScaleY, s.Editor.Calibration().Transform().ScaleY, 1e-9)
}

func TestLoadTemplateStartsCalibration(t *testing.T) {
	s := NewState(nil, 0)
	tpl, err := template.Builtin("elementary")
	require.NoError(t, err)

	started := false
	s.On(EventCalibrationStarted, func(interface{}) { started = true })
	require.NoError(t, s.LoadTemplate(tpl))

	assert.True(t, started)
	assert.Equal(t, "elementary", s.Template)
	assert.Equal(t, editor.ModeCalibrating, s.Editor.Mode())
	assert.Len(t, s.Regions(), len(tpl.Rooms))

	require.NoError(t, s.Editor.SetManualTransform(s.Editor.Calibration().Transform()))
	require.NoError(t, s.ApplyCalibration())
	assert.Equal(t, editor.ModeIdle, s.Editor.Mode())
	assert.Equal(t, len(tpl.Rooms), s.Editor.Selection().Len())
}

func TestLoadTemplateTooSmallKeepsRegions(t *testing.T) {
	s := NewState(nil, 0)
	list := region.List{room("C101", 10, 10), room("C102", 30, 10)}
	s.SetRegions(list)
	s.SetModified(false)

	solo := &template.Template{Name: "solo", Rooms: region.List{room("A1", 1, 1)}}
	err := s.LoadTemplate(solo)
	assert.ErrorIs(t, err, calibration.ErrTooFewRegions)

	assert.Equal(t, list, s.Regions())
	assert.Empty(t, s.Template)
	assert.False(t, s.Modified)
	assert.Equal(t, editor.ModeIdle, s.Editor.Mode())

	require.True(t, s.Undo())
	assert.Empty(t, s.Regions(), "only the initial SetRegions is in history")
}

func TestCancelCalibrationKeepsRegions(t *testing.T) {
	s := NewState(nil, 0)
	list := region.List{room("W301", 1, 1), room("C310", 50, 1)}
	s.SetRegions(list)
	require.NoError(t, s.StartCalibration())
	require.NoError(t, s.CancelCalibration())
	assert.Equal(t, list, s.Regions())
	assert.Error(t, s.CancelCalibration())
}

func TestAutoDetect(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "plan.png")
	writePNG(t, imgPath, 200, 100)

	s := NewState(nil, 0)
	_, err := s.AutoDetect(context.Background(), ocr.NewPipeline(nil, time.Second, nil))
	assert.ErrorIs(t, err, ErrNoImage)

	require.NoError(t, s.LoadImage(imgPath))
	assert.Equal(t, 200, s.ImageWidth)

	det := ocr.DetectorFunc(func(ctx context.Context, img []byte) ([]ocr.Block, error) {
		return []ocr.Block{{Text: "C101", Bounds: geometry.NewRect(20, 10, 20, 10)}}, nil
	})
	n, err := s.AutoDetect(context.Background(), ocr.NewPipeline(det, time.Second, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "C101", s.Regions()[0].Code)

	failing := ocr.DetectorFunc(func(ctx context.Context, img []byte) ([]ocr.Block, error) {
		return nil, errors.New("offline")
	})
	_, err = s.AutoDetect(context.Background(), ocr.NewPipeline(failing, time.Second, nil))
	assert.ErrorIs(t, err, ocr.ErrDetection)
	assert.Len(t, s.Regions(), 1, "failed detection leaves regions unchanged")
}

func TestRecognizeLeavesEditorToCaller(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "plan.png")
	writePNG(t, imgPath, 200, 100)

	s := NewState(nil, 0)
	require.NoError(t, s.LoadImage(imgPath))
	before := region.List{room("C101", 10, 10), room("C102", 60, 10)}
	s.SetRegions(before)
	s.Editor.SetViewport(geometry.NewRect(0, 0, 100, 100))

	det := ocr.DetectorFunc(func(ctx context.Context, img []byte) ([]ocr.Block, error) {
		time.Sleep(20 * time.Millisecond)
		return []ocr.Block{{Text: "C310", Bounds: geometry.NewRect(100, 20, 20, 10)}}, nil
	})

	type outcome struct {
		list region.List
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		list, err := s.Recognize(context.Background(), ocr.NewPipeline(det, time.Second, nil))
		done <- outcome{list, err}
	}()

	// The editor keeps serving gestures while recognition runs.
	var got outcome
	for waiting := true; waiting; {
		g := s.Editor.Start(s.Regions(), editor.Target{Kind: editor.TargetBackground}, geometry.Point2D{X: 5, Y: 5}, editor.Modifiers{})
		s.ApplyResult(s.Editor.End(g, s.Regions(), geometry.Point2D{X: 70, Y: 20}))
		select {
		case got = <-done:
			waiting = false
		default:
		}
	}
	require.NoError(t, got.err)
	require.Len(t, got.list, 1)
	assert.Equal(t, before, s.Regions(), "recognition does not replace regions")
	assert.Equal(t, 2, s.Editor.Selection().Len())

	completed := 0
	s.On(EventDetectionComplete, func(data interface{}) { completed = data.(int) })
	assert.Equal(t, 1, s.ApplyDetected(got.list))
	assert.Equal(t, 1, completed)
	assert.Equal(t, "C310", s.Regions()[0].Code)
	assert.Equal(t, 0, s.Editor.Selection().Len(), "stale selection is pruned")
}

func TestSaveAndLoadProject(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "plan.png")
	writePNG(t, imgPath, 40, 30)

	s := NewState(nil, 0)
	require.NoError(t, s.LoadImage(imgPath))
	s.SetRegions(region.List{room("C101", 1, 1)})

	saved := ""
	s.On(EventProjectSaved, func(d interface{}) { saved = d.(string) })
	require.NoError(t, s.SaveProject(filepath.Join(dir, "school")))
	assert.Equal(t, filepath.Join(dir, "school.floorplan"), saved)
	assert.False(t, s.Modified)

	other := NewState(nil, 0)
	require.NoError(t, other.LoadProject(saved))
	assert.Equal(t, s.Regions(), other.Regions())
	assert.Equal(t, imgPath, other.ImagePath)
	assert.Equal(t, 40, other.ImageWidth)
	assert.False(t, other.Modified)
	assert.False(t, other.CanUndo())
}

func TestImageWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "plan.png")
	writePNG(t, imgPath, 10, 10)

	s := NewState(nil, 0)
	require.NoError(t, s.LoadImage(imgPath))

	w := NewImageWatcher(s, 5*time.Millisecond)
	reloaded := make(chan string, 1)
	w.OnReload(func(p string) {
		select {
		case reloaded <- p:
		default:
		}
	})
	w.Start()
	defer w.Stop()

	writePNG(t, imgPath, 20, 10)
	later := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(imgPath, later, later))

	select {
	case p := <-reloaded:
		assert.Equal(t, imgPath, p)
	case <-time.After(2 * time.Second):
		t.Fatal("image was not reloaded")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Equal(t, 20, s.ImageWidth)
}

func TestCalibrationAdjustmentsEmit(t *testing.T) {
	s := NewState(nil, 0)
	list := region.List{room("W301", 10, 10), room("C310", 80, 10), room("C127", 40, 80)}
	s.SetRegions(list)

	var last calibration.Transform
	events := 0
	s.On(EventCalibrationChanged, func(d interface{}) {
		events++
		last = d.(calibration.Transform)
	})

	assert.Error(t, s.NudgeCalibration(calibration.NudgeRight, false, false))
	require.NoError(t, s.StartCalibration())

	require.NoError(t, s.NudgeCalibration(calibration.NudgeRight, false, true))
	assert.InDelta(t, calibration.MoveStepCoarse, last.X, 1e-9)

	require.NoError(t, s.SetCalibrationTransform(calibration.Transform{X: 2, Y: 3, ScaleX: 1.5, ScaleY: 1}))
	assert.InDelta(t, 1.5, last.ScaleX, 1e-9)
	assert.InDelta(t, 10*1.5+2, s.RenderRegions()[0].Bounds.X, 1e-9)

	require.NoError(t, s.ResetCalibration())
	assert.True(t, last.IsIdentity())
	require.NoError(t, s.RestartCalibration())
	assert.Equal(t, 1, s.Editor.Calibration().Step())
	assert.Equal(t, 4, events)
}
