// Package app provides application lifecycle management, state, and events.
package app

import (
	"context"
	"errors"
	"fmt"
	goimage "image"
	"path/filepath"
	"strings"
	"sync"

	"floorplan-editor/internal/calibration"
	"floorplan-editor/internal/draw"
	"floorplan-editor/internal/editor"
	"floorplan-editor/internal/ocr"
	"floorplan-editor/internal/project"
	"floorplan-editor/internal/region"
	"floorplan-editor/internal/template"

	"go.uber.org/zap"
)

// DefaultUndoDepth bounds the history when the caller gives no depth.
const DefaultUndoDepth = 50

// ErrNoImage is returned by operations that need a loaded floor plan.
var ErrNoImage = errors.New("no floor-plan image loaded")

// State holds the application state: the canonical region list, the
// floor-plan image, project bookkeeping and the editor.
//
// Region lists are never mutated in place, so history entries are plain
// slice snapshots. The Editor is not safe for concurrent use and must only
// be driven from the UI goroutine.
type State struct {
	mu sync.RWMutex

	// Project
	ProjectPath string
	Modified    bool
	Template    string

	// Image
	ImagePath   string
	ImageData   []byte
	Image       goimage.Image
	ImageWidth  int
	ImageHeight int

	regions   region.List
	undo      []region.List
	redo      []region.List
	undoDepth int

	Editor *editor.Editor
	logger *zap.Logger

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventImageLoaded
	EventModified
	EventRegionsChanged
	EventSelectionChanged
	EventCalibrationStarted
	EventCalibrationApplied
	EventCalibrationCancelled
	EventCalibrationChanged
	EventDetectionComplete
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a new application state. A nil logger discards output.
func NewState(logger *zap.Logger, undoDepth int) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	if undoDepth <= 0 {
		undoDepth = DefaultUndoDepth
	}
	return &State{
		regions:   region.List{},
		undoDepth: undoDepth,
		Editor:    editor.New(logger.Named("editor")),
		logger:    logger,
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// Regions returns the current region list. Callers must not modify it.
func (s *State) Regions() region.List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.regions
}

// SetRegions replaces the region list and records the previous one for undo.
func (s *State) SetRegions(list region.List) {
	s.mu.Lock()
	s.pushUndo(s.regions)
	s.redo = nil
	s.regions = list
	s.mu.Unlock()

	s.regionsChanged(list)
}

func (s *State) pushUndo(list region.List) {
	s.undo = append(s.undo, list)
	if len(s.undo) > s.undoDepth {
		s.undo = s.undo[len(s.undo)-s.undoDepth:]
	}
}

func (s *State) regionsChanged(list region.List) {
	s.Editor.Sync(list)
	s.SetModified(true)
	s.Emit(EventRegionsChanged, list)
	s.Emit(EventSelectionChanged, s.Editor.Selection())
}

// CanUndo reports whether Undo has anything to restore.
func (s *State) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.undo) > 0
}

// CanRedo reports whether Redo has anything to restore.
func (s *State) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.redo) > 0
}

// Undo restores the previous region list. It returns false when there is
// no history.
func (s *State) Undo() bool {
	s.mu.Lock()
	if len(s.undo) == 0 {
		s.mu.Unlock()
		return false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.regions)
	s.regions = prev
	s.mu.Unlock()

	s.regionsChanged(prev)
	return true
}

// Redo reapplies the last undone change.
func (s *State) Redo() bool {
	s.mu.Lock()
	if len(s.redo) == 0 {
		s.mu.Unlock()
		return false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.pushUndo(s.regions)
	s.regions = next
	s.mu.Unlock()

	s.regionsChanged(next)
	return true
}

// ApplyResult records the outcome of a finished editor gesture.
func (s *State) ApplyResult(res editor.Result) {
	switch res.Kind {
	case editor.ResultMoved, editor.ResultResized:
		s.SetRegions(res.Regions)
	case editor.ResultSelection, editor.ResultClicked:
		s.Emit(EventSelectionChanged, res.Selection)
	case editor.ResultCalibration:
		s.Emit(EventCalibrationChanged, res.Transform)
	}
}

// CommitPending names a drawn rectangle and adds it as a region.
func (s *State) CommitPending(p draw.Pending, code, name string, category region.Category) error {
	out, err := s.Editor.Commit(s.Regions(), p, code, name, category)
	if err != nil {
		return err
	}
	s.SetRegions(out)
	return nil
}

// UpdateRegion edits one region in place of the old one.
func (s *State) UpdateRegion(id string, fn func(region.Region) region.Region) error {
	out, err := s.Editor.UpdateRegion(s.Regions(), id, fn)
	if err != nil {
		return err
	}
	s.SetRegions(out)
	return nil
}

// DeleteRegion removes one region.
func (s *State) DeleteRegion(id string) {
	list := s.Regions()
	if !list.Has(id) {
		return
	}
	s.SetRegions(s.Editor.Delete(list, id))
}

// DeleteSelected removes every selected region.
func (s *State) DeleteSelected() {
	if s.Editor.Selection().Empty() {
		return
	}
	s.SetRegions(s.Editor.DeleteSelected(s.Regions()))
}

// ClearRegions removes all regions.
func (s *State) ClearRegions() {
	if len(s.Regions()) == 0 {
		return
	}
	s.SetRegions(s.Editor.Clear(s.Regions()))
}

// CurrentImage returns the loaded floor-plan image, or nil.
func (s *State) CurrentImage() goimage.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Image
}

// LoadImage loads the floor-plan image.
func (s *State) LoadImage(path string) error {
	img, data, err := ocr.LoadImage(path)
	if err != nil {
		return err
	}
	b := img.Bounds()

	s.mu.Lock()
	s.ImagePath = path
	s.ImageData = data
	s.Image = img
	s.ImageWidth = b.Dx()
	s.ImageHeight = b.Dy()
	s.mu.Unlock()

	s.logger.Info("Loaded floor-plan image",
		zap.String("path", path),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
	)
	s.SetModified(true)
	s.Emit(EventImageLoaded, img)
	return nil
}

// LoadTemplate replaces the regions with a fresh copy of the template and
// starts calibration against it. The regions are left alone when
// calibration cannot start.
func (s *State) LoadTemplate(t *template.Template) error {
	list := template.Instantiate(t)
	return s.loadTemplate(t, list, template.Selector(t))
}

// LoadTemplateWithLandmarks is LoadTemplate with the three landmarks given
// as 0-based positions in the template's room list, in top-left, far-right,
// bottom order.
func (s *State) LoadTemplateWithLandmarks(t *template.Template, rooms [3]int) error {
	list := template.Instantiate(t)
	var ids [3]string
	for i, n := range rooms {
		if n < 0 || n >= len(list) {
			return fmt.Errorf("landmark room %d out of range (template %q has %d rooms)", n+1, t.Name, len(list))
		}
		ids[i] = list[n].ID
	}
	sel := calibration.ExplicitSelector{TopLeft: ids[0], FarRight: ids[1], Bottom: ids[2]}
	return s.loadTemplate(t, list, sel)
}

func (s *State) loadTemplate(t *template.Template, list region.List, sel calibration.LandmarkSelector) error {
	if err := s.Editor.BeginCalibration(list, sel); err != nil {
		return fmt.Errorf("calibrate template %q: %w", t.Name, err)
	}

	s.mu.Lock()
	s.Template = t.Name
	s.mu.Unlock()
	s.SetRegions(list)
	s.Emit(EventCalibrationStarted, t.Name)
	return nil
}

// StartCalibration calibrates the current regions using the default
// landmark convention.
func (s *State) StartCalibration() error {
	if err := s.Editor.BeginCalibration(s.Regions(), nil); err != nil {
		return err
	}
	s.Emit(EventCalibrationStarted, "")
	return nil
}

// ApplyCalibration bakes the calibration into the regions.
func (s *State) ApplyCalibration() error {
	out, sel, err := s.Editor.ApplyCalibration()
	if err != nil {
		return err
	}
	s.SetRegions(out)
	s.Emit(EventCalibrationApplied, sel)
	return nil
}

// CancelCalibration leaves calibration without changing the regions.
func (s *State) CancelCalibration() error {
	if _, err := s.Editor.CancelCalibration(); err != nil {
		return err
	}
	s.Emit(EventCalibrationCancelled, nil)
	s.Emit(EventRegionsChanged, s.Regions())
	return nil
}

// NudgeCalibration adjusts the calibration transform by one arrow-key step.
func (s *State) NudgeCalibration(key calibration.NudgeKey, scale, coarse bool) error {
	t, err := s.Editor.Nudge(key, scale, coarse)
	if err != nil {
		return err
	}
	s.Emit(EventCalibrationChanged, t)
	return nil
}

// SetCalibrationTransform replaces the calibration transform.
func (s *State) SetCalibrationTransform(t calibration.Transform) error {
	if err := s.Editor.SetManualTransform(t); err != nil {
		return err
	}
	s.Emit(EventCalibrationChanged, s.Editor.Calibration().Transform())
	return nil
}

// RefineCalibration refits the calibration to the landmark clicks by
// least squares.
func (s *State) RefineCalibration() error {
	t, err := s.Editor.RefineCalibration()
	if err != nil {
		return err
	}
	s.Emit(EventCalibrationChanged, t)
	return nil
}

// ResetCalibration returns the transform to identity, keeping the session.
func (s *State) ResetCalibration() error {
	if err := s.Editor.ResetTransform(); err != nil {
		return err
	}
	s.Emit(EventCalibrationChanged, calibration.Identity())
	return nil
}

// RestartCalibration discards the clicks so far and waits for the first
// landmark again.
func (s *State) RestartCalibration() error {
	if err := s.Editor.RestartCalibration(); err != nil {
		return err
	}
	s.Emit(EventCalibrationChanged, s.Editor.Calibration().Transform())
	return nil
}

// RenderRegions returns what the canvas should draw: the calibration
// preview while calibrating, otherwise the current list.
func (s *State) RenderRegions() region.List {
	return s.Editor.RenderList(s.Regions())
}

// Recognize runs the OCR pipeline on the loaded image and returns the
// detected rooms. It touches neither the regions nor the editor, so it may
// run on a background goroutine.
func (s *State) Recognize(ctx context.Context, p *ocr.Pipeline) (region.List, error) {
	s.mu.RLock()
	data := s.ImageData
	s.mu.RUnlock()
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	return p.Recognize(ctx, data)
}

// ApplyDetected replaces the regions with a detection result. Like every
// other region change it belongs on the UI goroutine.
func (s *State) ApplyDetected(list region.List) int {
	s.SetRegions(list)
	s.Emit(EventDetectionComplete, len(list))
	return len(list)
}

// AutoDetect recognizes and applies in one call. On failure the regions
// are unchanged.
func (s *State) AutoDetect(ctx context.Context, p *ocr.Pipeline) (int, error) {
	list, err := s.Recognize(ctx, p)
	if err != nil {
		return 0, err
	}
	return s.ApplyDetected(list), nil
}

// NewProject resets the state to an empty project.
func (s *State) NewProject() {
	s.mu.Lock()
	s.ProjectPath = ""
	s.Template = ""
	s.ImagePath = ""
	s.ImageData = nil
	s.Image = nil
	s.ImageWidth, s.ImageHeight = 0, 0
	s.regions = region.List{}
	s.undo, s.redo = nil, nil
	s.mu.Unlock()

	s.Editor.ClearSelection()
	s.Emit(EventRegionsChanged, region.List{})
	s.SetModified(false)
}

// LoadProject loads a project from the specified path.
func (s *State) LoadProject(path string) error {
	proj, err := project.Load(path)
	if err != nil {
		return err
	}

	if imgPath := proj.ImageAbsPath(path); imgPath != "" {
		if err := s.LoadImage(imgPath); err != nil {
			return fmt.Errorf("load project image: %w", err)
		}
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Template = proj.Template
	s.regions = proj.Regions
	s.undo, s.redo = nil, nil
	s.mu.Unlock()

	s.Editor.Sync(proj.Regions)
	s.Emit(EventRegionsChanged, proj.Regions)
	s.SetModified(false)
	s.Emit(EventProjectLoaded, path)
	return nil
}

// SaveProject saves the project to the specified path.
func (s *State) SaveProject(path string) error {
	path = project.WithExtension(path)

	s.mu.RLock()
	proj := project.New(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	proj.Template = s.Template
	proj.Regions = s.regions
	if s.ImagePath != "" {
		proj.SetImage(path, s.ImagePath, s.ImageWidth, s.ImageHeight)
	}
	s.mu.RUnlock()

	if err := proj.Save(path); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventProjectSaved, path)
	return nil
}
