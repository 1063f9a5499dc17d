// Package canvas provides the floor-plan canvas: the image scaled to fit,
// region overlays and the pointer gestures that edit them.
package canvas

import (
	"image"
	"image/color"

	"floorplan-editor/internal/app"
	"floorplan-editor/internal/draw"
	"floorplan-editor/internal/editor"
	"floorplan-editor/internal/region"
	"floorplan-editor/internal/viewport"
	"floorplan-editor/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"
)

var background = color.RGBA{R: 241, G: 245, B: 249, A: 255}

// MapCanvas displays the floor plan and forwards pointer input to the
// editor. All methods must be called on the UI goroutine.
type MapCanvas struct {
	widget.BaseWidget

	state  *app.State
	raster *fynecanvas.Raster

	// Scaled image cache
	scaledSrc image.Image
	scaled    *image.RGBA

	// Interaction state
	gesture *editor.Gesture
	preview editor.Preview
	lastPos geometry.Point2D

	showLabels bool
	labelScale int

	// Callbacks
	onPending     func(p draw.Pending)
	onClicked     func(id string)
	onCalibration func(res editor.Result)
}

var (
	_ desktop.Mouseable  = (*MapCanvas)(nil)
	_ desktop.Cursorable = (*MapCanvas)(nil)
	_ fyne.Draggable     = (*MapCanvas)(nil)
)

// NewMapCanvas creates a canvas bound to state.
func NewMapCanvas(state *app.State) *MapCanvas {
	c := &MapCanvas{
		state:      state,
		showLabels: true,
		labelScale: 2,
	}
	c.raster = fynecanvas.NewRaster(c.draw)
	c.ExtendBaseWidget(c)

	state.On(app.EventRegionsChanged, func(interface{}) { c.Refresh() })
	state.On(app.EventSelectionChanged, func(interface{}) { c.Refresh() })
	state.On(app.EventImageLoaded, func(interface{}) { c.Refresh() })
	state.On(app.EventCalibrationChanged, func(interface{}) { c.Refresh() })
	state.Editor.OnModeChange(func(prev, next editor.Mode) { c.Refresh() })
	return c
}

// CreateRenderer implements fyne.Widget.
func (c *MapCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.raster)
}

// MinSize keeps the canvas usable in small windows.
func (c *MapCanvas) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

// SetOnPending sets the callback for a finished draw gesture.
func (c *MapCanvas) SetOnPending(fn func(p draw.Pending)) { c.onPending = fn }

// SetOnClicked sets the callback for a click on a single region.
func (c *MapCanvas) SetOnClicked(fn func(id string)) { c.onClicked = fn }

// SetOnCalibration sets the callback for each calibration click.
func (c *MapCanvas) SetOnCalibration(fn func(res editor.Result)) { c.onCalibration = fn }

// SetShowLabels toggles region code labels.
func (c *MapCanvas) SetShowLabels(show bool) {
	c.showLabels = show
	c.Refresh()
}

// ShowLabels reports whether labels are drawn.
func (c *MapCanvas) ShowLabels() bool { return c.showLabels }

// Cancel aborts the gesture in progress, if any.
func (c *MapCanvas) Cancel() {
	if c.gesture == nil {
		return
	}
	c.state.Editor.Abort(c.gesture)
	c.gesture = nil
	c.preview = editor.Preview{}
	c.Refresh()
}

// syncViewport tells the editor where the image sits in widget coordinates.
func (c *MapCanvas) syncViewport() {
	img := c.state.CurrentImage()
	size := c.Size()
	if img == nil || size.Width <= 0 || size.Height <= 0 {
		c.state.Editor.SetViewport(geometry.Rect{})
		return
	}
	b := img.Bounds()
	c.state.Editor.SetViewport(viewport.Fit(b.Dx(), b.Dy(), float64(size.Width), float64(size.Height)))
}

func toPoint(p fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
}

func modifiers(m fyne.KeyModifier) editor.Modifiers {
	return editor.Modifiers{
		Shift: m&fyne.KeyModifierShift != 0,
		Ctrl:  m&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0,
	}
}

// MouseDown starts a gesture on primary button presses.
func (c *MapCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || c.gesture != nil {
		return
	}
	c.syncViewport()
	if !c.state.Editor.Mapper().Valid() {
		return
	}

	p := toPoint(ev.Position)
	list := c.state.Regions()
	ed := c.state.Editor
	g := ed.Start(list, ed.HitTest(list, p), p, modifiers(ev.Modifier))
	if g == nil {
		return
	}
	if g.Mode() == editor.ModeCalibrating {
		c.finish(ed.End(g, list, p))
		return
	}
	c.gesture = g
	c.lastPos = p
	c.Refresh()
}

// Dragged updates the gesture preview.
func (c *MapCanvas) Dragged(ev *fyne.DragEvent) {
	if c.gesture == nil {
		return
	}
	c.lastPos = toPoint(ev.Position)
	c.preview = c.state.Editor.Move(c.gesture, c.state.Regions(), c.lastPos)
	c.raster.Refresh()
}

// DragEnd finishes the gesture at the last dragged position.
func (c *MapCanvas) DragEnd() {
	c.end(c.lastPos)
}

// MouseUp finishes the gesture. Whichever of MouseUp and DragEnd arrives
// first wins; the other is a no-op.
func (c *MapCanvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	c.end(toPoint(ev.Position))
}

func (c *MapCanvas) end(p geometry.Point2D) {
	g := c.gesture
	if g == nil {
		return
	}
	c.gesture = nil
	c.preview = editor.Preview{}
	c.finish(c.state.Editor.End(g, c.state.Regions(), p))
}

func (c *MapCanvas) finish(res editor.Result) {
	c.state.ApplyResult(res)
	switch res.Kind {
	case editor.ResultPending:
		if c.onPending != nil {
			c.onPending(res.Pending)
		}
	case editor.ResultClicked:
		if c.onClicked != nil {
			c.onClicked(res.Clicked)
		}
	case editor.ResultCalibration:
		if c.onCalibration != nil {
			c.onCalibration(res)
		}
	}
	c.Refresh()
}

// Cursor shows a crosshair whenever a press places something.
func (c *MapCanvas) Cursor() desktop.Cursor {
	if c.state.Editor.Mode() == editor.ModeCalibrating || c.state.Editor.Tool() == editor.ToolDraw {
		return desktop.CrosshairCursor
	}
	return desktop.DefaultCursor
}

// Refresh redraws the canvas.
func (c *MapCanvas) Refresh() {
	c.raster.Refresh()
	c.BaseWidget.Refresh()
}

// nextLandmark returns the landmark awaiting a calibration click, as
// currently rendered.
func (c *MapCanvas) nextLandmark(rendered region.List) *region.Region {
	ed := c.state.Editor
	if ed.Mode() != editor.ModeCalibrating || ed.Calibration() == nil {
		return nil
	}
	s := ed.Calibration()
	lm, ok := s.Landmark(s.Step())
	if !ok {
		return nil
	}
	if r, ok := rendered.Find(lm.ID); ok {
		return &r
	}
	return &lm
}

// draw renders the canvas at the raster's pixel size.
func (c *MapCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(output, output.Bounds(), image.NewUniform(background), image.Point{}, xdraw.Src)

	img := c.state.CurrentImage()
	if img == nil || w <= 0 || h <= 0 {
		return output
	}
	ib := img.Bounds()
	fit := viewport.Fit(ib.Dx(), ib.Dy(), float64(w), float64(h))
	dst := image.Rect(int(fit.X), int(fit.Y), int(fit.Right()), int(fit.Bottom()))
	if dst.Empty() {
		return output
	}
	xdraw.Draw(output, dst, c.scaledImage(img, dst.Dx(), dst.Dy()), image.Point{}, xdraw.Src)

	regions := c.preview.Regions
	if regions == nil {
		regions = c.state.RenderRegions()
	}
	ed := c.state.Editor
	ov := buildOverlay(scene{
		regions:    regions,
		sel:        ed.Selection(),
		mapper:     viewport.New(fit),
		preview:    c.preview,
		mode:       ed.Mode(),
		tool:       ed.Tool(),
		landmark:   c.nextLandmark(regions),
		handleSize: c.handlePixels(w),
		showLabels: c.showLabels,
	})
	drawOverlay(output, ov, c.labelScale)
	return output
}

// handlePixels converts the editor's handle hit radius into output pixels.
func (c *MapCanvas) handlePixels(w int) int {
	scale := 1.0
	if size := c.Size(); size.Width > 0 {
		scale = float64(w) / float64(size.Width)
	}
	return int(2 * editor.HandleRadius * scale)
}

// scaledImage returns img resampled to w x h, reusing the last result when
// neither changed.
func (c *MapCanvas) scaledImage(img image.Image, w, h int) *image.RGBA {
	if c.scaled != nil && c.scaledSrc == img && c.scaled.Bounds().Dx() == w && c.scaled.Bounds().Dy() == h {
		return c.scaled
	}
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	c.scaledSrc = img
	c.scaled = scaled
	return scaled
}
