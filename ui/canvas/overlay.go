package canvas

import (
	"image"
	"image/color"

	"floorplan-editor/internal/editor"
	"floorplan-editor/internal/group"
	"floorplan-editor/internal/region"
	"floorplan-editor/internal/selection"
	"floorplan-editor/internal/viewport"
	"floorplan-editor/pkg/geometry"
)

// Overlay colors.
var (
	selectedStroke  = color.RGBA{R: 245, G: 158, B: 11, A: 255}
	regionStroke    = color.RGBA{R: 30, G: 41, B: 59, A: 255}
	candidateStroke = color.RGBA{R: 37, G: 99, B: 235, A: 255}
	marqueeStroke   = color.RGBA{R: 100, G: 116, B: 139, A: 255}
	marqueeFill     = color.RGBA{R: 100, G: 116, B: 139, A: 40}
	landmarkStroke  = color.RGBA{R: 220, G: 38, B: 38, A: 255}
	handleFill      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	labelColor      = color.RGBA{R: 15, G: 23, B: 42, A: 255}
)

// regionAlpha is the fill alpha for unselected regions; selected regions
// use the category color as is.
const regionAlpha = 90

// OverlayRect is a rectangle drawn over the floor plan, in output pixels.
type OverlayRect struct {
	Rect   image.Rectangle
	Fill   color.RGBA // zero alpha means no fill
	Stroke color.RGBA
	Width  int
	Dashed bool
	Label  string // drawn centered
}

// Overlay is everything drawn on top of the image, in paint order.
type Overlay struct {
	Rects   []OverlayRect
	Handles []image.Rectangle
}

// scene collects what buildOverlay needs from the editor for one frame.
type scene struct {
	regions    region.List
	sel        selection.Set
	mapper     viewport.Mapper // percent to output pixels
	preview    editor.Preview
	mode       editor.Mode
	tool       editor.Tool
	landmark   *region.Region
	handleSize int
	showLabels bool
}

func pixelRect(m viewport.Mapper, r geometry.Rect) image.Rectangle {
	p := m.RectToPixel(r)
	return image.Rect(int(p.X+0.5), int(p.Y+0.5), int(p.Right()+0.5), int(p.Bottom()+0.5))
}

func withAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}

// buildOverlay turns the editor state into paintable rectangles.
func buildOverlay(s scene) Overlay {
	var ov Overlay
	if !s.mapper.Valid() {
		return ov
	}

	for _, r := range s.regions {
		selected := s.sel.Has(r.ID)
		rect := OverlayRect{
			Rect:   pixelRect(s.mapper, r.Bounds),
			Fill:   withAlpha(r.Category.Color(), regionAlpha),
			Stroke: regionStroke,
			Width:  1,
		}
		if selected {
			rect.Fill = r.Category.Color()
			rect.Stroke = selectedStroke
			rect.Width = 2
		}
		if s.showLabels {
			rect.Label = r.Code
		}
		ov.Rects = append(ov.Rects, rect)
	}

	if s.landmark != nil {
		ov.Rects = append(ov.Rects, OverlayRect{
			Rect:   pixelRect(s.mapper, s.landmark.Bounds),
			Stroke: landmarkStroke,
			Width:  3,
		})
	}

	if s.preview.HasRect {
		rect := OverlayRect{
			Rect:   pixelRect(s.mapper, s.preview.Rect),
			Stroke: candidateStroke,
			Width:  1,
			Dashed: true,
		}
		if s.mode == editor.ModeSelecting {
			rect.Stroke = marqueeStroke
			rect.Fill = marqueeFill
		}
		ov.Rects = append(ov.Rects, rect)
	}

	box, ok := s.preview.Box, s.preview.HasBox
	if !ok && s.mode == editor.ModeIdle && s.tool == editor.ToolSelect {
		box, ok = group.Bounds(s.regions, s.sel)
	}
	if !ok {
		return ov
	}
	ov.Rects = append(ov.Rects, OverlayRect{
		Rect:   pixelRect(s.mapper, box),
		Stroke: selectedStroke,
		Width:  1,
		Dashed: true,
	})
	if s.mode == editor.ModeDragging || s.tool != editor.ToolSelect {
		return ov
	}
	half := s.handleSize / 2
	for _, h := range group.Handles() {
		c := s.mapper.ToPixel(h.Position(box))
		x, y := int(c.X+0.5), int(c.Y+0.5)
		ov.Handles = append(ov.Handles, image.Rect(x-half, y-half, x+half+1, y+half+1))
	}
	return ov
}
