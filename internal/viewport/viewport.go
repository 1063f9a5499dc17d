// Package viewport converts between screen pixels and percent-of-image
// coordinates for the rectangle an image is currently rendered into.
package viewport

import (
	"floorplan-editor/pkg/geometry"
)

// Mapper maps points for one on-screen image rectangle.
// A zero-sized Screen maps everything to the origin.
type Mapper struct {
	Screen geometry.Rect
}

// New returns a mapper for the given on-screen image rectangle.
func New(screen geometry.Rect) Mapper {
	return Mapper{Screen: screen}
}

// Valid reports whether the screen rectangle has a usable size.
func (m Mapper) Valid() bool {
	return m.Screen.Width > 0 && m.Screen.Height > 0
}

// ToPercent converts a screen point to percent coordinates clamped to [0,100].
func (m Mapper) ToPercent(p geometry.Point2D) geometry.Point2D {
	u := m.ToPercentUnclamped(p)
	return geometry.Point2D{X: clamp(u.X, 0, 100), Y: clamp(u.Y, 0, 100)}
}

// ToPercentUnclamped converts a screen point to percent coordinates without clamping.
func (m Mapper) ToPercentUnclamped(p geometry.Point2D) geometry.Point2D {
	if !m.Valid() {
		return geometry.Point2D{}
	}
	return geometry.Point2D{
		X: (p.X - m.Screen.X) / m.Screen.Width * 100,
		Y: (p.Y - m.Screen.Y) / m.Screen.Height * 100,
	}
}

// DeltaToPercent converts a pixel displacement to a percent displacement.
func (m Mapper) DeltaToPercent(dx, dy float64) (float64, float64) {
	if !m.Valid() {
		return 0, 0
	}
	return dx / m.Screen.Width * 100, dy / m.Screen.Height * 100
}

// Affine returns the percent to screen transform.
func (m Mapper) Affine() geometry.AffineTransform {
	return geometry.Translation(m.Screen.X, m.Screen.Y).
		Compose(geometry.Scale(m.Screen.Width/100, m.Screen.Height/100))
}

// ToPixel converts percent coordinates back to a screen point.
func (m Mapper) ToPixel(p geometry.Point2D) geometry.Point2D {
	return m.Affine().Apply(p)
}

// RectToPixel converts a percent rectangle to screen pixels.
func (m Mapper) RectToPixel(r geometry.Rect) geometry.Rect {
	return m.Affine().ApplyRect(r)
}

// RectToPercent converts a screen rectangle to percent, unclamped.
func (m Mapper) RectToPercent(r geometry.Rect) geometry.Rect {
	if !m.Valid() {
		return geometry.Rect{}
	}
	tl := m.ToPercentUnclamped(r.TopLeft())
	w, h := m.DeltaToPercent(r.Width, r.Height)
	return geometry.Rect{X: tl.X, Y: tl.Y, Width: w, Height: h}
}

// PixelRectToPercent converts a rectangle in image pixels to percent of an
// image of size w x h. Zero dimensions yield a zero rectangle.
func PixelRectToPercent(r geometry.Rect, w, h int) geometry.Rect {
	return New(geometry.NewRect(0, 0, float64(w), float64(h))).RectToPercent(r)
}

// Fit returns the rectangle an image of size imgW x imgH occupies when
// scaled to fit inside a container of size cw x ch, preserving aspect ratio
// and centered.
func Fit(imgW, imgH int, cw, ch float64) geometry.Rect {
	if imgW <= 0 || imgH <= 0 || cw <= 0 || ch <= 0 {
		return geometry.Rect{}
	}
	scale := cw / float64(imgW)
	if s := ch / float64(imgH); s < scale {
		scale = s
	}
	w := float64(imgW) * scale
	h := float64(imgH) * scale
	return geometry.Rect{X: (cw - w) / 2, Y: (ch - h) / 2, Width: w, Height: h}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
