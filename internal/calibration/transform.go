// Package calibration remaps a template's regions onto a new floor-plan
// image using per-axis scale and translation.
package calibration

import (
	"errors"
	"fmt"
	"math"

	"floorplan-editor/internal/region"
	"floorplan-editor/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// MinTemplateSpread is the smallest landmark separation, in percent, that
// is used to infer a scale. Anything closer falls back to a scale of 1.
const MinTemplateSpread = 1.0

var (
	// ErrTooFewRegions is returned when a template has fewer than two regions.
	ErrTooFewRegions = errors.New("calibration needs at least two regions")
	// ErrNotSolved is returned when a fit has too few usable landmark pairs.
	ErrNotSolved = errors.New("calibration not solved")
)

// Transform is a per-axis scale followed by a translation, in percent units.
type Transform struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	ScaleX float64 `json:"scaleX"`
	ScaleY float64 `json:"scaleY"`
}

// Identity returns the transform that leaves regions unchanged.
func Identity() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// IsIdentity reports whether t leaves regions unchanged.
func (t Transform) IsIdentity() bool {
	return t == Identity()
}

// ApplyRect maps a rectangle. Scale is taken as an absolute value, so
// mirrored plans are not supported.
func (t Transform) ApplyRect(r geometry.Rect) geometry.Rect {
	sx, sy := math.Abs(t.ScaleX), math.Abs(t.ScaleY)
	return geometry.Rect{
		X:      r.X*sx + t.X,
		Y:      r.Y*sy + t.Y,
		Width:  r.Width * sx,
		Height: r.Height * sy,
	}
}

// ApplyPoint maps a point with the same formula as ApplyRect.
func (t Transform) ApplyPoint(p geometry.Point2D) geometry.Point2D {
	return t.Affine().Apply(p)
}

// Apply returns a new list with every region's bounds transformed.
func (t Transform) Apply(list region.List) region.List {
	return list.Map(func(r region.Region) region.Region {
		r.Bounds = t.ApplyRect(r.Bounds)
		return r
	})
}

// Affine returns t as a general affine matrix.
func (t Transform) Affine() geometry.AffineTransform {
	return geometry.Translation(t.X, t.Y).Compose(geometry.Scale(math.Abs(t.ScaleX), math.Abs(t.ScaleY)))
}

func (t Transform) String() string {
	return fmt.Sprintf("x=%.3f y=%.3f scaleX=%.4f scaleY=%.4f", t.X, t.Y, t.ScaleX, t.ScaleY)
}

// Solve computes the transform that maps the landmark centers onto the
// three operator clicks. The X scale comes from the top-left and far-right
// pair, the Y scale from the top-left and bottom pair. A pair whose
// template centers are within MinTemplateSpread on that axis gets scale 1.
func Solve(l Landmarks, clicks [3]geometry.Point2D) Transform {
	t1 := l.TopLeft.Center()
	t2 := l.FarRight.Center()
	t3 := l.Bottom.Center()
	c1, c2, c3 := clicks[0], clicks[1], clicks[2]

	scaleX := ratio(c2.X-c1.X, t2.X-t1.X)
	scaleY := ratio(c3.Y-c1.Y, t3.Y-t1.Y)

	return Transform{
		X:      c1.X - t1.X*scaleX,
		Y:      c1.Y - t1.Y*scaleY,
		ScaleX: scaleX,
		ScaleY: scaleY,
	}
}

func ratio(click, template float64) float64 {
	if math.Abs(template) > MinTemplateSpread {
		return click / template
	}
	return 1
}

// Pair links a template point to where the operator clicked it.
type Pair struct {
	Template geometry.Point2D
	Click    geometry.Point2D
}

// FitLeastSquares fits scale and offset independently on each axis to any
// number of landmark pairs. An axis whose template points all lie within
// MinTemplateSpread of each other keeps scale 1 and fits the offset only.
func FitLeastSquares(pairs []Pair) (Transform, error) {
	if len(pairs) < 2 {
		return Transform{}, fmt.Errorf("%w: need at least 2 pairs, got %d", ErrNotSolved, len(pairs))
	}

	xs := make([][2]float64, len(pairs))
	ys := make([][2]float64, len(pairs))
	for i, p := range pairs {
		xs[i] = [2]float64{p.Template.X, p.Click.X}
		ys[i] = [2]float64{p.Template.Y, p.Click.Y}
	}

	sx, ox, err := fitAxis(xs)
	if err != nil {
		return Transform{}, fmt.Errorf("fit x axis: %w", err)
	}
	sy, oy, err := fitAxis(ys)
	if err != nil {
		return Transform{}, fmt.Errorf("fit y axis: %w", err)
	}
	return Transform{X: ox, Y: oy, ScaleX: sx, ScaleY: sy}, nil
}

// fitAxis solves click = scale*template + offset for one axis.
func fitAxis(samples [][2]float64) (scale, offset float64, err error) {
	lo, hi := samples[0][0], samples[0][0]
	for _, s := range samples[1:] {
		lo = math.Min(lo, s[0])
		hi = math.Max(hi, s[0])
	}
	if hi-lo <= MinTemplateSpread {
		var sum float64
		for _, s := range samples {
			sum += s[1] - s[0]
		}
		return 1, sum / float64(len(samples)), nil
	}

	n := len(samples)
	A := mat.NewDense(n, 2, nil)
	B := mat.NewVecDense(n, nil)
	for i, s := range samples {
		A.Set(i, 0, s[0])
		A.Set(i, 1, 1)
		B.SetVec(i, s[1])
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return 0, 0, err
	}
	return params.AtVec(0), params.AtVec(1), nil
}

// Residual returns the mean distance between each transformed landmark
// center and the click that was meant to hit it.
func Residual(pairs []Pair, t Transform) float64 {
	if len(pairs) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pairs {
		sum += t.ApplyPoint(p.Template).Distance(p.Click)
	}
	return sum / float64(len(pairs))
}
