package calibration

import (
	"testing"

	"floorplan-editor/internal/region"
	"floorplan-editor/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func template() region.List {
	return region.List{
		{ID: "tl", Code: "W301", Name: "Restroom", Bounds: geometry.NewRect(10, 10, 10, 10)},
		{ID: "mid", Code: "C201", Name: "Class", Bounds: geometry.NewRect(40, 30, 8, 6)},
		{ID: "fr", Code: "C310", Name: "Class 310", Bounds: geometry.NewRect(70, 12, 10, 10)},
		{ID: "bt", Code: "C127", Name: "Class 127", Bounds: geometry.NewRect(12, 60, 10, 10)},
	}
}

func TestConventionSelector(t *testing.T) {
	l, err := DefaultConvention().Select(template())
	require.NoError(t, err)
	assert.Equal(t, "tl", l.TopLeft.ID)
	assert.Equal(t, "fr", l.FarRight.ID)
	assert.Equal(t, "bt", l.Bottom.ID)
}

func TestConventionSelectorFallbacks(t *testing.T) {
	list := region.List{
		{ID: "first", Bounds: geometry.NewRect(50, 5, 5, 5)},
		{ID: "right", Bounds: geometry.NewRect(90, 5, 5, 5)},
		{ID: "right2", Bounds: geometry.NewRect(90, 7, 5, 5)},
		{ID: "low", Bounds: geometry.NewRect(10, 80, 5, 5)},
	}
	l, err := ConventionSelector{}.Select(list)
	require.NoError(t, err)
	assert.Equal(t, "first", l.TopLeft.ID)
	assert.Equal(t, "right", l.FarRight.ID)
	assert.Equal(t, "low", l.Bottom.ID)

	// Second candidate code is used when the first is missing.
	list[3].Code = "W104"
	l, err = ConventionSelector{Bottom: []string{"C127", "W104"}}.Select(list)
	require.NoError(t, err)
	assert.Equal(t, "low", l.Bottom.ID)
}

func TestSelectorsNeedTwoRegions(t *testing.T) {
	one := template()[:1]
	_, err := DefaultConvention().Select(one)
	assert.ErrorIs(t, err, ErrTooFewRegions)

	_, err = NewSession(one, nil)
	assert.ErrorIs(t, err, ErrTooFewRegions)
}

func TestExplicitSelector(t *testing.T) {
	l, err := ExplicitSelector{TopLeft: "mid", FarRight: "fr", Bottom: "tl"}.Select(template())
	require.NoError(t, err)
	assert.Equal(t, "mid", l.TopLeft.ID)
	assert.Equal(t, "tl", l.Bottom.ID)

	_, err = ExplicitSelector{TopLeft: "nope", FarRight: "fr", Bottom: "bt"}.Select(template())
	assert.Error(t, err)
}

func TestSolveIdentityWhenClickingCenters(t *testing.T) {
	list := template()
	l, err := DefaultConvention().Select(list)
	require.NoError(t, err)

	tr := Solve(l, [3]geometry.Point2D{l.TopLeft.Center(), l.FarRight.Center(), l.Bottom.Center()})
	assert.Equal(t, Identity(), tr)

	out := tr.Apply(list)
	for i := range list {
		assert.InDelta(t, list[i].Bounds.X, out[i].Bounds.X, 1e-9)
		assert.InDelta(t, list[i].Bounds.Y, out[i].Bounds.Y, 1e-9)
		assert.InDelta(t, list[i].Bounds.Width, out[i].Bounds.Width, 1e-9)
		assert.InDelta(t, list[i].Bounds.Height, out[i].Bounds.Height, 1e-9)
	}
}

func TestSolveDegenerateGuard(t *testing.T) {
	l := Landmarks{
		TopLeft:  region.Region{Bounds: geometry.NewRect(10, 10, 10, 10)},
		FarRight: region.Region{Bounds: geometry.NewRect(10.5, 50, 10, 10)},
		Bottom:   region.Region{Bounds: geometry.NewRect(10, 10.8, 10, 10)},
	}
	tr := Solve(l, [3]geometry.Point2D{{X: 20, Y: 20}, {X: 90, Y: 20}, {X: 20, Y: 90}})
	assert.Equal(t, 1.0, tr.ScaleX)
	assert.Equal(t, 1.0, tr.ScaleY)
	assert.Equal(t, 5.0, tr.X)
	assert.Equal(t, 5.0, tr.Y)
}

func TestApplyUsesAbsoluteScale(t *testing.T) {
	tr := Transform{X: 1, Y: 2, ScaleX: -2, ScaleY: -0.5}
	got := tr.ApplyRect(geometry.NewRect(10, 10, 4, 4))
	assert.Equal(t, geometry.NewRect(21, 7, 8, 2), got)

	p := tr.Affine().Apply(geometry.NewPoint2D(10, 10))
	assert.Equal(t, geometry.NewPoint2D(21, 7), p)
}

func TestSessionEndToEndTranslate(t *testing.T) {
	list := template()
	s, err := NewSession(list, DefaultConvention())
	require.NoError(t, err)
	require.Equal(t, 1, s.Step())

	for step := 1; step <= Steps; step++ {
		lm, ok := s.Landmark(step)
		require.True(t, ok)
		c := lm.Center()
		done := s.Click(geometry.NewPoint2D(c.X+5, c.Y))
		assert.Equal(t, step == Steps, done)
	}

	tr := s.Transform()
	assert.Equal(t, 1.0, tr.ScaleX)
	assert.Equal(t, 1.0, tr.ScaleY)
	assert.InDelta(t, 5.0, tr.X, 1e-9)
	assert.InDelta(t, 0.0, tr.Y, 1e-9)
	assert.Zero(t, s.Step())
	assert.True(t, s.Solved())
	assert.InDelta(t, 0.0, s.Residual(), 1e-9)

	out := s.Apply()
	require.Len(t, out, len(list))
	for i := range list {
		assert.InDelta(t, list[i].Bounds.X+5, out[i].Bounds.X, 1e-9)
		assert.InDelta(t, list[i].Bounds.Y, out[i].Bounds.Y, 1e-9)
	}
	// Base list is untouched.
	assert.Equal(t, template(), list)
}

func TestSessionFirstClickPreviewsTranslation(t *testing.T) {
	s, err := NewSession(template(), nil)
	require.NoError(t, err)

	s.SetManual(Transform{ScaleX: 2, ScaleY: 1})
	s.Click(geometry.NewPoint2D(50, 50))

	// Top-left landmark center is (15, 15).
	tr := s.Transform()
	assert.Equal(t, 20.0, tr.X)
	assert.Equal(t, 35.0, tr.Y)
	assert.Equal(t, 2, s.Step())
	assert.False(t, s.Solved())
}

func TestSessionCancelRestoresList(t *testing.T) {
	list := template()
	s, err := NewSession(list, nil)
	require.NoError(t, err)

	s.SetManual(Transform{X: 10, Y: -3, ScaleX: 1.5, ScaleY: 0.8})
	assert.NotEqual(t, list, s.Preview())
	assert.Equal(t, list, s.Cancel())
}

func TestNudge(t *testing.T) {
	s, err := NewSession(template(), nil)
	require.NoError(t, err)

	tr := s.Nudge(NudgeRight, false, false)
	assert.InDelta(t, 0.1, tr.X, 1e-12)
	tr = s.Nudge(NudgeUp, false, true)
	assert.InDelta(t, -1.0, tr.Y, 1e-12)

	tr = s.Nudge(NudgeDown, true, true)
	assert.InDelta(t, 1.05, tr.ScaleY, 1e-12)

	for i := 0; i < 50; i++ {
		tr = s.Nudge(NudgeLeft, true, true)
	}
	assert.Equal(t, MinScale, tr.ScaleX)

	s.ResetTransform()
	assert.True(t, s.Transform().IsIdentity())
}

func TestRestartKeepsTransform(t *testing.T) {
	s, err := NewSession(template(), nil)
	require.NoError(t, err)
	s.Click(geometry.NewPoint2D(20, 20))
	before := s.Transform()

	s.Restart()
	assert.Equal(t, 1, s.Step())
	assert.Empty(t, s.Clicks())
	assert.Equal(t, before, s.Transform())
}

func TestFitLeastSquares(t *testing.T) {
	want := Transform{X: 3, Y: -1, ScaleX: 2, ScaleY: 0.5}
	var pairs []Pair
	for _, p := range []geometry.Point2D{{X: 10, Y: 10}, {X: 40, Y: 20}, {X: 15, Y: 70}, {X: 80, Y: 55}} {
		pairs = append(pairs, Pair{Template: p, Click: want.ApplyPoint(p)})
	}

	got, err := FitLeastSquares(pairs)
	require.NoError(t, err)
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
	assert.InDelta(t, want.ScaleX, got.ScaleX, 1e-9)
	assert.InDelta(t, want.ScaleY, got.ScaleY, 1e-9)
	assert.InDelta(t, 0.0, Residual(pairs, got), 1e-9)
}

func TestFitLeastSquaresDegenerateAxis(t *testing.T) {
	pairs := []Pair{
		{Template: geometry.NewPoint2D(50, 10), Click: geometry.NewPoint2D(52, 20)},
		{Template: geometry.NewPoint2D(50.5, 60), Click: geometry.NewPoint2D(53.5, 120)},
	}
	got, err := FitLeastSquares(pairs)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.ScaleX)
	assert.InDelta(t, 2.5, got.X, 1e-9)
	assert.InDelta(t, 2.0, got.ScaleY, 1e-9)
	assert.InDelta(t, 0.0, got.Y, 1e-9)

	_, err = FitLeastSquares(pairs[:1])
	assert.ErrorIs(t, err, ErrNotSolved)
}

func sumSquares(pairs []Pair, t Transform) float64 {
	var sum float64
	for _, p := range pairs {
		d := t.ApplyPoint(p.Template).Distance(p.Click)
		sum += d * d
	}
	return sum
}

func TestSessionRefine(t *testing.T) {
	s, err := NewSession(template(), DefaultConvention())
	require.NoError(t, err)
	assert.ErrorIs(t, s.Refine(), ErrNotSolved)

	// Bottom click is off by a few percent so the three points disagree.
	offsets := []geometry.Point2D{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 4, Y: 3}}
	for step := 1; step <= Steps; step++ {
		lm, ok := s.Landmark(step)
		require.True(t, ok)
		s.Click(lm.Center().Add(offsets[step-1]))
	}
	pairs := s.Landmarks().Pairs(s.Clicks())
	solved := s.Transform()

	require.NoError(t, s.Refine())
	refined := s.Transform()
	assert.NotEqual(t, solved, refined)
	assert.LessOrEqual(t, sumSquares(pairs, refined), sumSquares(pairs, solved)+1e-9)
	assert.True(t, s.Solved())
	assert.Zero(t, s.Step())
}
