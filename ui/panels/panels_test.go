package panels

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"floorplan-editor/internal/app"
	"floorplan-editor/internal/calibration"
	"floorplan-editor/internal/config"
	"floorplan-editor/internal/editor"
	"floorplan-editor/internal/region"
	"floorplan-editor/internal/template"
	"floorplan-editor/pkg/geometry"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func room(code, name string, cat region.Category) region.Region {
	return region.New(code, name, cat, geometry.NewRect(1, 1, 5, 5))
}

func codes(list region.List) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.Code
	}
	return out
}

func TestNaturalLess(t *testing.T) {
	assert.True(t, naturalLess("C2", "C10"))
	assert.True(t, naturalLess("C101", "C1010"))
	assert.False(t, naturalLess("W301", "C310"))
	assert.True(t, naturalLess("a1", "B1"))
}

func TestSortAndFilterRegions(t *testing.T) {
	list := region.List{
		room("C110", "Class 10", region.CategoryClassroom),
		room("C102", "Class 2", region.CategoryClassroom),
		room("W301", "Library", region.CategorySpecial),
	}
	assert.Equal(t, []string{"C102", "C110", "W301"}, codes(sortRegions(list)))
	assert.Equal(t, []string{"C110", "C102", "W301"}, codes(list), "input is not reordered")

	assert.Equal(t, []string{"W301"}, codes(filterRegions(list, "libr")))
	assert.Equal(t, []string{"W301"}, codes(filterRegions(list, "special")))
	assert.Len(t, filterRegions(list, "  "), 3)
}

func TestCalibrationHint(t *testing.T) {
	assert.Empty(t, CalibrationHint(nil))

	list := region.List{
		region.New("W301", "Library", region.CategorySpecial, geometry.NewRect(10, 10, 5, 5)),
		region.New("C310", "Class", region.CategoryClassroom, geometry.NewRect(80, 10, 10, 10)),
		region.New("C127", "Class", region.CategoryClassroom, geometry.NewRect(40, 80, 10, 10)),
	}
	s, err := calibration.NewSession(list, nil)
	require.NoError(t, err)
	assert.Contains(t, CalibrationHint(s), "1/3")
	assert.Contains(t, CalibrationHint(s), "W301")

	s.Click(geometry.Point2D{X: 12.5, Y: 12.5})
	s.Click(geometry.Point2D{X: 85, Y: 15})
	s.Click(geometry.Point2D{X: 45, Y: 85})
	assert.Contains(t, CalibrationHint(s), "Apply")
}

func TestRegionsPanelSelectsRegion(t *testing.T) {
	test.NewApp()
	st := app.NewState(nil, 0)
	list := region.List{
		room("C110", "Class 10", region.CategoryClassroom),
		room("C102", "Class 2", region.CategoryClassroom),
	}
	st.SetRegions(list)

	rp := NewRegionsPanel(st)
	require.Len(t, rp.rows, 2)
	assert.Equal(t, "C102", rp.rows[0].Code)
	assert.Equal(t, "2 regions", rp.countLabel.Text)

	rp.list.Select(0)
	assert.True(t, st.Editor.Selection().Has(list[1].ID))

	rp.search.SetText("110")
	assert.Len(t, rp.rows, 1)
	assert.Equal(t, "1 of 2 regions", rp.countLabel.Text)
}

func TestCalibrationPanelFollowsState(t *testing.T) {
	test.NewApp()
	st := app.NewState(nil, 0)
	cp := NewCalibrationPanel(st)
	assert.True(t, cp.applyBtn.Disabled())

	tpl, err := template.Builtin("elementary")
	require.NoError(t, err)
	require.NoError(t, st.LoadTemplate(tpl))

	assert.False(t, cp.applyBtn.Disabled())
	assert.Contains(t, cp.hintLabel.Text, "1/3")

	require.NoError(t, st.NudgeCalibration(calibration.NudgeRight, false, true))
	assert.Contains(t, cp.transformLabel.Text, "x=1.000")

	require.NoError(t, st.ApplyCalibration())
	assert.True(t, cp.applyBtn.Disabled())
	assert.Equal(t, "Not calibrating", cp.hintLabel.Text)
}

func TestCalibrationPanelRefine(t *testing.T) {
	test.NewApp()
	st := app.NewState(nil, 0)
	cp := NewCalibrationPanel(st)
	assert.True(t, cp.refineBtn.Disabled())

	tpl, err := template.Builtin("elementary")
	require.NoError(t, err)
	require.NoError(t, st.LoadTemplate(tpl))
	assert.True(t, cp.refineBtn.Disabled(), "nothing to refine before the clicks")

	st.Editor.SetViewport(geometry.NewRect(0, 0, 100, 100))
	sess := st.Editor.Calibration()
	offsets := []geometry.Point2D{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 3}}
	for step := 1; step <= calibration.Steps; step++ {
		lm, ok := sess.Landmark(step)
		require.True(t, ok)
		p := lm.Center().Add(offsets[step-1])
		g := st.Editor.Start(st.Regions(), editor.Target{}, p, editor.Modifiers{})
		st.ApplyResult(st.Editor.End(g, st.Regions(), p))
	}
	assert.False(t, cp.refineBtn.Disabled())
	assert.Contains(t, cp.transformLabel.Text, "residual")

	test.Tap(cp.refineBtn)
	want, err := calibration.FitLeastSquares(sess.Landmarks().Pairs(sess.Clicks()))
	require.NoError(t, err)
	assert.InDelta(t, want.ScaleX, sess.Transform().ScaleX, 1e-9)
	assert.InDelta(t, want.Y, sess.Transform().Y, 1e-9)
	assert.Contains(t, cp.transformLabel.Text, want.String())
}

func TestDetectPanelBackend(t *testing.T) {
	test.NewApp()
	cfg := config.DefaultConfig()
	dp := NewDetectPanel(app.NewState(nil, 0), cfg, nil)

	picked := ""
	dp.SetOnBackend(func(b string) { picked = b })
	dp.backendSelect.SetSelected(config.BackendTesseract)

	assert.Equal(t, config.BackendTesseract, cfg.OCR.Backend)
	assert.Equal(t, config.BackendTesseract, picked)
}

const visionReply = `{
  "responses": [{
    "textAnnotations": [
      {"description": "C310", "boundingPoly": {"vertices": [{"x": 0, "y": 0}, {"x": 1000, "y": 500}]}},
      {"description": "C310", "boundingPoly": {"vertices": [{"x": 400, "y": 50}, {"x": 440, "y": 50}, {"x": 440, "y": 70}, {"x": 400, "y": 70}]}}
    ]
  }]
}`

func TestDetectPanelHoldsResultUntilApply(t *testing.T) {
	test.NewApp()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(visionReply))
	}))
	defer srv.Close()

	imgPath := filepath.Join(t.TempDir(), "plan.png")
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1000, 500))))
	require.NoError(t, os.WriteFile(imgPath, buf.Bytes(), 0644))

	st := app.NewState(nil, 0)
	require.NoError(t, st.LoadImage(imgPath))
	before := region.List{room("C101", "Art", region.CategorySpecial)}
	st.SetRegions(before)

	cfg := config.DefaultConfig()
	cfg.OCR.Backend = config.BackendVision
	cfg.OCR.VisionEndpoint = srv.URL
	cfg.OCR.VisionAPIKey = "test"
	dp := NewDetectPanel(st, cfg, nil)

	dp.Run()
	require.Eventually(t, func() bool { return !dp.Running() }, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, before, st.Regions())
	assert.False(t, dp.applyBtn.Disabled())
	assert.Contains(t, dp.resultLabel.Text, "Detected 1 rooms")

	dp.Apply()
	require.Len(t, st.Regions(), 1)
	assert.Equal(t, "C310", st.Regions()[0].Code)
	assert.True(t, dp.applyBtn.Disabled())
	assert.Equal(t, "Applied 1 rooms", dp.resultLabel.Text)

	dp.Apply()
	assert.Equal(t, "C310", st.Regions()[0].Code, "a result applies once")
}
