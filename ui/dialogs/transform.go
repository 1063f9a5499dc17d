package dialogs

import (
	"fmt"
	"strconv"
	"strings"

	"floorplan-editor/internal/calibration"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// ParseTransform reads a transform from its four text fields. Scales must
// be at least calibration.MinScale in magnitude.
func ParseTransform(x, y, scaleX, scaleY string) (calibration.Transform, error) {
	var t calibration.Transform
	fields := []struct {
		name string
		text string
		dst  *float64
	}{
		{"offset X", x, &t.X},
		{"offset Y", y, &t.Y},
		{"scale X", scaleX, &t.ScaleX},
		{"scale Y", scaleY, &t.ScaleY},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f.text), 64)
		if err != nil {
			return t, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	if abs(t.ScaleX) < calibration.MinScale || abs(t.ScaleY) < calibration.MinScale {
		return t, fmt.Errorf("scale must be at least %.1f", calibration.MinScale)
	}
	return t, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// TransformDialog edits the calibration transform numerically.
type TransformDialog struct {
	current calibration.Transform
	window  fyne.Window

	xEntry      *widget.Entry
	yEntry      *widget.Entry
	scaleXEntry *widget.Entry
	scaleYEntry *widget.Entry

	onSave func(calibration.Transform) error
}

// NewTransformDialog creates a dialog prefilled with current.
func NewTransformDialog(current calibration.Transform, window fyne.Window, onSave func(calibration.Transform) error) *TransformDialog {
	return &TransformDialog{
		current: current,
		window:  window,
		onSave:  onSave,
	}
}

// Show displays the dialog.
func (d *TransformDialog) Show() {
	content := d.createContent()

	dlg := dialog.NewCustomConfirm(
		"Calibration Transform",
		"Apply",
		"Cancel",
		content,
		func(save bool) {
			if !save {
				return
			}
			t, err := ParseTransform(d.xEntry.Text, d.yEntry.Text, d.scaleXEntry.Text, d.scaleYEntry.Text)
			if err == nil && d.onSave != nil {
				err = d.onSave(t)
			}
			if err != nil {
				dialog.ShowError(err, d.window)
			}
		},
		d.window,
	)
	dlg.Resize(fyne.NewSize(360, 260))
	dlg.Show()
}

func (d *TransformDialog) createContent() fyne.CanvasObject {
	entry := func(v float64, format string) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(fmt.Sprintf(format, v))
		return e
	}
	d.xEntry = entry(d.current.X, "%.3f")
	d.yEntry = entry(d.current.Y, "%.3f")
	d.scaleXEntry = entry(d.current.ScaleX, "%.4f")
	d.scaleYEntry = entry(d.current.ScaleY, "%.4f")

	return widget.NewForm(
		widget.NewFormItem("Offset X (%)", d.xEntry),
		widget.NewFormItem("Offset Y (%)", d.yEntry),
		widget.NewFormItem("Scale X", d.scaleXEntry),
		widget.NewFormItem("Scale Y", d.scaleYEntry),
	)
}
