package panels

import (
	"fmt"

	"floorplan-editor/internal/app"
	"floorplan-editor/internal/calibration"
	"floorplan-editor/internal/editor"
	"floorplan-editor/internal/template"
	"floorplan-editor/ui/dialogs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// CalibrationPanel loads templates and drives three-point calibration.
type CalibrationPanel struct {
	state     *app.State
	window    fyne.Window
	container fyne.CanvasObject

	templateSelect *widget.Select
	hintLabel      *widget.Label
	transformLabel *widget.Label

	scaleCheck  *widget.Check
	coarseCheck *widget.Check

	startBtn   *widget.Button
	restartBtn *widget.Button
	resetBtn   *widget.Button
	manualBtn  *widget.Button
	refineBtn  *widget.Button
	applyBtn   *widget.Button
	cancelBtn  *widget.Button
	nudgeBtns  []*widget.Button
}

// NewCalibrationPanel creates a new calibration panel.
func NewCalibrationPanel(state *app.State) *CalibrationPanel {
	cp := &CalibrationPanel{state: state}

	cp.templateSelect = widget.NewSelect(template.Names(), nil)
	cp.templateSelect.PlaceHolder = "Choose a template"
	loadBtn := widget.NewButton("Load Template", cp.onLoadTemplate)

	cp.hintLabel = widget.NewLabel("Not calibrating")
	cp.hintLabel.Wrapping = fyne.TextWrapWord
	cp.transformLabel = widget.NewLabel("")

	cp.startBtn = widget.NewButton("Calibrate Current", func() { cp.report(state.StartCalibration()) })
	cp.restartBtn = widget.NewButton("Restart Clicks", func() { cp.report(state.RestartCalibration()) })
	cp.resetBtn = widget.NewButton("Reset Transform", func() { cp.report(state.ResetCalibration()) })
	cp.manualBtn = widget.NewButton("Enter Values...", cp.onManual)
	cp.refineBtn = widget.NewButton("Refine (least squares)", func() { cp.report(state.RefineCalibration()) })
	cp.applyBtn = widget.NewButton("Apply", func() { cp.report(state.ApplyCalibration()) })
	cp.applyBtn.Importance = widget.HighImportance
	cp.cancelBtn = widget.NewButton("Cancel", func() { cp.report(state.CancelCalibration()) })

	cp.scaleCheck = widget.NewCheck("Arrows scale", nil)
	cp.coarseCheck = widget.NewCheck("Coarse steps", nil)

	nudge := func(label string, key calibration.NudgeKey) *widget.Button {
		btn := widget.NewButton(label, func() {
			cp.report(state.NudgeCalibration(key, cp.scaleCheck.Checked, cp.coarseCheck.Checked))
		})
		cp.nudgeBtns = append(cp.nudgeBtns, btn)
		return btn
	}
	arrows := container.NewGridWithColumns(3,
		widget.NewLabel(""), nudge("Up", calibration.NudgeUp), widget.NewLabel(""),
		nudge("Left", calibration.NudgeLeft), nudge("Down", calibration.NudgeDown), nudge("Right", calibration.NudgeRight),
	)

	cp.container = container.NewVBox(
		widget.NewLabelWithStyle("Template", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		cp.templateSelect,
		loadBtn,
		cp.startBtn,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Calibration", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		cp.hintLabel,
		cp.transformLabel,
		container.NewHBox(cp.scaleCheck, cp.coarseCheck),
		arrows,
		container.NewGridWithColumns(2, cp.restartBtn, cp.resetBtn),
		container.NewGridWithColumns(2, cp.manualBtn, cp.refineBtn),
		container.NewGridWithColumns(2, cp.cancelBtn, cp.applyBtn),
	)

	refresh := func(interface{}) { cp.Refresh() }
	state.On(app.EventCalibrationStarted, refresh)
	state.On(app.EventCalibrationChanged, refresh)
	state.On(app.EventCalibrationApplied, refresh)
	state.On(app.EventCalibrationCancelled, refresh)
	cp.Refresh()
	return cp
}

// Container returns the panel container.
func (cp *CalibrationPanel) Container() fyne.CanvasObject {
	return cp.container
}

// SetWindow sets the parent window for dialogs.
func (cp *CalibrationPanel) SetWindow(w fyne.Window) {
	cp.window = w
}

// Refresh updates the labels and enables the controls that apply to the
// current mode.
func (cp *CalibrationPanel) Refresh() {
	ed := cp.state.Editor
	active := ed.Mode() == editor.ModeCalibrating && ed.Calibration() != nil

	for _, btn := range append([]*widget.Button{cp.restartBtn, cp.resetBtn, cp.manualBtn, cp.applyBtn, cp.cancelBtn}, cp.nudgeBtns...) {
		if active {
			btn.Enable()
		} else {
			btn.Disable()
		}
	}
	if active {
		s := ed.Calibration()
		cp.startBtn.Disable()
		cp.hintLabel.SetText(CalibrationHint(s))
		if s.Solved() {
			cp.refineBtn.Enable()
			cp.transformLabel.SetText(fmt.Sprintf("%s\nresidual %.3f%%", s.Transform(), s.Residual()))
		} else {
			cp.refineBtn.Disable()
			cp.transformLabel.SetText(s.Transform().String())
		}
		return
	}
	cp.refineBtn.Disable()
	cp.startBtn.Enable()
	cp.hintLabel.SetText("Not calibrating")
	cp.transformLabel.SetText("")
}

func (cp *CalibrationPanel) onLoadTemplate() {
	name := cp.templateSelect.Selected
	if name == "" {
		return
	}
	tpl, err := template.Builtin(name)
	if err != nil {
		cp.report(err)
		return
	}
	load := func() { cp.report(cp.state.LoadTemplate(tpl)) }
	if len(cp.state.Regions()) == 0 || cp.window == nil {
		load()
		return
	}
	dialog.ShowConfirm("Load Template",
		"Replace the current regions with the "+tpl.Title+" template?",
		func(ok bool) {
			if ok {
				load()
			}
		}, cp.window)
}

func (cp *CalibrationPanel) onManual() {
	s := cp.state.Editor.Calibration()
	if s == nil || cp.window == nil {
		return
	}
	dialogs.NewTransformDialog(s.Transform(), cp.window, cp.state.SetCalibrationTransform).Show()
}

func (cp *CalibrationPanel) report(err error) {
	if err == nil {
		return
	}
	if cp.window != nil {
		dialog.ShowError(err, cp.window)
	}
}
