package mainwindow

import (
	"floorplan-editor/internal/calibration"
	"floorplan-editor/internal/editor"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
)

// nudgeKey maps an arrow key to a calibration nudge direction.
func nudgeKey(name fyne.KeyName) (calibration.NudgeKey, bool) {
	switch name {
	case fyne.KeyLeft:
		return calibration.NudgeLeft, true
	case fyne.KeyRight:
		return calibration.NudgeRight, true
	case fyne.KeyUp:
		return calibration.NudgeUp, true
	case fyne.KeyDown:
		return calibration.NudgeDown, true
	}
	return 0, false
}

// setupKeys installs the keyboard bindings. Plain arrows move the
// calibration preview; Shift makes steps coarse and Ctrl scales instead.
func (mw *MainWindow) setupKeys() {
	c := mw.Canvas()

	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if key, ok := nudgeKey(ev.Name); ok {
			mw.nudge(key, false, false)
			return
		}
		switch ev.Name {
		case fyne.KeyEscape:
			mw.onEscape()
		case fyne.KeyDelete, fyne.KeyBackspace:
			mw.onDeleteSelected()
		case fyne.KeyS:
			mw.setTool(editor.ToolSelect)
		case fyne.KeyD:
			mw.setTool(editor.ToolDraw)
		case fyne.KeyReturn, fyne.KeyEnter:
			if mw.state.Editor.Mode() == editor.ModeCalibrating {
				mw.onApplyCalibration()
			}
		}
	})

	for _, name := range []fyne.KeyName{fyne.KeyLeft, fyne.KeyRight, fyne.KeyUp, fyne.KeyDown} {
		key, _ := nudgeKey(name)
		bind := func(mod fyne.KeyModifier, scale, coarse bool) {
			c.AddShortcut(&desktop.CustomShortcut{KeyName: name, Modifier: mod}, func(fyne.Shortcut) {
				mw.nudge(key, scale, coarse)
			})
		}
		bind(fyne.KeyModifierShift, false, true)
		bind(fyne.KeyModifierShortcutDefault, true, false)
		bind(fyne.KeyModifierShortcutDefault|fyne.KeyModifierShift, true, true)
	}

	shortcut := func(key fyne.KeyName, mod fyne.KeyModifier, fn func()) {
		c.AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: mod}, func(fyne.Shortcut) { fn() })
	}
	shortcut(fyne.KeyZ, fyne.KeyModifierShortcutDefault, mw.onUndo)
	shortcut(fyne.KeyZ, fyne.KeyModifierShortcutDefault|fyne.KeyModifierShift, mw.onRedo)
	shortcut(fyne.KeyY, fyne.KeyModifierShortcutDefault, mw.onRedo)
	shortcut(fyne.KeyA, fyne.KeyModifierShortcutDefault, mw.onSelectAll)
	shortcut(fyne.KeyS, fyne.KeyModifierShortcutDefault, mw.onSaveProject)
	shortcut(fyne.KeyO, fyne.KeyModifierShortcutDefault, mw.onOpenProject)
}

func (mw *MainWindow) nudge(key calibration.NudgeKey, scale, coarse bool) {
	if mw.state.Editor.Mode() != editor.ModeCalibrating {
		return
	}
	if err := mw.state.NudgeCalibration(key, scale, coarse); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

// onEscape aborts the gesture in progress, or the calibration when no
// gesture is active.
func (mw *MainWindow) onEscape() {
	if mw.state.Editor.Mode() == editor.ModeCalibrating {
		mw.onCancelCalibration()
		return
	}
	mw.canvas.Cancel()
}
