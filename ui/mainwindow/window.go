// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"path/filepath"

	"floorplan-editor/internal/app"
	"floorplan-editor/internal/config"
	"floorplan-editor/internal/editor"
	"floorplan-editor/internal/template"
	"floorplan-editor/internal/version"
	"floorplan-editor/ui/canvas"
	"floorplan-editor/ui/panels"
	"floorplan-editor/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
)

const title = "Floor Plan Editor"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	state  *app.State
	cfg    *config.Config
	prefs  *prefs.Prefs
	logger *zap.Logger

	canvas    *canvas.MapCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	toolGroup *widget.RadioGroup
	undoBtn   *widget.Button
	redoBtn   *widget.Button

	// Menu items that need state tracking
	showLabelsItem *fyne.MenuItem
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, cfg *config.Config, p *prefs.Prefs, logger *zap.Logger) *MainWindow {
	if logger == nil {
		logger = zap.NewNop()
	}
	win := fyneApp.NewWindow(title)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		cfg:    cfg,
		prefs:  p,
		logger: logger,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupKeys()
	mw.setupEventHandlers()

	w, h := p.WindowSize(1280, 800)
	mw.Resize(fyne.NewSize(w, h))
	mw.SetCloseIntercept(mw.onClose)

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewMapCanvas(mw.state)
	mw.canvas.SetShowLabels(mw.prefs.Bool(prefs.KeyShowLabels, true))
	mw.canvas.SetOnPending(mw.onPending)
	mw.canvas.SetOnClicked(mw.onEditRegion)
	mw.canvas.SetOnCalibration(mw.onCalibrationClick)

	if backend := mw.prefs.String(prefs.KeyOCRBackend); backend != "" {
		mw.cfg.OCR.Backend = backend
	}
	mw.sidePanel = panels.NewSidePanel(mw.state, mw.cfg, mw.logger)
	mw.sidePanel.SetWindow(mw.Window)
	mw.sidePanel.Regions.SetOnEdit(mw.onEditRegion)
	mw.sidePanel.Detect.SetOnBackend(func(backend string) {
		mw.prefs.SetString(prefs.KeyOCRBackend, backend)
	})

	mw.statusBar = widget.NewLabel("Ready")

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar,   // top
		nil,       // bottom
		nil,       // left
		nil,       // right
		mw.canvas, // center
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)

	mw.SetContent(content)
}

// createToolbar creates the toolbar with tool and history controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	mw.toolGroup = widget.NewRadioGroup([]string{editor.ToolSelect.String(), editor.ToolDraw.String()}, func(s string) {
		if s == editor.ToolDraw.String() {
			mw.setTool(editor.ToolDraw)
		} else {
			mw.setTool(editor.ToolSelect)
		}
	})
	mw.toolGroup.Horizontal = true
	mw.toolGroup.Required = true
	mw.toolGroup.SetSelected(editor.ToolSelect.String())

	mw.undoBtn = widget.NewButton("Undo", mw.onUndo)
	mw.redoBtn = widget.NewButton("Redo", mw.onRedo)
	mw.updateHistoryButtons()

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		mw.toolGroup,
		widget.NewSeparator(),
		mw.undoBtn,
		mw.redoBtn,
		widget.NewButton("Delete", mw.onDeleteSelected),
		widget.NewButton("Clear All", mw.onClearAll),
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Project", mw.onNewProject),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Floor Plan...", mw.onImportImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Project", mw.onSaveProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Template...", mw.onExportTemplate),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", mw.onClose),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.onUndo),
		fyne.NewMenuItem("Redo", mw.onRedo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Select All", mw.onSelectAll),
		fyne.NewMenuItem("Delete Selected", mw.onDeleteSelected),
		fyne.NewMenuItem("Clear All Regions", mw.onClearAll),
	)

	mw.showLabelsItem = fyne.NewMenuItem("Show Labels", mw.onToggleLabels)
	mw.showLabelsItem.Checked = mw.canvas.ShowLabels()
	viewMenu := fyne.NewMenu("View", mw.showLabelsItem)

	templateItems := []*fyne.MenuItem{}
	for _, name := range template.Names() {
		name := name
		templateItems = append(templateItems, fyne.NewMenuItem(name, func() { mw.onLoadTemplate(name) }))
	}
	templateItems = append(templateItems,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("From File...", mw.onLoadTemplateFile),
	)
	loadTemplate := fyne.NewMenuItem("Load Template", nil)
	loadTemplate.ChildMenu = fyne.NewMenu("", templateItems...)

	toolsMenu := fyne.NewMenu("Calibrate",
		loadTemplate,
		fyne.NewMenuItem("Calibrate Current Regions", mw.onStartCalibration),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Refine Calibration (Least Squares)", mw.onRefineCalibration),
		fyne.NewMenuItem("Apply Calibration", mw.onApplyCalibration),
		fyne.NewMenuItem("Cancel Calibration", mw.onCancelCalibration),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Detect Rooms", mw.sidePanel.RunDetection),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mainMenu := fyne.NewMainMenu(fileMenu, editMenu, viewMenu, toolsMenu, helpMenu)
	mw.SetMainMenu(mainMenu)
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventProjectLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(title + " - " + filepath.Base(path))
			mw.updateStatus("Project loaded: " + path)
			mw.prefs.SetString(prefs.KeyLastProject, path)
		}
	})

	mw.state.On(app.EventProjectSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(title + " - " + filepath.Base(path))
			mw.updateStatus("Saved " + path)
			mw.prefs.SetString(prefs.KeyLastProject, path)
		}
	})

	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		mw.updateStatus(fmt.Sprintf("Floor plan loaded (%dx%d)", mw.state.ImageWidth, mw.state.ImageHeight))
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			t := mw.Title()
			if len(t) > 0 && t[len(t)-1] != '*' {
				mw.SetTitle(t + " *")
			}
		}
	})

	mw.state.On(app.EventRegionsChanged, func(interface{}) { mw.updateHistoryButtons() })

	calibrationStatus := func(interface{}) {
		mw.updateStatus(panels.CalibrationHint(mw.state.Editor.Calibration()))
	}
	mw.state.On(app.EventCalibrationStarted, calibrationStatus)
	mw.state.On(app.EventCalibrationChanged, calibrationStatus)
	mw.state.On(app.EventCalibrationApplied, func(data interface{}) {
		mw.updateStatus("Calibration applied; all regions selected for adjustment")
	})
	mw.state.On(app.EventCalibrationCancelled, func(interface{}) {
		mw.updateStatus("Calibration cancelled")
	})

	mw.state.On(app.EventDetectionComplete, func(data interface{}) {
		if n, ok := data.(int); ok {
			mw.updateStatus(fmt.Sprintf("Detected %d rooms", n))
		}
	})

	mw.state.Editor.OnModeChange(func(prev, next editor.Mode) {
		mw.logger.Debug("Editor mode", zap.Stringer("from", prev), zap.Stringer("to", next))
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) updateHistoryButtons() {
	if mw.state.CanUndo() {
		mw.undoBtn.Enable()
	} else {
		mw.undoBtn.Disable()
	}
	if mw.state.CanRedo() {
		mw.redoBtn.Enable()
	} else {
		mw.redoBtn.Disable()
	}
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.LastDir()
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// RestoreLastProject reopens the project from the previous session, if any.
func (mw *MainWindow) RestoreLastProject() {
	path := mw.prefs.String(prefs.KeyLastProject)
	if path == "" {
		return
	}
	if err := mw.state.LoadProject(path); err != nil {
		mw.logger.Warn("Failed to restore last project", zap.String("path", path), zap.Error(err))
	}
}

// OpenProject loads a project and reports errors in a dialog.
func (mw *MainWindow) OpenProject(path string) {
	if err := mw.state.LoadProject(path); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onClose() {
	size := mw.Canvas().Size()
	mw.prefs.SetWindowSize(size.Width, size.Height)
	if err := mw.prefs.SaveIfChanged(); err != nil {
		mw.logger.Warn("Failed to save preferences", zap.Error(err))
	}
	if !mw.state.Modified {
		mw.app.Quit()
		return
	}
	dialog.ShowConfirm("Unsaved Changes", "Quit without saving?", func(ok bool) {
		if ok {
			mw.app.Quit()
		}
	}, mw.Window)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+title,
		fmt.Sprintf("%s v%s\n\n"+
			"Trace rooms on school floor plans, calibrate\n"+
			"templates to new drawings and detect room labels.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			title, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
