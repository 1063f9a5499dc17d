package mainwindow

import (
	"fmt"
	"path/filepath"
	"strings"

	"floorplan-editor/internal/draw"
	"floorplan-editor/internal/editor"
	"floorplan-editor/internal/project"
	"floorplan-editor/internal/region"
	"floorplan-editor/internal/template"
	"floorplan-editor/ui/dialogs"
	"floorplan-editor/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"go.uber.org/zap"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Canvas callbacks

func (mw *MainWindow) onPending(p draw.Pending) {
	d := dialogs.NewRegionDialog("New Region", dialogs.RegionForm{Category: region.CategoryClassroom}, mw.Window,
		func(f dialogs.RegionForm) error {
			return mw.state.CommitPending(p, f.Code, f.Name, f.Category)
		})
	d.SetOnCancel(func() { mw.updateStatus("Region discarded") })
	d.Show()
}

func (mw *MainWindow) onEditRegion(id string) {
	r, ok := mw.state.Regions().Find(id)
	if !ok {
		return
	}
	d := dialogs.NewRegionDialog("Edit Region: "+r.Label(),
		dialogs.RegionForm{Code: r.Code, Name: r.Name, Category: r.Category}, mw.Window,
		func(f dialogs.RegionForm) error {
			return mw.state.UpdateRegion(id, func(r region.Region) region.Region {
				r.Code, r.Name, r.Category = f.Code, f.Name, f.Category
				return r
			})
		})
	d.SetOnDelete(func() { mw.state.DeleteRegion(id) })
	d.Show()
}

func (mw *MainWindow) onCalibrationClick(res editor.Result) {
	if res.Solved {
		mw.logger.Info("Calibration solved", zap.Stringer("transform", res.Transform))
	}
}

// Tools

func (mw *MainWindow) setTool(t editor.Tool) {
	mw.canvas.Cancel()
	mw.state.Editor.SetTool(t)
	mw.updateStatus("Tool: " + t.String())
	if mw.toolGroup.Selected != t.String() {
		mw.toolGroup.SetSelected(t.String())
	}
}

// File menu

func (mw *MainWindow) onNewProject() {
	if mw.state.Editor.Mode() == editor.ModeCalibrating {
		_ = mw.state.CancelCalibration()
	}
	mw.state.NewProject()
	mw.SetTitle(title + " - New Project")
}

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.prefs.RememberFile(path)
		mw.OpenProject(path)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{project.Extension}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onImportImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.prefs.RememberFile(path)
		if err := mw.state.LoadImage(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveProject() {
	if mw.state.ProjectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	if err := mw.state.SaveProject(mw.state.ProjectPath); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveProjectAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := project.WithExtension(writer.URI().Path())
		mw.prefs.RememberFile(path)
		if err := mw.state.SaveProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName("floorplan" + project.Extension)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportTemplate() {
	list := mw.state.Regions()
	if len(list) == 0 {
		mw.updateStatus("No regions to export")
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) == "" {
			path += ".json"
		}
		mw.prefs.RememberFile(path)
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		tpl := template.FromRegions(name, list, template.Selector(&template.Template{}))
		if err := tpl.Save(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Template exported to " + path)
	}, mw.Window)
	fd.SetFileName("template.json")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// Edit menu

func (mw *MainWindow) onUndo() {
	if mw.state.Editor.Mode() == editor.ModeCalibrating {
		return
	}
	if !mw.state.Undo() {
		mw.updateStatus("Nothing to undo")
	}
}

func (mw *MainWindow) onRedo() {
	if mw.state.Editor.Mode() == editor.ModeCalibrating {
		return
	}
	if !mw.state.Redo() {
		mw.updateStatus("Nothing to redo")
	}
}

func (mw *MainWindow) onSelectAll() {
	if mw.state.Editor.Mode() == editor.ModeCalibrating {
		return
	}
	mw.setTool(editor.ToolSelect)
	sel := mw.state.Editor.SelectAll(mw.state.Regions())
	mw.canvas.Refresh()
	mw.updateStatus(fmt.Sprintf("%d regions selected", sel.Len()))
}

func (mw *MainWindow) onDeleteSelected() {
	if mw.state.Editor.Mode() == editor.ModeCalibrating {
		return
	}
	mw.state.DeleteSelected()
}

func (mw *MainWindow) onClearAll() {
	if mw.state.Editor.Mode() == editor.ModeCalibrating || len(mw.state.Regions()) == 0 {
		return
	}
	dialog.ShowConfirm("Clear All Regions",
		fmt.Sprintf("Remove all %d regions?", len(mw.state.Regions())),
		func(ok bool) {
			if ok {
				mw.state.ClearRegions()
			}
		}, mw.Window)
}

// View menu

func (mw *MainWindow) onToggleLabels() {
	show := !mw.canvas.ShowLabels()
	mw.canvas.SetShowLabels(show)
	mw.prefs.SetBool(prefs.KeyShowLabels, show)
	mw.showLabelsItem.Checked = show
	mw.MainMenu().Refresh()
}

// Calibrate menu

func (mw *MainWindow) onLoadTemplate(name string) {
	tpl, err := template.Builtin(name)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.loadTemplate(tpl)
}

func (mw *MainWindow) onLoadTemplateFile() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.prefs.RememberFile(path)
		tpl, err := template.Load(path)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.loadTemplate(tpl)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) loadTemplate(tpl *template.Template) {
	mw.canvas.Cancel()
	if err := mw.state.LoadTemplate(tpl); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onStartCalibration() {
	mw.canvas.Cancel()
	if err := mw.state.StartCalibration(); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onApplyCalibration() {
	if err := mw.state.ApplyCalibration(); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.setTool(editor.ToolSelect)
}

func (mw *MainWindow) onRefineCalibration() {
	if err := mw.state.RefineCalibration(); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus("Calibration refined by least squares")
}

func (mw *MainWindow) onCancelCalibration() {
	if err := mw.state.CancelCalibration(); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}
