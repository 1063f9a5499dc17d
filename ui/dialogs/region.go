// Package dialogs provides application dialogs.
package dialogs

import (
	"fmt"
	"strings"

	"floorplan-editor/internal/region"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// RegionForm is what the operator types for a region.
type RegionForm struct {
	Code     string
	Name     string
	Category region.Category
}

// Normalize trims the fields and fills the name from the code when only the
// code is given. It fails when both are empty.
func (f RegionForm) Normalize() (RegionForm, error) {
	f.Code = strings.TrimSpace(f.Code)
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		f.Name = f.Code
	}
	if f.Name == "" {
		return f, region.ErrEmptyName
	}
	if !f.Category.Valid() {
		f.Category = region.CategoryOther
	}
	return f, nil
}

func categoryOptions() []string {
	cats := region.Categories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

// RegionDialog asks for a region's code, name and category. It is used both
// for naming a freshly drawn rectangle and for editing an existing region.
type RegionDialog struct {
	title  string
	form   RegionForm
	window fyne.Window

	// Form entries
	codeEntry *widget.Entry
	nameEntry *widget.Entry
	category  *widget.Select

	// Callbacks
	onSave   func(RegionForm) error
	onCancel func()
	onDelete func()
}

// NewRegionDialog creates a region dialog prefilled with form.
func NewRegionDialog(title string, form RegionForm, window fyne.Window, onSave func(RegionForm) error) *RegionDialog {
	return &RegionDialog{
		title:  title,
		form:   form,
		window: window,
		onSave: onSave,
	}
}

// SetOnCancel sets the callback run when the dialog is dismissed unsaved.
func (d *RegionDialog) SetOnCancel(fn func()) { d.onCancel = fn }

// SetOnDelete adds a Delete button that runs fn after confirmation.
func (d *RegionDialog) SetOnDelete(fn func()) { d.onDelete = fn }

// Show displays the dialog.
func (d *RegionDialog) Show() {
	content := d.createContent()

	var dlg dialog.Dialog

	saveBtn := widget.NewButton("Save", func() {
		form, err := d.collect().Normalize()
		if err == nil && d.onSave != nil {
			err = d.onSave(form)
		}
		if err != nil {
			dialog.ShowError(err, d.window)
			return
		}
		dlg.Hide()
	})
	saveBtn.Importance = widget.HighImportance

	cancelBtn := widget.NewButton("Cancel", func() {
		dlg.Hide()
		if d.onCancel != nil {
			d.onCancel()
		}
	})

	buttons := container.NewHBox(cancelBtn, saveBtn)
	if d.onDelete != nil {
		deleteBtn := widget.NewButton("Delete", func() {
			dialog.ShowConfirm("Delete Region",
				fmt.Sprintf("Delete region %s?", d.form.Code),
				func(confirmed bool) {
					if confirmed {
						d.onDelete()
						dlg.Hide()
					}
				}, d.window)
		})
		deleteBtn.Importance = widget.DangerImportance
		buttons = container.NewHBox(deleteBtn, container.NewHBox(), cancelBtn, saveBtn)
	}

	dlg = dialog.NewCustomWithoutButtons(d.title, container.NewBorder(nil, buttons, nil, nil, content), d.window)
	dlg.Resize(fyne.NewSize(380, 240))
	dlg.Show()
	d.window.Canvas().Focus(d.codeEntry)
}

func (d *RegionDialog) createContent() fyne.CanvasObject {
	d.codeEntry = widget.NewEntry()
	d.codeEntry.SetText(d.form.Code)
	d.codeEntry.SetPlaceHolder("e.g., C101")

	d.nameEntry = widget.NewEntry()
	d.nameEntry.SetText(d.form.Name)
	d.nameEntry.SetPlaceHolder("e.g., Grade 1 Class A")

	d.category = widget.NewSelect(categoryOptions(), nil)
	cat := d.form.Category
	if !cat.Valid() {
		cat = region.CategoryClassroom
	}
	d.category.SetSelected(string(cat))

	return widget.NewForm(
		widget.NewFormItem("Code", d.codeEntry),
		widget.NewFormItem("Name", d.nameEntry),
		widget.NewFormItem("Category", d.category),
	)
}

func (d *RegionDialog) collect() RegionForm {
	return RegionForm{
		Code:     d.codeEntry.Text,
		Name:     d.nameEntry.Text,
		Category: region.ParseCategory(d.category.Selected),
	}
}
