package panels

import (
	"fmt"

	"floorplan-editor/internal/app"
	"floorplan-editor/internal/region"
	"floorplan-editor/internal/selection"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// RegionsPanel lists the regions and mirrors the canvas selection.
type RegionsPanel struct {
	state     *app.State
	container fyne.CanvasObject

	search     *widget.Entry
	list       *widget.List
	countLabel *widget.Label

	rows    region.List
	syncing bool

	onEdit func(id string)
}

// NewRegionsPanel creates a new regions panel.
func NewRegionsPanel(state *app.State) *RegionsPanel {
	rp := &RegionsPanel{state: state}

	rp.countLabel = widget.NewLabel("")
	rp.search = widget.NewEntry()
	rp.search.SetPlaceHolder("Filter by code, name or category")
	rp.search.OnChanged = func(string) { rp.Refresh() }

	rp.list = widget.NewList(
		func() int { return len(rp.rows) },
		func() fyne.CanvasObject { return widget.NewLabel("C000 Template row") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < 0 || id >= len(rp.rows) {
				return
			}
			r := rp.rows[id]
			obj.(*widget.Label).SetText(fmt.Sprintf("%s  %s  [%s]", r.Code, r.Name, r.Category))
		},
	)
	rp.list.OnSelected = func(id widget.ListItemID) {
		if rp.syncing || id < 0 || id >= len(rp.rows) {
			return
		}
		rp.selectRegion(rp.rows[id].ID)
	}

	editBtn := widget.NewButton("Edit", func() {
		ids := state.Editor.Selection().IDs()
		if len(ids) == 1 && rp.onEdit != nil {
			rp.onEdit(ids[0])
		}
	})
	deleteBtn := widget.NewButton("Delete", func() {
		state.DeleteSelected()
	})
	deleteBtn.Importance = widget.DangerImportance
	selectAllBtn := widget.NewButton("Select All", func() {
		sel := state.Editor.SelectAll(state.Regions())
		state.Emit(app.EventSelectionChanged, sel)
	})

	rp.container = container.NewBorder(
		container.NewVBox(rp.search, rp.countLabel),
		container.NewHBox(editBtn, deleteBtn, selectAllBtn),
		nil, nil,
		rp.list,
	)

	state.On(app.EventRegionsChanged, func(interface{}) { rp.Refresh() })
	state.On(app.EventSelectionChanged, func(interface{}) { rp.syncSelection() })
	rp.Refresh()
	return rp
}

// Container returns the panel container.
func (rp *RegionsPanel) Container() fyne.CanvasObject {
	return rp.container
}

// SetOnEdit sets the callback for the Edit button.
func (rp *RegionsPanel) SetOnEdit(fn func(id string)) { rp.onEdit = fn }

// Refresh rebuilds the rows from the current regions and filter.
func (rp *RegionsPanel) Refresh() {
	all := rp.state.Regions()
	rp.rows = sortRegions(filterRegions(all, rp.search.Text))
	if len(rp.rows) == len(all) {
		rp.countLabel.SetText(fmt.Sprintf("%d regions", len(all)))
	} else {
		rp.countLabel.SetText(fmt.Sprintf("%d of %d regions", len(rp.rows), len(all)))
	}
	rp.list.Refresh()
	rp.syncSelection()
}

func (rp *RegionsPanel) selectRegion(id string) {
	sel := rp.state.Editor.SetSelection(selection.New(id), rp.state.Regions())
	rp.state.Emit(app.EventSelectionChanged, sel)
}

// syncSelection highlights the row of a single selected region.
func (rp *RegionsPanel) syncSelection() {
	rp.syncing = true
	defer func() { rp.syncing = false }()

	ids := rp.state.Editor.Selection().IDs()
	if len(ids) == 1 {
		if i := rp.rows.IndexOf(ids[0]); i >= 0 {
			rp.list.Select(i)
			return
		}
	}
	rp.list.UnselectAll()
}
