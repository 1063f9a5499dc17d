// Package panels provides UI panels for the application.
package panels

import (
	"floorplan-editor/internal/app"
	"floorplan-editor/internal/config"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"go.uber.org/zap"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	container *container.AppTabs
	detectTab *container.TabItem

	// Tab content
	Regions     *RegionsPanel
	Calibration *CalibrationPanel
	Detect      *DetectPanel
}

// NewSidePanel creates a new side panel.
func NewSidePanel(state *app.State, cfg *config.Config, logger *zap.Logger) *SidePanel {
	sp := &SidePanel{state: state}

	sp.Regions = NewRegionsPanel(state)
	sp.Calibration = NewCalibrationPanel(state)
	sp.Detect = NewDetectPanel(state, cfg, logger)

	calibrationTab := container.NewTabItem("Calibration", container.NewVScroll(sp.Calibration.Container()))
	sp.detectTab = container.NewTabItem("Detect", sp.Detect.Container())
	sp.container = container.NewAppTabs(
		container.NewTabItem("Regions", sp.Regions.Container()),
		calibrationTab,
		sp.detectTab,
	)

	state.On(app.EventCalibrationStarted, func(interface{}) {
		sp.container.Select(calibrationTab)
	})

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// RunDetection shows the Detect tab and starts detection there.
func (sp *SidePanel) RunDetection() {
	sp.container.Select(sp.detectTab)
	sp.Detect.Run()
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.Calibration.SetWindow(w)
}
