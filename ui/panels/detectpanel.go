package panels

import (
	"context"
	"fmt"
	"sync"

	"floorplan-editor/internal/app"
	"floorplan-editor/internal/config"
	"floorplan-editor/internal/region"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
)

// DetectPanel runs OCR room detection on the loaded image.
type DetectPanel struct {
	state     *app.State
	cfg       *config.Config
	logger    *zap.Logger
	container fyne.CanvasObject

	backendSelect *widget.RadioGroup
	runBtn        *widget.Button
	cancelBtn     *widget.Button
	applyBtn      *widget.Button
	progress      *widget.ProgressBarInfinite
	resultLabel   *widget.Label

	// Guarded by mu: the detection goroutine hands its result over here
	// and the UI goroutine applies it.
	mu       sync.Mutex
	cancel   context.CancelFunc
	detected region.List

	onBackend func(backend string)
}

// NewDetectPanel creates a new detection panel.
func NewDetectPanel(state *app.State, cfg *config.Config, logger *zap.Logger) *DetectPanel {
	if logger == nil {
		logger = zap.NewNop()
	}
	dp := &DetectPanel{state: state, cfg: cfg, logger: logger}

	dp.backendSelect = widget.NewRadioGroup([]string{config.BackendVision, config.BackendTesseract}, func(s string) {
		if s == "" {
			return
		}
		dp.cfg.OCR.Backend = s
		if dp.onBackend != nil {
			dp.onBackend(s)
		}
	})
	dp.backendSelect.SetSelected(cfg.OCR.Backend)

	dp.runBtn = widget.NewButton("Detect Rooms", dp.Run)
	dp.runBtn.Importance = widget.HighImportance
	dp.cancelBtn = widget.NewButton("Cancel", func() {
		dp.mu.Lock()
		cancel := dp.cancel
		dp.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	})
	dp.cancelBtn.Disable()
	dp.applyBtn = widget.NewButton("Apply", dp.Apply)
	dp.applyBtn.Disable()

	dp.progress = widget.NewProgressBarInfinite()
	dp.progress.Stop()
	dp.progress.Hide()

	dp.resultLabel = widget.NewLabel("Applying detected rooms replaces the current regions.")
	dp.resultLabel.Wrapping = fyne.TextWrapWord

	dp.container = container.NewVBox(
		widget.NewLabelWithStyle("OCR Backend", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		dp.backendSelect,
		container.NewGridWithColumns(3, dp.runBtn, dp.cancelBtn, dp.applyBtn),
		dp.progress,
		dp.resultLabel,
	)
	return dp
}

// Container returns the panel container.
func (dp *DetectPanel) Container() fyne.CanvasObject {
	return dp.container
}

// SetOnBackend sets the callback run when the operator picks a backend.
func (dp *DetectPanel) SetOnBackend(fn func(backend string)) { dp.onBackend = fn }

// Run starts detection in the background. The result is held until Apply;
// the goroutine never touches the regions or the editor.
func (dp *DetectPanel) Run() {
	dp.mu.Lock()
	if dp.cancel != nil {
		dp.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	dp.cancel = cancel
	dp.detected = nil
	dp.mu.Unlock()

	dp.runBtn.Disable()
	dp.cancelBtn.Enable()
	dp.applyBtn.Disable()
	dp.progress.Show()
	dp.progress.Start()
	dp.resultLabel.SetText("Detecting rooms with " + dp.cfg.OCR.Backend + "...")

	go func() {
		defer cancel()
		list, err := dp.detect(ctx)

		dp.progress.Stop()
		dp.progress.Hide()
		dp.runBtn.Enable()
		dp.cancelBtn.Disable()
		if err != nil {
			dp.logger.Warn("Room detection failed", zap.Error(err))
			dp.resultLabel.SetText("Detection failed: " + err.Error())
		} else if len(list) == 0 {
			dp.resultLabel.SetText("No rooms detected")
		} else {
			dp.resultLabel.SetText(fmt.Sprintf("Detected %d rooms. Apply to replace the current regions.", len(list)))
			dp.applyBtn.Enable()
		}

		dp.mu.Lock()
		dp.cancel = nil
		if err == nil && len(list) > 0 {
			dp.detected = list
		}
		dp.mu.Unlock()
	}()
}

// Running reports whether a detection is in flight.
func (dp *DetectPanel) Running() bool {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	return dp.cancel != nil
}

// Apply replaces the regions with the last detection result. It runs on
// the UI goroutine.
func (dp *DetectPanel) Apply() {
	dp.mu.Lock()
	list := dp.detected
	dp.detected = nil
	dp.mu.Unlock()
	if list == nil {
		return
	}

	n := dp.state.ApplyDetected(list)
	dp.applyBtn.Disable()
	dp.resultLabel.SetText(fmt.Sprintf("Applied %d rooms", n))
}

func (dp *DetectPanel) detect(ctx context.Context) (region.List, error) {
	p, release, err := app.NewPipeline(dp.cfg, dp.logger)
	defer release()
	if err != nil {
		return nil, err
	}
	return dp.state.Recognize(ctx, p)
}
