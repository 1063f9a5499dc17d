package app

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ImageWatcher polls the loaded floor-plan image and reloads it when the
// file changes on disk, for example after it is re-exported from a
// drawing tool.
type ImageWatcher struct {
	state         *State
	checkInterval time.Duration

	mu       sync.Mutex
	path     string
	modTime  time.Time
	stopCh   chan struct{}
	onReload func(path string)
}

// NewImageWatcher creates a watcher for the state's image.
func NewImageWatcher(state *State, checkInterval time.Duration) *ImageWatcher {
	w := &ImageWatcher{state: state, checkInterval: checkInterval}
	state.On(EventImageLoaded, func(interface{}) { w.resetBaseline() })
	return w
}

// OnReload sets the callback invoked after a successful reload. The
// callback is called from a background goroutine.
func (w *ImageWatcher) OnReload(callback func(path string)) {
	w.mu.Lock()
	w.onReload = callback
	w.mu.Unlock()
}

// Start begins watching in a background goroutine.
func (w *ImageWatcher) Start() {
	w.resetBaseline()
	w.stopCh = make(chan struct{})
	go w.watchLoop(w.stopCh)
}

// Stop stops the watcher goroutine.
func (w *ImageWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *ImageWatcher) watchLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if path, ok := w.checkForUpdate(); ok {
				w.reload(path)
			}
		}
	}
}

// checkForUpdate reports whether the watched image is newer than the
// version that was loaded.
func (w *ImageWatcher) checkForUpdate() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.path == "" {
		return "", false
	}
	info, err := os.Stat(w.path)
	if err != nil {
		return "", false
	}
	if !info.ModTime().After(w.modTime) {
		return "", false
	}
	w.modTime = info.ModTime()
	return w.path, true
}

func (w *ImageWatcher) reload(path string) {
	if err := w.state.LoadImage(path); err != nil {
		w.state.logger.Warn("Image reload failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.mu.Lock()
	cb := w.onReload
	w.mu.Unlock()
	if cb != nil {
		cb(path)
	}
}

// resetBaseline records the current image path and modification time.
func (w *ImageWatcher) resetBaseline() {
	w.state.mu.RLock()
	path := w.state.ImagePath
	w.state.mu.RUnlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.path = path
	w.modTime = time.Time{}
	if path == "" {
		return
	}
	if info, err := os.Stat(path); err == nil {
		w.modTime = info.ModTime()
	}
}
