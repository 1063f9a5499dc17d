// Package main provides the entry point for the Floor Plan Editor application.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"floorplan-editor/internal/app"
	"floorplan-editor/internal/config"
	"floorplan-editor/internal/logger"
	"floorplan-editor/internal/version"
	"floorplan-editor/ui/mainwindow"
	"floorplan-editor/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"go.uber.org/zap"
)

const appID = "io.github.floorplan-editor"

func main() {
	configPath := flag.String("config", "", "Path to JSON config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("floorplan-editor"))
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()
	log.Info("Starting", zap.String("version", version.Version), zap.String("ocr_backend", cfg.OCR.Backend))

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.FloorplanTheme{})

	appState := app.NewState(log, cfg.UndoDepth)
	appPrefs := prefs.Load()

	win := mainwindow.New(fyneApp, appState, cfg, appPrefs, log.Named("ui"))

	// Handle command line arguments
	if flag.NArg() > 0 {
		win.OpenProject(flag.Arg(0))
	} else {
		win.RestoreLastProject()
	}

	setupImageWatcher(appState, log)

	win.ShowAndRun()
}

// setupImageWatcher reloads the floor-plan image when it changes on disk.
func setupImageWatcher(state *app.State, log *zap.Logger) {
	watcher := app.NewImageWatcher(state, 2*time.Second)
	watcher.OnReload(func(path string) {
		log.Info("Floor-plan image changed on disk, reloaded", zap.String("path", path))
	})
	watcher.Start()
}
