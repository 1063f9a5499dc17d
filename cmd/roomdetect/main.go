// Command roomdetect runs OCR room detection on a floor-plan image and
// prints the detected rooms, optionally writing them to a project file.
//
// Usage: roomdetect [options] <image>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"

	"floorplan-editor/internal/app"
	"floorplan-editor/internal/config"
	"floorplan-editor/internal/logger"
	"floorplan-editor/internal/region"
	"floorplan-editor/internal/version"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "roomdetect: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("roomdetect", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to JSON config file")
	backend := fs.String("backend", "", "OCR backend: vision or tesseract (overrides config)")
	languages := fs.String("lang", "", "Tesseract languages, e.g. eng+chi_tra")
	timeout := fs.Int("timeout", 0, "Detection timeout in seconds (overrides config)")
	output := fs.String("o", "", "Write the detected rooms to this project file")
	asJSON := fs.Bool("json", false, "Print regions as JSON instead of a table")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String("roomdetect"))
		return nil
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return flag.ErrHelp
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *backend != "" {
		cfg.OCR.Backend = *backend
	}
	if *languages != "" {
		cfg.OCR.Languages = *languages
	}
	if *timeout > 0 {
		cfg.OCR.TimeoutSeconds = *timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	state := app.NewState(log, cfg.UndoDepth)
	if err := state.LoadImage(fs.Arg(0)); err != nil {
		return err
	}

	pipeline, release, err := app.NewPipeline(cfg, log)
	defer release()
	if err != nil {
		return err
	}

	n, err := state.AutoDetect(ctx, pipeline)
	if err != nil {
		return err
	}
	log.Info("Detection finished", zap.Int("rooms", n), zap.String("backend", cfg.OCR.Backend))

	if *output != "" {
		if err := state.SaveProject(*output); err != nil {
			return err
		}
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(state.Regions())
	}
	return printTable(stdout, state.Regions())
}

func printTable(w io.Writer, list region.List) error {
	rows := list.Clone()
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tCATEGORY\tX\tY\tW\tH")
	for _, r := range rows {
		b := r.Bounds
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\n", r.Code, r.Name, r.Category, b.X, b.Y, b.Width, b.Height)
	}
	fmt.Fprintf(tw, "\n%d rooms\n", len(rows))
	return tw.Flush()
}
