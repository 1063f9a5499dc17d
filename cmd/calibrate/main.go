// Command calibrate fits a room template onto a floor plan from three
// landmark clicks (or an explicit transform) and writes the result as a
// project file.
//
// Usage:
//
//	calibrate -t elementary -click 17.5,17.5 -click 90,20 -click 50,90 -o school
//	calibrate -t elementary -fit -click 17.5,17.5 -click 90,20 -click 50,91 -o school
//	calibrate -t elementary -landmarks 1,40,20 -click 5,10 -click 70,28 -click 30,15 -o school
//	calibrate -t kindergarten -x 2 -y 3 -sx 1.1 -sy 0.95 -o school
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"floorplan-editor/internal/app"
	"floorplan-editor/internal/calibration"
	"floorplan-editor/internal/editor"
	"floorplan-editor/internal/logger"
	"floorplan-editor/internal/template"
	"floorplan-editor/internal/version"
	"floorplan-editor/pkg/geometry"

	"go.uber.org/zap"
)

// pointList collects repeated -click x,y flags, in percent.
type pointList []geometry.Point2D

func (p *pointList) String() string {
	parts := make([]string, len(*p))
	for i, pt := range *p {
		parts[i] = fmt.Sprintf("%g,%g", pt.X, pt.Y)
	}
	return strings.Join(parts, " ")
}

func (p *pointList) Set(s string) error {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return fmt.Errorf("want x,y got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return err
	}
	*p = append(*p, geometry.Point2D{X: x, Y: y})
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "calibrate: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("calibrate", flag.ContinueOnError)
	tplName := fs.String("t", "", "Built-in template name ("+strings.Join(template.Names(), ", ")+")")
	tplFile := fs.String("template-file", "", "Template JSON file (instead of -t)")
	imagePath := fs.String("image", "", "Floor-plan image to reference from the project")
	output := fs.String("o", "", "Output project path")
	var clicks pointList
	fs.Var(&clicks, "click", "Landmark click as x,y in percent; give exactly three")
	landmarks := fs.String("landmarks", "", "Landmark rooms as three 1-based template room numbers: top-left,far-right,bottom")
	fit := fs.Bool("fit", false, "Refine the three-click solve by least squares over all clicks")
	x := fs.Float64("x", 0, "Manual offset X in percent")
	y := fs.Float64("y", 0, "Manual offset Y in percent")
	sx := fs.Float64("sx", 1, "Manual scale X")
	sy := fs.Float64("sy", 1, "Manual scale Y")
	logLevel := fs.String("log", "warn", "Log level")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String("calibrate"))
		return nil
	}
	if (*tplName == "") == (*tplFile == "") || *output == "" {
		fs.Usage()
		return flag.ErrHelp
	}
	if len(clicks) != 0 && len(clicks) != calibration.Steps {
		return fmt.Errorf("need exactly %d clicks, got %d", calibration.Steps, len(clicks))
	}
	if *fit && len(clicks) == 0 {
		return errors.New("-fit needs -click points")
	}

	manual := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "x", "y", "sx", "sy":
			manual = true
		}
	})
	if manual && (math.Abs(*sx) < calibration.MinScale || math.Abs(*sy) < calibration.MinScale) {
		return fmt.Errorf("scale must be at least %.1f", calibration.MinScale)
	}

	log, err := logger.New(*logLevel, "console")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	tpl, err := loadTemplate(*tplName, *tplFile)
	if err != nil {
		return err
	}

	state := app.NewState(log, 0)
	if *imagePath != "" {
		if err := state.LoadImage(*imagePath); err != nil {
			return err
		}
	}
	if *landmarks != "" {
		rooms, err := parseRooms(*landmarks)
		if err != nil {
			return err
		}
		if err := state.LoadTemplateWithLandmarks(tpl, rooms); err != nil {
			return err
		}
	} else if err := state.LoadTemplate(tpl); err != nil {
		return err
	}

	// Clicks are given in percent, so map the viewport 1:1.
	ed := state.Editor
	ed.SetViewport(geometry.NewRect(0, 0, 100, 100))
	for _, p := range clicks {
		g := ed.Start(state.Regions(), editor.Target{}, p, editor.Modifiers{})
		if g == nil {
			return errors.New("calibration is not waiting for clicks")
		}
		state.ApplyResult(ed.End(g, state.Regions(), p))
	}
	if len(clicks) > 0 {
		s := ed.Calibration()
		log.Info("Calibration solved", zap.Stringer("transform", s.Transform()), zap.Float64("residual", s.Residual()))
	}
	if *fit {
		if err := state.RefineCalibration(); err != nil {
			return err
		}
	}
	if manual {
		if err := state.SetCalibrationTransform(calibration.Transform{X: *x, Y: *y, ScaleX: *sx, ScaleY: *sy}); err != nil {
			return err
		}
	}

	lm := ed.Calibration().Landmarks()
	transform := ed.Calibration().Transform()
	residual := ed.Calibration().Residual()
	if err := state.ApplyCalibration(); err != nil {
		return err
	}
	if err := state.SaveProject(*output); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "template:  %s (%d rooms)\n", tpl.Name, len(tpl.Rooms))
	fmt.Fprintf(stdout, "landmarks: %s, %s, %s\n", lm.TopLeft.Code, lm.FarRight.Code, lm.Bottom.Code)
	fmt.Fprintf(stdout, "transform: %s\n", transform)
	if len(clicks) > 0 {
		method := "three-point"
		if *fit {
			method = "least squares"
		}
		fmt.Fprintf(stdout, "residual:  %.3f%% (%s)\n", residual, method)
	}
	fmt.Fprintf(stdout, "saved:     %s\n", state.ProjectPath)
	return nil
}

// parseRooms converts "a,b,c" room numbers to 0-based positions.
func parseRooms(s string) ([3]int, error) {
	var rooms [3]int
	parts := strings.Split(s, ",")
	if len(parts) != len(rooms) {
		return rooms, fmt.Errorf("-landmarks wants 3 room numbers, got %q", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return rooms, fmt.Errorf("-landmarks: %w", err)
		}
		rooms[i] = n - 1
	}
	return rooms, nil
}

func loadTemplate(name, file string) (*template.Template, error) {
	if file != "" {
		return template.Load(file)
	}
	return template.Builtin(name)
}
