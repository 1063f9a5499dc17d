// Package template provides region templates: named region layouts that
// are placed over a floor-plan image and then calibrated.
package template

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"floorplan-editor/internal/calibration"
	"floorplan-editor/internal/region"
)

//go:embed builtin/*.json
var builtinFS embed.FS

// ErrUnknown is returned for a template name that is not built in.
var ErrUnknown = errors.New("unknown template")

// Template is a reusable region layout.
type Template struct {
	Name      string                         `json:"name"`
	Title     string                         `json:"title,omitempty"`
	Version   string                         `json:"version,omitempty"`
	Landmarks calibration.ConventionSelector `json:"landmarks"`
	Rooms     region.List                    `json:"rooms"`
}

// Names returns the built-in template names, sorted.
func Names() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Builtin returns a built-in template by name.
func Builtin(name string) (*Template, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return Parse(data)
}

// Parse decodes a template and validates its rooms.
func Parse(data []byte) (*Template, error) {
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	for i, r := range t.Rooms {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("template %q room %d (%s): %w", t.Name, i, r.Code, err)
		}
		if !r.Category.Valid() {
			t.Rooms[i].Category = region.CategoryOther
		}
	}
	return &t, nil
}

// Load reads a template from a JSON file.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Save writes the template as indented JSON.
func (t *Template) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Instantiate returns the template rooms with fresh IDs, so that the same
// template can be placed more than once.
func Instantiate(t *Template) region.List {
	out := make(region.List, len(t.Rooms))
	for i, r := range t.Rooms {
		r.ID = region.NewID()
		out[i] = r
	}
	return out
}

// Selector returns the landmark selector for the template, falling back to
// the default convention for slots the template leaves empty.
func Selector(t *Template) calibration.ConventionSelector {
	s := t.Landmarks
	def := calibration.DefaultConvention()
	if len(s.TopLeft) == 0 {
		s.TopLeft = def.TopLeft
	}
	if len(s.FarRight) == 0 {
		s.FarRight = def.FarRight
	}
	if len(s.Bottom) == 0 {
		s.Bottom = def.Bottom
	}
	return s
}

// FromRegions builds a template from an edited region list.
func FromRegions(name string, list region.List, landmarks calibration.ConventionSelector) *Template {
	return &Template{Name: name, Landmarks: landmarks, Rooms: list.Clone()}
}
