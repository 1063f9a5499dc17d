// Package project provides project file handling and persistence.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"floorplan-editor/internal/region"
)

// Extension is the file extension for floor-plan projects.
const Extension = ".floorplan"

// CurrentVersion is the file format version written by Save.
const CurrentVersion = 1

// File represents a floor-plan project file (.floorplan).
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Image path (relative to project file)
	ImagePath   string `json:"image,omitempty"`
	ImageWidth  int    `json:"image_width,omitempty"`
	ImageHeight int    `json:"image_height,omitempty"`

	// Template the regions were instantiated from, if any
	Template string `json:"template,omitempty"`

	Regions region.List `json:"regions"`

	// User settings
	Settings Settings `json:"settings,omitempty"`
}

// Settings holds user preferences for the project.
type Settings struct {
	OCRBackend   string `json:"ocr_backend,omitempty"`
	OCRLanguages string `json:"ocr_languages,omitempty"`
	ShowLabels   bool   `json:"show_labels"`
}

// New creates a new project file with default settings.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  CurrentVersion,
		Name:     name,
		Created:  now,
		Modified: now,
		Regions:  region.List{},
		Settings: Settings{
			OCRBackend: "vision",
			ShowLabels: true,
		},
	}
}

// Load loads a project from a .floorplan file. Regions that fail
// validation are rejected rather than silently dropped.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("parse project %s: %w", filepath.Base(path), err)
	}
	if proj.Version > CurrentVersion {
		return nil, fmt.Errorf("project %s: unsupported version %d", filepath.Base(path), proj.Version)
	}
	for _, r := range proj.Regions {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("project %s: region %s: %w", filepath.Base(path), r.ID, err)
		}
	}
	if proj.Regions == nil {
		proj.Regions = region.List{}
	}

	return &proj, nil
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()
	if p.Version == 0 {
		p.Version = CurrentVersion
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetImage sets the image path (relative to project) and its pixel size.
func (p *File) SetImage(projectPath, imagePath string, width, height int) {
	rel, err := filepath.Rel(filepath.Dir(projectPath), imagePath)
	if err != nil {
		p.ImagePath = imagePath
	} else {
		p.ImagePath = rel
	}
	p.ImageWidth = width
	p.ImageHeight = height
	p.Modified = time.Now()
}

// ImageAbsPath returns the absolute path to the image.
func (p *File) ImageAbsPath(projectPath string) string {
	if p.ImagePath == "" {
		return ""
	}
	if filepath.IsAbs(p.ImagePath) {
		return p.ImagePath
	}
	return filepath.Join(filepath.Dir(projectPath), p.ImagePath)
}

// WithExtension returns path with the project extension appended when it
// has none.
func WithExtension(path string) string {
	if filepath.Ext(path) == "" {
		return path + Extension
	}
	return path
}
