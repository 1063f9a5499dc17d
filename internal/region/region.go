// Package region defines the labeled rectangular areas placed on a floor plan.
//
// Bounds are stored in percent of the displayed image (0-100 on each axis),
// which keeps a region set independent of the image resolution. Values
// outside [0,100] are allowed while editing; nothing clamps them.
package region

import (
	"errors"
	"image/color"
	"strings"

	"floorplan-editor/pkg/geometry"

	"github.com/google/uuid"
)

var (
	// ErrEmptyName is returned when a region is committed without a name.
	ErrEmptyName = errors.New("region name is empty")
	// ErrZeroArea is returned for regions with non-positive width or height.
	ErrZeroArea = errors.New("region has zero area")
)

// Category classifies a region for color coding. It has no effect on geometry.
type Category string

const (
	CategoryClassroom Category = "classroom"
	CategoryOffice    Category = "office"
	CategorySpecial   Category = "special"
	CategoryUtility   Category = "utility"
	CategoryOther     Category = "other"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{CategoryClassroom, CategoryOffice, CategorySpecial, CategoryUtility, CategoryOther}
}

// ParseCategory maps a string to a Category. Unknown values become CategoryOther.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryClassroom, CategoryOffice, CategorySpecial, CategoryUtility, CategoryOther:
		return true
	}
	return false
}

// Color returns the overlay fill color for the category (75% alpha).
func (c Category) Color() color.RGBA {
	switch c {
	case CategoryClassroom:
		return color.RGBA{R: 59, G: 130, B: 246, A: 191}
	case CategoryOffice:
		return color.RGBA{R: 139, G: 92, B: 246, A: 191}
	case CategorySpecial:
		return color.RGBA{R: 16, G: 185, B: 129, A: 191}
	case CategoryUtility:
		return color.RGBA{R: 107, G: 114, B: 128, A: 191}
	default:
		return color.RGBA{R: 245, G: 158, B: 11, A: 191}
	}
}

// Region is a labeled rectangle on a floor plan.
type Region struct {
	ID       string        `json:"id"`
	Code     string        `json:"code"`
	Name     string        `json:"name"`
	Category Category      `json:"category"`
	Bounds   geometry.Rect `json:"bounds"`
}

// NewID returns a fresh opaque region identifier.
func NewID() string {
	return "room_" + uuid.NewString()
}

// New creates a region with a freshly generated ID.
func New(code, name string, category Category, bounds geometry.Rect) Region {
	if !category.Valid() {
		category = CategoryOther
	}
	return Region{
		ID:       NewID(),
		Code:     code,
		Name:     name,
		Category: category,
		Bounds:   bounds,
	}
}

// Validate checks the invariants a committed region must satisfy.
func (r Region) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if r.Bounds.Width <= 0 || r.Bounds.Height <= 0 {
		return ErrZeroArea
	}
	return nil
}

// Center returns the center of the region bounds.
func (r Region) Center() geometry.Point2D {
	return r.Bounds.Center()
}

// Label returns "Name (Code)", or just one of them when they are equal or empty.
func (r Region) Label() string {
	switch {
	case r.Code == "" || r.Code == r.Name:
		return r.Name
	case r.Name == "":
		return r.Code
	}
	return r.Name + " (" + r.Code + ")"
}
