package dialogs

import (
	"testing"

	"floorplan-editor/internal/calibration"
	"floorplan-editor/internal/region"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionFormNormalize(t *testing.T) {
	f, err := RegionForm{Code: " C101 ", Category: region.CategoryOffice}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "C101", f.Code)
	assert.Equal(t, "C101", f.Name, "name falls back to code")
	assert.Equal(t, region.CategoryOffice, f.Category)

	f, err = RegionForm{Code: "X", Name: "Library", Category: "bogus"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "Library", f.Name)
	assert.Equal(t, region.CategoryOther, f.Category)

	_, err = RegionForm{Code: "  ", Name: ""}.Normalize()
	assert.ErrorIs(t, err, region.ErrEmptyName)
}

func TestParseTransform(t *testing.T) {
	tr, err := ParseTransform("1.5", " -2 ", "1.1", "0.9")
	require.NoError(t, err)
	assert.Equal(t, calibration.Transform{X: 1.5, Y: -2, ScaleX: 1.1, ScaleY: 0.9}, tr)

	_, err = ParseTransform("a", "0", "1", "1")
	assert.ErrorContains(t, err, "offset X")

	_, err = ParseTransform("0", "0", "0.05", "1")
	assert.Error(t, err)
}
