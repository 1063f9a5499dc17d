package project

import (
	"os"
	"path/filepath"
	"testing"

	"floorplan-editor/internal/region"
	"floorplan-editor/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "school.floorplan")

	p := New("school")
	p.Template = "elementary"
	p.SetImage(path, filepath.Join(dir, "img", "plan.png"), 1200, 800)
	p.Regions = region.List{
		region.New("C101", "Class 1A", region.CategoryClassroom, geometry.NewRect(10, 20, 5, 4)),
	}
	require.NoError(t, p.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "school", got.Name)
	assert.Equal(t, filepath.Join("img", "plan.png"), got.ImagePath)
	assert.Equal(t, filepath.Join(dir, "img", "plan.png"), got.ImageAbsPath(path))
	assert.Equal(t, 1200, got.ImageWidth)
	assert.Equal(t, "elementary", got.Template)
	assert.Equal(t, p.Regions, got.Regions)
}

func TestLoadRejectsInvalidRegion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.floorplan")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"regions":[{"id":"r","name":"A","bounds":{"x":1,"y":1,"width":0,"height":2}}]}`), 0644))

	_, err := Load(path)
	assert.ErrorIs(t, err, region.ErrZeroArea)
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.floorplan")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":9}`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEmptyRegions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.floorplan")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1}`), 0644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, got.Regions)
	assert.Empty(t, got.Regions)
}

func TestImageAbsPath(t *testing.T) {
	p := New("x")
	assert.Empty(t, p.ImageAbsPath("/tmp/x.floorplan"))

	p.ImagePath = "/abs/plan.png"
	assert.Equal(t, "/abs/plan.png", p.ImageAbsPath("/tmp/x.floorplan"))
}

func TestWithExtension(t *testing.T) {
	assert.Equal(t, "a.floorplan", WithExtension("a"))
	assert.Equal(t, "a.json", WithExtension("a.json"))
}
