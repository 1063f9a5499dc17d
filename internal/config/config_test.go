package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"floorplan-editor/internal/ocr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, BackendVision, cfg.OCR.Backend)
	assert.Equal(t, ocr.DefaultTimeout, cfg.Timeout())
	assert.Equal(t, ocr.DefaultOptions(), cfg.OCR.Clustering)
	assert.Equal(t, 50, cfg.UndoDepth)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "floorplan.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"log": {"level": "debug", "format": "json"},
		"ocr": {"backend": "tesseract", "timeout_seconds": 5, "clustering": {"overlapThreshold": 0.6}},
		"undo_depth": 10
	}`), 0644))

	t.Setenv("FLOORPLAN_VISION_API_KEY", "k-123")
	t.Setenv("FLOORPLAN_UNDO_DEPTH", "20")
	t.Setenv("FLOORPLAN_OCR_TIMEOUT", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, BackendTesseract, cfg.OCR.Backend)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, "k-123", cfg.OCR.VisionAPIKey)
	assert.Equal(t, 20, cfg.UndoDepth)
	assert.InDelta(t, 0.6, cfg.OCR.Clustering.OverlapThreshold, 1e-9)
	// Fields absent from the file keep their defaults.
	assert.InDelta(t, ocr.DefaultOptions().RepairMaxDY, cfg.OCR.Clustering.RepairMaxDY, 1e-9)
}

func TestLoadBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateClamps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Format = "xml"
	cfg.OCR.Backend = "cloud"
	cfg.OCR.TimeoutSeconds = -1
	cfg.OCR.Clustering.OverlapThreshold = 3
	cfg.OCR.Clustering.NeighborMaxDX = 0
	cfg.UndoDepth = 0

	require.NoError(t, cfg.Validate())
	def := ocr.DefaultOptions()
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, BackendVision, cfg.OCR.Backend)
	assert.Equal(t, ocr.DefaultTimeout, cfg.Timeout())
	assert.Equal(t, def.OverlapThreshold, cfg.OCR.Clustering.OverlapThreshold)
	assert.Equal(t, def.NeighborMaxDX, cfg.OCR.Clustering.NeighborMaxDX)
	assert.Equal(t, 1, cfg.UndoDepth)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	cfg := DefaultConfig()
	cfg.UndoDepth = 7
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, got.UndoDepth)
}
