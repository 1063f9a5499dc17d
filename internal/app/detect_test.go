package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"floorplan-editor/internal/config"
	"floorplan-editor/internal/ocr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipelineVision(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OCR.VisionAPIKey = ""

	p, release, err := NewPipeline(cfg, nil)
	require.NoError(t, err)
	defer release()

	assert.IsType(t, &ocr.VisionDetector{}, p.Detector)
	assert.Equal(t, cfg.Timeout(), p.Timeout)
	require.NotNil(t, p.Clusterer)

	imgPath := filepath.Join(t.TempDir(), "plan.png")
	writePNG(t, imgPath, 20, 20)
	data, err := os.ReadFile(imgPath)
	require.NoError(t, err)

	_, err = p.Recognize(context.Background(), data)
	assert.ErrorIs(t, err, ocr.ErrDetection)
	assert.ErrorIs(t, err, ocr.ErrNoAPIKey)
}
