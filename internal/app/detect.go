package app

import (
	"fmt"

	"floorplan-editor/internal/config"
	"floorplan-editor/internal/ocr"

	"go.uber.org/zap"
)

// NewPipeline builds the OCR pipeline selected by cfg. The returned close
// function releases the detector and is never nil.
func NewPipeline(cfg *config.Config, logger *zap.Logger) (*ocr.Pipeline, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		det     ocr.Detector
		release = func() {}
	)
	switch cfg.OCR.Backend {
	case config.BackendTesseract:
		t, err := ocr.NewTesseractDetector(cfg.OCR.Languages, logger.Named("tesseract"))
		if err != nil {
			return nil, release, fmt.Errorf("start tesseract: %w", err)
		}
		det = t
		release = func() {
			if err := t.Close(); err != nil {
				logger.Warn("close tesseract", zap.Error(err))
			}
		}
	default:
		det = ocr.NewVisionDetector(cfg.OCR.VisionEndpoint, cfg.OCR.VisionAPIKey, logger.Named("vision"))
	}

	p := ocr.NewPipeline(det, cfg.Timeout(), logger.Named("ocr"))
	p.Clusterer = ocr.NewClusterer(cfg.OCR.Clustering, logger.Named("cluster"))
	return p, release, nil
}
