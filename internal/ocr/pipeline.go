package ocr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"floorplan-editor/internal/region"

	"go.uber.org/zap"
)

// DefaultTimeout bounds one detection call when the pipeline has none set.
const DefaultTimeout = 30 * time.Second

// Pipeline runs detection and clustering for a whole image.
type Pipeline struct {
	Detector  Detector
	Clusterer *Clusterer
	Timeout   time.Duration
	Logger    *zap.Logger
}

// NewPipeline creates a pipeline with default clustering options.
func NewPipeline(d Detector, timeout time.Duration, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		Detector:  d,
		Clusterer: NewClusterer(DefaultOptions(), logger),
		Timeout:   timeout,
		Logger:    logger,
	}
}

// Recognize detects rooms on an encoded image and returns them as regions.
// The detector is called once. Any detector failure, including a timeout,
// is returned wrapped in ErrDetection with no regions.
func (p *Pipeline) Recognize(ctx context.Context, img []byte) (region.List, error) {
	if p.Detector == nil {
		return nil, errors.New("no text detector configured")
	}
	w, h, err := ImageSize(img)
	if err != nil {
		return nil, err
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger := p.logger()
	start := time.Now()
	blocks, err := p.Detector.DetectText(ctx, img)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		logger.Error("text detection failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("%w: %w", ErrDetection, err)
	}

	clusterer := p.Clusterer
	if clusterer == nil {
		clusterer = NewClusterer(DefaultOptions(), logger)
	}
	rooms := clusterer.Cluster(blocks)

	logger.Info("recognized rooms",
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Int("blocks", len(blocks)),
		zap.Int("rooms", len(rooms)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return ToRegions(rooms, w, h), nil
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
