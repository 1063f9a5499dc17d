package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"floorplan-editor/pkg/geometry"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultVisionEndpoint is the Google Cloud Vision REST endpoint.
const DefaultVisionEndpoint = "https://vision.googleapis.com/v1"

// ErrNoAPIKey is returned when the Vision detector has no API key.
var ErrNoAPIKey = errors.New("vision API key not set")

type visionRequest struct {
	Requests []visionImageRequest `json:"requests"`
}

type visionImageRequest struct {
	Image    visionImage     `json:"image"`
	Features []visionFeature `json:"features"`
}

type visionImage struct {
	Content string `json:"content"`
}

type visionFeature struct {
	Type string `json:"type"`
}

type visionResponse struct {
	Responses []struct {
		TextAnnotations []visionAnnotation `json:"textAnnotations"`
		Error           *visionStatus      `json:"error,omitempty"`
	} `json:"responses"`
	Error *visionStatus `json:"error,omitempty"`
}

type visionStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type visionAnnotation struct {
	Description  string `json:"description"`
	BoundingPoly struct {
		Vertices []struct {
			X *float64 `json:"x"`
			Y *float64 `json:"y"`
		} `json:"vertices"`
	} `json:"boundingPoly"`
}

// VisionDetector calls Google Cloud Vision TEXT_DETECTION.
type VisionDetector struct {
	httpClient *resty.Client
	apiKey     string
	logger     *zap.Logger
}

// NewVisionDetector creates a detector for the given endpoint. An empty
// endpoint uses DefaultVisionEndpoint.
func NewVisionDetector(endpoint, apiKey string, logger *zap.Logger) *VisionDetector {
	if endpoint == "" {
		endpoint = DefaultVisionEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetTimeout(60*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &VisionDetector{
		httpClient: client,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// DetectText implements Detector. The first annotation Vision returns is
// the full-page text and is skipped; the rest are individual words.
func (d *VisionDetector) DetectText(ctx context.Context, image []byte) ([]Block, error) {
	if d.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	request := visionRequest{
		Requests: []visionImageRequest{{
			Image:    visionImage{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []visionFeature{{Type: "TEXT_DETECTION"}},
		}},
	}

	d.logger.Info("Calling Vision API: images:annotate", zap.Int("image_bytes", len(image)))

	var response visionResponse
	resp, err := d.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", d.apiKey).
		SetBody(request).
		SetResult(&response).
		SetError(&response).
		Post("/images:annotate")
	if err != nil {
		return nil, fmt.Errorf("failed to call Vision API: %w", err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if response.Error != nil {
			msg = response.Error.Message
		}
		d.logger.Error("Vision API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", msg),
		)
		return nil, fmt.Errorf("Vision API error: %s (status: %d)", msg, resp.StatusCode())
	}
	if len(response.Responses) == 0 {
		return nil, nil
	}
	if e := response.Responses[0].Error; e != nil {
		return nil, fmt.Errorf("Vision API error: %s (code: %d)", e.Message, e.Code)
	}

	blocks := annotationsToBlocks(response.Responses[0].TextAnnotations)
	d.logger.Info("Vision API detected text", zap.Int("block_count", len(blocks)))
	return blocks, nil
}

// annotationsToBlocks converts word annotations to blocks. Missing vertex
// coordinates count as 0.
func annotationsToBlocks(annotations []visionAnnotation) []Block {
	if len(annotations) <= 1 {
		return nil
	}
	blocks := make([]Block, 0, len(annotations)-1)
	for _, a := range annotations[1:] {
		vertices := a.BoundingPoly.Vertices
		if len(vertices) == 0 {
			continue
		}
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, v := range vertices {
			var x, y float64
			if v.X != nil {
				x = *v.X
			}
			if v.Y != nil {
				y = *v.Y
			}
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
		blocks = append(blocks, Block{
			Text:   strings.TrimSpace(a.Description),
			Bounds: geometry.NewRect(minX, minY, maxX-minX, maxY-minY),
		})
	}
	return blocks
}
