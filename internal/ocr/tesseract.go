package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"floorplan-editor/pkg/geometry"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
	"go.uber.org/zap"
)

// DefaultLanguages are the Tesseract language packs used for floor plans.
const DefaultLanguages = "eng+chi_tra"

// TesseractDetector finds words with a local Tesseract install.
// Calls are serialized because a gosseract client is not safe for
// concurrent use.
type TesseractDetector struct {
	mu     sync.Mutex
	client *gosseract.Client
	logger *zap.Logger
}

// NewTesseractDetector creates a detector for the given "+"-joined
// language list. An empty list uses DefaultLanguages.
func NewTesseractDetector(languages string, logger *zap.Logger) (*TesseractDetector, error) {
	if languages == "" {
		languages = DefaultLanguages
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(strings.Split(languages, "+")...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Room codes and names are not dictionary words.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &TesseractDetector{client: client, logger: logger}, nil
}

// Close releases OCR resources.
func (d *TesseractDetector) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

// DetectText implements Detector. Word boxes are reported in the pixel
// space of the original image.
func (d *TesseractDetector) DetectText(ctx context.Context, data []byte) ([]Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	processed, scale := preprocessForOCR(img)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := d.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := d.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to get boxes: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var blocks []Block
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		blocks = append(blocks, Block{
			Text: text,
			Bounds: geometry.NewRect(
				float64(box.Box.Min.X)/scale,
				float64(box.Box.Min.Y)/scale,
				float64(box.Box.Dx())/scale,
				float64(box.Box.Dy())/scale,
			),
		})
	}

	d.logger.Info("tesseract detected text",
		zap.Int("block_count", len(blocks)),
		zap.Int("width", img.Cols()),
		zap.Int("height", img.Rows()),
	)
	return blocks, nil
}

// minOCRHeight is the smallest image dimension handed to Tesseract.
const minOCRHeight = 1000

// preprocessForOCR prepares a floor plan for word detection: upscale small
// scans, grayscale, CLAHE, Otsu threshold, and invert light-on-dark plans.
// It returns the processed image and the upscale factor applied.
func preprocessForOCR(src gocv.Mat) (gocv.Mat, float64) {
	h, w := src.Rows(), src.Cols()

	scale := 1.0
	var scaled gocv.Mat
	if minDim := min(h, w); minDim < minOCRHeight {
		scale = float64(minOCRHeight) / float64(minDim)
		scaled = gocv.NewMat()
		gocv.Resize(src, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		scaled = src.Clone()
	}

	gray := gocv.NewMat()
	gocv.CvtColor(scaled, &gray, gocv.ColorBGRToGray)
	scaled.Close()

	clahe := gocv.NewCLAHEWithParams(2.0, image.Point{8, 8})
	defer clahe.Close()

	enhanced := gocv.NewMat()
	clahe.Apply(gray, &enhanced)
	gray.Close()

	binary := gocv.NewMat()
	gocv.Threshold(enhanced, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	enhanced.Close()

	// Tesseract expects dark text on a light background.
	whiteRatio := float64(gocv.CountNonZero(binary)) / float64(binary.Rows()*binary.Cols())
	if whiteRatio < 0.5 {
		gocv.BitwiseNot(binary, &binary)
	}

	result := gocv.NewMat()
	gocv.CvtColor(binary, &result, gocv.ColorGrayToBGR)
	binary.Close()

	return result, scale
}
