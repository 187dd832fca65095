package recognize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// TesseractRecognizer implements Recognizer using the gosseract client.
// A fresh client is created per call; gosseract clients are not safe for
// concurrent use.
type TesseractRecognizer struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseractRecognizer constructs a Tesseract-backed recognizer with the
// given language hints (e.g. "eng"). An empty list uses the engine default.
func NewTesseractRecognizer(languages ...string) *TesseractRecognizer {
	return &TesseractRecognizer{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

// Recognize runs line-level OCR on one image. Each recognized line becomes a
// detection with an axis-aligned 4-point polygon and the engine's confidence
// mapped into [0,1].
func (r *TesseractRecognizer) Recognize(ctx context.Context, img image.Image) ([]Detection, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	client := r.clientFactory()
	defer client.Close()

	if err := applyLanguages(client.SetLanguage, r.languages); err != nil {
		return nil, err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize lines: %w", err)
	}

	detections := make([]Detection, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		detections = append(detections, Detection{
			Polygon:    boxPolygon(box.Box),
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
		})
	}
	return detections, nil
}

// applyLanguages configures the engine's language hints. A failure here
// means the engine cannot start, so the terminal sentinel is attached while
// the engine's own message is kept for diagnosis.
func applyLanguages(set func(...string) error, langs []string) error {
	if len(langs) == 0 {
		return nil
	}
	if err := set(langs...); err != nil {
		return fmt.Errorf("set languages: %v: %w", err, ErrUnavailable)
	}
	return nil
}

func boxPolygon(r image.Rectangle) []float64 {
	x0, y0 := float64(r.Min.X), float64(r.Min.Y)
	x1, y1 := float64(r.Max.X), float64(r.Max.Y)
	return []float64{x0, y0, x1, y0, x1, y1, x0, y1}
}
