// Package recognize defines the text/region recognizer capability consumed
// by the recognition-based extractor.
//
// The recognizer is an injected dependency so the extraction pipeline can be
// exercised with a deterministic fake; the production implementation is
// backed by Tesseract.
package recognize

import (
	"context"
	"errors"
	"image"
)

// ErrUnavailable signals that the recognizer cannot start at all, as opposed
// to failing on a single image. Callers treat it as a terminal processing
// error rather than a per-page skip.
var ErrUnavailable = errors.New("recognizer unavailable")

// Detection is one recognized text span on an image: an ordered 4-point
// quadrilateral in pixel coordinates (top-left origin, x/y interleaved),
// the recognized text, and a confidence score in [0,1].
type Detection struct {
	Polygon    []float64
	Text       string
	Confidence float64
}

// Recognizer turns a bitmap into an ordered sequence of detections. The
// detection order is the engine's native one; top-to-bottom, left-to-right
// is typical but not guaranteed.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]Detection, error)
}
