package document

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/formlens/formlens/internal/recognize"
)

const (
	// Baseline distance below which two text items belong to the same line.
	lineBaselineTolerance = 2.0
	// Horizontal gap above which items on one baseline become separate
	// detections (distinct captions sharing a row).
	lineSplitGap = 18.0
	defaultTextHeight = 12.0
)

// TextLayerDetections reads the positioned text runs of one page's native
// text layer and shapes them like recognizer output: one detection per text
// run, confidence 1.0, polygon in page space with a top-left origin.
//
// This is the recognition fallback for born-digital PDFs that carry no form
// definition and no page scan to rasterize.
func (d *Document) TextLayerDetections(pageNr int) ([]recognize.Detection, error) {
	page, err := d.Page(pageNr)
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(bytes.NewReader(d.data), int64(len(d.data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open text layer: %w", err)
	}
	if pageNr > reader.NumPage() {
		return nil, fmt.Errorf("text layer has no page %d", pageNr)
	}

	p := reader.Page(pageNr)
	if p.V.IsNull() {
		return nil, nil
	}

	items := p.Content().Text
	if len(items) == 0 {
		return nil, nil
	}

	// Top-to-bottom (descending PDF y), then left-to-right.
	sorted := make([]pdf.Text, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var detections []recognize.Detection
	var run []pdf.Text
	flush := func() {
		if len(run) == 0 {
			return
		}
		if det, ok := runDetection(run, page.Height); ok {
			detections = append(detections, det)
		}
		run = run[:0]
	}

	for _, item := range sorted {
		if len(run) > 0 {
			prev := run[len(run)-1]
			sameLine := abs(item.Y-prev.Y) <= lineBaselineTolerance
			adjacent := item.X-(prev.X+prev.W) <= lineSplitGap
			if !sameLine || !adjacent {
				flush()
			}
		}
		run = append(run, item)
	}
	flush()

	return detections, nil
}

// runDetection merges one horizontal run of text items into a detection.
func runDetection(run []pdf.Text, pageHeight float64) (recognize.Detection, bool) {
	var sb strings.Builder
	minX, maxX := run[0].X, run[0].X+run[0].W
	baseline := run[0].Y
	height := run[0].FontSize

	for _, item := range run {
		sb.WriteString(item.S)
		if item.X < minX {
			minX = item.X
		}
		if right := item.X + item.W; right > maxX {
			maxX = right
		}
		if item.Y < baseline {
			baseline = item.Y
		}
		if item.FontSize > height {
			height = item.FontSize
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return recognize.Detection{}, false
	}
	if height <= 0 {
		height = defaultTextHeight
	}

	// Flip from PDF user space (baseline, bottom-left origin) into page
	// space with a top-left origin.
	top := pageHeight - (baseline + height)
	bottom := pageHeight - baseline

	return recognize.Detection{
		Polygon:    []float64{minX, top, maxX, top, maxX, bottom, minX, bottom},
		Text:       text,
		Confidence: 1.0,
	}, true
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
