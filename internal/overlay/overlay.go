// Package overlay writes field values back onto a PDF as positioned text
// and check marks, sized to fit each field's rectangle.
package overlay

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/formlens/formlens/internal/field"
	"github.com/formlens/formlens/internal/geometry"
)

const (
	textFontName = "Helvetica"
	markFontName = "ZapfDingbats"
	// Check mark glyph in the ZapfDingbats encoding.
	markGlyph = "4"
	// Horizontal inset for left-aligned text, in points.
	textInset = 2.0
)

// Config bounds the text fitting behavior.
type Config struct {
	// FontSizeMax is the size tried first for text values, in points.
	FontSizeMax int
	// FontSizeMin is the smallest size text shrinks to before it is
	// drawn clipped.
	FontSizeMin int
	// FitMargin is the fraction of the field width text must fit within.
	FitMargin float64
	// MarkScale sizes check marks relative to the field's short edge.
	MarkScale float64
}

// DefaultConfig returns the standard fitting bounds.
func DefaultConfig() Config {
	return Config{
		FontSizeMax: 10,
		FontSizeMin: 6,
		FitMargin:   0.95,
		MarkScale:   0.7,
	}
}

// Placement locates one fillable field on a page. Rect is in page space
// with a top-left origin; PageHeight converts it back to PDF user space.
type Placement struct {
	ID         string
	Page       int
	Type       field.Type
	Rect       geometry.Rect
	PageHeight float64
}

// SkippedField records one requested value that was not drawn.
type SkippedField struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Result is the outcome of one overlay pass.
type Result struct {
	Output  []byte
	Applied int
	Skipped []SkippedField
}

// Engine renders values onto documents.
type Engine struct {
	cfg Config
}

// NewEngine returns an engine with the given config; zero bounds take
// their defaults.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.FontSizeMax <= 0 {
		cfg.FontSizeMax = def.FontSizeMax
	}
	if cfg.FontSizeMin <= 0 {
		cfg.FontSizeMin = def.FontSizeMin
	}
	if cfg.FontSizeMin > cfg.FontSizeMax {
		cfg.FontSizeMin = cfg.FontSizeMax
	}
	if cfg.FitMargin <= 0 || cfg.FitMargin > 1 {
		cfg.FitMargin = def.FitMargin
	}
	if cfg.MarkScale <= 0 || cfg.MarkScale > 1 {
		cfg.MarkScale = def.MarkScale
	}
	return &Engine{cfg: cfg}
}

// Apply draws the given values onto their placements and returns the
// resulting PDF. Values for unknown ids, non-fillable fields, empty text
// and unchecked boxes are skipped, never fatal. When nothing remains to
// draw the input bytes are returned unchanged.
func (e *Engine) Apply(pdfData []byte, placements []Placement, values map[string]any) (*Result, error) {
	byID := make(map[string]Placement, len(placements))
	for _, p := range placements {
		byID[p.ID] = p
	}

	res := &Result{}
	marks := make(map[int][]*model.Watermark)

	for _, p := range placements {
		value, ok := values[p.ID]
		if !ok {
			continue
		}

		if !p.Type.Fillable() {
			res.skip(p.ID, fmt.Sprintf("field type %s is not fillable", p.Type))
			continue
		}
		if p.Rect.IsDegenerate() {
			res.skip(p.ID, "field rectangle is degenerate")
			continue
		}

		var wm *model.Watermark
		var err error
		switch p.Type {
		case field.TypeCheckbox, field.TypeRadio:
			checked, valid := truthy(value)
			if !valid {
				res.skip(p.ID, fmt.Sprintf("value %v is not a checkbox state", value))
				continue
			}
			if !checked {
				res.skip(p.ID, "unchecked")
				continue
			}
			wm, err = e.markWatermark(p)
		default:
			text := stringify(value)
			if strings.TrimSpace(text) == "" {
				res.skip(p.ID, "empty value")
				continue
			}
			wm, err = e.textWatermark(p, text)
		}
		if err != nil {
			res.skip(p.ID, err.Error())
			continue
		}

		marks[p.Page] = append(marks[p.Page], wm)
		res.Applied++
	}

	for id := range values {
		if _, known := byID[id]; !known {
			res.skip(id, "unknown field id")
		}
	}

	if res.Applied == 0 {
		res.Output = pdfData
		return res, nil
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var out bytes.Buffer
	if err := api.AddWatermarksSliceMap(bytes.NewReader(pdfData), &out, marks, conf); err != nil {
		return nil, fmt.Errorf("failed to render overlay: %w", err)
	}
	res.Output = out.Bytes()
	return res, nil
}

// fitTextSize steps the font size down from the configured maximum until
// the text fits within the fit margin of the box width, flooring at the
// configured minimum. At the floor the text overflows rather than truncates.
func (e *Engine) fitTextSize(text string, boxWidth float64) int {
	size := e.cfg.FontSizeMax
	limit := boxWidth * e.cfg.FitMargin
	for size > e.cfg.FontSizeMin && font.TextWidth(text, textFontName, size) > limit {
		size--
	}
	return size
}

// textWatermark builds a text stamp for one field. Text is left-aligned
// with a small inset and shrinks to fit the field width.
func (e *Engine) textWatermark(p Placement, text string) (*model.Watermark, error) {
	size := e.fitTextSize(text, p.Rect.Width())
	return e.watermark(p, text, textFontName, size, p.Rect.X0+textInset)
}

// markWatermark builds a check-mark stamp sized to the field's short edge
// and centered inside the box.
func (e *Engine) markWatermark(p Placement) (*model.Watermark, error) {
	short := p.Rect.Width()
	if h := p.Rect.Height(); h < short {
		short = h
	}
	size := int(short * e.cfg.MarkScale)
	if size < 1 {
		size = 1
	}
	offsetX := p.Rect.X0 + (p.Rect.Width()-font.TextWidth(markGlyph, markFontName, size))/2
	if offsetX < p.Rect.X0 {
		offsetX = p.Rect.X0
	}
	return e.watermark(p, markGlyph, markFontName, size, offsetX)
}

// watermark assembles the stamp description. Stamps anchor at the page's
// bottom-left corner, so the field rectangle is flipped from its top-left
// origin back into PDF user space via the page height.
func (e *Engine) watermark(p Placement, text, fontName string, size int, offsetX float64) (*model.Watermark, error) {
	bottom := p.PageHeight - p.Rect.Y1
	offsetY := bottom + (p.Rect.Height()-float64(size))/2
	if offsetY < bottom {
		offsetY = bottom
	}

	desc := fmt.Sprintf(
		"fontname:%s, points:%d, scale:1 abs, pos:bl, offset:%.2f %.2f, rotation:0, fillcolor:#000000",
		fontName, size, offsetX, offsetY,
	)

	wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to build stamp for %s: %w", p.ID, err)
	}
	return wm, nil
}

func (r *Result) skip(id, reason string) {
	r.Skipped = append(r.Skipped, SkippedField{ID: id, Reason: reason})
}

// truthy interprets a requested checkbox state. The second return is false
// for values that cannot be read as a state at all.
func truthy(value any) (checked, valid bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "on", "1", "x", "checked":
			return true, true
		case "false", "no", "off", "0", "", "unchecked":
			return false, true
		}
		return false, false
	case float64:
		return v != 0, true
	case int:
		return v != 0, true
	case nil:
		return false, true
	}
	return false, false
}

// stringify renders a requested value as overlay text.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
