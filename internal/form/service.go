// Package form orchestrates the discovery and overlay pipelines over one
// document payload: media sniffing, structured-field extraction, the
// recognition fallback, schema building and value rendering.
package form

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sort"

	"github.com/formlens/formlens/internal/classify"
	"github.com/formlens/formlens/internal/document"
	"github.com/formlens/formlens/internal/field"
	"github.com/formlens/formlens/internal/geometry"
	"github.com/formlens/formlens/internal/overlay"
	"github.com/formlens/formlens/internal/recognize"
	"github.com/formlens/formlens/internal/schema"
)

// DefaultRenderScale is the raster oversampling factor for recognition.
const DefaultRenderScale = 2.0

// Config assembles one service instance.
type Config struct {
	// Recognizer analyzes page rasters; nil disables the raster path and
	// recognition falls straight to the text layer.
	Recognizer  recognize.Recognizer
	RenderScale float64
	Schema      schema.Config
	Overlay     overlay.Config
	Logger      *slog.Logger
}

// Service runs the discovery and overlay operations. It is stateless per
// call and safe for concurrent use.
type Service struct {
	recognizer  recognize.Recognizer
	renderScale float64
	builder     *schema.Builder
	engine      *overlay.Engine
	logger      *slog.Logger
}

// New builds a service; zero config values take their defaults.
func New(cfg Config) *Service {
	if cfg.RenderScale <= 0 {
		cfg.RenderScale = DefaultRenderScale
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		recognizer:  cfg.Recognizer,
		renderScale: cfg.RenderScale,
		builder:     schema.NewBuilder(cfg.Schema),
		engine:      overlay.NewEngine(cfg.Overlay),
		logger:      cfg.Logger,
	}
}

// Discover analyzes one document and returns its field regions and the
// presentation schema built from them. PDFs with a native form definition
// never enter the recognition path; everything else does.
func (s *Service) Discover(ctx context.Context, req DiscoverRequest) (*DiscoverResult, error) {
	if len(req.Data) == 0 {
		return nil, errorf(KindInputValidation, "empty document payload")
	}

	media, err := document.DetectMediaType(req.Data, req.DeclaredType, req.Filename)
	if err != nil {
		return nil, newError(KindInputValidation, "unsupported document", err)
	}

	res := &DiscoverResult{MediaType: string(media)}

	var regions []field.Region
	switch {
	case media.IsImage():
		res.PageCount = 1
		regions, err = s.imageRegions(ctx, req.Data)
		if err != nil {
			return nil, err
		}
	default:
		doc, openErr := document.Open(req.Data)
		if openErr != nil {
			return nil, newError(KindInputValidation, "unreadable PDF", openErr)
		}
		res.PageCount = doc.PageCount()
		if res.PageCount == 0 {
			res.finish(s.builder, nil)
			return res, nil
		}

		structured, rs, skipped, regErr := s.pdfRegions(ctx, doc)
		if regErr != nil {
			return nil, regErr
		}
		res.HasStructuredFields = structured
		res.SkippedPages = skipped
		regions = rs
	}

	res.finish(s.builder, regions)
	s.logger.Debug("document analyzed",
		"media_type", res.MediaType,
		"pages", res.PageCount,
		"structured", res.HasStructuredFields,
		"fields", res.TotalFields,
		"skipped_pages", len(res.SkippedPages))
	return res, nil
}

// Overlay renders the requested values onto the document and returns the
// resulting PDF. When the request carries no field regions the document is
// rediscovered first.
func (s *Service) Overlay(ctx context.Context, req OverlayRequest) (*OverlayResult, error) {
	if len(req.Data) == 0 {
		return nil, errorf(KindInputValidation, "empty document payload")
	}

	media, err := document.DetectMediaType(req.Data, req.DeclaredType, req.Filename)
	if err != nil {
		return nil, newError(KindInputValidation, "unsupported document", err)
	}
	if media != document.MediaTypePDF {
		return nil, errorf(KindInputValidation, "overlay requires a PDF document, got %s", media)
	}

	doc, err := document.Open(req.Data)
	if err != nil {
		return nil, newError(KindInputValidation, "unreadable PDF", err)
	}

	regions := req.Fields
	if len(regions) == 0 {
		_, regions, _, err = s.pdfRegions(ctx, doc)
		if err != nil {
			return nil, err
		}
	}

	placements, preSkipped := s.placements(doc, regions, req.Values)
	if len(placements) == 0 && len(req.Values) > 0 && len(preSkipped) == 0 {
		return nil, errorf(KindOverlayMapping, "document has no fillable fields to receive %d values", len(req.Values))
	}

	values := req.Values
	if len(preSkipped) > 0 {
		values = make(map[string]any, len(req.Values))
		for id, v := range req.Values {
			values[id] = v
		}
		for _, sk := range preSkipped {
			delete(values, sk.ID)
		}
	}

	applied, err := s.engine.Apply(req.Data, placements, values)
	if err != nil {
		return nil, newError(KindInternal, "overlay rendering failed", err)
	}

	s.logger.Debug("overlay rendered",
		"fields", len(placements),
		"applied", applied.Applied,
		"skipped", len(applied.Skipped))
	return &OverlayResult{
		Data:          applied.Output,
		AppliedFields: applied.Applied,
		SkippedFields: append(preSkipped, applied.Skipped...),
	}, nil
}

// pdfRegions picks the extraction path for an open PDF: the native form
// definition when present, otherwise per-page recognition.
func (s *Service) pdfRegions(ctx context.Context, doc *document.Document) (bool, []field.Region, []int, error) {
	if ok, regions := doc.StructuredFields(); ok && len(regions) > 0 {
		return true, regions, nil, nil
	}

	regions, skipped, err := s.recognizedRegions(ctx, doc)
	if err != nil {
		return false, nil, nil, err
	}
	return false, regions, skipped, nil
}

// recognizedRegions runs recognition page by page. Each page prefers its
// raster; pages without one, and pages whose recognition fails, fall back
// to the native text layer. A page with neither is counted as skipped.
func (s *Service) recognizedRegions(ctx context.Context, doc *document.Document) ([]field.Region, []int, error) {
	var rasters map[int]image.Image
	if s.recognizer != nil {
		var err error
		rasters, err = doc.PageRasters(s.renderScale)
		if err != nil {
			s.logger.Debug("raster extraction failed, using text layer", "error", err)
			rasters = nil
		}
	}

	var regions []field.Region
	var skipped []int
	for _, page := range doc.Pages() {
		if err := ctx.Err(); err != nil {
			return nil, nil, newError(KindInternal, "recognition canceled", err)
		}

		pageRegions, err := s.recognizePage(ctx, doc, page, rasters[page.Number])
		if err != nil {
			if errors.Is(err, recognize.ErrUnavailable) {
				return nil, nil, newError(KindRecognition, "recognizer unavailable", err)
			}
			s.logger.Debug("page skipped", "page", page.Number, "error", err)
			skipped = append(skipped, page.Number)
			continue
		}
		regions = append(regions, pageRegions...)
	}
	return regions, skipped, nil
}

func (s *Service) recognizePage(ctx context.Context, doc *document.Document, page document.Page, raster image.Image) ([]field.Region, error) {
	if raster != nil && s.recognizer != nil {
		detections, err := s.recognizer.Recognize(ctx, raster)
		if err == nil {
			return detectionRegions(page.Number, detections, page.Width, page.Height, s.renderScale), nil
		}
		if errors.Is(err, recognize.ErrUnavailable) {
			return nil, err
		}
		s.logger.Debug("raster recognition failed, using text layer", "page", page.Number, "error", err)
	}

	detections, err := doc.TextLayerDetections(page.Number)
	if err != nil {
		return nil, fmt.Errorf("text layer unreadable: %w", err)
	}
	return detectionRegions(page.Number, detections, page.Width, page.Height, 1.0), nil
}

// imageRegions treats a standalone image as a single page whose pixel grid
// is the page space.
func (s *Service) imageRegions(ctx context.Context, data []byte) ([]field.Region, error) {
	if s.recognizer == nil {
		return nil, errorf(KindRecognition, "image analysis requires a recognizer")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, newError(KindInputValidation, "undecodable image", err)
	}

	detections, err := s.recognizer.Recognize(ctx, img)
	if err != nil {
		if errors.Is(err, recognize.ErrUnavailable) {
			return nil, newError(KindRecognition, "recognizer unavailable", err)
		}
		return nil, newError(KindRecognition, "image recognition failed", err)
	}

	b := img.Bounds()
	return detectionRegions(1, detections, float64(b.Dx()), float64(b.Dy()), 1.0), nil
}

// detectionRegions classifies raw detections into field regions, mapping
// their polygons from raster space into page space via the render scale.
func detectionRegions(page int, detections []recognize.Detection, pageWidth, pageHeight, scale float64) []field.Region {
	regions := make([]field.Region, 0, len(detections))
	ordinal := 0
	for _, det := range detections {
		bounds, err := geometry.PolygonBounds(det.Polygon)
		if err != nil {
			continue
		}
		rect := bounds.Scale(1 / scale)

		normalized, err := geometry.Normalize(rect, pageWidth, pageHeight)
		if err != nil {
			continue
		}

		polygon := make([]float64, len(det.Polygon))
		for i, c := range det.Polygon {
			polygon[i] = c / scale
		}

		fieldType := classify.Refine(det.Text, classify.Classify(det.Text))
		regions = append(regions, field.Region{
			ID:             field.RecognizedID(page, ordinal),
			Page:           page,
			Type:           fieldType,
			Label:          det.Text,
			Confidence:     det.Confidence,
			RectAbsolute:   rect,
			RectNormalized: normalized,
			Polygon:        polygon,
			Source:         field.SourceRecognized,
		})
		ordinal++
	}
	return regions
}

// placements maps fillable regions onto overlay placements, resolving each
// page's height for the coordinate flip. A region pointing at a page the
// document does not have is reported as a skip when a value targets it, so
// the caller sees the real reason instead of an unknown-id fallback.
func (s *Service) placements(doc *document.Document, regions []field.Region, values map[string]any) ([]overlay.Placement, []overlay.SkippedField) {
	placements := make([]overlay.Placement, 0, len(regions))
	var skipped []overlay.SkippedField
	for _, r := range regions {
		if !r.Type.Fillable() {
			continue
		}
		page, err := doc.Page(r.Page)
		if err != nil {
			if _, wanted := values[r.ID]; wanted {
				skipped = append(skipped, overlay.SkippedField{
					ID:     r.ID,
					Reason: fmt.Sprintf("page %d is not in the document", r.Page),
				})
			}
			continue
		}
		placements = append(placements, overlay.Placement{
			ID:         r.ID,
			Page:       r.Page,
			Type:       r.Type,
			Rect:       r.RectAbsolute,
			PageHeight: page.Height,
		})
	}
	return placements, skipped
}

// finish fills the derived result members from the collected regions.
func (r *DiscoverResult) finish(builder *schema.Builder, regions []field.Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		if regions[i].Page != regions[j].Page {
			return regions[i].Page < regions[j].Page
		}
		if regions[i].RectAbsolute.Y0 != regions[j].RectAbsolute.Y0 {
			return regions[i].RectAbsolute.Y0 < regions[j].RectAbsolute.Y0
		}
		return regions[i].RectAbsolute.X0 < regions[j].RectAbsolute.X0
	})

	r.FieldRegions = regions
	r.TotalFields = len(regions)
	r.TypeCounts = field.CountByType(regions)
	r.Fields = make(map[string]field.Region, len(regions))
	for _, region := range regions {
		r.Fields[region.ID] = region
	}
	r.Schema = builder.Build(regions)
}
