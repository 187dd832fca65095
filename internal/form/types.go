package form

import (
	"github.com/formlens/formlens/internal/field"
	"github.com/formlens/formlens/internal/overlay"
	"github.com/formlens/formlens/internal/schema"
)

// DiscoverRequest carries one document to analyze. DeclaredType and
// Filename are hints only; the payload's magic bytes win.
type DiscoverRequest struct {
	Data         []byte
	DeclaredType string
	Filename     string
}

// DiscoverResult reports every detected field region plus the presentation
// schema built from them.
type DiscoverResult struct {
	MediaType           string                  `json:"media_type"`
	PageCount           int                     `json:"page_count"`
	HasStructuredFields bool                    `json:"has_structured_fields"`
	TotalFields         int                     `json:"total_fields"`
	TypeCounts          map[field.Type]int      `json:"type_counts"`
	FieldRegions        []field.Region          `json:"field_regions"`
	Fields              map[string]field.Region `json:"fields"`
	Schema              schema.Schema           `json:"form_schema"`
	SkippedPages        []int                   `json:"skipped_pages,omitempty"`
}

// OverlayRequest fills values onto a previously discovered document.
// When Fields is empty the service rediscovers the document first.
type OverlayRequest struct {
	Data         []byte
	DeclaredType string
	Filename     string
	Fields       []field.Region
	Values       map[string]any
}

// OverlayResult carries the rendered PDF and the per-field outcome.
type OverlayResult struct {
	Data          []byte
	AppliedFields int
	SkippedFields []overlay.SkippedField
}
