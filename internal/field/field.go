// Package field defines the FieldRegion model threaded through every
// discovery and overlay stage, together with its identifier scheme.
package field

import (
	"fmt"

	"github.com/formlens/formlens/internal/geometry"
)

// Type is the closed set of semantic field types. Classification always
// terminates with TypeText rather than leaving a region untyped.
type Type string

const (
	TypeText        Type = "text_field"
	TypeCheckbox    Type = "checkbox"
	TypeRadio       Type = "radio"
	TypeDropdown    Type = "dropdown"
	TypeListBox     Type = "listbox"
	TypeSignature   Type = "signature"
	TypeDate        Type = "date_field"
	TypeTableCell   Type = "table_cell"
	TypeTitle       Type = "title"
	TypeLabel       Type = "label"
	TypeNonFillable Type = "non_fillable"
)

// Valid reports whether t is a member of the closed type set.
func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeCheckbox, TypeRadio, TypeDropdown, TypeListBox,
		TypeSignature, TypeDate, TypeTableCell, TypeTitle, TypeLabel, TypeNonFillable:
		return true
	}
	return false
}

// Fillable reports whether a region of this type accepts a value at overlay
// time. Titles, labels and non-fillable prose are presentation only.
func (t Type) Fillable() bool {
	switch t {
	case TypeTitle, TypeLabel, TypeNonFillable:
		return false
	}
	return true
}

// Source tags the provenance of a region.
type Source string

const (
	SourceStructured Source = "structured"
	SourceRecognized Source = "recognized"
)

// Region is one discovered fillable or labeled area on one page.
//
// RectAbsolute is in page space (native unit, top-left origin);
// RectNormalized is the same rectangle divided by the page dimensions.
// Confidence and Polygon are set only on recognition-derived regions;
// structured regions are treated as confidence 1.0.
type Region struct {
	ID             string        `json:"id"`
	Page           int           `json:"page"`
	Type           Type          `json:"type"`
	Name           string        `json:"name,omitempty"`
	Label          string        `json:"label"`
	Value          any           `json:"value,omitempty"`
	Confidence     float64       `json:"confidence,omitempty"`
	RectAbsolute   geometry.Rect `json:"rect_absolute"`
	RectNormalized geometry.Rect `json:"rect_normalized"`
	Polygon        []float64     `json:"polygon,omitempty"`
	Source         Source        `json:"source"`
}

// Identifier prefixes distinguishing a region's origin. Page index and
// ordinal in minted ids are both 0-based.
const (
	prefixStructured = "struct"
	prefixRecognized = "ocr"
	prefixGrouped    = "group"
)

// StructuredID mints the id for the ordinal-th native form field on a page.
// page is 1-based, the encoded page index 0-based.
func StructuredID(page, ordinal int) string {
	return fmt.Sprintf("%s_%d_%d", prefixStructured, page-1, ordinal)
}

// RecognizedID mints the id for the ordinal-th recognized span on a page,
// following the recognizer's native detection order.
func RecognizedID(page, ordinal int) string {
	return fmt.Sprintf("%s_%d_%d", prefixRecognized, page-1, ordinal)
}

// GroupedID mints the id for the n-th synthetic choice field on a page,
// created by collapsing a checkbox cluster.
func GroupedID(page, n int) string {
	return fmt.Sprintf("%s_%d_%d", prefixGrouped, page-1, n)
}

// CountByType tallies regions per semantic type.
func CountByType(regions []Region) map[Type]int {
	counts := make(map[Type]int)
	for _, r := range regions {
		counts[r.Type]++
	}
	return counts
}
