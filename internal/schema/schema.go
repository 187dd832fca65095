// Package schema groups classified field regions into a presentation-ready
// form schema: sections split by vertical proximity and titles, with runs of
// related checkboxes collapsed into single choice fields.
package schema

import (
	"github.com/formlens/formlens/internal/field"
)

// Default heuristics. The section gap is in the document's native coordinate
// unit; three checkboxes is the minimum cluster considered intentional.
const (
	DefaultSectionGap   = 100.0
	DefaultMinChoiceRun = 3
)

// Config carries the grouping heuristics so they are tunable per document
// class instead of living as embedded literals.
type Config struct {
	// SectionGap is the vertical distance between consecutive regions above
	// which a new section starts.
	SectionGap float64
	// MinChoiceRun is the smallest run of consecutive checkboxes collapsed
	// into a synthetic dropdown.
	MinChoiceRun int
}

// DefaultConfig returns the documented default heuristics.
func DefaultConfig() Config {
	return Config{
		SectionGap:   DefaultSectionGap,
		MinChoiceRun: DefaultMinChoiceRun,
	}
}

// Field is one renderable entry of a section: either a pass-through of a
// region's presentation attributes, or a synthetic choice field collapsed
// from a checkbox cluster. Synthetic fields carry the collapsed options and
// the ids of the source checkboxes so a chosen option can be fanned back out
// to the original coordinates at overlay time.
type Field struct {
	ID          string     `json:"id"`
	Type        field.Type `json:"type"`
	Title       string     `json:"title"`
	Placeholder string     `json:"placeholder,omitempty"`
	Value       any        `json:"value,omitempty"`
	Options     []string   `json:"options,omitempty"`
	SourceIDs   []string   `json:"source_ids,omitempty"`
}

// Section is a vertically contiguous group of fields on one page, optionally
// named by a preceding title region.
type Section struct {
	Name   string  `json:"section"`
	Page   int     `json:"page"`
	Fields []Field `json:"fields"`
}

// Schema is the grouped, presentation-oriented discovery output.
type Schema struct {
	Sections []Section `json:"form_schema"`
}
