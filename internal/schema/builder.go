package schema

import (
	"sort"
	"strings"

	"github.com/formlens/formlens/internal/field"
)

// Builder converts a flat list of classified field regions into a Schema.
// It never mutates the identifiers of ungrouped fields; only collapsed
// checkbox clusters receive new synthetic ids.
type Builder struct {
	cfg Config
}

// NewBuilder creates a schema builder with the given heuristics. Zero or
// negative config values fall back to the documented defaults.
func NewBuilder(cfg Config) *Builder {
	if cfg.SectionGap <= 0 {
		cfg.SectionGap = DefaultSectionGap
	}
	if cfg.MinChoiceRun <= 0 {
		cfg.MinChoiceRun = DefaultMinChoiceRun
	}
	return &Builder{cfg: cfg}
}

// Build groups regions into sections page by page. Sections left empty after
// title exclusion are dropped from the output.
func (b *Builder) Build(regions []field.Region) Schema {
	byPage := make(map[int][]field.Region)
	pages := make([]int, 0)
	for _, r := range regions {
		if _, seen := byPage[r.Page]; !seen {
			pages = append(pages, r.Page)
		}
		byPage[r.Page] = append(byPage[r.Page], r)
	}
	sort.Ints(pages)

	schema := Schema{Sections: []Section{}}
	for _, page := range pages {
		schema.Sections = append(schema.Sections, b.buildPage(page, byPage[page])...)
	}
	return schema
}

// buildPage sweeps one page top to bottom, opening a new section on a title
// region or on a vertical gap larger than the configured threshold.
func (b *Builder) buildPage(page int, regions []field.Region) []Section {
	sorted := make([]field.Region, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].RectAbsolute.Y0 != sorted[j].RectAbsolute.Y0 {
			return sorted[i].RectAbsolute.Y0 < sorted[j].RectAbsolute.Y0
		}
		return sorted[i].RectAbsolute.X0 < sorted[j].RectAbsolute.X0
	})

	var sections []Section
	var current *Section
	groupSeq := 0
	lastY := 0.0
	haveLastY := false

	flush := func() {
		if current == nil {
			return
		}
		current.Fields = b.collapseChoiceRuns(page, current.Name, current.Fields, &groupSeq)
		if len(current.Fields) > 0 {
			sections = append(sections, *current)
		}
		current = nil
	}

	for _, r := range sorted {
		topY := r.RectAbsolute.Y0

		if r.Type == field.TypeTitle {
			flush()
			current = &Section{Name: strings.TrimSpace(r.Label), Page: page}
			lastY, haveLastY = topY, true
			continue
		}

		if current != nil && haveLastY && topY-lastY > b.cfg.SectionGap {
			flush()
		}
		if current == nil {
			current = &Section{Name: "Section", Page: page}
		}

		if f, ok := presentationField(r); ok {
			current.Fields = append(current.Fields, f)
		}
		lastY, haveLastY = topY, true
	}
	flush()

	return sections
}

// presentationField converts a region into its renderable form. Labels and
// non-fillable prose carry no input and are dropped; table cells render as
// plain text inputs.
func presentationField(r field.Region) (Field, bool) {
	switch r.Type {
	case field.TypeLabel, field.TypeNonFillable:
		return Field{}, false
	case field.TypeCheckbox, field.TypeRadio:
		return Field{
			ID:    r.ID,
			Type:  r.Type,
			Title: strings.TrimSpace(r.Label),
			Value: false,
		}, true
	case field.TypeTableCell:
		return Field{
			ID:    r.ID,
			Type:  field.TypeText,
			Title: strings.TrimSpace(r.Label),
		}, true
	case field.TypeDropdown, field.TypeListBox:
		return Field{
			ID:    r.ID,
			Type:  r.Type,
			Title: strings.TrimSpace(r.Label),
		}, true
	default:
		title := strings.TrimSuffix(strings.TrimSpace(r.Label), ":")
		f := Field{
			ID:    r.ID,
			Type:  r.Type,
			Title: title,
		}
		if r.Type == field.TypeText && title != "" {
			f.Placeholder = "Enter " + strings.ToLower(title)
		}
		return f, true
	}
}

// collapseChoiceRuns replaces each run of MinChoiceRun or more consecutive
// checkboxes with sibling-like labels by one synthetic dropdown owning the
// collapsed labels as options, in their original order. Shorter runs are
// left as individual checkboxes.
func (b *Builder) collapseChoiceRuns(page int, sectionName string, fields []Field, groupSeq *int) []Field {
	out := make([]Field, 0, len(fields))
	run := make([]Field, 0)

	flushRun := func() {
		if len(run) >= b.cfg.MinChoiceRun && parallelLabels(run) {
			options := make([]string, len(run))
			sourceIDs := make([]string, len(run))
			for i, cb := range run {
				options[i] = cb.Title
				sourceIDs[i] = cb.ID
			}
			out = append(out, Field{
				ID:        field.GroupedID(page, *groupSeq),
				Type:      field.TypeDropdown,
				Title:     sectionName,
				Options:   options,
				SourceIDs: sourceIDs,
			})
			*groupSeq++
		} else {
			out = append(out, run...)
		}
		run = run[:0]
	}

	for _, f := range fields {
		if f.Type == field.TypeCheckbox {
			run = append(run, f)
			continue
		}
		flushRun()
		out = append(out, f)
	}
	flushRun()

	return out
}

// parallelLabels reports whether every label in a run reads like a sibling
// option: non-empty, short, and at most a few words.
func parallelLabels(run []Field) bool {
	for _, f := range run {
		label := strings.TrimSpace(f.Title)
		if label == "" || len(label) > 32 || len(strings.Fields(label)) > 4 {
			return false
		}
	}
	return true
}
