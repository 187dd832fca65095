package document

import (
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/formlens/formlens/internal/classify"
	"github.com/formlens/formlens/internal/field"
	"github.com/formlens/formlens/internal/geometry"
)

// Button and choice field flag bits (PDF 32000-1, table 226/230).
const (
	fieldFlagRadio      = 1 << 15
	fieldFlagPushbutton = 1 << 16
	fieldFlagCombo      = 1 << 17
)

// HasStructuredFields reports whether the document carries a native
// interactive-form definition with at least one field. A read error on the
// catalog entry is treated as "no structured fields", never propagated.
func (d *Document) HasStructuredFields() bool {
	root, err := d.ctx.Catalog()
	if err != nil {
		return false
	}

	acroFormObj, found := root.Find("AcroForm")
	if !found {
		return false
	}
	acroForm, err := d.ctx.DereferenceDict(acroFormObj)
	if err != nil || acroForm == nil {
		return false
	}

	fieldsObj, found := acroForm.Find("Fields")
	if !found {
		return false
	}
	fields, err := d.ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return false
	}
	return len(fields) > 0
}

// StructuredFields enumerates every form widget annotation into a field
// region. It returns (false, nil) when the document has no usable form
// definition; otherwise the regions carry ids encoding page and ordinal
// position. A read error on a single annotation skips that field only.
func (d *Document) StructuredFields() (bool, []field.Region) {
	if !d.HasStructuredFields() {
		return false, nil
	}

	regions := make([]field.Region, 0)
	for _, page := range d.pages {
		ordinal := 0
		for _, annotObj := range page.annots {
			region, ok := d.widgetRegion(annotObj, page, ordinal)
			if !ok {
				continue
			}
			regions = append(regions, region)
			ordinal++
		}
	}
	return true, regions
}

// widgetRegion converts one widget annotation into a region. ok is false for
// non-widget annotations and for widgets whose geometry cannot be read.
func (d *Document) widgetRegion(annotObj types.Object, page Page, ordinal int) (field.Region, bool) {
	annot, err := d.ctx.DereferenceDict(annotObj)
	if err != nil || annot == nil {
		return field.Region{}, false
	}

	if subtype, found := annot.Find("Subtype"); found {
		name, err := d.ctx.DereferenceName(subtype, model.V10, nil)
		if err != nil || name != "Widget" {
			return field.Region{}, false
		}
	} else {
		return field.Region{}, false
	}

	rect, ok := d.annotationRect(annot, page)
	if !ok {
		return field.Region{}, false
	}

	name := d.fieldName(annot, 0)
	fieldType := d.fieldType(annot, 0)
	if fieldType == field.TypeText && name != "" {
		// Let the declared purpose text refine plain text fields into
		// date or signature fields.
		fieldType = classify.Classify(name)
	}

	normalized, err := geometry.Normalize(rect, page.Width, page.Height)
	if err != nil {
		return field.Region{}, false
	}

	return field.Region{
		ID:             field.StructuredID(page.Number, ordinal),
		Page:           page.Number,
		Type:           fieldType,
		Name:           name,
		Label:          labelFromName(name),
		RectAbsolute:   rect,
		RectNormalized: normalized,
		Source:         field.SourceStructured,
	}, true
}

// annotationRect reads the widget rectangle and flips it from PDF user space
// (bottom-left origin) into page space (top-left origin).
func (d *Document) annotationRect(annot types.Dict, page Page) (geometry.Rect, bool) {
	rectObj, found := annot.Find("Rect")
	if !found {
		return geometry.Rect{}, false
	}
	rectArray, err := d.ctx.DereferenceArray(rectObj)
	if err != nil || len(rectArray) != 4 {
		return geometry.Rect{}, false
	}

	coords := make([]float64, 4)
	for i, obj := range rectArray {
		f, err := d.ctx.DereferenceNumber(obj)
		if err != nil {
			return geometry.Rect{}, false
		}
		coords[i] = f
	}

	x0, x1 := coords[0], coords[2]
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	y0, y1 := coords[1], coords[3]
	if y0 > y1 {
		y0, y1 = y1, y0
	}

	return geometry.Rect{
		X0: x0,
		Y0: page.Height - y1,
		X1: x1,
		Y1: page.Height - y0,
	}, true
}

// fieldName reads the field's partial name (T entry), consulting the parent
// chain when the widget is a kid of a field dictionary.
func (d *Document) fieldName(dict types.Dict, depth int) string {
	if depth > 16 {
		return ""
	}

	if nameObj, found := dict.Find("T"); found {
		if name, err := d.ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil {
			return name
		}
	}

	if parentObj, found := dict.Find("Parent"); found {
		if parent, err := d.ctx.DereferenceDict(parentObj); err == nil && parent != nil {
			return d.fieldName(parent, depth+1)
		}
	}
	return ""
}

// fieldType maps the native field-type code (FT entry, inheritable) onto the
// semantic type set. Unrecognized codes fall back to a plain text field.
func (d *Document) fieldType(dict types.Dict, depth int) field.Type {
	if depth > 16 {
		return field.TypeText
	}

	ftObj, found := dict.Find("FT")
	if !found {
		if parentObj, found := dict.Find("Parent"); found {
			if parent, err := d.ctx.DereferenceDict(parentObj); err == nil && parent != nil {
				return d.fieldType(parent, depth+1)
			}
		}
		return field.TypeText
	}

	ftName, err := d.ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return field.TypeText
	}

	switch ftName {
	case "Tx":
		return field.TypeText
	case "Btn":
		if d.fieldFlags(dict, 0)&fieldFlagRadio != 0 {
			return field.TypeRadio
		}
		return field.TypeCheckbox
	case "Ch":
		if d.fieldFlags(dict, 0)&fieldFlagCombo != 0 {
			return field.TypeDropdown
		}
		return field.TypeListBox
	case "Sig":
		return field.TypeSignature
	default:
		return field.TypeText
	}
}

func (d *Document) fieldFlags(dict types.Dict, depth int) int {
	if depth > 16 {
		return 0
	}

	flagsObj, found := dict.Find("Ff")
	if !found {
		if parentObj, found := dict.Find("Parent"); found {
			if parent, err := d.ctx.DereferenceDict(parentObj); err == nil && parent != nil {
				return d.fieldFlags(parent, depth+1)
			}
		}
		return 0
	}
	flags, err := d.ctx.DereferenceInteger(flagsObj)
	if err != nil || flags == nil {
		return 0
	}
	return int(*flags)
}

// labelFromName turns a native field name like "applicant_date_of_birth"
// into a readable caption.
func labelFromName(name string) string {
	if name == "" {
		return ""
	}
	label := strings.NewReplacer("_", " ", ".", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(label), " ")
}
