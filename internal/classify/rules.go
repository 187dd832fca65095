package classify

import (
	"regexp"
	"strings"

	"github.com/formlens/formlens/internal/field"
)

// rule is one entry in the ordered classification chain.
type rule struct {
	name      string
	fieldType field.Type
	matches   func(text string) bool
}

var (
	// Leading bracket, box-drawing glyph, radio glyph, or a check/cross
	// mark, optionally preceded by whitespace. A bare x/X counts only when
	// it stands alone before the caption.
	checkboxGlyphPattern = regexp.MustCompile(`^\s*(\[[^\]]*\]|[☐☑☒□■▢▣]|[○●◯◉]|[✓✔✗✘×]|[xX][\s.)\]])`)

	// Separator tokens such as "dd/mm" or "mm-dd" that mark date captions
	// even without the word "date".
	dateTokenPattern = regexp.MustCompile(`(?i)\b(dd|mm|yyyy|yy)\s*[/.-]\s*(dd|mm|yyyy|yy)\b`)
)

// rules is evaluated in order, first match wins. Reordering changes
// classification outcomes on ambiguous inputs.
var rules = []rule{
	{
		name:      "checkbox_glyph",
		fieldType: field.TypeCheckbox,
		matches: func(text string) bool {
			return checkboxGlyphPattern.MatchString(text)
		},
	},
	{
		name:      "signature",
		fieldType: field.TypeSignature,
		matches: func(text string) bool {
			lower := strings.ToLower(text)
			return strings.Contains(lower, "signature") || strings.Contains(lower, "sign here")
		},
	},
	{
		name:      "date",
		fieldType: field.TypeDate,
		matches: func(text string) bool {
			return strings.Contains(strings.ToLower(text), "date") || dateTokenPattern.MatchString(text)
		},
	},
	{
		name:      "colon_caption",
		fieldType: field.TypeText,
		matches: func(text string) bool {
			return strings.HasSuffix(strings.TrimSpace(text), ":")
		},
	},
}

// Keyword tables for Refine, carried over from the service this replaces.
var (
	tableCellKeywords = []string{"no.", "nric", "contact", "address"}
	captionKeywords   = []string{"name", "email", "phone", "occupation"}
	titleKeywords     = []string{"application", "form", "details", "information", "section"}
)
