package classify

import (
	"testing"

	"github.com/formlens/formlens/internal/field"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected field.Type
	}{
		// Rule 1: checkbox glyphs.
		{name: "empty_brackets", text: "[ ] Yes", expected: field.TypeCheckbox},
		{name: "checked_brackets", text: "[x] No", expected: field.TypeCheckbox},
		{name: "box_glyph", text: "☐ New Application", expected: field.TypeCheckbox},
		{name: "checked_box_glyph", text: "☑ Renewal", expected: field.TypeCheckbox},
		{name: "check_mark", text: "✓ Agreed", expected: field.TypeCheckbox},
		{name: "radio_glyph", text: "○ Male", expected: field.TypeCheckbox},
		{name: "leading_whitespace_glyph", text: "   ☐ Damaged", expected: field.TypeCheckbox},
		{name: "bare_x_with_space", text: "X Female", expected: field.TypeCheckbox},

		// Rule 2 precedes rule 4: "Signature:" is a signature, not a text field.
		{name: "signature_colon", text: "Signature:", expected: field.TypeSignature},
		{name: "signature_of_applicant", text: "Signature of Applicant", expected: field.TypeSignature},
		{name: "sign_here", text: "Please SIGN HERE", expected: field.TypeSignature},

		// Rule 3 precedes rule 4.
		{name: "date_of_birth_colon", text: "Date of Birth:", expected: field.TypeDate},
		{name: "date_plain", text: "Expiry Date", expected: field.TypeDate},
		{name: "date_separator_token", text: "(dd/mm/yyyy)", expected: field.TypeDate},

		// Rule 4: colon-terminated captions.
		{name: "name_colon", text: "Name:", expected: field.TypeText},
		{name: "address_colon", text: "Home Address:", expected: field.TypeText},

		// Rule 5: default.
		{name: "random_prose", text: "random prose", expected: field.TypeText},
		{name: "empty_string", text: "", expected: field.TypeText},

		// Words merely containing x must not look like checkbox glyphs.
		{name: "xylophone_not_checkbox", text: "xylophone lessons", expected: field.TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.text))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, field.TypeSignature, Classify("Signature:"))
	}
}

func TestRefine(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		base     field.Type
		expected field.Type
	}{
		// Non-default types pass through untouched.
		{name: "checkbox_untouched", text: "☐ Yes", base: field.TypeCheckbox, expected: field.TypeCheckbox},
		{name: "signature_untouched", text: "Signature", base: field.TypeSignature, expected: field.TypeSignature},
		{name: "date_untouched", text: "Date", base: field.TypeDate, expected: field.TypeDate},

		// Colon captions stay text fields.
		{name: "colon_caption", text: "Name:", base: field.TypeText, expected: field.TypeText},

		// Table cell keywords.
		{name: "table_cell_nric", text: "NRIC No.", base: field.TypeText, expected: field.TypeTableCell},
		{name: "table_cell_contact", text: "Contact", base: field.TypeText, expected: field.TypeTableCell},

		// Caption keywords without colon remain fillable text.
		{name: "name_keyword", text: "Full Name", base: field.TypeText, expected: field.TypeText},
		{name: "email_keyword", text: "Email", base: field.TypeText, expected: field.TypeText},

		// Title heuristics: short uppercase text or section keywords.
		{name: "uppercase_title", text: "MEMBERSHIP RENEWAL", base: field.TypeText, expected: field.TypeTitle},
		{name: "keyword_title", text: "Personal Details", base: field.TypeText, expected: field.TypeTitle},

		// Short prose becomes a label, long prose non-fillable.
		{name: "short_label", text: "random prose", base: field.TypeText, expected: field.TypeLabel},
		{
			name:     "long_prose",
			text:     "I hereby declare that the particulars given above are true and correct to the best of my knowledge",
			base:     field.TypeText,
			expected: field.TypeNonFillable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Refine(tt.text, tt.base))
		})
	}
}
