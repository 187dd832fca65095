// Package classify maps raw recognized text to a semantic field type using
// an ordered, deterministic rule chain.
//
// Rule order is load-bearing: checkbox glyphs are the strongest signal and
// run first, a trailing colon is the weakest and acts only as a default
// disambiguator. "Signature:" must classify as a signature, not a text
// field, which requires the signature rule to precede the colon rule.
package classify

import (
	"strings"
	"unicode"

	"github.com/formlens/formlens/internal/field"
)

// Classify returns the semantic type for a recognized text span. The first
// matching rule wins; unmatched text falls back to a plain text field.
func Classify(text string) field.Type {
	for _, r := range rules {
		if r.matches(text) {
			return r.fieldType
		}
	}
	return field.TypeText
}

// Refine promotes a rule-chain default into one of the layout-oriented types
// (table_cell, title, label, non_fillable) using the keyword and length
// heuristics the recognition path needs for section detection. Types already
// decided by Classify pass through untouched.
//
// Only the recognition extractor applies Refine; Classify on its own is the
// stable classification contract.
func Refine(text string, t field.Type) field.Type {
	if t != field.TypeText {
		return t
	}

	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	// Colon-terminated captions stay text fields.
	if strings.HasSuffix(trimmed, ":") {
		return field.TypeText
	}

	if len(trimmed) < 50 && containsAny(lower, tableCellKeywords) {
		return field.TypeTableCell
	}

	if containsAny(lower, captionKeywords) {
		return field.TypeText
	}

	if len(trimmed) < 60 && (isUpper(trimmed) || containsAny(lower, titleKeywords)) {
		return field.TypeTitle
	}

	if len(trimmed) < 30 {
		return field.TypeLabel
	}

	return field.TypeNonFillable
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// isUpper reports whether the text contains at least one letter and no
// lowercase letters.
func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
