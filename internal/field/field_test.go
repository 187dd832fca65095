package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDMinting(t *testing.T) {
	tests := []struct {
		name     string
		mint     func(int, int) string
		page     int
		ordinal  int
		expected string
	}{
		{name: "structured_first_page", mint: StructuredID, page: 1, ordinal: 0, expected: "struct_0_0"},
		{name: "structured_third_page", mint: StructuredID, page: 3, ordinal: 7, expected: "struct_2_7"},
		{name: "recognized_first_page", mint: RecognizedID, page: 1, ordinal: 2, expected: "ocr_0_2"},
		{name: "grouped_second_page", mint: GroupedID, page: 2, ordinal: 0, expected: "group_1_0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.mint(tt.page, tt.ordinal))
		})
	}
}

func TestTypeValid(t *testing.T) {
	for _, typ := range []Type{
		TypeText, TypeCheckbox, TypeRadio, TypeDropdown, TypeListBox,
		TypeSignature, TypeDate, TypeTableCell, TypeTitle, TypeLabel, TypeNonFillable,
	} {
		assert.True(t, typ.Valid(), "type %q should be valid", typ)
	}

	assert.False(t, Type("button").Valid())
	assert.False(t, Type("").Valid())
}

func TestTypeFillable(t *testing.T) {
	assert.True(t, TypeText.Fillable())
	assert.True(t, TypeCheckbox.Fillable())
	assert.True(t, TypeTableCell.Fillable())

	assert.False(t, TypeTitle.Fillable())
	assert.False(t, TypeLabel.Fillable())
	assert.False(t, TypeNonFillable.Fillable())
}

func TestCountByType(t *testing.T) {
	regions := []Region{
		{Type: TypeCheckbox},
		{Type: TypeCheckbox},
		{Type: TypeText},
		{Type: TypeTitle},
	}

	counts := CountByType(regions)
	assert.Equal(t, 2, counts[TypeCheckbox])
	assert.Equal(t, 1, counts[TypeText])
	assert.Equal(t, 1, counts[TypeTitle])
	assert.Equal(t, 0, counts[TypeSignature])
}
