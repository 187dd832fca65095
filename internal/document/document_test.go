package document

import (
	"image"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		declared string
		filename string
		want     MediaType
		wantErr  bool
	}{
		{
			name: "pdf magic",
			data: []byte("%PDF-1.7\n..."),
			want: MediaTypePDF,
		},
		{
			name: "png magic",
			data: []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00},
			want: MediaTypePNG,
		},
		{
			name: "jpeg magic",
			data: []byte{0xFF, 0xD8, 0xFF, 0xE0},
			want: MediaTypeJPEG,
		},
		{
			name: "tiff little endian magic",
			data: []byte("II*\x00rest"),
			want: MediaTypeTIFF,
		},
		{
			name: "tiff big endian magic",
			data: []byte("MM\x00*rest"),
			want: MediaTypeTIFF,
		},
		{
			name: "bmp magic",
			data: []byte("BM....."),
			want: MediaTypeBMP,
		},
		{
			name:     "magic wins over declared type",
			data:     []byte("%PDF-1.4"),
			declared: "image/png",
			want:     MediaTypePDF,
		},
		{
			name:     "declared type fallback",
			data:     []byte("no recognizable prefix"),
			declared: "application/pdf",
			want:     MediaTypePDF,
		},
		{
			name:     "declared type with parameters",
			data:     []byte("no recognizable prefix"),
			declared: "image/jpeg; charset=binary",
			want:     MediaTypeJPEG,
		},
		{
			name:     "extension fallback",
			data:     []byte("no recognizable prefix"),
			filename: "scan.TIFF",
			want:     MediaTypeTIFF,
		},
		{
			name:     "unsupported",
			data:     []byte("plain text"),
			declared: "text/plain",
			filename: "notes.txt",
			wantErr:  true,
		},
		{
			name:    "empty payload",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectMediaType(tt.data, tt.declared, tt.filename)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMediaTypeIsImage(t *testing.T) {
	assert.False(t, MediaTypePDF.IsImage())
	assert.True(t, MediaTypePNG.IsImage())
	assert.True(t, MediaTypeJPEG.IsImage())
	assert.True(t, MediaTypeBMP.IsImage())
	assert.True(t, MediaTypeTIFF.IsImage())
}

func TestLabelFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"applicant_date_of_birth", "applicant date of birth"},
		{"form.section.email", "form section email"},
		{"phone-number", "phone number"},
		{"already readable", "already readable"},
		{"__double__underscores__", "double underscores"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, labelFromName(tt.name), "name %q", tt.name)
	}
}

func TestRasterFilePattern(t *testing.T) {
	tests := []struct {
		filename string
		page     string
		match    bool
	}{
		{"in_1_Im0.png", "1", true},
		{"scan_12_Img3.jpg", "12", true},
		{"in.pdf", "", false},
		{"readme.txt", "", false},
	}
	for _, tt := range tests {
		m := rasterFilePattern.FindStringSubmatch(tt.filename)
		if !tt.match {
			assert.Nil(t, m, "filename %q", tt.filename)
			continue
		}
		require.NotNil(t, m, "filename %q", tt.filename)
		assert.Equal(t, tt.page, m[1], "filename %q", tt.filename)
	}
}

func TestRunDetection(t *testing.T) {
	t.Run("merges items and flips to top left origin", func(t *testing.T) {
		run := []pdf.Text{
			{S: "Full ", X: 50, Y: 700, W: 30, FontSize: 12},
			{S: "Name:", X: 80, Y: 700, W: 35, FontSize: 12},
		}

		det, ok := runDetection(run, 842)
		require.True(t, ok)
		assert.Equal(t, "Full Name:", det.Text)
		assert.Equal(t, 1.0, det.Confidence)

		// Baseline 700, height 12 on an 842pt page: top 130, bottom 142.
		require.Len(t, det.Polygon, 8)
		assert.InDelta(t, 50.0, det.Polygon[0], 1e-9)
		assert.InDelta(t, 130.0, det.Polygon[1], 1e-9)
		assert.InDelta(t, 115.0, det.Polygon[2], 1e-9)
		assert.InDelta(t, 142.0, det.Polygon[7], 1e-9)
	})

	t.Run("whitespace only run is dropped", func(t *testing.T) {
		run := []pdf.Text{{S: "   ", X: 10, Y: 10, W: 5, FontSize: 10}}
		_, ok := runDetection(run, 842)
		assert.False(t, ok)
	})

	t.Run("zero font size falls back to default height", func(t *testing.T) {
		run := []pdf.Text{{S: "x", X: 10, Y: 100, W: 5}}
		det, ok := runDetection(run, 200)
		require.True(t, ok)
		assert.InDelta(t, 200-(100+defaultTextHeight), det.Polygon[1], 1e-9)
	})
}

func TestScaleImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 20))

	t.Run("rescales to target", func(t *testing.T) {
		dst := scaleImage(src, 20, 40)
		assert.Equal(t, 20, dst.Bounds().Dx())
		assert.Equal(t, 40, dst.Bounds().Dy())
	})

	t.Run("same size returns source", func(t *testing.T) {
		dst := scaleImage(src, 10, 20)
		assert.Equal(t, image.Image(src), dst)
	})

	t.Run("clamps degenerate target", func(t *testing.T) {
		dst := scaleImage(src, 0, -3)
		assert.Equal(t, 1, dst.Bounds().Dx())
		assert.Equal(t, 1, dst.Bounds().Dy())
	})
}

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := Open([]byte("definitely not a pdf"))
	require.Error(t, err)
}
