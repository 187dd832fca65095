package document

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// MediaType identifies a supported payload format.
type MediaType string

const (
	MediaTypePDF  MediaType = "application/pdf"
	MediaTypePNG  MediaType = "image/png"
	MediaTypeJPEG MediaType = "image/jpeg"
	MediaTypeBMP  MediaType = "image/bmp"
	MediaTypeTIFF MediaType = "image/tiff"
)

// IsImage reports whether the media type is a standalone raster image.
func (m MediaType) IsImage() bool {
	switch m {
	case MediaTypePNG, MediaTypeJPEG, MediaTypeBMP, MediaTypeTIFF:
		return true
	}
	return false
}

var magicSignatures = []struct {
	prefix []byte
	media  MediaType
}{
	{prefix: []byte("%PDF-"), media: MediaTypePDF},
	{prefix: []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, media: MediaTypePNG},
	{prefix: []byte{0xFF, 0xD8, 0xFF}, media: MediaTypeJPEG},
	{prefix: []byte("BM"), media: MediaTypeBMP},
	{prefix: []byte("II*\x00"), media: MediaTypeTIFF},
	{prefix: []byte("MM\x00*"), media: MediaTypeTIFF},
}

var extensionTypes = map[string]MediaType{
	".pdf":  MediaTypePDF,
	".png":  MediaTypePNG,
	".jpg":  MediaTypeJPEG,
	".jpeg": MediaTypeJPEG,
	".bmp":  MediaTypeBMP,
	".tif":  MediaTypeTIFF,
	".tiff": MediaTypeTIFF,
}

var declaredTypes = map[string]MediaType{
	"application/pdf": MediaTypePDF,
	"image/png":       MediaTypePNG,
	"image/jpeg":      MediaTypeJPEG,
	"image/jpg":       MediaTypeJPEG,
	"image/bmp":       MediaTypeBMP,
	"image/x-ms-bmp":  MediaTypeBMP,
	"image/tiff":      MediaTypeTIFF,
	"image/x-tiff":    MediaTypeTIFF,
}

// DetectMediaType determines the payload format from its leading magic
// bytes. The declared content type and the filename extension are only
// consulted when the content itself is inconclusive.
func DetectMediaType(data []byte, declared, filename string) (MediaType, error) {
	for _, sig := range magicSignatures {
		if bytes.HasPrefix(data, sig.prefix) {
			return sig.media, nil
		}
	}

	if media, ok := declaredTypes[normalizeDeclared(declared)]; ok {
		return media, nil
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if media, ok := extensionTypes[ext]; ok {
		return media, nil
	}

	return "", fmt.Errorf("unsupported file type (declared %q, name %q); use PDF or image files", declared, filename)
}

func normalizeDeclared(declared string) string {
	media := strings.TrimSpace(strings.ToLower(declared))
	if i := strings.IndexByte(media, ';'); i >= 0 {
		media = strings.TrimSpace(media[:i])
	}
	return media
}
