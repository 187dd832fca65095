package document

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	_ "image/jpeg"
	_ "image/png"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Extracted image files are named <base>_<page>_<resource>.<ext>.
var rasterFilePattern = regexp.MustCompile(`_(\d+)_[^_]+\.[A-Za-z]+$`)

// PageRasters extracts the dominant embedded image of every page and
// rescales each one to scale times the page dimensions, so a pixel
// coordinate divided by scale lands in page space. Pages without a usable
// image are absent from the returned map.
//
// All intermediate files live in a request-scoped temp directory that is
// removed on every exit path.
func (d *Document) PageRasters(scale float64) (map[int]image.Image, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("render scale must be positive, got %g", scale)
	}

	tmpDir, err := os.MkdirTemp("", "formlens-raster-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inFile := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(inFile, d.data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to stage document: %w", err)
	}

	outDir := filepath.Join(tmpDir, "images")
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ExtractImagesFile(inFile, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract page images: %w", err)
	}

	candidates, err := d.decodeLargestPerPage(outDir)
	if err != nil {
		return nil, err
	}

	rasters := make(map[int]image.Image, len(candidates))
	for pageNr, img := range candidates {
		page, err := d.Page(pageNr)
		if err != nil {
			continue
		}
		rasters[pageNr] = scaleImage(img, int(page.Width*scale), int(page.Height*scale))
	}
	return rasters, nil
}

// decodeLargestPerPage reads every extracted image file and keeps the
// largest one per page; on a scanned form that is the page scan itself.
// Files that fail to decode are skipped.
func (d *Document) decodeLargestPerPage(dir string) (map[int]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list extracted images: %w", err)
	}

	largest := make(map[int]image.Image)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := rasterFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		pageNr, err := strconv.Atoi(m[1])
		if err != nil || pageNr < 1 || pageNr > len(d.pages) {
			continue
		}

		img, err := decodeImageFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		if prev, ok := largest[pageNr]; !ok || area(img) > area(prev) {
			largest[pageNr] = img
		}
	}
	return largest, nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}

func scaleImage(src image.Image, width, height int) image.Image {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	b := src.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
