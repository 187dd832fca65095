// Package document wraps the PDF object model behind the small parser
// surface the discovery and overlay stages need: page count and dimensions,
// the native form-field catalog, page rasters for recognition, and the text
// layer fallback.
package document

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Page describes one page of an open document. Width and height are in PDF
// points. The raw annotation array is kept for the structured-field walk.
type Page struct {
	Number int
	Width  float64
	Height float64

	annots types.Array
}

// Document is a parsed PDF held in memory for the duration of one request.
type Document struct {
	ctx   *model.Context
	data  []byte
	pages []Page
}

// Open parses a PDF from memory. Parsing is relaxed; structural damage that
// still yields a page tree is tolerated.
func Open(data []byte) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	d := &Document{ctx: ctx, data: data}
	if err := d.collectPages(); err != nil {
		return nil, fmt.Errorf("failed to walk page tree: %w", err)
	}
	return d, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.pages)
}

// Pages returns the page descriptors in document order.
func (d *Document) Pages() []Page {
	return d.pages
}

// Page returns the descriptor for a 1-based page number.
func (d *Document) Page(number int) (Page, error) {
	if number < 1 || number > len(d.pages) {
		return Page{}, fmt.Errorf("invalid page number %d (document has %d pages)", number, len(d.pages))
	}
	return d.pages[number-1], nil
}

// collectPages walks the page tree, resolving inherited media boxes and
// capturing each leaf page's dimensions and annotation array.
func (d *Document) collectPages() error {
	root, err := d.ctx.Catalog()
	if err != nil {
		return fmt.Errorf("failed to get catalog: %w", err)
	}

	pagesObj, found := root.Find("Pages")
	if !found {
		if d.ctx.PageCount == 0 {
			return nil
		}
		return fmt.Errorf("catalog has no page tree")
	}

	pagesDict, err := d.ctx.DereferenceDict(pagesObj)
	if err != nil || pagesDict == nil {
		return fmt.Errorf("failed to dereference page tree root: %w", err)
	}

	return d.walkPageTree(pagesDict, nil, 0)
}

func (d *Document) walkPageTree(node types.Dict, inheritedMediaBox types.Array, depth int) error {
	if depth > 64 {
		return fmt.Errorf("page tree exceeds maximum depth")
	}

	mediaBox := inheritedMediaBox
	if mbObj, found := node.Find("MediaBox"); found {
		if mb, err := d.ctx.DereferenceArray(mbObj); err == nil && len(mb) == 4 {
			mediaBox = mb
		}
	}

	kidsObj, found := node.Find("Kids")
	if !found {
		// Leaf page node.
		return d.appendPage(node, mediaBox)
	}

	kids, err := d.ctx.DereferenceArray(kidsObj)
	if err != nil {
		return fmt.Errorf("failed to dereference Kids: %w", err)
	}

	for _, kid := range kids {
		kidDict, err := d.ctx.DereferenceDict(kid)
		if err != nil || kidDict == nil {
			continue
		}
		if err := d.walkPageTree(kidDict, mediaBox, depth+1); err != nil {
			return err
		}
		if len(d.pages) > d.ctx.PageCount {
			return fmt.Errorf("page tree lists more pages than the document declares")
		}
	}
	return nil
}

func (d *Document) appendPage(page types.Dict, mediaBox types.Array) error {
	width, height, err := d.mediaBoxDims(mediaBox)
	if err != nil {
		return fmt.Errorf("page %d: %w", len(d.pages)+1, err)
	}

	p := Page{
		Number: len(d.pages) + 1,
		Width:  width,
		Height: height,
	}

	if annotsObj, found := page.Find("Annots"); found {
		// A broken annotation array degrades to "no annotations" for this
		// page rather than failing the whole document.
		if annots, err := d.ctx.DereferenceArray(annotsObj); err == nil {
			p.annots = annots
		}
	}

	d.pages = append(d.pages, p)
	return nil
}

func (d *Document) mediaBoxDims(mediaBox types.Array) (float64, float64, error) {
	if len(mediaBox) != 4 {
		return 0, 0, fmt.Errorf("missing or malformed MediaBox")
	}

	coords := make([]float64, 4)
	for i, obj := range mediaBox {
		f, err := d.ctx.DereferenceNumber(obj)
		if err != nil {
			return 0, 0, fmt.Errorf("malformed MediaBox coordinate %d: %w", i, err)
		}
		coords[i] = f
	}

	width := coords[2] - coords[0]
	height := coords[3] - coords[1]
	if width < 0 {
		width = -width
	}
	if height < 0 {
		height = -height
	}
	if width == 0 || height == 0 {
		return 0, 0, fmt.Errorf("degenerate MediaBox %v", coords)
	}
	return width, height, nil
}
