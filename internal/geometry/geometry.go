// Package geometry defines the rectangle and polygon primitives shared by
// field discovery, schema building, and overlay writing.
//
// All rectangles live in page space: the document's native unit (points for
// PDFs, pixels for standalone images) with the origin at the top-left corner
// of the page and y growing downward. Normalized rectangles divide each
// coordinate by the matching page dimension and are layout-independent.
package geometry

import "fmt"

// Rect is an axis-aligned rectangle given by two corners. X0/Y0 is the
// top-left corner, X1/Y1 the bottom-right one.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (float64, float64) {
	return (r.X0 + r.X1) / 2, (r.Y0 + r.Y1) / 2
}

// IsDegenerate reports whether the rectangle has zero or negative extent in
// either dimension.
func (r Rect) IsDegenerate() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Scale returns the rectangle with every coordinate multiplied by f.
func (r Rect) Scale(f float64) Rect {
	return Rect{X0: r.X0 * f, Y0: r.Y0 * f, X1: r.X1 * f, Y1: r.Y1 * f}
}

// Normalize maps a page-space rectangle into the unit square by dividing each
// coordinate by the matching page dimension. Page dimensions must be positive.
func Normalize(r Rect, pageWidth, pageHeight float64) (Rect, error) {
	if pageWidth <= 0 || pageHeight <= 0 {
		return Rect{}, fmt.Errorf("page dimensions must be positive, got %gx%g", pageWidth, pageHeight)
	}
	return Rect{
		X0: r.X0 / pageWidth,
		Y0: r.Y0 / pageHeight,
		X1: r.X1 / pageWidth,
		Y1: r.Y1 / pageHeight,
	}, nil
}

// Denormalize is the inverse of Normalize. For unchanged page dimensions the
// round trip is exact up to floating-point rounding.
func Denormalize(r Rect, pageWidth, pageHeight float64) (Rect, error) {
	if pageWidth <= 0 || pageHeight <= 0 {
		return Rect{}, fmt.Errorf("page dimensions must be positive, got %gx%g", pageWidth, pageHeight)
	}
	return Rect{
		X0: r.X0 * pageWidth,
		Y0: r.Y0 * pageHeight,
		X1: r.X1 * pageWidth,
		Y1: r.Y1 * pageHeight,
	}, nil
}

// PolygonBounds reduces an ordered 4-point quadrilateral (8 numbers, x/y
// interleaved) to its axis-aligned bounding box. The reduction is lossy:
// rotation information is discarded, callers needing it must keep the polygon.
func PolygonBounds(polygon []float64) (Rect, error) {
	if len(polygon) != 8 {
		return Rect{}, fmt.Errorf("polygon must have 8 coordinates, got %d", len(polygon))
	}

	r := Rect{X0: polygon[0], Y0: polygon[1], X1: polygon[0], Y1: polygon[1]}
	for i := 2; i < 8; i += 2 {
		x, y := polygon[i], polygon[i+1]
		if x < r.X0 {
			r.X0 = x
		}
		if x > r.X1 {
			r.X1 = x
		}
		if y < r.Y0 {
			r.Y0 = y
		}
		if y > r.Y1 {
			r.Y1 = y
		}
	}
	return r, nil
}

// RectPolygon expands a rectangle into its 4-point polygon representation,
// clockwise from the top-left corner.
func RectPolygon(r Rect) []float64 {
	return []float64{r.X0, r.Y0, r.X1, r.Y0, r.X1, r.Y1, r.X0, r.Y1}
}
