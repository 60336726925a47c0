package geometry

import (
	"errors"
	"fmt"
)

// ErrInvalidScale is returned when a scale cannot be derived because one of
// the dimensions is zero or negative.
var ErrInvalidScale = errors.New("geometry: invalid scale dimensions")

// Rect is an axis-aligned box in document space. Units are PDF points with
// the origin at the top-left corner of the page and y increasing downward.
type Rect struct {
	X0     float64 `json:"x0"`
	Top    float64 `json:"top"`
	X1     float64 `json:"x1"`
	Bottom float64 `json:"bottom"`
}

// Width returns the horizontal extent of the box.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent of the box.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// PixelRect is a box in raster pixel space.
type PixelRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Scale returns pixels per point for a raster of rasterWidth pixels showing a
// page pageWidth points wide. It must be recomputed every time the raster
// reports new dimensions.
func Scale(rasterWidth int, pageWidth float64) (float64, error) {
	if rasterWidth <= 0 || pageWidth <= 0 {
		return 0, fmt.Errorf("%w: raster=%dpx page=%gpt", ErrInvalidScale, rasterWidth, pageWidth)
	}
	return float64(rasterWidth) / pageWidth, nil
}

// Map converts a document-space box into pixel space. The raster's top-left
// pixel is the page's top-left point, so there is no translation term.
func Map(r Rect, s float64) PixelRect {
	return PixelRect{
		X:      r.X0 * s,
		Y:      r.Top * s,
		Width:  (r.X1 - r.X0) * s,
		Height: (r.Bottom - r.Top) * s,
	}
}

// MapLength scales a document-space length, flooring the result at min
// pixels. Pass min 0 for no floor.
func MapLength(l, s, min float64) float64 {
	v := l * s
	if v < min {
		return min
	}
	return v
}
