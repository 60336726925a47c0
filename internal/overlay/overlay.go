package overlay

import (
	"fmt"
	"image/color"

	"github.com/ziadkadry99/ripview/internal/geometry"
	"github.com/ziadkadry99/ripview/internal/layers"
)

// ZOrder is the back-to-front drawing order. Search hits go first so every
// outline layer stays visible above them; tables go last so detected
// regions stay on top of fine-grained geometry.
var ZOrder = []layers.Layer{
	layers.Search,
	layers.Chars,
	layers.Words,
	layers.Lines,
	layers.Rects,
	layers.Edges,
	layers.Tables,
}

// Style is the fixed look of one layer.
type Style struct {
	Stroke      color.NRGBA `json:"stroke"`
	Fill        color.NRGBA `json:"fill"`
	StrokeWidth float64     `json:"stroke_width"`
	Dashed      bool        `json:"dashed"`
}

// Styles gives each layer a distinct hue.
var Styles = map[layers.Layer]Style{
	layers.Search: {Stroke: color.NRGBA{0xea, 0xb3, 0x08, 0xff}, Fill: color.NRGBA{0xfa, 0xcc, 0x15, 0x66}, StrokeWidth: 1},
	layers.Chars:  {Stroke: color.NRGBA{0x3b, 0x82, 0xf6, 0x99}, Fill: color.NRGBA{0x3b, 0x82, 0xf6, 0x14}, StrokeWidth: 0.5},
	layers.Words:  {Stroke: color.NRGBA{0x22, 0xc5, 0x5e, 0xcc}, Fill: color.NRGBA{0x22, 0xc5, 0x5e, 0x1a}, StrokeWidth: 1},
	layers.Lines:  {Stroke: color.NRGBA{0xef, 0x44, 0x44, 0xff}, StrokeWidth: 1},
	layers.Rects:  {Stroke: color.NRGBA{0xa8, 0x55, 0xf7, 0xcc}, Fill: color.NRGBA{0xa8, 0x55, 0xf7, 0x14}, StrokeWidth: 1},
	layers.Edges:  {Stroke: color.NRGBA{0xf9, 0x73, 0x16, 0xff}, StrokeWidth: 1},
	layers.Tables: {Stroke: color.NRGBA{0xec, 0x48, 0x99, 0xff}, Fill: color.NRGBA{0xec, 0x48, 0x99, 0x0d}, StrokeWidth: 2.5, Dashed: true},
}

// Kind says how a shape is drawn.
type Kind string

const (
	KindBox     Kind = "box"
	KindSegment Kind = "segment"
)

// Shape is one drawable item in pixel space.
type Shape struct {
	Layer       layers.Layer       `json:"layer"`
	Kind        Kind               `json:"kind"`
	Rect        geometry.PixelRect `json:"rect"`
	X1          float64            `json:"x1,omitempty"`
	Y1          float64            `json:"y1,omitempty"`
	X2          float64            `json:"x2,omitempty"`
	Y2          float64            `json:"y2,omitempty"`
	StrokeWidth float64            `json:"stroke_width"`
	Label       string             `json:"label,omitempty"`
}

// Frame is everything the renderer needs from a page view.
type Frame struct {
	PageWidth  float64
	PageHeight float64
	Visible    layers.Visibility
	Entries    map[layers.Layer]layers.Entry
}

// Overlay is a rendered overlay for a raster of Width x Height pixels.
type Overlay struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
	Shapes []Shape `json:"shapes"`
}

// Build maps every visible layer onto a raster of the given pixel size. The
// scale is derived from rasterWidth on every call; callers pass whatever the
// raster reports right now.
func Build(f Frame, rasterWidth, rasterHeight int) (*Overlay, error) {
	s, err := geometry.Scale(rasterWidth, f.PageWidth)
	if err != nil {
		return nil, fmt.Errorf("building overlay: %w", err)
	}
	ov := &Overlay{Width: rasterWidth, Height: rasterHeight, Scale: s}

	for _, l := range ZOrder {
		if !f.Visible.Visible(l) {
			continue
		}
		entry, ok := f.Entries[l]
		if !ok {
			continue
		}
		style := Styles[l]
		for _, rec := range entry.Records {
			ov.Shapes = append(ov.Shapes, shapeFor(l, style, rec, s))
		}
	}
	return ov, nil
}

func shapeFor(l layers.Layer, style Style, rec layers.Record, s float64) Shape {
	box := rec.Box()
	if st, ok := rec.(layers.Stroker); ok {
		x0, y0, x1, y1 := st.Endpoints()
		return Shape{
			Layer:       l,
			Kind:        KindSegment,
			Rect:        geometry.Map(box, s),
			X1:          x0 * s,
			Y1:          y0 * s,
			X2:          x1 * s,
			Y2:          y1 * s,
			StrokeWidth: geometry.MapLength(st.StrokeWidth(), s, 1),
		}
	}
	sh := Shape{
		Layer:       l,
		Kind:        KindBox,
		Rect:        geometry.Map(box, s),
		StrokeWidth: style.StrokeWidth,
	}
	if t, ok := rec.(layers.Table); ok {
		sh.Label = t.Label()
	}
	return sh
}

// Counts returns the number of shapes per layer.
func (o *Overlay) Counts() map[layers.Layer]int {
	out := make(map[layers.Layer]int)
	for _, sh := range o.Shapes {
		out[sh.Layer]++
	}
	return out
}
