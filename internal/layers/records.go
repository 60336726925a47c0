package layers

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/ziadkadry99/ripview/internal/geometry"
)

// Record is one piece of layer geometry with a document-space bounding box.
type Record interface {
	Box() geometry.Rect
}

// Stroker is implemented by records drawn as a single stroke.
type Stroker interface {
	StrokeWidth() float64
	// Endpoints returns the stroke's start and end in top-down page
	// coordinates, in drawing order.
	Endpoints() (x0, y0, x1, y1 float64)
}

// segmentBox bounds a stroke whose endpoints may run in either direction.
func segmentBox(x0, x1, top, bottom float64) geometry.Rect {
	return geometry.Rect{X0: math.Min(x0, x1), Top: top, X1: math.Max(x0, x1), Bottom: bottom}
}

// segmentEnds picks the drawing endpoints. The service reports y0 and y1
// top-down, so they fall inside [top, bottom]. Values outside that range are
// taken as bottom-up PDF space, where the larger y is nearer the top.
// Payloads without y0/y1 fall back to the bounds' top-left to bottom-right
// diagonal.
func segmentEnds(x0, y0, x1, y1, top, bottom float64) (float64, float64, float64, float64) {
	const tol = 0.01
	within := func(y float64) bool { return y >= top-tol && y <= bottom+tol }
	switch {
	case within(y0) && within(y1):
		return x0, y0, x1, y1
	case y0 == 0 && y1 == 0:
		return x0, top, x1, bottom
	case y0 > y1:
		return x0, top, x1, bottom
	default:
		return x0, bottom, x1, top
	}
}

// Char is a single glyph.
type Char struct {
	Text     string  `json:"text"`
	FontName string  `json:"fontname"`
	Size     float64 `json:"size"`
	X0       float64 `json:"x0"`
	X1       float64 `json:"x1"`
	Top      float64 `json:"top"`
	Bottom   float64 `json:"bottom"`
	Doctop   float64 `json:"doctop"`
	Upright  bool    `json:"upright"`
	Adv      float64 `json:"adv"`
}

func (c Char) Box() geometry.Rect { return geometry.Rect{X0: c.X0, Top: c.Top, X1: c.X1, Bottom: c.Bottom} }

// Word is a run of characters grouped by the extractor.
type Word struct {
	Text    string  `json:"text"`
	X0      float64 `json:"x0"`
	X1      float64 `json:"x1"`
	Top     float64 `json:"top"`
	Bottom  float64 `json:"bottom"`
	Doctop  float64 `json:"doctop"`
	Upright bool    `json:"upright"`
}

func (w Word) Box() geometry.Rect { return geometry.Rect{X0: w.X0, Top: w.Top, X1: w.X1, Bottom: w.Bottom} }

// Line is a stroked path segment. Y0/Y1 are in PDF user space (y up);
// Top/Bottom are the page-relative equivalents. Width is the stroke width.
type Line struct {
	X0     float64 `json:"x0"`
	Y0     float64 `json:"y0"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Width  float64 `json:"width"`
}

func (l Line) Box() geometry.Rect     { return segmentBox(l.X0, l.X1, l.Top, l.Bottom) }
func (l Line) StrokeWidth() float64 { return l.Width }
func (l Line) Endpoints() (float64, float64, float64, float64) {
	return segmentEnds(l.X0, l.Y0, l.X1, l.Y1, l.Top, l.Bottom)
}

// Edge is a line or one side of a rectangle, as used for table detection.
type Edge struct {
	X0     float64 `json:"x0"`
	Y0     float64 `json:"y0"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Width  float64 `json:"width"`
}

func (e Edge) Box() geometry.Rect     { return segmentBox(e.X0, e.X1, e.Top, e.Bottom) }
func (e Edge) StrokeWidth() float64 { return e.Width }
func (e Edge) Endpoints() (float64, float64, float64, float64) {
	return segmentEnds(e.X0, e.Y0, e.X1, e.Y1, e.Top, e.Bottom)
}

// Rect is a rectangle drawn on the page.
type Rect struct {
	X0        float64 `json:"x0"`
	Top       float64 `json:"top"`
	X1        float64 `json:"x1"`
	Bottom    float64 `json:"bottom"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	LineWidth float64 `json:"linewidth"`
}

func (r Rect) Box() geometry.Rect { return geometry.Rect{X0: r.X0, Top: r.Top, X1: r.X1, Bottom: r.Bottom} }

// Table is a detected table region with its cell grid and rendered markup.
type Table struct {
	BBox     geometry.Rect `json:"bbox"`
	RowCount int           `json:"row_count"`
	ColCount int           `json:"col_count"`
	Grid     [][]*string   `json:"grid"`
	HTML     string        `json:"html"`
}

func (t Table) Box() geometry.Rect { return t.BBox }

// Label is a short description of the table dimensions.
func (t Table) Label() string { return fmt.Sprintf("%dx%d", t.RowCount, t.ColCount) }

// SearchMatch is one hit of a text search.
type SearchMatch struct {
	Text       string  `json:"text"`
	X0         float64 `json:"x0"`
	Top        float64 `json:"top"`
	X1         float64 `json:"x1"`
	Bottom     float64 `json:"bottom"`
	PageNumber int     `json:"page_number"`
}

func (m SearchMatch) Box() geometry.Rect {
	return geometry.Rect{X0: m.X0, Top: m.Top, X1: m.X1, Bottom: m.Bottom}
}

// Decode parses the JSON "data" array of a layer response into records of
// the layer's concrete type.
func Decode(l Layer, raw json.RawMessage) ([]Record, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []Record{}, nil
	}
	switch l {
	case Chars:
		return decodeAs[Char](l, raw)
	case Words:
		return decodeAs[Word](l, raw)
	case Lines:
		return decodeAs[Line](l, raw)
	case Rects:
		return decodeAs[Rect](l, raw)
	case Edges:
		return decodeAs[Edge](l, raw)
	case Tables:
		return decodeAs[Table](l, raw)
	case Search:
		return decodeAs[SearchMatch](l, raw)
	}
	return nil, fmt.Errorf("decoding %s: unknown layer", l)
}

func decodeAs[T Record](l Layer, raw json.RawMessage) ([]Record, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", l, err)
	}
	out := make([]Record, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out, nil
}
