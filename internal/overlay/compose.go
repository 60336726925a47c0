package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

const (
	dashOn  = 6.0
	dashOff = 3.0
)

type point struct{ x, y float64 }

// painter rasterises polygons into a destination image. Each polygon gets a
// rasteriser sized to its own bounding box so thousands of small boxes do
// not each pay for a full-page accumulation buffer.
type painter struct {
	dst draw.Image
	z   vector.Rasterizer
}

// Compose paints the overlay onto dst, normally the page raster the overlay
// was built for. Shape coordinates are relative to dst.Bounds().Min.
func Compose(dst draw.Image, o *Overlay) {
	p := &painter{dst: dst}
	for _, sh := range o.Shapes {
		style := Styles[sh.Layer]
		if sh.Kind == KindSegment {
			p.segment(point{sh.X1, sh.Y1}, point{sh.X2, sh.Y2}, sh.StrokeWidth, style.Stroke)
			continue
		}
		r := sh.Rect
		if style.Fill.A > 0 && r.Width > 0 && r.Height > 0 {
			p.fill(style.Fill, point{r.X, r.Y}, point{r.X + r.Width, r.Y}, point{r.X + r.Width, r.Y + r.Height}, point{r.X, r.Y + r.Height})
		}
		p.outline(r.X, r.Y, r.Width, r.Height, math.Max(sh.StrokeWidth, 1), style)
		if sh.Label != "" {
			p.label(r.X+2, r.Y, sh.Label, style.Stroke)
		}
	}
}

func (p *painter) outline(x, y, w, h, sw float64, style Style) {
	corners := []point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		if style.Dashed {
			p.dashed(a, b, sw, style.Stroke)
		} else {
			p.segment(a, b, sw, style.Stroke)
		}
	}
}

func (p *painter) dashed(a, b point, sw float64, c color.Color) {
	dx, dy := b.x-a.x, b.y-a.y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux, uy := dx/length, dy/length
	for d := 0.0; d < length; d += dashOn + dashOff {
		end := math.Min(d+dashOn, length)
		p.segment(point{a.x + ux*d, a.y + uy*d}, point{a.x + ux*end, a.y + uy*end}, sw, c)
	}
}

// segment strokes a straight line of width sw as a filled quad.
func (p *painter) segment(a, b point, sw float64, c color.Color) {
	dx, dy := b.x-a.x, b.y-a.y
	length := math.Hypot(dx, dy)
	half := sw / 2
	if length == 0 {
		p.fill(c, point{a.x - half, a.y - half}, point{a.x + half, a.y - half}, point{a.x + half, a.y + half}, point{a.x - half, a.y + half})
		return
	}
	nx, ny := -dy/length*half, dx/length*half
	p.fill(c,
		point{a.x + nx, a.y + ny},
		point{b.x + nx, b.y + ny},
		point{b.x - nx, b.y - ny},
		point{a.x - nx, a.y - ny},
	)
}

func (p *painter) fill(c color.Color, pts ...point) {
	bounds := p.dst.Bounds()
	maxX, maxY := float64(bounds.Dx()), float64(bounds.Dy())

	minPX, minPY := math.Inf(1), math.Inf(1)
	maxPX, maxPY := math.Inf(-1), math.Inf(-1)
	for i := range pts {
		pts[i].x = clamp(pts[i].x, 0, maxX)
		pts[i].y = clamp(pts[i].y, 0, maxY)
		minPX, minPY = math.Min(minPX, pts[i].x), math.Min(minPY, pts[i].y)
		maxPX, maxPY = math.Max(maxPX, pts[i].x), math.Max(maxPY, pts[i].y)
	}

	r := image.Rect(int(math.Floor(minPX)), int(math.Floor(minPY)), int(math.Ceil(maxPX)), int(math.Ceil(maxPY)))
	if r.Empty() {
		return
	}
	ox, oy := float64(r.Min.X), float64(r.Min.Y)

	p.z.Reset(r.Dx(), r.Dy())
	p.z.DrawOp = draw.Over
	p.z.MoveTo(float32(pts[0].x-ox), float32(pts[0].y-oy))
	for _, pt := range pts[1:] {
		p.z.LineTo(float32(pt.x-ox), float32(pt.y-oy))
	}
	p.z.ClosePath()
	p.z.Draw(p.dst, r.Add(bounds.Min), image.NewUniform(c), image.Point{})
}

func (p *painter) label(x, y float64, text string, c color.Color) {
	face := basicfont.Face7x13
	baseline := int(y) - 3
	if baseline < face.Ascent {
		baseline = int(y) + face.Ascent + 2
	}
	min := p.dst.Bounds().Min
	d := &font.Drawer{
		Dst:  p.dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(min.X+int(x), min.Y+baseline),
	}
	d.DrawString(text)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
