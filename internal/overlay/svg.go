package overlay

import (
	"bufio"
	"fmt"
	"html"
	"image/color"
	"io"
)

// WriteSVG writes the overlay as a standalone SVG document sized to the
// raster, suitable for stacking over the page image.
func WriteSVG(w io.Writer, o *Overlay) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		o.Width, o.Height, o.Width, o.Height)

	var current string
	for _, sh := range o.Shapes {
		if string(sh.Layer) != current {
			if current != "" {
				bw.WriteString("</g>\n")
			}
			current = string(sh.Layer)
			fmt.Fprintf(bw, `<g class="layer-%s">`+"\n", html.EscapeString(current))
		}
		style := Styles[sh.Layer]
		switch sh.Kind {
		case KindSegment:
			fmt.Fprintf(bw, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-opacity="%.3f" stroke-width="%.2f"/>`+"\n",
				sh.X1, sh.Y1, sh.X2, sh.Y2, hex(style.Stroke), alpha(style.Stroke), sh.StrokeWidth)
		default:
			dash := ""
			if style.Dashed {
				dash = ` stroke-dasharray="6 3"`
			}
			fmt.Fprintf(bw, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" fill-opacity="%.3f" stroke="%s" stroke-opacity="%.3f" stroke-width="%.2f"%s/>`+"\n",
				sh.Rect.X, sh.Rect.Y, sh.Rect.Width, sh.Rect.Height,
				hex(style.Fill), alpha(style.Fill), hex(style.Stroke), alpha(style.Stroke), sh.StrokeWidth, dash)
			if sh.Label != "" {
				fmt.Fprintf(bw, `<text x="%.2f" y="%.2f" font-size="10" fill="%s">%s</text>`+"\n",
					sh.Rect.X+2, sh.Rect.Y-2, hex(style.Stroke), html.EscapeString(sh.Label))
			}
		}
	}
	if current != "" {
		bw.WriteString("</g>\n")
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func alpha(c color.NRGBA) float64 {
	return float64(c.A) / 255
}
