package terminal

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ziadkadry99/ripview/internal/benchmark"
)

// DefaultBarWidth is the number of cells a 100% bar occupies.
const DefaultBarWidth = 40

// ChartPainter draws a benchmark chart as horizontal text bars. Successive
// paints overwrite the previous frame in place when Redraw is set.
type ChartPainter struct {
	Out      io.Writer
	BarWidth int
	// Redraw moves the cursor back over the previous frame before painting.
	Redraw bool

	lines int
}

// Paint draws c with every bar at progress (0..1) of its target width.
// It satisfies benchmark.Painter.
func (p *ChartPainter) Paint(c benchmark.Chart, progress float64) {
	var b strings.Builder
	if p.Redraw && p.lines > 0 {
		fmt.Fprintf(&b, "\x1b[%dA", p.lines)
	}
	lines := 0
	for _, g := range c.Groups {
		fmt.Fprintf(&b, "\x1b[2K%s\n", g.Operation)
		lines++
		for _, bar := range g.Bars {
			fmt.Fprintf(&b, "\x1b[2K%s\n", p.barLine(bar, progress, c.Reference))
			lines++
		}
	}
	p.lines = lines
	io.WriteString(p.Out, b.String())
}

func (p *ChartPainter) barLine(bar benchmark.Bar, progress float64, reference string) string {
	width := p.BarWidth
	if width <= 0 {
		width = DefaultBarWidth
	}
	cells := int(math.Round(bar.Percent / 100 * float64(width) * progress))
	if cells > width {
		cells = width
	}
	fill := "#"
	if bar.Reference {
		fill = "="
	}
	line := fmt.Sprintf("  %-14s %s%s %9.2f ms", bar.Library, strings.Repeat(fill, cells), strings.Repeat(" ", width-cells), bar.MS)
	if bar.Speedup > 1 {
		line += fmt.Sprintf("  %s %dx faster", reference, bar.Speedup)
	}
	return line
}
