package viewer

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"

	"github.com/ziadkadry99/ripview/internal/overlay"
	"github.com/ziadkadry99/ripview/internal/raster"
)

// ErrNotReady is returned when there is no loaded page to render.
var ErrNotReady = errors.New("viewer: no page loaded")

// Overlay builds the overlay for a raster of the given pixel width. The
// height follows the page aspect ratio.
func (a *App) Overlay(width int) (*overlay.Overlay, error) {
	snap := a.Session.Snapshot()
	if !snap.Ready() {
		return nil, ErrNotReady
	}
	if width <= 0 {
		width = int(snap.Page.Width)
	}
	req := rasterRequest(snap.Page.Number, snap.Page.Width, snap.Page.Height, width)
	if err := req.Check(); err != nil {
		return nil, err
	}
	w, h := req.Size()
	return overlay.Build(snap.Frame(), w, h)
}

// RenderPNG paints the page at the given pixel width, draws the overlay on
// top and writes the result as PNG. The overlay scale comes from the pixel
// size the raster actually reports, not from the requested width.
func (a *App) RenderPNG(ctx context.Context, w io.Writer, width int) error {
	snap := a.Session.Snapshot()
	if !snap.Ready() {
		return ErrNotReady
	}
	if width <= 0 {
		width = int(snap.Page.Width)
	}
	req := rasterRequest(snap.Page.Number, snap.Page.Width, snap.Page.Height, width)
	if err := req.Check(); err != nil {
		return err
	}
	img, err := a.Surface.Render(ctx, req)
	if err != nil {
		if errors.Is(err, raster.ErrCancelled) {
			logf(a.verbose, "render of page %d superseded", req.Page)
		}
		return err
	}
	b := img.Bounds()
	ov, err := overlay.Build(snap.Frame(), b.Dx(), b.Dy())
	if err != nil {
		return fmt.Errorf("building overlay: %w", err)
	}
	overlay.Compose(img, ov)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding page %d: %w", req.Page, err)
	}
	return nil
}

func rasterRequest(page int, pageWidth, pageHeight float64, width int) raster.Request {
	return raster.Request{
		Page:       page,
		PageWidth:  pageWidth,
		PageHeight: pageHeight,
		Scale:      float64(width) / pageWidth,
	}
}
