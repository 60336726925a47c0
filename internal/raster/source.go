// Package raster produces page images for the overlay to be drawn on.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// Request asks for one page at a scale in pixels per point.
type Request struct {
	Page       int
	PageWidth  float64
	PageHeight float64
	Scale      float64
}

// MaxDimension is the largest raster width or height, in pixels, a request
// may ask for.
const MaxDimension = 8192

// ErrTooLarge is returned for requests beyond MaxDimension.
var ErrTooLarge = errors.New("raster: requested size too large")

// Check rejects requests whose raster would exceed MaxDimension on either
// axis.
func (r Request) Check() error {
	w, h := r.PageWidth*r.Scale, r.PageHeight*r.Scale
	// Written so NaN and +Inf fail too.
	if !(math.Round(w) <= MaxDimension && math.Round(h) <= MaxDimension) {
		return fmt.Errorf("%w: %.0fx%.0f px exceeds %d px", ErrTooLarge, w, h, MaxDimension)
	}
	return nil
}

// Size returns the pixel size the request should produce.
func (r Request) Size() (int, int) {
	return int(math.Round(r.PageWidth * r.Scale)), int(math.Round(r.PageHeight * r.Scale))
}

// Source paints a page. Implementations should return promptly once ctx is
// cancelled.
type Source interface {
	Render(ctx context.Context, req Request) (*image.RGBA, error)
}

// BlankSource paints a white page of the requested size, for viewing the
// overlay on its own.
type BlankSource struct{}

func (BlankSource) Render(ctx context.Context, req Request) (*image.RGBA, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	w, h := req.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("raster: empty page %dx%d", w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img, nil
}

// DirSource reads pre-rasterised pages from a directory, one PNG per page
// named by Pattern (default "page-%d.png"), and rescales them to the
// requested size.
type DirSource struct {
	Dir     string
	Pattern string
}

func (s DirSource) path(page int) string {
	pattern := s.Pattern
	if pattern == "" {
		pattern = "page-%d.png"
	}
	return filepath.Join(s.Dir, fmt.Sprintf(pattern, page))
}

func (s DirSource) Render(ctx context.Context, req Request) (*image.RGBA, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(req.Page))
	if err != nil {
		return nil, fmt.Errorf("raster: opening page %d: %w", req.Page, err)
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("raster: decoding page %d: %w", req.Page, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, h := req.Size()
	if w <= 0 || h <= 0 {
		b := src.Bounds()
		w, h = b.Dx(), b.Dy()
		if w > MaxDimension || h > MaxDimension {
			return nil, fmt.Errorf("%w: page %d image is %dx%d px", ErrTooLarge, req.Page, w, h)
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}
