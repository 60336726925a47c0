package raster

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

type blockingSource struct {
	started chan int
}

func (b blockingSource) Render(ctx context.Context, req Request) (*image.RGBA, error) {
	b.started <- req.Page
	if req.Page == 1 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return BlankSource{}.Render(ctx, req)
}

func TestSurfaceCancelsInFlightRender(t *testing.T) {
	src := blockingSource{started: make(chan int, 2)}
	s := NewSurface(src, false)
	req := Request{PageWidth: 10, PageHeight: 10, Scale: 1}

	first := make(chan error, 1)
	go func() {
		req := req
		req.Page = 1
		_, err := s.Render(context.Background(), req)
		first <- err
	}()
	<-src.started

	req.Page = 2
	img, err := s.Render(context.Background(), req)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if img.Bounds().Dx() != 10 {
		t.Errorf("unexpected size %v", img.Bounds())
	}
	if err := <-first; !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled for superseded render, got %v", err)
	}
	if s.Last() != img {
		t.Error("Last should be the surviving render")
	}
}

func TestBlankSourceSize(t *testing.T) {
	img, err := BlankSource{}.Render(context.Background(), Request{Page: 1, PageWidth: 612, PageHeight: 792, Scale: 2})
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 1224 || img.Bounds().Dy() != 1584 {
		t.Errorf("expected 1224x1584, got %v", img.Bounds())
	}
	if img.RGBAAt(5, 5) != (color.RGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Error("expected a white page")
	}
	if _, err := (BlankSource{}).Render(context.Background(), Request{}); err == nil {
		t.Error("expected error for empty page")
	}
}

func TestOversizedRequestsRejected(t *testing.T) {
	ok := Request{Page: 1, PageWidth: 612, PageHeight: 792, Scale: float64(MaxDimension) / 792}
	if err := ok.Check(); err != nil {
		t.Errorf("request at the limit: %v", err)
	}
	for _, req := range []Request{
		{Page: 1, PageWidth: 612, PageHeight: 792, Scale: 1e6 / 612},
		{Page: 1, PageWidth: 10, PageHeight: 1e5, Scale: 1},
		{Page: 1, PageWidth: 0, PageHeight: 792, Scale: math.Inf(1)},
	} {
		if err := req.Check(); !errors.Is(err, ErrTooLarge) {
			t.Errorf("%+v: expected ErrTooLarge, got %v", req, err)
		}
		if _, err := (BlankSource{}).Render(context.Background(), req); !errors.Is(err, ErrTooLarge) {
			t.Errorf("BlankSource %+v: expected ErrTooLarge, got %v", req, err)
		}
	}

	s := NewSurface(BlankSource{}, false)
	huge := Request{Page: 1, PageWidth: 612, PageHeight: 792, Scale: 1e6 / 612}
	if _, err := s.Render(context.Background(), huge); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Surface: expected ErrTooLarge, got %v", err)
	}
}

func TestDirSourceScales(t *testing.T) {
	dir := t.TempDir()
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	for i := range src.Pix {
		src.Pix[i] = 0x80
	}
	f, err := os.Create(filepath.Join(dir, "page-3.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := DirSource{Dir: dir}.Render(context.Background(), Request{Page: 3, PageWidth: 100, PageHeight: 50, Scale: 0.5})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 25 {
		t.Errorf("expected 50x25, got %v", img.Bounds())
	}

	if _, err := (DirSource{Dir: dir}).Render(context.Background(), Request{Page: 4, Scale: 1}); err == nil {
		t.Error("expected error for a missing page")
	}
}
