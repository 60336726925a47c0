package raster

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"
)

// ErrCancelled is returned by a render that a newer render superseded.
// It is never shown to the user.
var ErrCancelled = errors.New("raster: render cancelled")

// Surface serialises renders from one source. Starting a render cancels the
// one in flight, so rapid navigation never paints an old page last.
type Surface struct {
	src     Source
	verbose bool

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	last   *image.RGBA
}

// NewSurface wraps src.
func NewSurface(src Source, verbose bool) *Surface {
	return &Surface{src: src, verbose: verbose}
}

// Render paints req, cancelling any render still in progress.
func (s *Surface) Render(ctx context.Context, req Request) (*image.RGBA, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	img, err := s.src.Render(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	superseded := seq != s.seq
	if !superseded {
		s.cancel = nil
	}
	cancel()
	if superseded || errors.Is(err, context.Canceled) {
		if s.verbose {
			log.Printf("raster: render of page %d cancelled", req.Page)
		}
		return nil, ErrCancelled
	}
	if err != nil {
		return nil, err
	}
	s.last = img
	return img, nil
}

// Last returns the most recent completed render, or nil.
func (s *Surface) Last() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
