package benchmark

import (
	"context"
	"time"
)

// Ticker yields paint cycles. Frame returns once the previous paint is
// guaranteed to have been presented.
type Ticker interface {
	Frame(ctx context.Context) error
}

// IntervalTicker treats a fixed interval as one paint cycle.
type IntervalTicker struct {
	Interval time.Duration
}

func (t IntervalTicker) Frame(ctx context.Context) error {
	timer := time.NewTimer(t.Interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Painter draws the chart with every bar at the given fraction (0..1) of
// its target width.
type Painter func(c Chart, progress float64)

// Animator reveals a chart in two phases: every bar is painted at zero
// width, at least one frame is yielded so that state is presented, and only
// then do the bars grow to their targets over Steps frames.
type Animator struct {
	Ticker Ticker
	Steps  int
}

// Play runs the reveal. It returns early with ctx's error if cancelled,
// leaving the last painted frame in place.
func (a Animator) Play(ctx context.Context, c Chart, paint Painter) error {
	paint(c, 0)
	if err := a.Ticker.Frame(ctx); err != nil {
		return err
	}
	steps := a.Steps
	if steps < 1 {
		steps = 1
	}
	for i := 1; i <= steps; i++ {
		paint(c, easeOut(float64(i)/float64(steps)))
		if i < steps {
			if err := a.Ticker.Frame(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func easeOut(t float64) float64 {
	return 1 - (1-t)*(1-t)
}
