package benchmark

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/ripview/internal/extract"
	"github.com/ziadkadry99/ripview/internal/extract/extracttest"
)

func TestNormalize(t *testing.T) {
	res := extract.BenchmarkResult{
		"ripdoc":     {"extract_text": 10, "find_tables": 4},
		"pdfplumber": {"extract_text": 100, "find_tables": 6},
		"pymupdf":    {"extract_text": 20},
	}
	chart := Normalize(res, "ripdoc")

	if len(chart.Groups) != 2 || chart.Groups[0].Operation != "extract_text" || chart.Groups[1].Operation != "find_tables" {
		t.Fatalf("unexpected groups %+v", chart.Groups)
	}
	text := chart.Groups[0]
	if text.MaxMS != 100 {
		t.Errorf("expected max 100, got %v", text.MaxMS)
	}
	bars := map[string]Bar{}
	for _, b := range text.Bars {
		bars[b.Library] = b
	}
	if text.Bars[0].Library != "ripdoc" {
		t.Errorf("reference should come first, got %s", text.Bars[0].Library)
	}
	if b := bars["ripdoc"]; b.Percent != 10 || b.Speedup != 0 || !b.Reference {
		t.Errorf("ripdoc bar: %+v", b)
	}
	if b := bars["pdfplumber"]; b.Percent != 100 || b.Speedup != 10 {
		t.Errorf("pdfplumber bar: %+v", b)
	}
	if b := bars["pymupdf"]; b.Percent != 20 || b.Speedup != 2 {
		t.Errorf("pymupdf bar: %+v", b)
	}

	// 6/4 rounds to 2; pymupdf reported no find_tables timing.
	tables := chart.Groups[1]
	if len(tables.Bars) != 2 {
		t.Fatalf("expected 2 table bars, got %+v", tables.Bars)
	}
	if tables.Bars[1].Speedup != 2 {
		t.Errorf("expected 2x, got %+v", tables.Bars[1])
	}
}

func TestNormalizeHidesSpeedupAtOrBelowOne(t *testing.T) {
	chart := Normalize(extract.BenchmarkResult{
		"ripdoc": {"chars": 10},
		"other":  {"chars": 12},
		"faster": {"chars": 5},
	}, "")
	for _, b := range chart.Groups[0].Bars {
		if b.Speedup != 0 {
			t.Errorf("%s: speedup %d should be hidden", b.Library, b.Speedup)
		}
	}
}

type frameCounter struct {
	mu     sync.Mutex
	frames int
}

func (f *frameCounter) Frame(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames++
	return ctx.Err()
}

func TestAnimatorYieldsBeforeGrowing(t *testing.T) {
	ticker := &frameCounter{}
	a := Animator{Ticker: ticker, Steps: 4}

	type paint struct {
		progress float64
		frames   int
	}
	var paints []paint
	err := a.Play(context.Background(), Chart{}, func(c Chart, p float64) {
		ticker.mu.Lock()
		defer ticker.mu.Unlock()
		paints = append(paints, paint{p, ticker.frames})
	})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(paints) != 5 {
		t.Fatalf("expected 5 paints, got %d", len(paints))
	}
	if paints[0].progress != 0 || paints[0].frames != 0 {
		t.Errorf("first paint should be zero width before any frame, got %+v", paints[0])
	}
	if paints[1].frames < 1 {
		t.Error("bars grew without yielding a frame after the zero-width paint")
	}
	if last := paints[len(paints)-1]; last.progress != 1 {
		t.Errorf("final paint should reach the target, got %v", last.progress)
	}
}

func TestAnimatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Animator{Ticker: &frameCounter{}, Steps: 3}.Play(ctx, Chart{}, func(Chart, float64) { calls++ })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected only the zero-width paint, got %d", calls)
	}
}

func TestRunRejectsConcurrentTrigger(t *testing.T) {
	fake := extracttest.New(1)
	fake.BenchGate = make(chan struct{})
	fake.BenchResult = extract.BenchmarkResult{"ripdoc": {"chars": 1}}
	c := New(fake, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := c.Run(context.Background(), 1)
		done <- err
	}()
	for !c.Status().Running {
		time.Sleep(time.Millisecond)
	}
	if _, err := c.Run(context.Background(), 1); !errors.Is(err, ErrRunning) {
		t.Errorf("expected ErrRunning, got %v", err)
	}
	close(fake.BenchGate)
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	st := c.Status()
	if st.Running || st.Chart == nil {
		t.Errorf("unexpected status %+v", st)
	}
	calls := fake.Calls("benchmark")
	if len(calls) != 1 || calls[0].Arg != "3" {
		t.Errorf("expected one run with 3 iterations, got %+v", calls)
	}
}

func TestAutoRunOncePerPage(t *testing.T) {
	fake := extracttest.New(2)
	fake.BenchResult = extract.BenchmarkResult{"ripdoc": {"chars": 1}}
	c := New(fake, Options{AutoRun: true})
	ctx := context.Background()

	c.MaybeAutoRun(ctx, "doc", 1)
	c.MaybeAutoRun(ctx, "doc", 1)
	if n := fake.Count("benchmark"); n != 1 {
		t.Fatalf("expected one auto-run, got %d", n)
	}

	c.Reset("doc", 2)
	if c.Status().Chart != nil {
		t.Error("Reset should clear the result")
	}
	c.MaybeAutoRun(ctx, "doc", 2)
	if n := fake.Count("benchmark"); n != 2 {
		t.Errorf("expected auto-run after page change, got %d", n)
	}
}

func TestLateAutoRunForPreviousPageIsDropped(t *testing.T) {
	fake := extracttest.New(2)
	fake.BenchResult = extract.BenchmarkResult{"ripdoc": {"chars": 1}}
	c := New(fake, Options{AutoRun: true})
	ctx := context.Background()

	c.Reset("doc", 1)
	c.Reset("doc", 2)
	// The page 1 auto-run goroutine is scheduled after navigation.
	c.MaybeAutoRun(ctx, "doc", 1)
	c.MaybeAutoRun(ctx, "doc", 2)

	calls := fake.Calls("benchmark")
	if len(calls) != 1 || calls[0].Page != 2 {
		t.Fatalf("expected a single run for page 2, got %+v", calls)
	}
	if st := c.Status(); st.Page != 2 || st.Chart == nil {
		t.Errorf("expected page 2 chart, got %+v", st)
	}

	c.Reset("other", 2)
	c.MaybeAutoRun(ctx, "doc", 2)
	if n := fake.Count("benchmark"); n != 1 {
		t.Errorf("auto-run for a closed document should be dropped, got %d runs", n)
	}
}

func TestRunRejectsInactivePage(t *testing.T) {
	fake := extracttest.New(2)
	fake.BenchResult = extract.BenchmarkResult{"ripdoc": {"chars": 1}}
	c := New(fake, Options{})
	c.Reset("doc", 2)

	if _, err := c.Run(context.Background(), 1); !errors.Is(err, ErrInactivePage) {
		t.Fatalf("expected ErrInactivePage, got %v", err)
	}
	if fake.Count("benchmark") != 0 {
		t.Error("inactive page should not reach the service")
	}
	if _, err := c.Run(context.Background(), 2); err != nil {
		t.Fatalf("Run on the shown page: %v", err)
	}
}

func TestRunSupersededByReset(t *testing.T) {
	fake := extracttest.New(2)
	fake.BenchGate = make(chan struct{})
	fake.BenchResult = extract.BenchmarkResult{"ripdoc": {"chars": 1}}
	c := New(fake, Options{})
	c.Reset("doc", 1)

	done := make(chan *Chart, 1)
	go func() {
		chart, _ := c.Run(context.Background(), 1)
		done <- chart
	}()
	for !c.Status().Running {
		time.Sleep(time.Millisecond)
	}
	c.Reset("doc", 2)
	close(fake.BenchGate)
	if chart := <-done; chart != nil {
		t.Error("superseded run should return no chart")
	}
	if st := c.Status(); st.Chart != nil || st.Page != 0 {
		t.Errorf("stale result leaked into page 2 state: %+v", st)
	}
}

func TestAutoRunDisabled(t *testing.T) {
	fake := extracttest.New(1)
	c := New(fake, Options{})
	c.MaybeAutoRun(context.Background(), "doc", 1)
	if fake.Count("benchmark") != 0 {
		t.Error("auto-run should be off by default")
	}
}

func TestRunFailureSurfacesDetail(t *testing.T) {
	fake := extracttest.New(1)
	fake.BenchErr = &extract.RejectedError{Op: "benchmark", StatusCode: 404, Detail: "No PDF uploaded"}
	c := New(fake, Options{})
	if _, err := c.Run(context.Background(), 1); !extract.IsRejected(err) {
		t.Fatalf("expected rejected error, got %v", err)
	}
	if st := c.Status(); st.Error != "No PDF uploaded" || st.Running {
		t.Errorf("unexpected status %+v", st)
	}
}
