package viewer

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/ripview/internal/benchmark"
	"github.com/ziadkadry99/ripview/internal/extract"
	"github.com/ziadkadry99/ripview/internal/extract/extracttest"
	"github.com/ziadkadry99/ripview/internal/history"
	"github.com/ziadkadry99/ripview/internal/layers"
	"github.com/ziadkadry99/ripview/internal/raster"
	"github.com/ziadkadry99/ripview/internal/session"
)

func newApp(t *testing.T, fake *extracttest.Fake, opts Options) *App {
	t.Helper()
	a, err := New(fake, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Open(context.Background(), "doc.pdf", strings.NewReader("%PDF")); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return a
}

func TestOverlayUsesRequestedWidth(t *testing.T) {
	fake := extracttest.New(1)
	fake.LayerData[layers.Words] = []layers.Record{layers.Word{Text: "w", X0: 100, Top: 50, X1: 200, Bottom: 150}}
	a := newApp(t, fake, Options{})

	ov, err := a.Overlay(1224)
	if err != nil {
		t.Fatalf("Overlay: %v", err)
	}
	if ov.Scale != 2 || ov.Width != 1224 || ov.Height != 1584 {
		t.Errorf("unexpected overlay geometry %dx%d @ %v", ov.Width, ov.Height, ov.Scale)
	}
	if len(ov.Shapes) != 1 || ov.Shapes[0].Rect.X != 200 {
		t.Errorf("unexpected shapes %+v", ov.Shapes)
	}
}

func TestRenderPNG(t *testing.T) {
	fake := extracttest.New(1)
	fake.LayerData[layers.Words] = []layers.Record{layers.Word{Text: "w", X0: 10, Top: 10, X1: 100, Bottom: 40}}
	a := newApp(t, fake, Options{})

	var buf bytes.Buffer
	if err := a.RenderPNG(context.Background(), &buf, 306); err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 306 || img.Bounds().Dy() != 396 {
		t.Errorf("unexpected size %v", img.Bounds())
	}
}

func TestRenderRejectsOversizedWidth(t *testing.T) {
	a := newApp(t, extracttest.New(1), Options{})
	if _, err := a.Overlay(1000000); !errors.Is(err, raster.ErrTooLarge) {
		t.Errorf("Overlay: expected ErrTooLarge, got %v", err)
	}
	var buf bytes.Buffer
	if err := a.RenderPNG(context.Background(), &buf, 1000000); !errors.Is(err, raster.ErrTooLarge) {
		t.Errorf("RenderPNG: expected ErrTooLarge, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written for a rejected render")
	}
}

func TestRenderWithoutPage(t *testing.T) {
	a, err := New(extracttest.New(1), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.RenderPNG(context.Background(), &bytes.Buffer{}, 100); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
}

func TestPageChangeResetsSearchAndBenchmark(t *testing.T) {
	fake := extracttest.New(2)
	fake.BenchResult = extract.BenchmarkResult{"ripdoc": {"chars": 1}}
	a := newApp(t, fake, Options{})
	ctx := context.Background()

	if err := a.Search.Submit(ctx, "total"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Bench.Run(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := a.Next(ctx); err != nil {
		t.Fatal(err)
	}
	if st := a.Search.Status(); st.Query != "" || st.State != "idle" {
		t.Errorf("search should reset on page change, got %+v", st)
	}
	if a.Bench.Status().Chart != nil {
		t.Error("benchmark should reset on page change")
	}
}

func TestAutoRunPublishesBenchmarkEvent(t *testing.T) {
	fake := extracttest.New(1)
	fake.BenchResult = extract.BenchmarkResult{"ripdoc": {"chars": 1}, "pdfplumber": {"chars": 4}}
	a, err := New(fake, Options{Benchmark: benchmark.Options{AutoRun: true}})
	if err != nil {
		t.Fatal(err)
	}
	events, unsubscribe := a.Session.Events().Subscribe(64)
	defer unsubscribe()

	if err := a.Open(context.Background(), "doc.pdf", strings.NewReader("%PDF")); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type != session.EventBenchmark {
				continue
			}
			st, ok := ev.Payload.(benchmark.Status)
			if ok && st.Chart != nil {
				if fake.Count("benchmark") != 1 {
					t.Errorf("expected one auto-run, got %d", fake.Count("benchmark"))
				}
				return
			}
		case <-timeout:
			t.Fatal("no benchmark result published")
		}
	}
}

func TestRunForPreviousPageRejectedAfterNavigation(t *testing.T) {
	fake := extracttest.New(2)
	fake.BenchResult = extract.BenchmarkResult{"ripdoc": {"chars": 1}}
	rec := &memRecorder{}
	a := newApp(t, fake, Options{History: rec})
	ctx := context.Background()

	if err := a.Next(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Bench.Run(ctx, 1); !errors.Is(err, benchmark.ErrInactivePage) || !Silent(err) {
		t.Errorf("expected a silent ErrInactivePage, got %v", err)
	}
	if n := fake.Count("benchmark"); n != 0 {
		t.Fatalf("page 1 should not be benchmarked while page 2 is shown, got %d runs", n)
	}

	if _, err := a.Bench.Run(ctx, 2); err != nil {
		t.Fatalf("Run on page 2: %v", err)
	}
	if st := a.Bench.Status(); st.Page != 2 || st.Chart == nil {
		t.Errorf("expected page 2 chart, got %+v", st)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.runs) != 1 || rec.runs[0].Page != 2 {
		t.Errorf("history should hold only the page 2 run, got %+v", rec.runs)
	}
}

func TestSilent(t *testing.T) {
	if !Silent(session.ErrStale) {
		t.Error("stale errors should be silent")
	}
	if Silent(errors.New("boom")) {
		t.Error("ordinary errors should not be silent")
	}
}

type memRecorder struct {
	mu   sync.Mutex
	runs []history.Run
}

func (m *memRecorder) Record(ctx context.Context, run history.Run) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return "run-1", nil
}

func TestBenchmarkRecordedToHistory(t *testing.T) {
	fake := extracttest.New(1)
	fake.BenchResult = extract.BenchmarkResult{"ripdoc": {"chars": 1}, "pdfplumber": {"chars": 4}}
	rec := &memRecorder{}
	a := newApp(t, fake, Options{History: rec})

	if _, err := a.Bench.Run(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.runs) != 1 {
		t.Fatalf("expected one recorded run, got %d", len(rec.runs))
	}
	run := rec.runs[0]
	if run.Document != "doc.pdf" || run.Page != 1 || run.Timings["pdfplumber"]["chars"] != 4 {
		t.Errorf("unexpected run %+v", run)
	}
}
