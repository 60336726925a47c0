// Package viewer wires the session, search, benchmark and raster
// components into one application used by both the HTTP server and the
// terminal viewer.
package viewer

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/ziadkadry99/ripview/internal/benchmark"
	"github.com/ziadkadry99/ripview/internal/extract"
	"github.com/ziadkadry99/ripview/internal/history"
	"github.com/ziadkadry99/ripview/internal/layers"
	"github.com/ziadkadry99/ripview/internal/raster"
	"github.com/ziadkadry99/ripview/internal/report"
	"github.com/ziadkadry99/ripview/internal/search"
	"github.com/ziadkadry99/ripview/internal/session"
)

// Options configures an App.
type Options struct {
	DefaultLayers  []layers.Layer
	SearchDebounce time.Duration
	Benchmark      benchmark.Options
	Source         raster.Source
	Verbose        bool
	// SearchClock replaces the runtime clock for debouncing.
	SearchClock search.Clock
	// History, when set, receives every completed benchmark comparison.
	History Recorder
}

// Recorder persists benchmark runs.
type Recorder interface {
	Record(ctx context.Context, run history.Run) (string, error)
}

var _ Recorder = (*history.Store)(nil)

// App is one viewer: exactly one live document and page at a time.
type App struct {
	Service extract.Service
	Session *session.Controller
	Search  *search.Controller
	Bench   *benchmark.Comparator
	Surface *raster.Surface
	Report  *report.Renderer

	autoRun bool
	verbose bool
}

// New builds an App on top of svc.
func New(svc extract.Service, opts Options) (*App, error) {
	sess := session.New(svc, session.Options{DefaultLayers: opts.DefaultLayers, Verbose: opts.Verbose})

	searchOpts := []search.Option{search.WithDebounce(opts.SearchDebounce), search.WithVerbose(opts.Verbose)}
	if opts.SearchClock != nil {
		searchOpts = append(searchOpts, search.WithClock(opts.SearchClock))
	}

	benchOpts := opts.Benchmark
	events := sess.Events()
	benchOpts.OnUpdate = func(st benchmark.Status) {
		if opts.History != nil && !st.Running && st.Chart != nil {
			record(opts.History, sess.Document(), st)
		}
		events.Publish(session.Event{Type: session.EventBenchmark, Page: st.Page, Payload: st})
	}

	src := opts.Source
	if src == nil {
		src = raster.BlankSource{}
	}
	rep, err := report.NewRenderer()
	if err != nil {
		return nil, err
	}

	a := &App{
		Service: svc,
		Session: sess,
		Search:  search.New(svc, sess, searchOpts...),
		Bench:   benchmark.New(svc, benchOpts),
		Surface: raster.NewSurface(src, opts.Verbose),
		Report:  rep,
		autoRun: opts.Benchmark.AutoRun,
		verbose: opts.Verbose,
	}
	sess.OnPageChange(func(docID string, page int) {
		a.Search.Reset()
		a.Bench.Reset(docID, page)
	})
	return a, nil
}

// Open uploads a document and shows its first page.
func (a *App) Open(ctx context.Context, filename string, r io.Reader) error {
	if err := a.Session.OpenDocument(ctx, filename, r); err != nil {
		return err
	}
	a.afterLoad()
	return nil
}

// Goto shows page n.
func (a *App) Goto(ctx context.Context, n int) error {
	if err := a.Session.LoadPage(ctx, n); err != nil {
		return err
	}
	a.afterLoad()
	return nil
}

// Next shows the following page.
func (a *App) Next(ctx context.Context) error {
	if err := a.Session.NextPage(ctx); err != nil {
		return err
	}
	a.afterLoad()
	return nil
}

// Prev shows the preceding page.
func (a *App) Prev(ctx context.Context) error {
	if err := a.Session.PrevPage(ctx); err != nil {
		return err
	}
	a.afterLoad()
	return nil
}

// afterLoad starts the one-per-page benchmark auto-run in the background.
func (a *App) afterLoad() {
	if !a.autoRun {
		return
	}
	snap := a.Session.Snapshot()
	if !snap.Ready() {
		return
	}
	go a.Bench.MaybeAutoRun(context.Background(), snap.Document.ID, snap.Page.Number)
}

// Summary returns the report inputs for the current state.
func (a *App) Summary() report.Summary {
	return report.Summary{Snapshot: a.Session.Snapshot(), Chart: a.Bench.Status().Chart}
}

func record(rec Recorder, doc *session.Document, st benchmark.Status) {
	if doc == nil {
		return
	}
	run := history.FromChart(doc.Filename, doc.ID, st.Page, *st.Chart)
	if _, err := rec.Record(context.Background(), run); err != nil {
		log.Printf("viewer: recording benchmark for page %d: %v", st.Page, err)
	}
}

// Silent reports whether err should be swallowed rather than shown.
func Silent(err error) bool {
	return errors.Is(err, session.ErrStale) || errors.Is(err, raster.ErrCancelled) ||
		errors.Is(err, benchmark.ErrInactivePage)
}

func logf(verbose bool, format string, args ...any) {
	if verbose {
		log.Printf("viewer: "+format, args...)
	}
}
