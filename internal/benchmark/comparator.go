package benchmark

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ziadkadry99/ripview/internal/extract"
)

// DefaultIterations is the number of timed runs per operation.
const DefaultIterations = 3

var (
	// ErrRunning is returned when a run is requested while one is in progress.
	ErrRunning = errors.New("benchmark: already running")
	// ErrInactivePage is returned for a run on a page that is no longer shown.
	ErrInactivePage = errors.New("benchmark: page is not the one shown")
)

// Status is the comparator's current state.
type Status struct {
	Running bool   `json:"running"`
	Page    int    `json:"page,omitempty"`
	Chart   *Chart `json:"chart,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Options configures a Comparator.
type Options struct {
	Reference  string
	Iterations int
	AutoRun    bool
	// OnUpdate is called after every state change.
	OnUpdate func(Status)
}

// Comparator runs benchmarks against the extraction service, one at a time.
type Comparator struct {
	svc  extract.Service
	opts Options

	mu      sync.Mutex
	gen     uint64
	running bool
	page    int
	chart   *Chart
	errMsg  string
	autoKey string

	// Set by Reset. An empty activeDoc accepts any page.
	activeDoc  string
	activePage int
}

// New creates a comparator.
func New(svc extract.Service, opts Options) *Comparator {
	if opts.Reference == "" {
		opts.Reference = DefaultReference
	}
	if opts.Iterations < 1 {
		opts.Iterations = DefaultIterations
	}
	return &Comparator{svc: svc, opts: opts}
}

// Libraries lists the libraries the service can benchmark.
func (c *Comparator) Libraries(ctx context.Context) ([]string, error) {
	libs, err := c.svc.Libraries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing benchmark libraries: %w", err)
	}
	return libs, nil
}

// Run benchmarks page. The previous result is cleared before the request is
// sent. A second Run while one is outstanding returns ErrRunning, and a page
// other than the one passed to the last Reset returns ErrInactivePage.
func (c *Comparator) Run(ctx context.Context, page int) (*Chart, error) {
	return c.run(ctx, "", page)
}

func (c *Comparator) run(ctx context.Context, docID string, page int) (*Chart, error) {
	c.mu.Lock()
	if !c.activeLocked(docID, page) {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: page %d", ErrInactivePage, page)
	}
	if c.running {
		c.mu.Unlock()
		return nil, ErrRunning
	}
	c.running = true
	c.page = page
	c.chart = nil
	c.errMsg = ""
	gen := c.gen
	c.mu.Unlock()
	c.notify()

	res, err := c.svc.Benchmark(ctx, page, c.opts.Iterations)

	c.mu.Lock()
	if gen != c.gen {
		// The page changed underneath us.
		c.mu.Unlock()
		return nil, nil
	}
	c.running = false
	if err != nil {
		c.errMsg = extract.UserMessage(err)
		c.mu.Unlock()
		c.notify()
		return nil, fmt.Errorf("benchmarking page %d: %w", page, err)
	}
	chart := Normalize(res, c.opts.Reference)
	c.chart = &chart
	c.mu.Unlock()

	log.Printf("benchmark: page %d, %d operations across %d libraries", page, len(chart.Groups), len(res))
	c.notify()
	return &chart, nil
}

// MaybeAutoRun runs the benchmark the first time a page of a document is
// shown, if auto-run is enabled. Later calls for the same page are no-ops
// until Reset.
func (c *Comparator) MaybeAutoRun(ctx context.Context, docID string, page int) {
	if !c.opts.AutoRun {
		return
	}
	key := fmt.Sprintf("%s#%d", docID, page)
	c.mu.Lock()
	if c.autoKey == key || !c.activeLocked(docID, page) {
		c.mu.Unlock()
		return
	}
	c.autoKey = key
	c.mu.Unlock()

	_, err := c.run(ctx, docID, page)
	switch {
	case errors.Is(err, ErrInactivePage):
		// Navigated away before the run started.
	case errors.Is(err, ErrRunning):
		log.Printf("benchmark: auto-run for page %d skipped: a run is in progress", page)
	case err != nil:
		log.Printf("benchmark: auto-run: %v", err)
	}
}

// Reset clears the result and the auto-run flag and makes page of docID the
// only page runs are accepted for. Called on page change; any run still in
// flight is discarded when it completes.
func (c *Comparator) Reset(docID string, page int) {
	c.mu.Lock()
	c.gen++
	c.activeDoc = docID
	c.activePage = page
	c.running = false
	c.page = 0
	c.chart = nil
	c.errMsg = ""
	c.autoKey = ""
	c.mu.Unlock()
	c.notify()
}

// Status returns the current state.
func (c *Comparator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{Running: c.running, Page: c.page, Chart: c.chart, Error: c.errMsg}
}

// activeLocked reports whether a run for page may start. An empty docID
// skips the document check. Callers hold c.mu.
func (c *Comparator) activeLocked(docID string, page int) bool {
	if c.activeDoc == "" {
		return true
	}
	if docID != "" && docID != c.activeDoc {
		return false
	}
	return page == c.activePage
}

func (c *Comparator) notify() {
	if c.opts.OnUpdate != nil {
		c.opts.OnUpdate(c.Status())
	}
}
