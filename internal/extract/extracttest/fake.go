// Package extracttest provides an in-memory extraction service for tests.
package extracttest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ziadkadry99/ripview/internal/extract"
	"github.com/ziadkadry99/ripview/internal/layers"
)

// Call records one request made to the fake.
type Call struct {
	Op    string
	Page  int
	Arg   string
	Layer layers.Layer
}

// Fake implements extract.Service, recording every call. Gates let a test
// hold a layer request open until the channel is closed.
type Fake struct {
	mu sync.Mutex

	PageCount  int
	PageWidth  float64
	PageHeight float64
	Libs       []string

	LayerData map[layers.Layer][]layers.Record
	LayerErr  map[layers.Layer]error
	LayerGate map[layers.Layer]chan struct{}

	UploadErr error
	InfoErr   error
	TextErr   error

	SearchFunc  func(ctx context.Context, page int, query string) (*extract.LayerResult, error)
	BenchResult extract.BenchmarkResult
	BenchErr    error
	BenchGate   chan struct{}

	calls []Call
}

// New returns a fake serving a document with pages letter-sized pages.
func New(pages int) *Fake {
	return &Fake{
		PageCount:  pages,
		PageWidth:  612,
		PageHeight: 792,
		Libs:       []string{"ripdoc"},
		LayerData:  make(map[layers.Layer][]layers.Record),
		LayerErr:   make(map[layers.Layer]error),
		LayerGate:  make(map[layers.Layer]chan struct{}),
	}
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

// Calls returns the recorded calls for op, or all calls when op is empty.
func (f *Fake) Calls(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many calls were made for op.
func (f *Fake) Count(op string) int { return len(f.Calls(op)) }

// LayerCount returns how many layer requests were made for l.
func (f *Fake) LayerCount(l layers.Layer) int {
	n := 0
	for _, c := range f.Calls("layer") {
		if c.Layer == l {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *Fake) checkPage(page int) error {
	if page < 1 || page > f.PageCount {
		return &extract.RejectedError{Op: "page", StatusCode: 404, Detail: fmt.Sprintf("Page %d not found (1-%d)", page, f.PageCount)}
	}
	return nil
}

func (f *Fake) Upload(ctx context.Context, filename string, r io.Reader) (*extract.UploadResult, error) {
	f.record(Call{Op: "upload", Arg: filename})
	if f.UploadErr != nil {
		return nil, f.UploadErr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	return &extract.UploadResult{PageCount: f.PageCount, Filename: filename, Metadata: map[string]any{}}, nil
}

func (f *Fake) PageInfo(ctx context.Context, page int) (*extract.PageInfo, error) {
	f.record(Call{Op: "info", Page: page})
	if err := f.checkPage(page); err != nil {
		return nil, err
	}
	if f.InfoErr != nil {
		return nil, f.InfoErr
	}
	return &extract.PageInfo{
		PageNumber: page,
		Width:      f.PageWidth,
		Height:     f.PageHeight,
		CharCount:  42,
		BBox:       [4]float64{0, 0, f.PageWidth, f.PageHeight},
	}, nil
}

func (f *Fake) PageText(ctx context.Context, page int, layout bool) (*extract.TextResult, error) {
	f.record(Call{Op: "text", Page: page, Arg: fmt.Sprint(layout)})
	if err := f.checkPage(page); err != nil {
		return nil, err
	}
	if f.TextErr != nil {
		return nil, f.TextErr
	}
	text := fmt.Sprintf("page %d text", page)
	if layout {
		text = "  " + text
	}
	return &extract.TextResult{Text: text, TimingMS: 1}, nil
}

func (f *Fake) Layer(ctx context.Context, page int, l layers.Layer) (*extract.LayerResult, error) {
	f.record(Call{Op: "layer", Page: page, Layer: l})
	f.mu.Lock()
	gate := f.LayerGate[l]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &extract.TransportError{Op: string(l), Err: ctx.Err()}
		}
	}
	if err := f.checkPage(page); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.LayerErr[l]; err != nil {
		return nil, err
	}
	recs := f.LayerData[l]
	if recs == nil {
		recs = []layers.Record{}
	}
	return &extract.LayerResult{Layer: l, Records: recs, TimingMS: 0.5}, nil
}

func (f *Fake) Search(ctx context.Context, page int, query string) (*extract.LayerResult, error) {
	f.record(Call{Op: "search", Page: page, Arg: query})
	if f.SearchFunc != nil {
		return f.SearchFunc(ctx, page, query)
	}
	return &extract.LayerResult{
		Layer:   layers.Search,
		Records: []layers.Record{layers.SearchMatch{Text: query, X0: 1, Top: 1, X1: 2, Bottom: 2, PageNumber: page}},
	}, nil
}

func (f *Fake) Libraries(ctx context.Context) ([]string, error) {
	f.record(Call{Op: "libraries"})
	return f.Libs, nil
}

func (f *Fake) Benchmark(ctx context.Context, page, iterations int) (extract.BenchmarkResult, error) {
	f.record(Call{Op: "benchmark", Page: page, Arg: fmt.Sprint(iterations)})
	if f.BenchGate != nil {
		select {
		case <-f.BenchGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.BenchErr != nil {
		return nil, f.BenchErr
	}
	return f.BenchResult, nil
}

func (f *Fake) PDFFile(ctx context.Context) (io.ReadCloser, error) {
	f.record(Call{Op: "pdf"})
	return io.NopCloser(strings.NewReader("%PDF-1.7")), nil
}
