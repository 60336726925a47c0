package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/ripview/internal/extract"
	"github.com/ziadkadry99/ripview/internal/layers"
)

var (
	// ErrNoDocument is returned by page operations before a document is open.
	ErrNoDocument = errors.New("session: no document open")
	// ErrPageOutOfRange is returned for page numbers outside [1, page_count].
	// No request reaches the service.
	ErrPageOutOfRange = errors.New("session: page out of range")
	// ErrStale is returned when a newer navigation superseded the operation.
	// Callers treat it as silent.
	ErrStale = errors.New("session: superseded by newer navigation")
)

// Document is the live uploaded PDF.
type Document struct {
	ID        string         `json:"id"`
	Filename  string         `json:"filename"`
	PageCount int            `json:"page_count"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Page is the intrinsic geometry of the page being viewed, in points.
type Page struct {
	Number    int        `json:"number"`
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	CharCount int        `json:"char_count"`
	BBox      [4]float64 `json:"bbox"`
}

// Text holds both extraction modes for the current page.
type Text struct {
	Simple   string  `json:"simple"`
	Layout   string  `json:"layout"`
	SimpleMS float64 `json:"simple_ms"`
	LayoutMS float64 `json:"layout_ms"`
}

// Options configures a Controller.
type Options struct {
	// DefaultLayers are visible after every navigation. Nil means
	// layers.DefaultVisible.
	DefaultLayers []layers.Layer
	// Verbose logs discarded stale responses.
	Verbose bool
}

// PageChangeFunc is called at the start of every page load.
type PageChangeFunc func(docID string, page int)

// Controller is the single source of truth for which page of which document
// is showing and what geometry has been retrieved for it.
//
// Every page load and document open bumps an epoch. Requests remember the
// epoch they were issued under and their results are dropped when it has
// moved on, so a slow response can never leak onto another page.
type Controller struct {
	svc    extract.Service
	opts   Options
	events *Broadcaster

	mu         sync.Mutex
	epoch      uint64
	doc        *Document
	current    int
	page       *Page
	text       Text
	loading    bool
	visibility layers.Visibility
	store      *layers.Store
	ledger     *layers.Ledger
	layerErrs  map[layers.Layer]string
	hooks      []PageChangeFunc
}

// New creates an idle controller backed by svc.
func New(svc extract.Service, opts Options) *Controller {
	if opts.DefaultLayers == nil {
		opts.DefaultLayers = layers.DefaultVisible
	}
	c := &Controller{
		svc:    svc,
		opts:   opts,
		events: NewBroadcaster(),
		store:  layers.NewStore(),
		ledger: layers.NewLedger(),
	}
	c.clearPageLocked()
	return c
}

// Events returns the controller's event stream.
func (c *Controller) Events() *Broadcaster { return c.events }

// OnPageChange registers fn to run whenever a page load starts.
func (c *Controller) OnPageChange(fn PageChangeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// clearPageLocked drops all per-page state. Callers hold c.mu.
func (c *Controller) clearPageLocked() {
	c.current = 0
	c.page = nil
	c.text = Text{}
	c.loading = false
	c.visibility = layers.NewVisibility(c.opts.DefaultLayers)
	c.store.Clear()
	c.ledger.Reset()
	c.layerErrs = make(map[layers.Layer]string)
}

// OpenDocument uploads a PDF and shows its first page. The viewer is cleared
// before the upload starts, so a failed upload leaves it empty rather than
// showing the previous document.
func (c *Controller) OpenDocument(ctx context.Context, filename string, r io.Reader) error {
	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.doc = nil
	c.clearPageLocked()
	c.mu.Unlock()
	c.events.Publish(Event{Type: EventDocumentCleared})

	res, err := c.svc.Upload(ctx, filename, r)
	if err != nil {
		c.publishError(err)
		return fmt.Errorf("opening %s: %w", filename, err)
	}

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		c.logStale("upload of %s", filename)
		return ErrStale
	}
	name := res.Filename
	if name == "" {
		name = filename
	}
	doc := &Document{
		ID:        uuid.NewString(),
		Filename:  name,
		PageCount: res.PageCount,
		Metadata:  res.Metadata,
	}
	c.doc = doc
	c.mu.Unlock()

	log.Printf("session: opened %s (%d pages, id=%s)", doc.Filename, doc.PageCount, doc.ID)
	c.events.Publish(Event{Type: EventDocumentOpened, Document: doc})

	if doc.PageCount < 1 {
		return nil
	}
	return c.LoadPage(ctx, 1)
}

// LoadPage navigates to page n. Page info, both text modes and every visible
// layer are fetched concurrently and the call returns once all of them have
// settled. Page info or text failures fail the load and leave the page
// empty. A failing layer only marks that layer as failed.
func (c *Controller) LoadPage(ctx context.Context, n int) error {
	c.mu.Lock()
	if c.doc == nil {
		c.mu.Unlock()
		return ErrNoDocument
	}
	if n < 1 || n > c.doc.PageCount {
		count := c.doc.PageCount
		c.mu.Unlock()
		return fmt.Errorf("%w: %d not in [1, %d]", ErrPageOutOfRange, n, count)
	}
	c.epoch++
	epoch := c.epoch
	docID := c.doc.ID
	c.clearPageLocked()
	c.current = n
	c.loading = true
	targets := c.visibility.Fetchable()
	for _, l := range targets {
		c.ledger.Begin(l)
	}
	hooks := append([]PageChangeFunc(nil), c.hooks...)
	c.mu.Unlock()

	for _, h := range hooks {
		h(docID, n)
	}
	c.events.Publish(Event{Type: EventPageLoading, Page: n})

	var (
		info           *extract.PageInfo
		simple, layout *extract.TextResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		info, err = c.svc.PageInfo(gctx, n)
		return err
	})
	g.Go(func() (err error) {
		simple, err = c.svc.PageText(gctx, n, false)
		return err
	})
	g.Go(func() (err error) {
		layout, err = c.svc.PageText(gctx, n, true)
		return err
	})
	for _, l := range targets {
		g.Go(func() error {
			// Layer failures are recorded per layer and never abort the page.
			_ = c.fetchLayer(gctx, epoch, n, l)
			return nil
		})
	}
	err := g.Wait()

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		c.logStale("load of page %d", n)
		return ErrStale
	}
	if err != nil {
		c.clearPageLocked()
		c.mu.Unlock()
		c.publishError(err)
		return fmt.Errorf("loading page %d: %w", n, err)
	}
	c.loading = false
	c.page = &Page{
		Number:    n,
		Width:     info.Width,
		Height:    info.Height,
		CharCount: info.CharCount,
		BBox:      info.BBox,
	}
	c.text = Text{
		Simple:   simple.Text,
		Layout:   layout.Text,
		SimpleMS: simple.TimingMS,
		LayoutMS: layout.TimingMS,
	}
	c.mu.Unlock()

	c.events.Publish(Event{Type: EventPageLoaded, Page: n})
	return nil
}

// NextPage loads the page after the current one.
func (c *Controller) NextPage(ctx context.Context) error {
	return c.LoadPage(ctx, c.currentPage()+1)
}

// PrevPage loads the page before the current one.
func (c *Controller) PrevPage(ctx context.Context) error {
	return c.LoadPage(ctx, c.currentPage()-1)
}

func (c *Controller) currentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// ToggleLayer flips a layer's visibility and returns the new state. Turning
// a layer on fetches it only if this page has never requested it; a toggle
// while the request is still in flight is a no-op. Turning it off keeps the
// geometry so turning it back on is free. Search only flips visibility;
// its content comes from the search controller.
func (c *Controller) ToggleLayer(ctx context.Context, l layers.Layer) (bool, error) {
	c.mu.Lock()
	visible := c.visibility.Toggle(l)
	fetch := visible && l.Fetchable() && c.current > 0 && c.ledger.Begin(l)
	epoch, page := c.epoch, c.current
	c.mu.Unlock()

	c.events.Publish(Event{Type: EventVisibility, Layer: l, Visible: visible})
	if !fetch {
		return visible, nil
	}
	if err := c.fetchLayer(ctx, epoch, page, l); err != nil && !errors.Is(err, ErrStale) {
		return visible, err
	}
	return visible, nil
}

// SetLayerVisible sets a layer's visibility without fetching anything.
func (c *Controller) SetLayerVisible(l layers.Layer, on bool) {
	c.mu.Lock()
	c.visibility[l] = on
	c.mu.Unlock()
	c.events.Publish(Event{Type: EventVisibility, Layer: l, Visible: on})
}

func (c *Controller) fetchLayer(ctx context.Context, epoch uint64, page int, l layers.Layer) error {
	res, err := c.svc.Layer(ctx, page, l)

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		c.logStale("%s for page %d", l, page)
		return ErrStale
	}
	c.ledger.Complete(l)
	if err != nil {
		c.layerErrs[l] = extract.UserMessage(err)
	} else {
		delete(c.layerErrs, l)
		c.store.Put(layers.Entry{Layer: l, Records: res.Records, TimingMS: res.TimingMS})
	}
	c.mu.Unlock()

	if err != nil {
		log.Printf("session: fetching %s for page %d: %v", l, page, err)
		c.events.Publish(Event{Type: EventLayerFailed, Page: page, Layer: l, Message: extract.UserMessage(err)})
		return fmt.Errorf("fetching %s: %w", l, err)
	}
	c.events.Publish(Event{Type: EventLayerUpdated, Page: page, Layer: l, Count: len(res.Records)})
	return nil
}

// SearchTarget reports the page a search should run against and the epoch
// its result must be applied under.
func (c *Controller) SearchTarget() (page int, epoch uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.epoch, c.current > 0
}

// ApplySearch replaces the search matches and forces the search layer on.
// It returns false, changing nothing, when the page has changed since
// epoch was handed out.
func (c *Controller) ApplySearch(epoch uint64, res *extract.LayerResult) bool {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		c.logStale("search results")
		return false
	}
	c.store.Put(layers.Entry{Layer: layers.Search, Records: res.Records, TimingMS: res.TimingMS})
	c.visibility[layers.Search] = true
	page := c.current
	c.mu.Unlock()

	c.events.Publish(Event{Type: EventSearchUpdated, Page: page, Layer: layers.Search, Visible: true, Count: len(res.Records)})
	return true
}

// ClearSearch drops the search matches and hides the search layer.
func (c *Controller) ClearSearch() {
	c.mu.Lock()
	c.store.Delete(layers.Search)
	c.visibility[layers.Search] = false
	page := c.current
	c.mu.Unlock()

	c.events.Publish(Event{Type: EventSearchUpdated, Page: page, Layer: layers.Search})
}

func (c *Controller) publishError(err error) {
	c.events.Publish(Event{Type: EventError, Message: extract.UserMessage(err)})
}

func (c *Controller) logStale(format string, args ...any) {
	if c.opts.Verbose {
		log.Printf("session: discarding stale "+format, args...)
	}
}
