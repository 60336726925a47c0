// Package search implements debounced full-text search over the current page.
package search

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/ziadkadry99/ripview/internal/extract"
	"github.com/ziadkadry99/ripview/internal/session"
)

// DefaultDebounce is the quiet period a keystroke must survive before a
// query is sent.
const DefaultDebounce = 300 * time.Millisecond

// State is the search controller's position in its lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateDebouncing State = "debouncing"
	StateQuerying   State = "querying"
	StateDisplaying State = "displaying"
)

// Target is the session the controller searches and writes results into.
type Target interface {
	SearchTarget() (page int, epoch uint64, ok bool)
	ApplySearch(epoch uint64, res *extract.LayerResult) bool
	ClearSearch()
}

var _ Target = (*session.Controller)(nil)

// Status is a snapshot of the controller.
type Status struct {
	State   State  `json:"state"`
	Query   string `json:"query"`
	Matches int    `json:"matches"`
	Error   string `json:"error,omitempty"`
}

// Controller debounces keystrokes into search requests. Each request is
// tagged with a sequence number and only the most recently issued one may
// update the session, whatever order responses arrive in.
type Controller struct {
	svc      extract.Service
	target   Target
	clock    Clock
	debounce time.Duration
	verbose  bool

	mu     sync.Mutex
	state  State
	query  string
	timer  Timer
	seq    uint64
	status Status
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the runtime clock.
func WithClock(c Clock) Option { return func(s *Controller) { s.clock = c } }

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Controller) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithVerbose logs discarded responses.
func WithVerbose(v bool) Option { return func(s *Controller) { s.verbose = v } }

// New creates an idle search controller.
func New(svc extract.Service, target Target, opts ...Option) *Controller {
	c := &Controller{
		svc:      svc,
		target:   target,
		clock:    RealClock{},
		debounce: DefaultDebounce,
		state:    StateIdle,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Normalize trims and NFC-normalises a query so visually identical input
// produces the same request.
func Normalize(q string) string {
	return norm.NFC.String(strings.TrimSpace(q))
}

// Input handles one keystroke's worth of query text. An empty query clears
// results immediately; anything else restarts the debounce window.
func (c *Controller) Input(q string) {
	q = Normalize(q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	// Any in-flight response is now stale.
	c.seq++
	c.query = q
	if q == "" {
		c.resetLocked()
		return
	}
	c.state = StateDebouncing
	seq := c.seq
	c.timer = c.clock.AfterFunc(c.debounce, func() {
		c.fire(seq)
	})
}

// Submit sends q immediately, bypassing the debounce window, and waits for
// the result.
func (c *Controller) Submit(ctx context.Context, q string) error {
	q = Normalize(q)

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.seq++
	c.query = q
	if q == "" {
		c.resetLocked()
		c.mu.Unlock()
		return nil
	}
	seq := c.seq
	c.mu.Unlock()
	return c.run(ctx, seq, q)
}

// Clear returns to idle and drops any results.
func (c *Controller) Clear() { c.Input("") }

// Reset drops the query without touching the session. Called on page
// change, where the session has already discarded its matches.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.seq++
	c.query = ""
	c.state = StateIdle
	c.status = Status{State: StateIdle}
}

// Status returns the current state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.status
	s.State = c.state
	s.Query = c.query
	return s
}

func (c *Controller) resetLocked() {
	c.state = StateIdle
	c.status = Status{State: StateIdle}
	c.target.ClearSearch()
}

func (c *Controller) fire(seq uint64) {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	q := c.query
	c.mu.Unlock()

	if err := c.run(context.Background(), seq, q); err != nil {
		log.Printf("search: %v", err)
	}
}

func (c *Controller) run(ctx context.Context, seq uint64, q string) error {
	page, epoch, ok := c.target.SearchTarget()
	if !ok {
		c.mu.Lock()
		if seq == c.seq {
			c.state = StateIdle
			c.status = Status{State: StateIdle}
		}
		c.mu.Unlock()
		return fmt.Errorf("searching %q: %w", q, session.ErrNoDocument)
	}

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return nil
	}
	c.state = StateQuerying
	c.mu.Unlock()

	res, err := c.svc.Search(ctx, page, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		if c.verbose {
			log.Printf("search: discarding stale response for %q", q)
		}
		return nil
	}
	if err != nil {
		c.state = StateDisplaying
		c.status = Status{Error: extract.UserMessage(err)}
		return fmt.Errorf("searching %q on page %d: %w", q, page, err)
	}
	if !c.target.ApplySearch(epoch, res) {
		// The page changed after the request went out.
		c.state = StateIdle
		c.status = Status{State: StateIdle}
		return nil
	}
	c.state = StateDisplaying
	c.status = Status{Matches: len(res.Records)}
	return nil
}
