package search

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/ripview/internal/extract"
	"github.com/ziadkadry99/ripview/internal/extract/extracttest"
	"github.com/ziadkadry99/ripview/internal/layers"
	"github.com/ziadkadry99/ripview/internal/session"
)

// manualClock fires timers only when advanced.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

func newSession(t *testing.T, fake *extracttest.Fake) *session.Controller {
	t.Helper()
	s := session.New(fake, session.Options{})
	if err := s.OpenDocument(context.Background(), "doc.pdf", strings.NewReader("%PDF")); err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	return s
}

func TestDebounceCollapsesKeystrokes(t *testing.T) {
	fake := extracttest.New(1)
	sess := newSession(t, fake)
	clock := &manualClock{}
	c := New(fake, sess, WithClock(clock))

	for _, q := range []string{"i", "in", "inv", "invo", "invoice"} {
		c.Input(q)
		clock.Advance(100 * time.Millisecond)
	}
	if n := fake.Count("search"); n != 0 {
		t.Fatalf("expected no request before the window closes, got %d", n)
	}
	if c.Status().State != StateDebouncing {
		t.Errorf("expected debouncing, got %s", c.Status().State)
	}

	clock.Advance(300 * time.Millisecond)

	calls := fake.Calls("search")
	if len(calls) != 1 || calls[0].Arg != "invoice" {
		t.Fatalf("expected one search for the final text, got %+v", calls)
	}
	st := c.Status()
	if st.State != StateDisplaying || st.Matches != 1 {
		t.Errorf("unexpected status %+v", st)
	}
	if !sess.Snapshot().Visible.Visible(layers.Search) {
		t.Error("search results should force the search layer visible")
	}
}

func TestEmptyQueryGoesIdleWithoutRequest(t *testing.T) {
	fake := extracttest.New(1)
	sess := newSession(t, fake)
	clock := &manualClock{}
	c := New(fake, sess, WithClock(clock))

	if err := c.Submit(context.Background(), "total"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	c.Input("   ")
	clock.Advance(time.Second)

	if n := fake.Count("search"); n != 1 {
		t.Errorf("whitespace query should not reach the service, got %d calls", n)
	}
	if c.Status().State != StateIdle {
		t.Errorf("expected idle, got %s", c.Status().State)
	}
	snap := sess.Snapshot()
	if snap.Visible.Visible(layers.Search) {
		t.Error("search layer should be hidden after clearing")
	}
	if _, ok := snap.Entries[layers.Search]; ok {
		t.Error("matches should be cleared")
	}
}

func TestOnlyLatestResponseApplies(t *testing.T) {
	fake := extracttest.New(1)
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	fake.SearchFunc = func(ctx context.Context, page int, q string) (*extract.LayerResult, error) {
		started <- struct{}{}
		if q == "slow" {
			<-release
		}
		return &extract.LayerResult{
			Layer:   layers.Search,
			Records: []layers.Record{layers.SearchMatch{Text: q}},
		}, nil
	}
	sess := newSession(t, fake)
	clock := &manualClock{}
	c := New(fake, sess, WithClock(clock))

	c.Input("slow")
	done := make(chan struct{})
	go func() {
		clock.Advance(DefaultDebounce)
		close(done)
	}()
	<-started

	c.Input("fast")
	clock.Advance(DefaultDebounce)
	<-started
	close(release)
	<-done

	entry := sess.Snapshot().Entries[layers.Search]
	if len(entry.Records) != 1 {
		t.Fatalf("expected one match, got %d", len(entry.Records))
	}
	if got := entry.Records[0].(layers.SearchMatch).Text; got != "fast" {
		t.Errorf("stale response overwrote results: got %q", got)
	}
	if c.Status().Query != "fast" {
		t.Errorf("unexpected query %q", c.Status().Query)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  cafe\u0301 "); got != "caf\u00e9" {
		t.Errorf("expected NFC form, got %q", got)
	}
}

func TestSearchErrorSurfaces(t *testing.T) {
	fake := extracttest.New(1)
	fake.SearchFunc = func(ctx context.Context, page int, q string) (*extract.LayerResult, error) {
		return nil, &extract.RejectedError{Op: "search", StatusCode: 500, Detail: "index missing"}
	}
	sess := newSession(t, fake)
	c := New(fake, sess)

	if err := c.Submit(context.Background(), "x"); !extract.IsRejected(err) {
		t.Fatalf("expected rejected error, got %v", err)
	}
	if st := c.Status(); st.Error != "index missing" {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestDebouncedInputWithoutPageReturnsIdle(t *testing.T) {
	fake := extracttest.New(1)
	sess := session.New(fake, session.Options{})
	clock := &manualClock{}
	c := New(fake, sess, WithClock(clock))

	c.Input("total")
	if c.Status().State != StateDebouncing {
		t.Fatalf("expected debouncing, got %s", c.Status().State)
	}
	clock.Advance(time.Second)

	if n := fake.Count("search"); n != 0 {
		t.Errorf("no page is loaded, expected no request, got %d", n)
	}
	if st := c.Status(); st.State != StateIdle {
		t.Errorf("expected idle after the window closed, got %s", st.State)
	}
}
