package session

import (
	"github.com/ziadkadry99/ripview/internal/layers"
	"github.com/ziadkadry99/ripview/internal/overlay"
)

// LayerStatus summarises one layer for display.
type LayerStatus struct {
	Layer    layers.Layer `json:"layer"`
	Visible  bool         `json:"visible"`
	Fetched  bool         `json:"fetched"`
	Pending  bool         `json:"pending"`
	Count    int          `json:"count"`
	TimingMS float64      `json:"timing_ms"`
	Error    string       `json:"error,omitempty"`
}

// Snapshot is a point-in-time copy of the viewer state. It shares record
// slices with the controller, which never mutates them after a fetch.
type Snapshot struct {
	Document *Document                     `json:"document"`
	Page     *Page                         `json:"page"`
	Current  int                           `json:"current"`
	Loading  bool                          `json:"loading"`
	CanPrev  bool                          `json:"can_prev"`
	CanNext  bool                          `json:"can_next"`
	Text     Text                          `json:"text"`
	Layers   []LayerStatus                 `json:"layers"`
	Visible  layers.Visibility             `json:"-"`
	Entries  map[layers.Layer]layers.Entry `json:"-"`
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Current: c.current,
		Loading: c.loading,
		Text:    c.text,
		Visible: c.visibility.Clone(),
		Entries: c.store.Entries(),
	}
	if c.doc != nil {
		doc := *c.doc
		s.Document = &doc
		s.CanPrev = c.current > 1
		s.CanNext = c.current > 0 && c.current < doc.PageCount
	}
	if c.page != nil {
		page := *c.page
		s.Page = &page
	}
	for _, l := range layers.All {
		st := LayerStatus{
			Layer:   l,
			Visible: c.visibility.Visible(l),
			Fetched: c.ledger.Fetched(l),
			Pending: c.ledger.Pending(l),
			Error:   c.layerErrs[l],
		}
		if e, ok := s.Entries[l]; ok {
			st.Count = len(e.Records)
			st.TimingMS = e.TimingMS
		}
		s.Layers = append(s.Layers, st)
	}
	return s
}

// Loading reports whether a page load transaction is in progress.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LayerError returns the user-facing message for a failed layer fetch on
// the current page, or "" if the layer did not fail.
func (c *Controller) LayerError(l layers.Layer) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layerErrs[l]
}

// Document returns the live document, or nil.
func (c *Controller) Document() *Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil {
		return nil
	}
	doc := *c.doc
	return &doc
}

// Ready reports whether a page is fully loaded.
func (s Snapshot) Ready() bool { return s.Page != nil && !s.Loading }

// Status returns the status line for l.
func (s Snapshot) Status(l layers.Layer) LayerStatus {
	for _, st := range s.Layers {
		if st.Layer == l {
			return st
		}
	}
	return LayerStatus{Layer: l}
}

// Frame adapts the snapshot for the overlay renderer. It is only
// meaningful once Ready reports true.
func (s Snapshot) Frame() overlay.Frame {
	f := overlay.Frame{Visible: s.Visible, Entries: s.Entries}
	if s.Page != nil {
		f.PageWidth = s.Page.Width
		f.PageHeight = s.Page.Height
	}
	return f
}
