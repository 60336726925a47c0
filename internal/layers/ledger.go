package layers

// Ledger records which layers have been requested for the current page.
// A layer is pending while its request is outstanding and fetched once it
// settled, whether the request succeeded or failed. An empty but valid
// result counts as fetched, so it is never requested twice.
type Ledger struct {
	fetched map[Layer]bool
	pending map[Layer]bool
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		fetched: make(map[Layer]bool),
		pending: make(map[Layer]bool),
	}
}

// Begin marks l as pending and reports whether the caller should issue the
// request. It returns false if l is already fetched or in flight.
func (l *Ledger) Begin(layer Layer) bool {
	if l.fetched[layer] || l.pending[layer] {
		return false
	}
	l.pending[layer] = true
	return true
}

// Complete moves l from pending to fetched.
func (l *Ledger) Complete(layer Layer) {
	delete(l.pending, layer)
	l.fetched[layer] = true
}

// Fetched reports whether l has settled for the current page.
func (l *Ledger) Fetched(layer Layer) bool { return l.fetched[layer] }

// Pending reports whether a request for l is outstanding.
func (l *Ledger) Pending(layer Layer) bool { return l.pending[layer] }

// Reset forgets everything. Called on every page change.
func (l *Ledger) Reset() {
	l.fetched = make(map[Layer]bool)
	l.pending = make(map[Layer]bool)
}

// FetchedLayers returns the fetched layers in canonical order.
func (l *Ledger) FetchedLayers() []Layer { return ordered(l.fetched) }

// PendingLayers returns the in-flight layers in canonical order.
func (l *Ledger) PendingLayers() []Layer { return ordered(l.pending) }

func ordered(set map[Layer]bool) []Layer {
	out := make([]Layer, 0, len(set))
	for _, layer := range All {
		if set[layer] {
			out = append(out, layer)
		}
	}
	return out
}
