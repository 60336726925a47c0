package layers

// Entry is the most recent fetch result for one layer.
type Entry struct {
	Layer    Layer    `json:"layer"`
	Records  []Record `json:"data"`
	TimingMS float64  `json:"timing_ms"`
}

// Store holds fetched geometry keyed by layer name. It has no business
// logic beyond replace-on-write and clear-all. It is not safe for concurrent
// use; the owning session serialises access.
type Store struct {
	entries map[Layer]Entry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[Layer]Entry)}
}

// Put replaces the entry for e.Layer.
func (s *Store) Put(e Entry) {
	if e.Records == nil {
		e.Records = []Record{}
	}
	s.entries[e.Layer] = e
}

// Get returns the entry for l, if any.
func (s *Store) Get(l Layer) (Entry, bool) {
	e, ok := s.entries[l]
	return e, ok
}

// Delete drops the entry for l.
func (s *Store) Delete(l Layer) {
	delete(s.entries, l)
}

// Clear drops every entry.
func (s *Store) Clear() {
	s.entries = make(map[Layer]Entry)
}

// Len returns the number of populated layers.
func (s *Store) Len() int { return len(s.entries) }

// Entries returns a shallow copy of the store contents. Record slices are
// shared; they are never mutated after Put.
func (s *Store) Entries() map[Layer]Entry {
	out := make(map[Layer]Entry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}
