package layers

// DefaultVisible are the layers shown when a page is first loaded.
var DefaultVisible = []Layer{Words, Tables}

// Visibility maps each layer to whether it is drawn. Visibility and
// fetched-ness are independent: hiding a layer keeps its geometry.
type Visibility map[Layer]bool

// NewVisibility returns a visibility map with exactly the given layers on.
func NewVisibility(on []Layer) Visibility {
	v := make(Visibility, len(All))
	for _, l := range All {
		v[l] = false
	}
	for _, l := range on {
		v[l] = true
	}
	return v
}

// Toggle flips l and returns its new state.
func (v Visibility) Toggle(l Layer) bool {
	v[l] = !v[l]
	return v[l]
}

// Visible reports whether l is drawn.
func (v Visibility) Visible(l Layer) bool { return v[l] }

// Fetchable returns visible layers that have per-page content, in
// canonical order.
func (v Visibility) Fetchable() []Layer {
	var out []Layer
	for _, l := range All {
		if v[l] && l.Fetchable() {
			out = append(out, l)
		}
	}
	return out
}

// Clone returns an independent copy.
func (v Visibility) Clone() Visibility {
	out := make(Visibility, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
