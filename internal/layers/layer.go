package layers

import (
	"fmt"
	"strings"
)

// Layer names one category of extracted page geometry.
type Layer string

const (
	Chars  Layer = "chars"
	Words  Layer = "words"
	Lines  Layer = "lines"
	Rects  Layer = "rects"
	Edges  Layer = "edges"
	Tables Layer = "tables"
	Search Layer = "search"
)

// All lists every layer in canonical order.
var All = []Layer{Chars, Words, Lines, Rects, Edges, Tables, Search}

// Fetchable reports whether the layer is retrieved with a plain per-page
// layer request. Search has no default content and is driven by queries.
func (l Layer) Fetchable() bool {
	switch l {
	case Chars, Words, Lines, Rects, Edges, Tables:
		return true
	}
	return false
}

// Parse converts a user-supplied name into a Layer.
func Parse(s string) (Layer, error) {
	l := Layer(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range All {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown layer %q: must be one of chars, words, lines, rects, edges, tables, search", s)
}

// ParseList parses a list of layer names, rejecting unknown ones.
func ParseList(names []string) ([]Layer, error) {
	out := make([]Layer, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		l, err := Parse(n)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
