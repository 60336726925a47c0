// Package benchmark compares extraction timings across libraries.
package benchmark

import (
	"math"
	"sort"

	"github.com/ziadkadry99/ripview/internal/extract"
)

// DefaultReference is the library every other library is compared against.
const DefaultReference = "ripdoc"

// Operations lists benchmarked operations in display order. Operations not
// listed here are appended alphabetically.
var Operations = []string{"extract_text", "extract_words", "find_tables", "chars"}

// Bar is one library's timing for one operation.
type Bar struct {
	Library   string  `json:"library"`
	MS        float64 `json:"ms"`
	Percent   float64 `json:"percent"`
	Speedup   int     `json:"speedup,omitempty"`
	Reference bool    `json:"reference,omitempty"`
}

// Group is the set of bars for one operation.
type Group struct {
	Operation string  `json:"operation"`
	MaxMS     float64 `json:"max_ms"`
	Bars      []Bar   `json:"bars"`
}

// Chart is a normalised benchmark result.
type Chart struct {
	Reference string  `json:"reference"`
	Groups    []Group `json:"groups"`
}

// Normalize scales each operation's timings against that operation's
// slowest library, so the slowest bar is 100%. For each non-reference
// library, Speedup is round(t_lib / t_ref) and is set only when it exceeds 1.
// Libraries that did not report an operation get no bar for it.
func Normalize(res extract.BenchmarkResult, reference string) Chart {
	if reference == "" {
		reference = DefaultReference
	}
	libs := libraries(res, reference)
	chart := Chart{Reference: reference}

	for _, op := range operations(res) {
		g := Group{Operation: op}
		for _, lib := range libs {
			if ms, ok := res[lib][op]; ok && ms > g.MaxMS {
				g.MaxMS = ms
			}
		}
		ref, hasRef := res[reference][op]
		for _, lib := range libs {
			ms, ok := res[lib][op]
			if !ok {
				continue
			}
			b := Bar{Library: lib, MS: ms, Reference: lib == reference}
			if g.MaxMS > 0 {
				b.Percent = ms / g.MaxMS * 100
			}
			if !b.Reference && hasRef && ref > 0 {
				if s := int(math.Round(ms / ref)); s > 1 {
					b.Speedup = s
				}
			}
			g.Bars = append(g.Bars, b)
		}
		chart.Groups = append(chart.Groups, g)
	}
	return chart
}

// libraries returns the reference first, then the rest alphabetically.
func libraries(res extract.BenchmarkResult, reference string) []string {
	var out []string
	if _, ok := res[reference]; ok {
		out = append(out, reference)
	}
	var rest []string
	for lib := range res {
		if lib != reference {
			rest = append(rest, lib)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func operations(res extract.BenchmarkResult) []string {
	seen := make(map[string]bool)
	for _, ops := range res {
		for op := range ops {
			seen[op] = true
		}
	}
	var out []string
	for _, op := range Operations {
		if seen[op] {
			out = append(out, op)
			delete(seen, op)
		}
	}
	var extra []string
	for op := range seen {
		extra = append(extra, op)
	}
	sort.Strings(extra)
	return append(out, extra...)
}
