// Package history persists benchmark comparisons so runs can be compared
// across documents and over time.
package history

import (
	"time"

	"github.com/ziadkadry99/ripview/internal/benchmark"
	"github.com/ziadkadry99/ripview/internal/extract"
)

// Run is one recorded benchmark comparison for a single page.
type Run struct {
	ID         string                  `json:"id"`
	RecordedAt time.Time               `json:"recorded_at"`
	Document   string                  `json:"document"`
	DocumentID string                  `json:"document_id,omitempty"`
	Page       int                     `json:"page"`
	Reference  string                  `json:"reference"`
	Timings    extract.BenchmarkResult `json:"timings"`
}

// Chart normalises the recorded timings for display.
func (r Run) Chart() benchmark.Chart {
	return benchmark.Normalize(r.Timings, r.Reference)
}

// FromChart rebuilds raw timings from a normalised chart.
func FromChart(document, documentID string, page int, c benchmark.Chart) Run {
	timings := make(extract.BenchmarkResult)
	for _, g := range c.Groups {
		for _, b := range g.Bars {
			if timings[b.Library] == nil {
				timings[b.Library] = make(map[string]float64)
			}
			timings[b.Library][g.Operation] = b.MS
		}
	}
	return Run{
		Document:   document,
		DocumentID: documentID,
		Page:       page,
		Reference:  c.Reference,
		Timings:    timings,
	}
}
