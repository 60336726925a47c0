package extract

import (
	"context"
	"io"

	"github.com/ziadkadry99/ripview/internal/layers"
)

// Service is the extraction backend contract consumed by the viewer.
type Service interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error)
	PageInfo(ctx context.Context, page int) (*PageInfo, error)
	PageText(ctx context.Context, page int, layout bool) (*TextResult, error)
	Layer(ctx context.Context, page int, layer layers.Layer) (*LayerResult, error)
	Search(ctx context.Context, page int, query string) (*LayerResult, error)
	Libraries(ctx context.Context) ([]string, error)
	Benchmark(ctx context.Context, page, iterations int) (BenchmarkResult, error)
	PDFFile(ctx context.Context) (io.ReadCloser, error)
}

// UploadResult describes a freshly registered document.
type UploadResult struct {
	PageCount int            `json:"page_count"`
	Metadata  map[string]any `json:"metadata"`
	Filename  string         `json:"filename"`
}

// PageInfo is the intrinsic geometry of one page, in points.
type PageInfo struct {
	PageNumber int        `json:"page_number"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	CharCount  int        `json:"char_count"`
	BBox       [4]float64 `json:"bbox"`
}

// TextResult is extracted page text with the server-side timing.
type TextResult struct {
	Text     string  `json:"text"`
	TimingMS float64 `json:"timing_ms"`
}

// LayerResult is one layer's geometry with the server-side timing.
type LayerResult struct {
	Layer    layers.Layer
	Records  []layers.Record
	TimingMS float64
}

// BenchmarkResult maps library -> operation -> elapsed milliseconds.
type BenchmarkResult map[string]map[string]float64
