package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/ripview/internal/extract"
	"github.com/ziadkadry99/ripview/internal/extract/extracttest"
	"github.com/ziadkadry99/ripview/internal/layers"
	"github.com/ziadkadry99/ripview/internal/viewer"
)

func newServer(t *testing.T, fake *extracttest.Fake) *Server {
	t.Helper()
	app, err := viewer.New(fake, viewer.Options{})
	if err != nil {
		t.Fatalf("viewer.New: %v", err)
	}
	return NewServer(app)
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	var sb strings.Builder
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

func openDoc(t *testing.T, srv *Server) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statement.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7"), 0644); err != nil {
		t.Fatal(err)
	}
	r, err := srv.handleOpenDocument(context.Background(), call(map[string]any{"path": path}))
	if err != nil || r.IsError {
		t.Fatalf("open_document failed: %v %v", err, r.Content)
	}
	if !strings.Contains(resultText(t, r), "statement.pdf (2 pages)") {
		t.Errorf("unexpected open result %q", resultText(t, r))
	}
}

func TestToolDefinitions(t *testing.T) {
	for _, tool := range []mcp.Tool{openDocumentTool, gotoPageTool, getPageTool, getLayerTool, searchPageTool, benchmarkPageTool} {
		if tool.Name == "" || tool.Description == "" {
			t.Errorf("tool %q needs a name and description", tool.Name)
		}
	}
}

func TestNewServer(t *testing.T) {
	srv := newServer(t, extracttest.New(1))
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
}

func TestGetPageWithoutDocument(t *testing.T) {
	srv := newServer(t, extracttest.New(1))
	r, err := srv.handleGetPage(context.Background(), call(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsError {
		t.Error("expected tool error without a document")
	}
}

func TestOpenAndGoto(t *testing.T) {
	srv := newServer(t, extracttest.New(2))
	openDoc(t, srv)
	ctx := context.Background()

	r, _ := srv.handleGotoPage(ctx, call(map[string]any{"page": 2}))
	if r.IsError || !strings.Contains(resultText(t, r), "Page 2:") {
		t.Errorf("unexpected goto result %q", resultText(t, r))
	}
	r, _ = srv.handleGotoPage(ctx, call(map[string]any{"page": 5}))
	if !r.IsError {
		t.Error("expected out-of-range error")
	}
	r, _ = srv.handleGotoPage(ctx, call(map[string]any{}))
	if !r.IsError {
		t.Error("expected missing page error")
	}

	r, _ = srv.handleGetPage(ctx, call(map[string]any{"layout": false}))
	if !strings.Contains(resultText(t, r), "page 2 text") {
		t.Errorf("expected page text, got %q", resultText(t, r))
	}
}

func TestOpenMissingFile(t *testing.T) {
	srv := newServer(t, extracttest.New(1))
	r, _ := srv.handleOpenDocument(context.Background(), call(map[string]any{"path": "/does/not/exist.pdf"}))
	if !r.IsError {
		t.Error("expected error for missing file")
	}
}

func TestGetLayerFetchesOnDemand(t *testing.T) {
	fake := extracttest.New(2)
	fake.LayerData[layers.Rects] = []layers.Record{
		layers.Rect{X0: 1, Top: 1, X1: 5, Bottom: 5},
		layers.Rect{X0: 6, Top: 6, X1: 9, Bottom: 9},
	}
	srv := newServer(t, fake)
	openDoc(t, srv)
	ctx := context.Background()

	r, err := srv.handleGetLayer(ctx, call(map[string]any{"layer": "rects", "limit": 1}))
	if err != nil || r.IsError {
		t.Fatalf("get_layer failed: %v %v", err, r.Content)
	}
	text := resultText(t, r)
	if !strings.Contains(text, "2 record(s), showing the first 1") {
		t.Errorf("unexpected layer result %q", text)
	}
	if fake.LayerCount(layers.Rects) != 1 {
		t.Errorf("expected one rects fetch, got %d", fake.LayerCount(layers.Rects))
	}

	// A second call reuses the fetched geometry.
	srv.handleGetLayer(ctx, call(map[string]any{"layer": "rects"}))
	if fake.LayerCount(layers.Rects) != 1 {
		t.Errorf("rects should not be refetched, got %d", fake.LayerCount(layers.Rects))
	}

	r, _ = srv.handleGetLayer(ctx, call(map[string]any{"layer": "glyphs"}))
	if !r.IsError {
		t.Error("expected unknown layer error")
	}
}

func TestGetLayerFailure(t *testing.T) {
	fake := extracttest.New(2)
	fake.LayerErr[layers.Edges] = &extract.RejectedError{Op: "edges", StatusCode: 500, Detail: "edge detection failed"}
	srv := newServer(t, fake)
	openDoc(t, srv)

	r, _ := srv.handleGetLayer(context.Background(), call(map[string]any{"layer": "edges"}))
	if !r.IsError || !strings.Contains(resultText(t, r), "edge detection failed") {
		t.Errorf("expected layer failure detail, got %q", resultText(t, r))
	}
}

func TestSearchAndBenchmark(t *testing.T) {
	fake := extracttest.New(2)
	fake.BenchResult = extract.BenchmarkResult{
		"ripdoc":     {"extract_words": 3},
		"pdfplumber": {"extract_words": 30},
	}
	srv := newServer(t, fake)
	openDoc(t, srv)
	ctx := context.Background()

	r, _ := srv.handleSearchPage(ctx, call(map[string]any{"query": "balance"}))
	if !strings.Contains(resultText(t, r), `1 match(es) for "balance"`) {
		t.Errorf("unexpected search result %q", resultText(t, r))
	}
	r, _ = srv.handleSearchPage(ctx, call(map[string]any{"query": ""}))
	if resultText(t, r) != "Search cleared." {
		t.Errorf("unexpected clear result %q", resultText(t, r))
	}

	r, _ = srv.handleBenchmarkPage(ctx, call(map[string]any{}))
	if r.IsError || !strings.Contains(resultText(t, r), "ripdoc is 10x faster") {
		t.Errorf("unexpected benchmark result %q", resultText(t, r))
	}
}
