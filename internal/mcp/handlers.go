package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/ripview/internal/extract"
	"github.com/ziadkadry99/ripview/internal/layers"
	"github.com/ziadkadry99/ripview/internal/session"
	"github.com/ziadkadry99/ripview/internal/viewer"
)

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(extract.UserMessage(err))
}

// handleOpenDocument uploads a PDF from disk.
func (s *Server) handleOpenDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot open %s: %v", path, err)), nil
	}
	defer f.Close()

	if err := s.app.Open(ctx, filepath.Base(path), f); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(describePage(s.app.Session.Snapshot(), true)), nil
}

// handleGotoPage navigates to a page.
func (s *Server) handleGotoPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := request.GetInt("page", 0)
	if page == 0 {
		return mcp.NewToolResultError("missing required parameter: page"), nil
	}
	if err := s.app.Goto(ctx, page); err != nil && !viewer.Silent(err) {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(describePage(s.app.Session.Snapshot(), false)), nil
}

// handleGetPage describes the current page.
func (s *Server) handleGetPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.app.Session.Snapshot()
	if snap.Document == nil {
		return toolError(session.ErrNoDocument), nil
	}
	return mcp.NewToolResultText(describePage(snap, request.GetBool("layout", true))), nil
}

// handleGetLayer returns one layer's records, fetching the layer if needed.
func (s *Server) handleGetLayer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("layer")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: layer"), nil
	}
	l, err := layers.Parse(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := request.GetInt("limit", 50)
	if limit <= 0 {
		limit = 50
	}

	snap := s.app.Session.Snapshot()
	if !snap.Ready() {
		return toolError(viewer.ErrNotReady), nil
	}
	if !snap.Status(l).Visible {
		if _, err := s.app.Session.ToggleLayer(ctx, l); err != nil {
			return toolError(err), nil
		}
		snap = s.app.Session.Snapshot()
	}

	st := snap.Status(l)
	if st.Error != "" {
		return mcp.NewToolResultError(st.Error), nil
	}
	recs := snap.Entries[l].Records
	shown := recs
	if len(shown) > limit {
		shown = shown[:limit]
	}
	data, err := json.MarshalIndent(shown, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding records: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Layer %s on page %d: %d record(s)", l, snap.Page.Number, len(recs))
	if len(recs) > limit {
		fmt.Fprintf(&sb, ", showing the first %d", limit)
	}
	if st.TimingMS > 0 {
		fmt.Fprintf(&sb, ", extracted in %.2f ms", st.TimingMS)
	}
	sb.WriteString("\n\n")
	sb.Write(data)
	return mcp.NewToolResultText(sb.String()), nil
}

// handleSearchPage runs a search immediately.
func (s *Server) handleSearchPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if err := s.app.Search.Submit(ctx, query); err != nil {
		return toolError(err), nil
	}
	st := s.app.Search.Status()
	if st.Query == "" {
		return mcp.NewToolResultText("Search cleared."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d match(es) for %q. Use get_layer with layer=search for their positions.", st.Matches, st.Query)), nil
}

// handleBenchmarkPage runs the library comparison.
func (s *Server) handleBenchmarkPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.app.Session.Snapshot()
	if !snap.Ready() {
		return toolError(viewer.ErrNotReady), nil
	}
	chart, err := s.app.Bench.Run(ctx, snap.Page.Number)
	if err != nil {
		return toolError(err), nil
	}
	if chart == nil {
		return mcp.NewToolResultError("the page changed while the benchmark was running"), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Benchmark for page %d (reference %s):\n", snap.Page.Number, chart.Reference)
	for _, g := range chart.Groups {
		fmt.Fprintf(&sb, "\n%s\n", g.Operation)
		for _, b := range g.Bars {
			fmt.Fprintf(&sb, "  %-14s %9.2f ms", b.Library, b.MS)
			if b.Speedup > 1 {
				fmt.Fprintf(&sb, "  (%s is %dx faster)", chart.Reference, b.Speedup)
			}
			sb.WriteString("\n")
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// describePage formats a snapshot for agent consumption.
func describePage(snap session.Snapshot, layout bool) string {
	var sb strings.Builder
	if snap.Document == nil {
		return "No document is open."
	}
	fmt.Fprintf(&sb, "Document: %s (%d pages)\n", snap.Document.Filename, snap.Document.PageCount)
	if snap.Page == nil {
		sb.WriteString("No page is loaded.\n")
		return sb.String()
	}
	p := snap.Page
	fmt.Fprintf(&sb, "Page %d: %.0f x %.0f pt, %d characters\n", p.Number, p.Width, p.Height, p.CharCount)

	sb.WriteString("\nLayers:\n")
	for _, ls := range snap.Layers {
		state := "hidden"
		if ls.Visible {
			state = "visible"
		}
		switch {
		case ls.Error != "":
			fmt.Fprintf(&sb, "  %-7s %s, failed: %s\n", ls.Layer, state, ls.Error)
		case ls.Fetched:
			fmt.Fprintf(&sb, "  %-7s %s, %d record(s)\n", ls.Layer, state, ls.Count)
		default:
			fmt.Fprintf(&sb, "  %-7s %s, not fetched\n", ls.Layer, state)
		}
	}

	text := snap.Text.Simple
	if layout {
		text = snap.Text.Layout
	}
	sb.WriteString("\nText:\n")
	sb.WriteString(text)
	sb.WriteString("\n")
	return sb.String()
}
