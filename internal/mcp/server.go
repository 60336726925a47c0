// Package mcp exposes a viewer to AI agents over the Model Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/ripview/internal/viewer"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server whose tools drive one viewer.
type Server struct {
	app *viewer.App
	mcp *server.MCPServer
}

// NewServer creates a new MCP server for app.
func NewServer(app *viewer.App) *Server {
	s := &Server{app: app}

	s.mcp = server.NewMCPServer(
		"ripview",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(openDocumentTool, s.handleOpenDocument)
	s.mcp.AddTool(gotoPageTool, s.handleGotoPage)
	s.mcp.AddTool(getPageTool, s.handleGetPage)
	s.mcp.AddTool(getLayerTool, s.handleGetLayer)
	s.mcp.AddTool(searchPageTool, s.handleSearchPage)
	s.mcp.AddTool(benchmarkPageTool, s.handleBenchmarkPage)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
