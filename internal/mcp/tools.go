package mcp

import "github.com/mark3labs/mcp-go/mcp"

var openDocumentTool = mcp.NewTool("open_document",
	mcp.WithDescription("Upload a PDF from disk to the extraction service and show its first page."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path to the PDF file"),
	),
)

var gotoPageTool = mcp.NewTool("goto_page",
	mcp.WithDescription("Show a page of the open document."),
	mcp.WithNumber("page",
		mcp.Required(),
		mcp.Description("1-based page number"),
	),
)

var getPageTool = mcp.NewTool("get_page",
	mcp.WithDescription("Describe the current page: size, character count, layer status and extracted text."),
	mcp.WithBoolean("layout",
		mcp.Description("Return layout-preserving text instead of plain text (default true)"),
	),
)

var getLayerTool = mcp.NewTool("get_layer",
	mcp.WithDescription("Return the geometry extracted for one layer of the current page, fetching it if needed."),
	mcp.WithString("layer",
		mcp.Required(),
		mcp.Description("Layer to return"),
		mcp.Enum("chars", "words", "lines", "rects", "edges", "tables", "search"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of records to return (default 50)"),
	),
)

var searchPageTool = mcp.NewTool("search_page",
	mcp.WithDescription("Search the current page for text and highlight the matches."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Text to search for; empty clears the search"),
	),
)

var benchmarkPageTool = mcp.NewTool("benchmark_page",
	mcp.WithDescription("Time the extraction libraries against each other on the current page."),
)
