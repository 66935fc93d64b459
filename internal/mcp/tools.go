package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/pagesearch/internal/domain"
	"github.com/sha1n/pagesearch/internal/pagesearch"
)

// SearchArgument defines the search_pages parameters.
type SearchArgument struct {
	Terms     []string `json:"terms" jsonschema:"search strings; each is matched case-sensitively as a substring of a text line"`
	Input     string   `json:"input,omitempty" jsonschema:"directory with the layout documents, relative to the server root"`
	Recursive bool     `json:"recursive,omitempty" jsonschema:"also scan subdirectories"`
}

// ExportArgument defines the export_pages parameters.
type ExportArgument struct {
	Terms     []string `json:"terms" jsonschema:"search strings; each is matched case-sensitively as a substring of a text line"`
	Input     string   `json:"input,omitempty" jsonschema:"directory with the layout documents, relative to the server root"`
	Output    string   `json:"output" jsonschema:"directory receiving the renumbered files and results.csv, relative to the server root"`
	Recursive bool     `json:"recursive,omitempty" jsonschema:"also scan subdirectories"`
}

// SearchHandler handles the search_pages tool.
type SearchHandler struct {
	engine *pagesearch.Engine
	root   string
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(engine *pagesearch.Engine, root string) *SearchHandler {
	return &SearchHandler{engine: engine, root: root}
}

// Handle runs a console search and returns the rendered hits.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	input, err := ResolvePath(h.root, args.Input)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	out, err := h.engine.Run(ctx, pagesearch.Request{
		Terms:     args.Terms,
		InputDir:  input,
		Console:   true,
		Recursive: args.Recursive,
	})
	if err != nil {
		return outcomeError(err), nil, nil
	}

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Found %d hits in %d of %d documents:\n\n",
		out.Search.Results.TotalHits(), out.Search.Results.Len(), out.Search.Scanned)
	pagesearch.NewReporter(&buf, false).Report(relativeResults(h.root, out.Search.Results))
	writeFailures(&buf, h.root, out.Search.Failures)

	return textResult(buf.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_pages",
		Description: "Search the text lines of PAGE layout documents for exact, case-sensitive substrings",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, engine *pagesearch.Engine, root string) {
	handler := NewSearchHandler(engine, root)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// ExportHandler handles the export_pages tool.
type ExportHandler struct {
	engine *pagesearch.Engine
	root   string
}

// NewExportHandler creates a new export handler.
func NewExportHandler(engine *pagesearch.Engine, root string) *ExportHandler {
	return &ExportHandler{engine: engine, root: root}
}

// Handle runs a search and exports the matching documents.
func (h *ExportHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ExportArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Output) == "" {
		return outcomeError(pagesearch.ErrNoOutputDirectory), nil, nil
	}

	input, err := ResolvePath(h.root, args.Input)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	output, err := ResolvePath(h.root, args.Output)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	out, err := h.engine.Run(ctx, pagesearch.Request{
		Terms:     args.Terms,
		InputDir:  input,
		OutputDir: output,
		Recursive: args.Recursive,
	})
	if err != nil {
		return outcomeError(err), nil, nil
	}

	summary := *out.Export
	summary.CSVPath = displayPath(h.root, summary.CSVPath)

	var buf bytes.Buffer
	pagesearch.NewReporter(&buf, false).Done(&summary)
	for _, m := range summary.Missing {
		_, _ = fmt.Fprintf(&buf, "skip %s (rule %s)\n", displayPath(h.root, m.Source), m.Rule)
	}
	for _, c := range summary.CopyFailures {
		_, _ = fmt.Fprintf(&buf, "skip %s (rule %s): %v\n", displayPath(h.root, c.Source), c.Rule, c.Err)
	}
	for _, rerr := range summary.RewriteFailures {
		_, _ = fmt.Fprintf(&buf, "rewrite failed: %s\n", rerr)
	}
	writeFailures(&buf, h.root, out.Search.Failures)

	return textResult(buf.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ExportHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "export_pages",
		Description: "Search PAGE layout documents and copy every matching document with its sibling files into an output directory under sequential ids, writing results.csv",
	}
}

// RegisterExportTool registers the export tool with an MCP server.
func RegisterExportTool(server *mcp.Server, engine *pagesearch.Engine, root string) {
	handler := NewExportHandler(engine, root)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// outcomeError maps pipeline errors to tool results. Nothing found is a
// regular answer, the other conditions are reported as tool errors.
func outcomeError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, pagesearch.ErrNothingFound):
		return textResult("Nothing found!")
	case errors.Is(err, pagesearch.ErrEmptySearch):
		return errorResult("Search empty!")
	case errors.Is(err, pagesearch.ErrNoOutputDirectory):
		return errorResult("No output directory set!")
	default:
		return errorResult(err.Error())
	}
}

func relativeResults(root string, rs *domain.ResultSet) *domain.ResultSet {
	var entries []domain.DocumentHits
	rs.Each(func(path string, hits []domain.Hit) {
		entries = append(entries, domain.DocumentHits{Path: displayPath(root, path), Hits: hits})
	})
	return domain.NewResultSet(entries)
}

func writeFailures(buf *bytes.Buffer, root string, failures []pagesearch.DocumentFailure) {
	if len(failures) == 0 {
		return
	}
	_, _ = fmt.Fprintf(buf, "\nSkipped %d unreadable documents:\n", len(failures))
	for _, f := range failures {
		_, _ = fmt.Fprintf(buf, "- %s\n", displayPath(root, f.Path))
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
