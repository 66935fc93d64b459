package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/pagesearch/internal/pagesearch"
)

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name    string
	Version string

	// Root confines the input and output paths accepted by the tools.
	Root   string
	Engine *pagesearch.Engine
}

// CreateServer creates the MCP server and registers the page tools
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.Engine != nil {
		RegisterSearchTool(s, cfg.Engine, cfg.Root)
		RegisterExportTool(s, cfg.Engine, cfg.Root)
	}

	return s
}
