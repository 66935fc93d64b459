package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/pagesearch/internal/config"
	"github.com/sha1n/pagesearch/internal/hitstore"
	mcputil "github.com/sha1n/pagesearch/internal/mcp"
	"github.com/sha1n/pagesearch/internal/pagesearch"
	"github.com/spf13/pflag"
)

// RunParams contains dependencies for the command runners
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	LoadPolicy        func(path string) (*config.Policy, error)
	StartSSEServer    func(*mcp.Server, *config.Settings) error
	CreateServer      func(*config.Settings, *config.Policy, string) (*mcp.Server, error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO

	Stdout io.Writer
	Stderr io.Writer
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		LoadPolicy:     config.LoadPolicy,
		StartSSEServer: StartSSEServer,
		CreateServer:   CreateMCPServer,
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
	}
}

// setup loads and validates settings and installs the default logger.
func setup(params RunParams, flags *pflag.FlagSet) (*config.Settings, error) {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if err := params.ValidSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Logs always go to stderr; stdout carries results and the stdio transport
	stderr := params.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger, err := config.NewLogger(stderr, settings.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	slog.SetDefault(logger)

	config.Log(settings)
	return settings, nil
}

func loadPolicy(params RunParams) (*config.Policy, error) {
	policy, err := params.LoadPolicy(config.DefaultPolicyPath)
	if err != nil {
		return nil, err
	}
	config.LogPolicy(policy, slog.Default())
	return policy, nil
}

// newEngine builds the pipeline with the export options of settings.
func newEngine(settings *config.Settings, policy *config.Policy) *pagesearch.Engine {
	var sinks []pagesearch.RecordSink
	if settings.Export.SQLite {
		sinks = append(sinks, hitstore.NewSink())
	}
	return pagesearch.NewEngine(policy, pagesearch.Options{
		Logger:   slog.Default(),
		Manifest: settings.Export.Manifest,
		Sinks:    sinks,
	})
}

// RunServe starts the MCP server with the provided dependencies
func RunServe(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, err := setup(params, flags)
	if err != nil {
		return err
	}

	slog.Info("Starting pagesearch MCP server", "version", version)
	config.LogServe(settings, slog.Default())

	policy, err := loadPolicy(params)
	if err != nil {
		return err
	}

	mcpServer, err := params.CreateServer(settings, policy, version)
	if err != nil {
		return err
	}

	if settings.Transport == config.TransportStdio {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return mcpServer.Run(ctx, transport)
	}

	slog.Info("Starting SSE server", "host", settings.Host, "port", settings.Port)
	return params.StartSSEServer(mcpServer, settings)
}

// CreateMCPServer creates the MCP server with the page tools registered
func CreateMCPServer(settings *config.Settings, policy *config.Policy, version string) (*mcp.Server, error) {
	info, err := os.Stat(settings.Root)
	if err != nil {
		return nil, fmt.Errorf("invalid root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("invalid root: %s is not a directory", settings.Root)
	}

	return mcputil.CreateServer(mcputil.ServerConfig{
		Name:    "pagesearch",
		Version: version,
		Root:    settings.Root,
		Engine:  newEngine(settings, policy),
	}), nil
}
