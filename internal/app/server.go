package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/pagesearch/internal/auth"
	"github.com/sha1n/pagesearch/internal/config"
)

// HealthPath answers liveness probes without authentication.
const HealthPath = "/health"

// SSEPath serves the MCP SSE transport.
const SSEPath = "/sse"

// StartSSEServer starts the SSE server with authentication
func StartSSEServer(s *mcp.Server, settings *config.Settings) error {
	srv, err := NewSSEServer(s, settings)
	if err != nil {
		return err
	}

	slog.Info("Server listening (HTTP)", "addr", srv.Addr, "auth", config.AuthSettingsLogValue(settings.Auth))
	return srv.ListenAndServe()
}

// NewSSEServer creates the HTTP server exposing the MCP server over SSE
func NewSSEServer(s *mcp.Server, settings *config.Settings) (*http.Server, error) {
	authMiddleware, err := auth.NewMiddleware(settings.Auth, HealthPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth middleware: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle(SSEPath, mcp.NewSSEHandler(func(*http.Request) *mcp.Server {
		return s
	}, nil))

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", settings.Host, settings.Port),
		Handler:           authMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}
