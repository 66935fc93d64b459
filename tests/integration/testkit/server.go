package testkit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/pagesearch/internal/app"
	"github.com/sha1n/pagesearch/internal/config"
	"github.com/spf13/pflag"
)

// Properties published by SSEService.
const (
	PropBaseURL = "base_url"
	PropSSEURL  = "sse_url"
)

// GetFreePort returns a free port from the kernel
func GetFreePort() (int, error) {
	return getFreePortWithAddr("localhost:0")
}

// MustGetFreePort returns a free port or fails the test
func MustGetFreePort(t testing.TB) int {
	t.Helper()
	port, err := GetFreePort()
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}
	return port
}

func getFreePortWithAddr(addrStr string) (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", addrStr)
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// FlagOptions configures NewServeFlags
type FlagOptions struct {
	Port     int    // Uses free port if 0
	AuthType string // Defaults to "none"
	APIKeys  []string
	Host     string // Defaults to "localhost"
	Root     string // Defaults to "."
}

// NewServeFlags creates the flag set of the serve command configured for
// an SSE server.
func NewServeFlags(t testing.TB, opts *FlagOptions) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	app.RegisterGlobalFlags(flags)
	app.RegisterServeFlags(flags)

	o := FlagOptions{AuthType: config.AuthTypeNone, Host: "localhost", Root: "."}
	if opts != nil {
		if opts.Port != 0 {
			o.Port = opts.Port
		}
		if opts.AuthType != "" {
			o.AuthType = opts.AuthType
		}
		if opts.Host != "" {
			o.Host = opts.Host
		}
		if opts.Root != "" {
			o.Root = opts.Root
		}
		o.APIKeys = opts.APIKeys
	}
	if o.Port == 0 {
		o.Port = MustGetFreePort(t)
	}

	_ = flags.Set("transport", config.TransportSSE)
	_ = flags.Set("port", fmt.Sprintf("%d", o.Port))
	_ = flags.Set("host", o.Host)
	_ = flags.Set("root", o.Root)
	_ = flags.Set("auth-type", o.AuthType)
	for _, k := range o.APIKeys {
		_ = flags.Set("auth-api-keys", k)
	}
	_ = flags.Set("log-level", "error")

	return flags
}

// SSEService runs the MCP SSE server of the serve command in the background.
type SSEService struct {
	settings *config.Settings
	server   *mcp.Server
	http     *http.Server
	done     chan error
}

// NewSSEService creates a service serving s with the given settings.
func NewSSEService(s *mcp.Server, settings *config.Settings) *SSEService {
	return &SSEService{settings: settings, server: s}
}

// GetName identifies the service.
func (s *SSEService) GetName() string {
	return "sse"
}

// Start listens on the configured address and publishes its URLs.
func (s *SSEService) Start() (map[string]any, error) {
	srv, err := app.NewSSEServer(s.server, s.settings)
	if err != nil {
		return nil, err
	}

	l, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, err
	}

	s.http = srv
	s.done = make(chan error, 1)
	go func() {
		s.done <- srv.Serve(l)
	}()

	base := "http://" + l.Addr().String()
	return map[string]any{
		PropBaseURL: base,
		PropSSEURL:  base + app.SSEPath,
	}, nil
}

// Stop shuts the server down, closing open streams after a grace period.
func (s *SSEService) Stop() error {
	if s.http == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		_ = s.http.Close()
	}

	err := <-s.done
	s.http = nil
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
