package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/pagesearch/internal/config"
	"github.com/spf13/pflag"
)

// noopValidate is a no-op validation function for tests
func noopValidate(*config.Settings) error {
	return nil
}

func testSettings(transport string) *config.Settings {
	return &config.Settings{LogLevel: "error", Color: config.ColorNever, Transport: transport, Root: "."}
}

func loadSettingsFunc(s *config.Settings) func(*pflag.FlagSet) (*config.Settings, error) {
	return func(*pflag.FlagSet) (*config.Settings, error) { return s, nil }
}

func defaultPolicy(string) (*config.Policy, error) {
	return config.DefaultPolicy(), nil
}

func newMCPServer(*config.Settings, *config.Policy, string) (*mcp.Server, error) {
	return mcp.NewServer(&mcp.Implementation{Name: "test", Version: "1.0"}, nil), nil
}

func TestRunServe_ErrorCases(t *testing.T) {
	tests := []struct {
		name           string
		params         RunParams
		wantErrContain string
	}{
		{
			name: "LoadSettings error",
			params: RunParams{
				LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
					return nil, errors.New("settings error")
				},
				ValidSettings: noopValidate,
			},
			wantErrContain: "settings error",
		},
		{
			name: "ValidSettings error",
			params: RunParams{
				LoadSettings: loadSettingsFunc(testSettings(config.TransportStdio)),
				ValidSettings: func(*config.Settings) error {
					return errors.New("validation error")
				},
			},
			wantErrContain: "invalid configuration",
		},
		{
			name: "LoadPolicy error",
			params: RunParams{
				LoadSettings:  loadSettingsFunc(testSettings(config.TransportStdio)),
				ValidSettings: noopValidate,
				LoadPolicy: func(path string) (*config.Policy, error) {
					return nil, &config.ConfigError{Path: path, Err: errors.New("missing")}
				},
			},
			wantErrContain: config.DefaultPolicyPath,
		},
		{
			name: "CreateServer error",
			params: RunParams{
				LoadSettings:  loadSettingsFunc(testSettings(config.TransportStdio)),
				ValidSettings: noopValidate,
				LoadPolicy:    defaultPolicy,
				CreateServer: func(*config.Settings, *config.Policy, string) (*mcp.Server, error) {
					return nil, errors.New("create error")
				},
			},
			wantErrContain: "create error",
		},
		{
			name: "StartSSEServer error",
			params: RunParams{
				LoadSettings:  loadSettingsFunc(testSettings(config.TransportSSE)),
				ValidSettings: noopValidate,
				LoadPolicy:    defaultPolicy,
				CreateServer:  newMCPServer,
				StartSSEServer: func(*mcp.Server, *config.Settings) error {
					return errors.New("sse start error")
				},
			},
			wantErrContain: "sse start error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.params.Stderr = io.Discard
			err := RunServe(context.Background(), tt.params, nil, "test")
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErrContain)
			}
			if !strings.Contains(err.Error(), tt.wantErrContain) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErrContain, err.Error())
			}
		})
	}
}

func TestRunServe_SSEReceivesSettings(t *testing.T) {
	settings := testSettings(config.TransportSSE)
	var got *config.Settings
	params := RunParams{
		LoadSettings:  loadSettingsFunc(settings),
		ValidSettings: noopValidate,
		LoadPolicy:    defaultPolicy,
		CreateServer:  newMCPServer,
		StartSSEServer: func(_ *mcp.Server, s *config.Settings) error {
			got = s
			return nil
		},
		Stderr: io.Discard,
	}

	if err := RunServe(context.Background(), params, nil, "test"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != settings {
		t.Error("Expected StartSSEServer to receive the loaded settings")
	}
}

func TestRunServe_StdioWithCustomTransport(t *testing.T) {
	transportUsed := false
	params := RunParams{
		LoadSettings:      loadSettingsFunc(testSettings(config.TransportStdio)),
		ValidSettings:     noopValidate,
		LoadPolicy:        defaultPolicy,
		CreateServer:      newMCPServer,
		CustomIOTransport: &mockTransport{connectCalled: &transportUsed},
		Stderr:            io.Discard,
	}

	// Use a cancelled context to avoid hanging
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = RunServe(ctx, params, nil, "test")

	if !transportUsed {
		t.Error("Custom transport Connect was not called")
	}
}

func TestDefaultRunParams(t *testing.T) {
	params := DefaultRunParams()

	if params.LoadSettings == nil {
		t.Error("LoadSettings is nil")
	}
	if params.ValidSettings == nil {
		t.Error("ValidSettings is nil")
	}
	if params.LoadPolicy == nil {
		t.Error("LoadPolicy is nil")
	}
	if params.StartSSEServer == nil {
		t.Error("StartSSEServer is nil")
	}
	if params.CreateServer == nil {
		t.Error("CreateServer is nil")
	}
	if params.Stdout == nil || params.Stderr == nil {
		t.Error("Stdout and Stderr must be set")
	}
}

func TestCreateMCPServer(t *testing.T) {
	settings := testSettings(config.TransportStdio)
	settings.Root = t.TempDir()

	server, err := CreateMCPServer(settings, config.DefaultPolicy(), "test")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if server == nil {
		t.Error("Expected server to be created")
	}
}

func TestCreateMCPServer_InvalidRoot(t *testing.T) {
	settings := testSettings(config.TransportStdio)
	settings.Root = t.TempDir() + "/missing"

	if _, err := CreateMCPServer(settings, config.DefaultPolicy(), "test"); err == nil {
		t.Error("Expected error for missing root")
	}
}

// mockTransport implements mcp.Transport for testing
type mockTransport struct {
	connectCalled *bool
}

func (m *mockTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	if m.connectCalled != nil {
		*m.connectCalled = true
	}
	return nil, errors.New("mock transport - no real connection")
}
