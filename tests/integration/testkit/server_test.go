package testkit

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/pagesearch/internal/config"
)

func TestGetFreePort(t *testing.T) {
	port, err := GetFreePort()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if port <= 0 {
		t.Errorf("Expected positive port, got %d", port)
	}
}

func TestGetFreePortWithAddr_InvalidAddr(t *testing.T) {
	if _, err := getFreePortWithAddr("invalid:address:format"); err == nil {
		t.Error("Expected error for invalid address")
	}
}

func TestNewServeFlags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		flags := NewServeFlags(t, nil)

		expect := map[string]string{
			"transport": "sse",
			"auth-type": "none",
			"host":      "localhost",
			"root":      ".",
			"log-level": "error",
		}
		for name, want := range expect {
			if got, _ := flags.GetString(name); got != want {
				t.Errorf("Expected %s %q, got %q", name, want, got)
			}
		}
		if port, _ := flags.GetInt("port"); port <= 0 {
			t.Errorf("Expected positive port, got %d", port)
		}
	})

	t.Run("custom", func(t *testing.T) {
		flags := NewServeFlags(t, &FlagOptions{
			Port:     9999,
			AuthType: "apikey",
			APIKeys:  []string{"k1", "k2"},
			Root:     "/srv/pages",
		})

		if port, _ := flags.GetInt("port"); port != 9999 {
			t.Errorf("Expected port 9999, got %d", port)
		}
		if keys, _ := flags.GetStringSlice("auth-api-keys"); len(keys) != 2 {
			t.Errorf("Expected 2 api keys, got %v", keys)
		}
		if root, _ := flags.GetString("root"); root != "/srv/pages" {
			t.Errorf("Expected root '/srv/pages', got %q", root)
		}
	})
}

func TestNewServeFlags_LoadSettings(t *testing.T) {
	flags := NewServeFlags(t, &FlagOptions{AuthType: "apikey", APIKeys: []string{"k1"}})

	settings, err := config.LoadSettingsWithFlags(flags)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := config.ValidateSettings(settings); err != nil {
		t.Fatalf("Expected valid settings, got %v", err)
	}
	if settings.Transport != config.TransportSSE || settings.Auth.Type != config.AuthTypeAPIKey {
		t.Errorf("Unexpected settings: %+v", settings)
	}
}

func TestSSEService(t *testing.T) {
	settings := &config.Settings{Host: "localhost", Port: MustGetFreePort(t)}
	svc := NewSSEService(mcp.NewServer(&mcp.Implementation{Name: "test", Version: "1.0"}, nil), settings)
	env := NewTestEnv(svc)

	props, err := env.Start()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer func() {
		if err := env.Stop(); err != nil {
			t.Errorf("Unexpected stop error: %v", err)
		}
	}()

	resp, err := http.Get(props[PropBaseURL].(string) + "/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("Unexpected health response: %d %q", resp.StatusCode, body)
	}
}

func TestCorpus(t *testing.T) {
	c := NewCorpus(t)
	doc := c.AddPage("book/0001.xml", "Hello")
	img := c.AddImage("book/0001.jpg")

	if doc != filepath.Join(c.Dir, "book", "0001.xml") {
		t.Errorf("Unexpected document path %q", doc)
	}
	for _, p := range []string{doc, img} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Expected %s to exist: %v", p, err)
		}
	}
}
