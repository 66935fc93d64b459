package pagesearch

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/sha1n/pagesearch/internal/config"
	"github.com/sha1n/pagesearch/internal/pagexml"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPolicy() *config.Policy {
	return config.DefaultPolicy()
}

// writePage writes a PAGE document with the given lines to dir/rel,
// creating parent directories as needed.
func writePage(t *testing.T, dir, rel string, lines ...string) string {
	t.Helper()
	base := filepath.Base(rel)
	image := base[:len(base)-len(filepath.Ext(base))] + ".jpg"
	return writeFile(t, dir, rel, pagexml.BuildDocument(image, lines...))
}

func writeFile(t *testing.T, dir, rel string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
