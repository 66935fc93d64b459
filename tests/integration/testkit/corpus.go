package testkit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sha1n/pagesearch/internal/pagexml"
)

// Corpus is a directory of PAGE documents and their sibling files.
type Corpus struct {
	t   testing.TB
	Dir string
}

// NewCorpus creates an empty corpus in a temporary directory.
func NewCorpus(t testing.TB) *Corpus {
	t.Helper()
	return &Corpus{t: t, Dir: t.TempDir()}
}

// AddPage writes a PAGE document at rel (slash separated, with extension)
// whose image reference is the document name with a .jpg extension.
func (c *Corpus) AddPage(rel string, lines ...string) string {
	c.t.Helper()
	base := filepath.Base(rel)
	image := base[:len(base)-len(filepath.Ext(base))] + ".jpg"
	return c.AddFile(rel, pagexml.BuildDocument(image, lines...))
}

// AddImage writes a placeholder sibling next to the document at rel.
func (c *Corpus) AddImage(rel string) string {
	c.t.Helper()
	return c.AddFile(rel, []byte("image:"+rel))
}

// AddFile writes data to rel below the corpus directory.
func (c *Corpus) AddFile(rel string, data []byte) string {
	c.t.Helper()
	path := c.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		c.t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		c.t.Fatalf("Failed to write %s: %v", rel, err)
	}
	return path
}

// Path returns the absolute path of rel below the corpus directory.
func (c *Corpus) Path(rel string) string {
	return filepath.Join(c.Dir, filepath.FromSlash(rel))
}
