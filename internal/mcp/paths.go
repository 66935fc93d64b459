package mcp

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolvePath resolves p against root and rejects paths outside of root.
// The check is lexical; symbolic links are not followed.
func ResolvePath(root, p string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root: %w", err)
	}

	if strings.TrimSpace(p) == "" {
		return absRoot, nil
	}

	resolved := p
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(absRoot, resolved)
	}
	resolved = filepath.Clean(resolved)

	rel, err := filepath.Rel(absRoot, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside of the server root", p)
	}
	return resolved, nil
}

// displayPath renders path relative to root for tool output.
func displayPath(root, path string) string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(absRoot, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
