package pagesearch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sha1n/pagesearch/internal/config"
)

// Scanner enumerates the layout documents below an input root.
type Scanner struct {
	policy *config.Policy
}

// NewScanner creates a scanner applying the policy's extension and exclusions.
func NewScanner(policy *config.Policy) *Scanner {
	return &Scanner{policy: policy}
}

// Scan returns the paths of all documents below root, sorted lexicographically.
// Without recursive only the immediate entries of root are considered.
// Unreadable subdirectories are skipped. A symlinked root is followed and
// the returned paths stay below root as given.
func (s *Scanner) Scan(root string, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &ScanError{Root: root, Err: errors.New("not a directory")}
	}

	// WalkDir does not descend into a root that is a symlink
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}

	var paths []string
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == walkRoot {
				return err
			}
			return nil
		}

		relPath, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if path == walkRoot {
				return nil
			}
			if !recursive || s.policy.IsExcludedPath(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if !s.policy.IsPrimaryDocument(name) {
			return nil
		}
		if s.policy.IsExcludedFile(name) || s.policy.IsExcludedPath(relPath) {
			return nil
		}

		paths = append(paths, filepath.Join(root, relPath))
		return nil
	})
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}

	sort.Strings(paths)
	return paths, nil
}
