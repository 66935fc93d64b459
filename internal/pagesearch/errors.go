package pagesearch

import (
	"errors"
	"fmt"

	"github.com/sha1n/pagesearch/internal/config"
)

// Terminal outcomes of a run. They are not failures: the run ends without
// output artifacts and the caller reports the condition to the user.
var (
	ErrEmptySearch       = errors.New("search empty")
	ErrNoOutputDirectory = errors.New("no output directory set")
	ErrNothingFound      = errors.New("nothing found")
)

// ErrOutputLocked is returned when another export holds the output directory.
var ErrOutputLocked = errors.New("output directory is locked by another export")

// IsNoOp reports whether err is one of the terminal no-op outcomes.
func IsNoOp(err error) bool {
	return errors.Is(err, ErrEmptySearch) ||
		errors.Is(err, ErrNoOutputDirectory) ||
		errors.Is(err, ErrNothingFound)
}

// ScanError reports an input root that is missing or not a directory.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// MissingSiblingError records a copy rule whose source file does not exist.
type MissingSiblingError struct {
	Document string
	Source   string
	Rule     config.CopyRule
}

func (e *MissingSiblingError) Error() string {
	return fmt.Sprintf("skip %s: file not found (rule %s)", e.Source, e.Rule)
}

// CopyError records a copy rule whose source file exists but could not be
// copied.
type CopyError struct {
	Document string
	Source   string
	Rule     config.CopyRule
	Err      error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("skip %s: %v (rule %s)", e.Source, e.Err, e.Rule)
}

func (e *CopyError) Unwrap() error {
	return e.Err
}

// DocumentFailure records a document that was skipped during aggregation.
type DocumentFailure struct {
	Path string
	Err  error
}
