package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/sha1n/pagesearch/internal/config"
	"github.com/sha1n/pagesearch/internal/pagesearch"
	"github.com/spf13/pflag"
)

// Console messages for the runs that end without output.
const (
	MsgSearchEmpty       = "Search empty!"
	MsgNoOutputDirectory = "No output directory set!"
	MsgNothingFound      = "Nothing found!"
)

// SearchArgs are the positional arguments and switches of the search command.
type SearchArgs struct {
	SearchFile string
	Input      string
	Output     string
	Console    bool
	Recursive  bool
}

// RunSearch runs a search and either prints the hits or exports them.
func RunSearch(ctx context.Context, params RunParams, flags *pflag.FlagSet, args SearchArgs) error {
	settings, err := setup(params, flags)
	if err != nil {
		return err
	}

	stdout := stdoutOf(params)
	reporter := pagesearch.NewReporter(stdout, ColorEnabled(settings.Color, stdout))

	terms, err := pagesearch.LoadTerms(args.SearchFile)
	if err != nil {
		return err
	}

	policy, err := loadPolicy(params)
	if err != nil {
		return err
	}

	req := pagesearch.Request{
		Terms:     terms,
		Console:   args.Console,
		Recursive: args.Recursive,
	}
	if req.InputDir, err = filepath.Abs(args.Input); err != nil {
		return fmt.Errorf("invalid input path: %w", err)
	}
	if args.Output != "" {
		if req.OutputDir, err = filepath.Abs(args.Output); err != nil {
			return fmt.Errorf("invalid output path: %w", err)
		}
	}

	out, err := newEngine(settings, policy).Run(ctx, req)
	if err != nil {
		if msg, ok := noOpMessage(err); ok {
			reporter.Message(msg)
			return nil
		}
		return err
	}

	if out.Export == nil {
		reporter.Report(out.Search.Results)
		return nil
	}
	reporter.Done(out.Export)
	return nil
}

func noOpMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, pagesearch.ErrEmptySearch):
		return MsgSearchEmpty, true
	case errors.Is(err, pagesearch.ErrNoOutputDirectory):
		return MsgNoOutputDirectory, true
	case errors.Is(err, pagesearch.ErrNothingFound):
		return MsgNothingFound, true
	}
	return "", false
}

// ColorEnabled decides whether output written to w is colored. In auto
// mode only terminals get colors, and NO_COLOR disables them.
func ColorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}

	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
