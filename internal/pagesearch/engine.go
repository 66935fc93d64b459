package pagesearch

import (
	"context"
	"log/slog"

	"github.com/sha1n/pagesearch/internal/config"
	"github.com/sha1n/pagesearch/internal/domain"
	"github.com/sha1n/pagesearch/internal/pagexml"
)

// Options configures an Engine.
type Options struct {
	Logger   *slog.Logger
	Manifest bool
	Sinks    []RecordSink

	// Extract and Rewrite default to the pagexml implementations.
	Extract ExtractFunc
	Rewrite RewriteFunc
}

// Engine runs the scan, match and export pipeline for one policy.
type Engine struct {
	scanner    *Scanner
	aggregator *Aggregator
	exporter   *Exporter
}

// NewEngine wires a scanner, aggregator and exporter for policy.
func NewEngine(policy *config.Policy, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	extract := opts.Extract
	if extract == nil {
		extract = pagexml.ExtractLines
	}

	return &Engine{
		scanner:    NewScanner(policy),
		aggregator: NewAggregator(extract, logger),
		exporter: NewExporter(policy, ExporterOptions{
			Logger:   logger,
			Manifest: opts.Manifest,
			Sinks:    opts.Sinks,
			Rewrite:  opts.Rewrite,
		}),
	}
}

// SearchResult is the outcome of scanning and matching.
type SearchResult struct {
	Results  *domain.ResultSet
	Scanned  int
	Failures []DocumentFailure
}

// Search scans input and matches every document against terms. Terms are
// normalized first; no usable term yields ErrEmptySearch.
func (e *Engine) Search(ctx context.Context, terms []string, input string, recursive bool) (*SearchResult, error) {
	terms = NormalizeTerms(terms)
	if len(terms) == 0 {
		return nil, ErrEmptySearch
	}

	docs, err := e.scanner.Scan(input, recursive)
	if err != nil {
		return nil, err
	}

	rs, failures, err := e.aggregator.Aggregate(ctx, docs, terms)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Results: rs, Scanned: len(docs), Failures: failures}, nil
}

// Request describes one run of the pipeline.
type Request struct {
	Terms     []string
	InputDir  string
	OutputDir string
	Console   bool
	Recursive bool
}

// Outcome is the result of Run. Export is nil for console runs.
type Outcome struct {
	Search *SearchResult
	Export *ExportSummary
}

// Run executes the whole pipeline. The no-op conditions are checked before
// any work is done: empty terms, then a missing output directory for an
// export run. A scan without hits yields ErrNothingFound.
func (e *Engine) Run(ctx context.Context, req Request) (*Outcome, error) {
	if len(NormalizeTerms(req.Terms)) == 0 {
		return nil, ErrEmptySearch
	}
	if !req.Console && req.OutputDir == "" {
		return nil, ErrNoOutputDirectory
	}

	sr, err := e.Search(ctx, req.Terms, req.InputDir, req.Recursive)
	if err != nil {
		return nil, err
	}
	if sr.Results.IsEmpty() {
		return &Outcome{Search: sr}, ErrNothingFound
	}

	out := &Outcome{Search: sr}
	if req.Console {
		return out, nil
	}

	summary, err := e.exporter.Export(ctx, sr.Results, req.OutputDir, req.InputDir)
	if err != nil {
		return out, err
	}
	out.Export = summary
	return out, nil
}
