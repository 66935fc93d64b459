package pagesearch

import (
	"context"
	"log/slog"

	"github.com/sha1n/pagesearch/internal/domain"
)

// ExtractFunc parses one document into its text lines.
type ExtractFunc func(path string) ([]domain.TextLine, error)

// Aggregator runs extraction and matching over a list of documents.
type Aggregator struct {
	extract ExtractFunc
	logger  *slog.Logger
}

// NewAggregator creates an aggregator using extract for every document.
func NewAggregator(extract ExtractFunc, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{extract: extract, logger: logger}
}

// Aggregate extracts and matches every document in order and returns the
// documents with hits. Documents that fail to extract are skipped and
// reported in the returned failures. The context is checked between documents.
func (a *Aggregator) Aggregate(ctx context.Context, docs []string, terms []string) (*domain.ResultSet, []DocumentFailure, error) {
	if len(terms) == 0 {
		return nil, nil, ErrEmptySearch
	}

	var entries []domain.DocumentHits
	var failures []DocumentFailure
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, failures, err
		}

		lines, err := a.extract(doc)
		if err != nil {
			a.logger.Warn("Skipping document", "path", doc, "error", err)
			failures = append(failures, DocumentFailure{Path: doc, Err: err})
			continue
		}

		if hits := Match(lines, terms); len(hits) > 0 {
			a.logger.Debug("Document matched", "path", doc, "hits", len(hits))
			entries = append(entries, domain.DocumentHits{Path: doc, Hits: hits})
		}
	}

	return domain.NewResultSet(entries), failures, nil
}
