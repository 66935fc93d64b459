package pagesearch

import (
	"strings"

	"github.com/sha1n/pagesearch/internal/domain"
)

// Match returns a hit for every term contained in every line, ordered by
// line and then by term order. Matching is case-sensitive.
func Match(lines []domain.TextLine, terms []string) []domain.Hit {
	var hits []domain.Hit
	for _, line := range lines {
		for _, term := range terms {
			if strings.Contains(line.Text, term) {
				hits = append(hits, domain.Hit{Search: term, Line: line.Number, Text: line.Text})
			}
		}
	}
	return hits
}
