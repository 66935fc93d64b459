package pagesearch

import (
	"strings"
	"testing"

	"github.com/sha1n/pagesearch/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMatch_IsCaseSensitive(t *testing.T) {
	lines := []domain.TextLine{{Number: 1, Text: "Hello world"}, {Number: 3, Text: "Hello again"}}

	assert.Empty(t, Match(lines, []string{"hello"}))
	assert.Equal(t, []domain.Hit{
		{Search: "Hello", Line: 1, Text: "Hello world"},
		{Search: "Hello", Line: 3, Text: "Hello again"},
	}, Match(lines, []string{"Hello"}))
}

func TestMatch_OrdersByLineThenTerm(t *testing.T) {
	lines := []domain.TextLine{
		{Number: 2, Text: "alpha beta"},
		{Number: 5, Text: "beta only"},
	}

	got := Match(lines, []string{"beta", "alpha", "gamma"})

	assert.Equal(t, []domain.Hit{
		{Search: "beta", Line: 2, Text: "alpha beta"},
		{Search: "alpha", Line: 2, Text: "alpha beta"},
		{Search: "beta", Line: 5, Text: "beta only"},
	}, got)
}

func TestMatch_HitsAreSubstringsOfTheirLine(t *testing.T) {
	lines := []domain.TextLine{
		{Number: 1, Text: "Grüße aus Köln"},
		{Number: 2, Text: "ab ab ab"},
		{Number: 4, Text: "x"},
	}
	terms := []string{"ab", "Köln", "ü", "b a", "missing", "x"}

	hits := Match(lines, terms)

	// brute force: one hit per (line, term) containment, nothing else
	expected := 0
	for _, l := range lines {
		for _, term := range terms {
			if strings.Contains(l.Text, term) {
				expected++
			}
		}
	}
	assert.Len(t, hits, expected)
	for _, h := range hits {
		assert.Contains(t, h.Text, h.Search)
	}
}

func TestMatch_NoLinesOrTerms(t *testing.T) {
	assert.Empty(t, Match(nil, []string{"a"}))
	assert.Empty(t, Match([]domain.TextLine{{Number: 1, Text: "a"}}, nil))
}
