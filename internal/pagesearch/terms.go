package pagesearch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const maxTermLineSize = 1024 * 1024

// ParseTerms reads one search term per line. Lines starting with '#' and
// lines that are blank after trimming are dropped; the remaining lines are
// trimmed and kept in input order.
func ParseTerms(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxTermLineSize)

	var lines []string
	for sc.Scan() {
		line := sc.Text()
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search terms: %w", err)
	}
	return NormalizeTerms(lines), nil
}

// LoadTerms reads the search term file at path.
func LoadTerms(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open search file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseTerms(f)
}

// NormalizeTerms applies the term file rules to raw lines. The comment
// marker is checked before trimming, so an indented '#' is a term.
func NormalizeTerms(raw []string) []string {
	var terms []string
	for _, line := range raw {
		if strings.HasPrefix(line, "#") {
			continue
		}
		term := strings.TrimSpace(line)
		if term == "" {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}
