// Package csvtool converts the first column of a CSV table to a plain
// search term list.
package csvtool

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ExtractFirstColumn returns the non-empty first cell of every row of r.
// Rows may have differing numbers of fields and quotes may appear inside
// unquoted fields.
func ExtractFirstColumn(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var cells []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if len(record) > 0 && record[0] != "" {
			cells = append(cells, record[0])
		}
	}
	return cells, nil
}

// Convert writes the first column of the CSV file at input to output, one
// value per line without a trailing newline. The output file is replaced.
func Convert(input, output string) (int, error) {
	in, err := os.Open(input)
	if err != nil {
		return 0, fmt.Errorf("failed to open input: %w", err)
	}
	defer func() { _ = in.Close() }()

	cells, err := ExtractFirstColumn(in)
	if err != nil {
		return 0, err
	}

	if err := os.WriteFile(output, []byte(strings.Join(cells, "\n")), 0644); err != nil {
		return 0, fmt.Errorf("failed to write output: %w", err)
	}
	return len(cells), nil
}
