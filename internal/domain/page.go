package domain

import (
	"fmt"
	"time"
)

// TextLine is one structural line element extracted from a layout document.
type TextLine struct {
	// Number is the 1-based position of the line element in the document.
	// Elements without text still consume a number.
	Number int `json:"line_number"`

	// Text is the recognized text of the line. Never empty.
	Text string `json:"text"`
}

// Hit is a single occurrence of a search term in a line.
type Hit struct {
	Search string `json:"search"`
	Line   int    `json:"line"`
	Text   string `json:"text"`
}

// ExportRecord is one row of the results table written by an export.
type ExportRecord struct {
	Search   string `json:"search"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Text     string `json:"text"`
	Original string `json:"original"`
}

// CSV column names, in output order.
const (
	ColumnSearch   = "search"
	ColumnFile     = "file"
	ColumnLine     = "line"
	ColumnText     = "text"
	ColumnOriginal = "original"
)

// CSVHeader is the header row of results.csv.
var CSVHeader = []string{ColumnSearch, ColumnFile, ColumnLine, ColumnText, ColumnOriginal}

// FormatID renders an export sequence number as a zero-padded 5-digit id.
func FormatID(n int) string {
	return fmt.Sprintf("%05d", n)
}

// ExportRun identifies one export invocation.
type ExportRun struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	InputDir  string    `json:"input_dir"`
	OutputDir string    `json:"output_dir"`
}
