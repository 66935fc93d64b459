package pagesearch

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/sha1n/pagesearch/internal/domain"
)

// Reporter renders results and export summaries to a console.
type Reporter struct {
	w      io.Writer
	path   *color.Color
	term   *color.Color
	number *color.Color
	ok     *color.Color
	warn   *color.Color
}

// NewReporter creates a reporter writing to w. Colours are applied only
// when colored is true.
func NewReporter(w io.Writer, colored bool) *Reporter {
	r := &Reporter{
		w:      w,
		path:   color.New(color.FgCyan, color.Bold),
		term:   color.New(color.FgYellow),
		number: color.New(color.FgGreen),
		ok:     color.New(color.FgGreen),
		warn:   color.New(color.FgRed),
	}
	for _, c := range []*color.Color{r.path, r.term, r.number, r.ok, r.warn} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Report prints every document with its hits in result order.
func (r *Reporter) Report(rs *domain.ResultSet) {
	rs.Each(func(path string, hits []domain.Hit) {
		_, _ = fmt.Fprintln(r.w, r.path.Sprint(path))
		for _, h := range hits {
			_, _ = fmt.Fprintf(r.w, "\tFound %s in line %s: \"%s\"\n",
				r.term.Sprint(h.Search), r.number.Sprint(h.Line), h.Text)
		}
	})
}

// Message prints a plain status line such as "Nothing found!".
func (r *Reporter) Message(msg string) {
	_, _ = fmt.Fprintln(r.w, msg)
}

// Done prints the completion message and the statistics of an export.
func (r *Reporter) Done(s *ExportSummary) {
	_, _ = fmt.Fprintf(r.w, "Done! (%s)\n", s.CSVPath)

	skipped := fmt.Sprintf("%d skipped", s.Skipped())
	if s.Skipped() > 0 {
		skipped = r.warn.Sprint(skipped)
	}
	_, _ = fmt.Fprintf(r.w, "%s documents, %s hits, %s files copied, %s\n",
		r.ok.Sprint(len(s.Documents)), r.ok.Sprint(s.Hits), r.ok.Sprint(s.CopiedFiles()), skipped)
}
