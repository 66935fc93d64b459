package pagesearch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sha1n/pagesearch/internal/config"
	"github.com/sha1n/pagesearch/internal/domain"
	"github.com/sha1n/pagesearch/internal/pagexml"
)

// CSVFilename is the name of the results table in the output directory.
const CSVFilename = "results.csv"

// RecordSink receives the export records of a run after results.csv has
// been written.
type RecordSink interface {
	Name() string
	WriteRecords(ctx context.Context, run domain.ExportRun, records []domain.ExportRecord) error
}

// RewriteFunc points the image reference of the document at path to filename.
type RewriteFunc func(path, filename string) error

// ExportedDocument describes what was exported for one matched document.
type ExportedDocument struct {
	ID           string   `yaml:"id" json:"id"`
	Source       string   `yaml:"source" json:"source"`
	Original     string   `yaml:"original" json:"original"`
	Hits         int      `yaml:"hits" json:"hits"`
	Files        []string `yaml:"files" json:"files"`
	Missing      []string `yaml:"missing,omitempty" json:"missing,omitempty"`
	Failed       []string `yaml:"failed,omitempty" json:"failed,omitempty"`
	RewriteError string   `yaml:"rewrite_error,omitempty" json:"rewrite_error,omitempty"`
}

// ExportSummary is the result of an export.
type ExportSummary struct {
	Run             domain.ExportRun
	CSVPath         string
	ManifestPath    string
	Documents       []ExportedDocument
	Hits            int
	Missing         []*MissingSiblingError
	CopyFailures    []*CopyError
	RewriteFailures []error
}

// Skipped returns the number of sibling files that were not copied.
func (s *ExportSummary) Skipped() int {
	return len(s.Missing) + len(s.CopyFailures)
}

// CopiedFiles returns the number of files copied into the output directory.
func (s *ExportSummary) CopiedFiles() int {
	n := 0
	for _, d := range s.Documents {
		n += len(d.Files)
	}
	return n
}

// ExporterOptions configures optional exporter behaviour.
type ExporterOptions struct {
	Logger   *slog.Logger
	Manifest bool
	Sinks    []RecordSink

	// Rewrite, NewRunID and Now default to the production implementations.
	Rewrite  RewriteFunc
	NewRunID func() string
	Now      func() time.Time
}

// Exporter copies matched documents and their siblings under sequential
// ids and writes the results table.
type Exporter struct {
	policy   *config.Policy
	logger   *slog.Logger
	manifest bool
	sinks    []RecordSink
	rewrite  RewriteFunc
	newRunID func() string
	now      func() time.Time
}

// NewExporter creates an exporter for the given policy.
func NewExporter(policy *config.Policy, opts ExporterOptions) *Exporter {
	e := &Exporter{
		policy:   policy,
		logger:   opts.Logger,
		manifest: opts.Manifest,
		sinks:    opts.Sinks,
		rewrite:  opts.Rewrite,
		newRunID: opts.NewRunID,
		now:      opts.Now,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.rewrite == nil {
		e.rewrite = pagexml.SetImageFilename
	}
	if e.newRunID == nil {
		e.newRunID = uuid.NewString
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Export writes the results of rs into outputDir. Documents are numbered
// 1..N in result order; a missing or uncopyable sibling file and a failed
// reference rewrite are recorded and do not stop the export.
func (e *Exporter) Export(ctx context.Context, rs *domain.ResultSet, outputDir, inputDir string) (summary *ExportSummary, err error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	lock := NewOutputLock(outputDir)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, outputDir)
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	summary = &ExportSummary{
		Run: domain.ExportRun{
			ID:        e.newRunID(),
			CreatedAt: e.now(),
			InputDir:  inputDir,
			OutputDir: outputDir,
		},
		CSVPath: filepath.Join(outputDir, CSVFilename),
	}

	var records []domain.ExportRecord
	seq := 0
	for _, doc := range rs.Documents() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seq++
		id := domain.FormatID(seq)

		exported := e.exportDocument(doc, id, outputDir, inputDir, summary)

		hits := rs.Hits(doc)
		exported.Hits = len(hits)
		summary.Hits += len(hits)
		summary.Documents = append(summary.Documents, exported)

		for _, hit := range hits {
			records = append(records, domain.ExportRecord{
				Search:   hit.Search,
				File:     id,
				Line:     hit.Line,
				Text:     hit.Text,
				Original: exported.Original,
			})
		}
	}

	if err := writeCSV(summary.CSVPath, records); err != nil {
		return nil, err
	}

	if e.manifest {
		summary.ManifestPath = filepath.Join(outputDir, ManifestFilename)
		if err := NewManifest(summary).Save(summary.ManifestPath); err != nil {
			return nil, err
		}
	}

	for _, sink := range e.sinks {
		if err := sink.WriteRecords(ctx, summary.Run, records); err != nil {
			return nil, fmt.Errorf("%s: %w", sink.Name(), err)
		}
	}

	e.logger.Info("Export complete",
		"run_id", summary.Run.ID,
		"documents", len(summary.Documents),
		"hits", summary.Hits,
		"copied", summary.CopiedFiles(),
		"skipped", summary.Skipped(),
	)
	return summary, nil
}

// exportDocument applies the copy rules to one document.
func (e *Exporter) exportDocument(doc, id, outputDir, inputDir string, summary *ExportSummary) ExportedDocument {
	dir := filepath.Dir(doc)
	base := e.policy.BaseName(filepath.Base(doc))
	exported := ExportedDocument{
		ID:       id,
		Source:   doc,
		Original: originalName(inputDir, dir, base),
		Files:    []string{},
	}

	for _, rule := range e.policy.CopyRules {
		src := filepath.Join(dir, base+rule.Source)
		name := id + rule.Target
		dst := filepath.Join(outputDir, name)

		if err := copyFile(src, dst); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				missing := &MissingSiblingError{Document: doc, Source: src, Rule: rule}
				e.logger.Warn("skip", "file", src, "rule", rule.String())
				summary.Missing = append(summary.Missing, missing)
				exported.Missing = append(exported.Missing, src)
				continue
			}
			failed := &CopyError{Document: doc, Source: src, Rule: rule, Err: err}
			e.logger.Warn("skip", "file", src, "rule", rule.String(), "error", err)
			summary.CopyFailures = append(summary.CopyFailures, failed)
			exported.Failed = append(exported.Failed, src)
			continue
		}
		exported.Files = append(exported.Files, name)

		if rule.Source == e.policy.PrimaryExtension && e.policy.RewriteExtension != "" {
			if err := e.rewrite(dst, id+e.policy.RewriteExtension); err != nil {
				e.logger.Warn("Failed to rewrite image reference", "file", dst, "error", err)
				summary.RewriteFailures = append(summary.RewriteFailures, err)
				exported.RewriteError = err.Error()
			}
		}
	}
	return exported
}

// originalName is the document path relative to inputDir without the
// primary extension, with forward slashes.
func originalName(inputDir, dir, base string) string {
	rel, err := filepath.Rel(inputDir, dir)
	if err != nil {
		return filepath.ToSlash(filepath.Join(dir, base))
	}
	return filepath.ToSlash(filepath.Join(rel, base))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	if same, err := os.Stat(dst); err == nil && os.SameFile(info, same) {
		return nil
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

func writeCSV(path string, records []domain.ExportRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(domain.CSVHeader); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{r.Search, r.File, strconv.Itoa(r.Line), r.Text, r.Original}
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return f.Close()
}
