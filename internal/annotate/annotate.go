// Package annotate drives a restricted-matching job end to end: load fragment
// rows from a workbook, scan every document page for lines where a row's
// fragments co-occur, stage one highlight per accepted line, and save the
// annotated copy alongside a not-found report.
package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/linemark/internal/colors"
	"github.com/jackzampolin/linemark/internal/engine"
	"github.com/jackzampolin/linemark/internal/scan"
	"github.com/jackzampolin/linemark/internal/terms"
)

// ErrInputNotFound marks a missing spreadsheet or document path.
var ErrInputNotFound = errors.New("input file not found")

// DefaultOpacity is the highlight opacity used when a job does not set one.
const DefaultOpacity = 0.35

// sheetNameMax is the xlsx sheet-name cap; report sections truncate to it so
// they line up with what spreadsheet tools display.
const sheetNameMax = 31

// Options configure a single job. Run uses the matching and output knobs;
// RunFiles additionally resolves the file paths.
type Options struct {
	SpreadsheetPath string
	DocumentPath    string
	OutputPath      string
	ReportPath      string

	IgnoreCase   bool
	RequireOrder bool
	TrimCells    bool
	Opacity      float64
	Workers      int

	Logger *slog.Logger
}

// NotFoundRow is a fragment row that matched no line anywhere in the
// document.
type NotFoundRow struct {
	Index     int      `json:"row"`
	Fragments []string `json:"fragments"`
}

// SheetStats summarize one sheet's outcome. Hits counts distinct found rows,
// so Hits + NotFound == RowsTotal regardless of how many lines a row matched.
type SheetStats struct {
	Sheet     string `json:"sheet"`
	Color     string `json:"color"`
	RowsTotal int    `json:"rows_total"`
	Hits      int    `json:"hits"`
	NotFound  int    `json:"not_found"`
}

// JobResult is the final report of a job: page tallies, per-sheet stats, and
// the rows that were never found.
type JobResult struct {
	Document        string                   `json:"document,omitempty"`
	Output          string                   `json:"output,omitempty"`
	Report          string                   `json:"report,omitempty"`
	Pages           int                      `json:"pages"`
	FailedPages     int                      `json:"failed_pages"`
	TotalHits       int                      `json:"total_hits"`
	SheetsProcessed int                      `json:"sheets_processed"`
	Sheets          []SheetStats             `json:"sheets"`
	NotFound        map[string][]NotFoundRow `json:"not_found,omitempty"`
}

// aggregator folds streamed page results into highlights and found-sets.
// scan.Scheduler invokes the consume callback from a single goroutine, so no
// locking is needed here.
type aggregator struct {
	eng     engine.Engine
	logger  *slog.Logger
	opacity float64

	palette map[string]colors.RGB
	found   map[string]map[int]struct{}
	total   int
}

func newAggregator(eng engine.Engine, sets []terms.SheetTermSet, logger *slog.Logger, opacity float64) *aggregator {
	agg := &aggregator{
		eng:     eng,
		logger:  logger,
		opacity: opacity,
		palette: make(map[string]colors.RGB, len(sets)),
		found:   make(map[string]map[int]struct{}, len(sets)),
	}
	for _, set := range sets {
		agg.palette[set.Name] = colors.ForSheet(set.Name)
		agg.found[set.Name] = make(map[int]struct{})
	}
	return agg
}

func (a *aggregator) consume(ctx context.Context, res scan.PageResult) {
	for _, m := range res.Matches {
		a.found[m.Sheet][m.RowIndex] = struct{}{}

		h := engine.Highlight{
			Page:    m.Page,
			Rect:    m.Rect,
			Color:   a.palette[m.Sheet],
			Opacity: a.opacity,
			Label:   m.Sheet + " : " + m.LineText,
		}
		if err := a.eng.AddHighlight(ctx, h); err != nil {
			a.logger.Warn("highlight rejected",
				"page", m.Page, "sheet", m.Sheet, "row", m.RowIndex, "error", err)
			continue
		}
		a.total++
	}
}

// result assembles the final JobResult. Sheets are reported in workbook
// order; not-found rows in row order within each sheet.
func (a *aggregator) result(sets []terms.SheetTermSet, pageCount, failed int) *JobResult {
	out := &JobResult{
		Pages:           pageCount,
		FailedPages:     failed,
		TotalHits:       a.total,
		SheetsProcessed: len(sets),
		Sheets:          make([]SheetStats, 0, len(sets)),
	}
	for _, set := range sets {
		found := a.found[set.Name]
		var missing []NotFoundRow
		for _, row := range set.Rows {
			if _, ok := found[row.Index]; ok {
				continue
			}
			missing = append(missing, NotFoundRow{Index: row.Index, Fragments: row.Fragments()})
		}

		out.Sheets = append(out.Sheets, SheetStats{
			Sheet:     set.Name,
			Color:     a.palette[set.Name].Hex(),
			RowsTotal: len(set.Rows),
			Hits:      len(found),
			NotFound:  len(missing),
		})
		if len(missing) > 0 {
			if out.NotFound == nil {
				out.NotFound = make(map[string][]NotFoundRow)
			}
			out.NotFound[truncateSheet(set.Name)] = missing
		}
	}
	return out
}

func truncateSheet(name string) string {
	r := []rune(name)
	if len(r) > sheetNameMax {
		return string(r[:sheetNameMax])
	}
	return name
}

// Run scans the document against the term sets and stages highlights. When
// OutputPath is set, the annotated document is saved there; a document with
// zero highlights is still written so a best-effort output always exists.
func Run(ctx context.Context, eng engine.Engine, sets []terms.SheetTermSet, opts Options) (*JobResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opacity := opts.Opacity
	if opacity <= 0 {
		opacity = DefaultOpacity
	}
	workers := opts.Workers
	if workers < 1 {
		workers = DefaultWorkers()
	}

	pageCount, err := eng.PageCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}

	agg := newAggregator(eng, sets, logger, opacity)
	sched := scan.NewScheduler(eng, logger)
	scanOpts := scan.Options{
		IgnoreCase:   opts.IgnoreCase,
		RequireOrder: opts.RequireOrder,
		Workers:      workers,
	}
	failed, err := sched.Run(ctx, pageCount, sets, scanOpts, func(res scan.PageResult) {
		agg.consume(ctx, res)
	})
	if err != nil {
		return nil, err
	}

	result := agg.result(sets, pageCount, failed)

	if opts.OutputPath != "" {
		err := retry.Do(
			func() error { return eng.Save(ctx, opts.OutputPath) },
			retry.Context(ctx),
			retry.Attempts(3),
			retry.Delay(500*time.Millisecond),
		)
		if err != nil {
			return nil, fmt.Errorf("saving annotated copy: %w", err)
		}
		result.Output = opts.OutputPath
	}

	logger.Info("job finished",
		"pages", pageCount, "failed_pages", failed, "hits", result.TotalHits)
	return result, nil
}

// RunFiles is the file-path front of Run: it validates inputs, loads the
// workbook, opens the document, and persists the not-found report when one
// is requested and non-empty.
func RunFiles(ctx context.Context, opts Options) (*JobResult, error) {
	for _, p := range []string{opts.SpreadsheetPath, opts.DocumentPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, p)
		}
	}

	raw, err := terms.FromWorkbook(opts.SpreadsheetPath)
	if err != nil {
		return nil, fmt.Errorf("reading workbook: %w", err)
	}
	sets, err := terms.Build(raw, terms.BuildOptions{
		IgnoreCase: opts.IgnoreCase,
		TrimCells:  opts.TrimCells,
	})
	if err != nil {
		return nil, err
	}

	eng, err := engine.OpenPDF(opts.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}

	result, err := Run(ctx, eng, sets, opts)
	if err != nil {
		return nil, err
	}
	result.Document = filepath.Base(opts.DocumentPath)

	if opts.ReportPath != "" && len(result.NotFound) > 0 {
		if err := writeReport(opts.ReportPath, result.NotFound); err != nil {
			return nil, fmt.Errorf("writing report: %w", err)
		}
		result.Report = opts.ReportPath
	}
	return result, nil
}

func writeReport(path string, notFound map[string][]NotFoundRow) error {
	data, err := json.MarshalIndent(notFound, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultWorkers leaves one CPU for the collector and annotation staging.
func DefaultWorkers() int {
	if n := runtime.NumCPU() - 1; n > 1 {
		return n
	}
	return 1
}
