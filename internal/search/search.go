// Package search implements the exact-term mode: cells from the workbook's
// first sheet, grouped by column label A-D, are searched as literal
// substrings across every document line and highlighted with the label's
// color.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/linemark/internal/annotate"
	"github.com/jackzampolin/linemark/internal/colors"
	"github.com/jackzampolin/linemark/internal/engine"
	"github.com/jackzampolin/linemark/internal/match"
	"github.com/jackzampolin/linemark/internal/terms"
)

// ErrBadColor marks an unparseable label color override. Unlike a failed
// page, a broken palette aborts the job before any scanning starts.
var ErrBadColor = errors.New("invalid label color")

// Labels are the workbook columns gathered into term lists, in column order.
var Labels = []string{"A", "B", "C", "D"}

// DefaultLabelColors is the built-in palette, overridable per label through
// configuration.
var DefaultLabelColors = map[string]string{
	"A": "FFFF99",
	"B": "FF9999",
	"C": "99BFFF",
	"D": "99FF99",
}

// Term is one labeled search term.
type Term struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Options configure an exact-term job.
type Options struct {
	SpreadsheetPath string
	DocumentPath    string
	OutputPath      string
	ReportPath      string

	IgnoreCase bool
	// WholeWord requires term occurrences to sit on word boundaries.
	WholeWord bool
	Opacity   float64
	Workers   int

	// LabelColors overrides DefaultLabelColors entries; values are
	// six-digit hex.
	LabelColors map[string]string

	Logger *slog.Logger
}

// LabelStats summarize one label's outcome.
type LabelStats struct {
	Label    string `json:"label"`
	Color    string `json:"color"`
	Terms    int    `json:"terms"`
	Hits     int    `json:"hits"`
	NotFound int    `json:"not_found"`
}

// Result is the final report of an exact-term job.
type Result struct {
	Document    string              `json:"document,omitempty"`
	Output      string              `json:"output,omitempty"`
	Report      string              `json:"report,omitempty"`
	Pages       int                 `json:"pages"`
	FailedPages int                 `json:"failed_pages"`
	TotalHits   int                 `json:"total_hits"`
	Labels      []LabelStats        `json:"labels"`
	NotFound    map[string][]string `json:"not_found,omitempty"`
}

// GatherTerms collects terms column by column from the grid. Header cells
// that spell their own column label are skipped, as are blanks; duplicates
// within a label keep their first position.
func GatherTerms(grid [][]string) []Term {
	var out []Term
	seen := make(map[string]struct{})
	for col, label := range Labels {
		for _, row := range grid {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" || strings.EqualFold(cell, label) {
				continue
			}
			key := label + "\x00" + cell
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, Term{Label: label, Text: cell})
		}
	}
	return out
}

// palette resolves the per-label colors, applying overrides on top of the
// defaults. A malformed override is fatal.
func palette(overrides map[string]string) (map[string]colors.RGB, error) {
	out := make(map[string]colors.RGB, len(Labels))
	for _, label := range Labels {
		hex := DefaultLabelColors[label]
		if v, ok := overrides[label]; ok {
			hex = v
		}
		rgb, err := colors.ParseHex(hex)
		if err != nil {
			return nil, fmt.Errorf("%w: label %s: %v", ErrBadColor, label, err)
		}
		out[label] = rgb
	}
	return out, nil
}

type pageHit struct {
	term Term
	page int
	rect engine.Rect
	text string
}

type pageOutcome struct {
	page int
	hits []pageHit
	err  error
}

func scanPage(ctx context.Context, eng engine.Engine, page int, folded []string, termList []Term, opts Options) pageOutcome {
	lines, err := eng.Lines(ctx, page)
	if err != nil {
		return pageOutcome{page: page, err: err}
	}
	out := pageOutcome{page: page}
	for _, ln := range lines {
		norm := match.Fold(ln.Text, opts.IgnoreCase)
		for i, t := range termList {
			if containsTerm(norm, folded[i], opts.WholeWord) {
				out.hits = append(out.hits, pageHit{term: t, page: page, rect: ln.Rect, text: ln.Text})
			}
		}
	}
	return out
}

func containsTerm(line, term string, wholeWord bool) bool {
	if !wholeWord {
		return strings.Contains(line, term)
	}
	for start := 0; start < len(line); {
		idx := strings.Index(line[start:], term)
		if idx < 0 {
			return false
		}
		idx += start
		if boundaryAt(line, idx-1) && boundaryAt(line, idx+len(term)) {
			return true
		}
		start = idx + 1
	}
	return false
}

// boundaryAt reports whether position i is outside the line or holds a
// non-word byte.
func boundaryAt(line string, i int) bool {
	if i < 0 || i >= len(line) {
		return true
	}
	c := line[i]
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		return false
	}
	return true
}

// Run scans the document for every term and stages one highlight per
// occurrence. Terms are matched independently; a line containing several
// terms is highlighted once per term.
func Run(ctx context.Context, eng engine.Engine, termList []Term, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opacity := opts.Opacity
	if opacity <= 0 {
		opacity = annotate.DefaultOpacity
	}
	workers := opts.Workers
	if workers < 1 {
		workers = annotate.DefaultWorkers()
	}

	pal, err := palette(opts.LabelColors)
	if err != nil {
		return nil, err
	}

	pageCount, err := eng.PageCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}
	if workers > pageCount && pageCount > 0 {
		workers = pageCount
	}

	folded := make([]string, len(termList))
	for i, t := range termList {
		folded[i] = match.Fold(t.Text, opts.IgnoreCase)
	}

	pages := make(chan int)
	outcomes := make(chan pageOutcome)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for page := range pages {
				outcomes <- scanPage(gctx, eng, page, folded, termList, opts)
			}
			return nil
		})
	}
	go func() {
		defer close(pages)
		for page := 1; page <= pageCount; page++ {
			select {
			case pages <- page:
			case <-gctx.Done():
				return
			}
		}
	}()
	go func() {
		g.Wait()
		close(outcomes)
	}()

	found := make(map[Term]struct{})
	hits := make(map[string]int, len(Labels))
	total := 0
	failed := 0
	for oc := range outcomes {
		if oc.err != nil {
			failed++
			logger.Warn("page scan failed", "page", oc.page, "error", oc.err)
			continue
		}
		for _, hit := range oc.hits {
			found[hit.term] = struct{}{}
			h := engine.Highlight{
				Page:    hit.page,
				Rect:    hit.rect,
				Color:   pal[hit.term.Label],
				Opacity: opacity,
				Label:   hit.term.Label + " : " + hit.term.Text,
			}
			if err := eng.AddHighlight(ctx, h); err != nil {
				logger.Warn("highlight rejected",
					"page", hit.page, "term", hit.term.Text, "error", err)
				continue
			}
			hits[hit.term.Label]++
			total++
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Pages:       pageCount,
		FailedPages: failed,
		TotalHits:   total,
	}
	termsPerLabel := make(map[string]int, len(Labels))
	for _, t := range termList {
		termsPerLabel[t.Label]++
		if _, ok := found[t]; ok {
			continue
		}
		if result.NotFound == nil {
			result.NotFound = make(map[string][]string)
		}
		result.NotFound[t.Label] = append(result.NotFound[t.Label], t.Text)
	}
	for _, label := range Labels {
		if termsPerLabel[label] == 0 {
			continue
		}
		result.Labels = append(result.Labels, LabelStats{
			Label:    label,
			Color:    pal[label].Hex(),
			Terms:    termsPerLabel[label],
			Hits:     hits[label],
			NotFound: len(result.NotFound[label]),
		})
	}

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
		"pages", pageCount, "failed_pages", failed, "hits", total)
	return result, nil
}

// RunFiles is the file-path front of Run; terms come from the workbook's
// first sheet.
func RunFiles(ctx context.Context, opts Options) (*Result, error) {
	for _, p := range []string{opts.SpreadsheetPath, opts.DocumentPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("%w: %s", annotate.ErrInputNotFound, p)
		}
	}

	raw, err := terms.FromWorkbook(opts.SpreadsheetPath)
	if err != nil {
		return nil, fmt.Errorf("reading workbook: %w", err)
	}
	if len(raw) == 0 {
		return nil, terms.ErrNoUsableTerms
	}
	termList := GatherTerms(raw[0].Grid)
	if len(termList) == 0 {
		return nil, terms.ErrNoUsableTerms
	}

	eng, err := engine.OpenPDF(opts.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}

	result, err := Run(ctx, eng, termList, opts)
	if err != nil {
		return nil, err
	}
	result.Document = filepath.Base(opts.DocumentPath)

	if opts.ReportPath != "" && len(result.NotFound) > 0 {
		data, err := json.MarshalIndent(result.NotFound, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("writing report: %w", err)
		}
		if err := os.WriteFile(opts.ReportPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("writing report: %w", err)
		}
		result.Report = opts.ReportPath
	}
	return result, nil
}
