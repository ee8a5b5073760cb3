// Package scan fans page-scan tasks across a bounded worker pool and streams
// their per-page match results to a single collector.
package scan

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/linemark/internal/engine"
	"github.com/jackzampolin/linemark/internal/match"
	"github.com/jackzampolin/linemark/internal/terms"
)

// Match is one accepted line match: a fragment row found on a line, with the
// line's geometry and raw text. Ephemeral; produced by a page task and
// consumed by the aggregator.
type Match struct {
	Sheet    string
	RowIndex int
	Page     int
	Rect     engine.Rect
	LineText string
}

// PageResult is the outcome of scanning one page. A failed page carries its
// error and no matches.
type PageResult struct {
	Page    int
	Matches []Match
	Err     error
}

// Options are the job-global matching knobs shared by every page task.
type Options struct {
	IgnoreCase   bool
	RequireOrder bool
	Workers      int
}

// preparedSheet caches case-folded fragments so each page task matches
// against an immutable snapshot without re-folding per line.
type preparedSheet struct {
	name string
	rows []preparedRow
}

type preparedRow struct {
	index     int
	fragments []string
}

func prepare(sets []terms.SheetTermSet, ignoreCase bool) []preparedSheet {
	prepared := make([]preparedSheet, 0, len(sets))
	for _, set := range sets {
		ps := preparedSheet{name: set.Name, rows: make([]preparedRow, 0, len(set.Rows))}
		for _, row := range set.Rows {
			frags := row.Fragments()
			if ignoreCase {
				folded := make([]string, len(frags))
				for i, f := range frags {
					folded[i] = match.Fold(f, true)
				}
				frags = folded
			}
			ps.rows = append(ps.rows, preparedRow{index: row.Index, fragments: frags})
		}
		prepared = append(prepared, ps)
	}
	return prepared
}

// scanPage runs one page task: fetch the page's lines once, then test every
// sheet's rows against them with page-local de-duplication.
//
// Per sheet, a line is consumed by at most one row (first matching row in
// row order), and a rounded rect is highlighted at most once even when
// distinct line records share geometry.
func scanPage(ctx context.Context, eng engine.Engine, page int, sheets []preparedSheet, opts Options) PageResult {
	lines, err := eng.Lines(ctx, page)
	if err != nil {
		return PageResult{Page: page, Err: err}
	}

	result := PageResult{Page: page}
	for _, sheet := range sheets {
		lineSeen := make(map[string]struct{})
		rectSeen := make(map[string]struct{})

		for _, ln := range lines {
			norm := match.Fold(ln.Text, opts.IgnoreCase)
			if _, dup := lineSeen[norm]; dup {
				continue
			}

			matchedRow := -1
			for _, row := range sheet.rows {
				if match.Fragments(norm, row.fragments, opts.RequireOrder) {
					matchedRow = row.index
					break
				}
			}
			if matchedRow < 0 {
				continue
			}

			rk := ln.Rect.Key()
			if _, dup := rectSeen[rk]; dup {
				continue
			}

			result.Matches = append(result.Matches, Match{
				Sheet:    sheet.name,
				RowIndex: matchedRow,
				Page:     page,
				Rect:     ln.Rect,
				LineText: ln.Text,
			})
			lineSeen[norm] = struct{}{}
			rectSeen[rk] = struct{}{}
		}
	}

	return result
}

// Scheduler runs one page task per document page across a worker pool.
type Scheduler struct {
	eng    engine.Engine
	logger *slog.Logger
}

// NewScheduler creates a scheduler over the given engine.
func NewScheduler(eng engine.Engine, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{eng: eng, logger: logger}
}

// Run scans pages 1..pageCount against the term sets and invokes handle for
// every successful page result, from a single goroutine, in completion
// order. Page ordering is not significant: de-duplication is page-local, so
// any completion order yields the same match set.
//
// A failed page is logged, tallied, and excluded; it never cancels sibling
// tasks. The returned count is the number of failed pages.
func (s *Scheduler) Run(ctx context.Context, pageCount int, sets []terms.SheetTermSet, opts Options, handle func(PageResult)) (int, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > pageCount && pageCount > 0 {
		workers = pageCount
	}

	sheets := prepare(sets, opts.IgnoreCase)

	pages := make(chan int)
	results := make(chan PageResult)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for page := range pages {
				results <- scanPage(gctx, s.eng, page, sheets, opts)
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
		close(results)
	}()

	failed := 0
	for res := range results {
		if res.Err != nil {
			failed++
			s.logger.Warn("page scan failed", "page", res.Page, "error", res.Err)
			continue
		}
		handle(res)
	}

	if err := ctx.Err(); err != nil {
		return failed, err
	}
	return failed, nil
}
