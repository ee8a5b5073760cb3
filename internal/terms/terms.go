// Package terms builds per-sheet fragment term sets from workbook cell grids.
package terms

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tsawler/tabula/xlsx"
)

// ErrNoUsableTerms is returned when no sheet in the workbook yields a single
// row with at least two fragments.
var ErrNoUsableTerms = errors.New("no sheet produced a usable fragment row")

// FragmentColumns is the number of workbook columns inspected per row.
// Columns 0, 1, 2 hold candidate fragments A, B, C; anything beyond is
// ignored.
const FragmentColumns = 3

// FragmentRow is one fragment group from a sheet. Cells holds the first
// three source columns in order; an empty string marks an absent cell. A row
// is only ever created with two or three present cells.
type FragmentRow struct {
	Sheet string
	Index int
	Cells [FragmentColumns]string
}

// Fragments returns the present cells in column order.
func (r FragmentRow) Fragments() []string {
	out := make([]string, 0, FragmentColumns)
	for _, c := range r.Cells {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// key is the dedup identity of the row under the given case policy.
func (r FragmentRow) key(ignoreCase bool) [FragmentColumns]string {
	if !ignoreCase {
		return r.Cells
	}
	var k [FragmentColumns]string
	for i, c := range r.Cells {
		k[i] = strings.ToLower(c)
	}
	return k
}

// SheetTermSet is one sheet's filtered, de-duplicated fragment rows, in
// source order.
type SheetTermSet struct {
	Name string
	Rows []FragmentRow
}

// RawSheet is a sheet name plus its raw cell grid.
type RawSheet struct {
	Name string
	Grid [][]string
}

// BuildOptions control row filtering and dedup.
type BuildOptions struct {
	// IgnoreCase folds fragment tuples for dedup and downstream matching.
	IgnoreCase bool
	// TrimCells strips surrounding whitespace from each cell before the
	// presence check.
	TrimCells bool
}

// BuildSheet filters one sheet's grid down to its usable fragment rows.
//
// A row is kept when at least two of its first three cells are non-blank; a
// kept row gets the next sequential index. Rows whose fragment tuple repeats
// an earlier kept row's tuple (case-folded when IgnoreCase is set) are then
// dropped, first occurrence winning.
func BuildSheet(name string, grid [][]string, opts BuildOptions) SheetTermSet {
	set := SheetTermSet{Name: name}
	seen := make(map[[FragmentColumns]string]struct{})
	next := 0

	for _, row := range grid {
		var cells [FragmentColumns]string
		present := 0
		for i := 0; i < FragmentColumns && i < len(row); i++ {
			c := row[i]
			if opts.TrimCells {
				c = strings.TrimSpace(c)
			}
			if c == "" {
				continue
			}
			cells[i] = c
			present++
		}
		if present < 2 {
			continue
		}

		fr := FragmentRow{Sheet: name, Index: next, Cells: cells}
		next++

		k := fr.key(opts.IgnoreCase)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		set.Rows = append(set.Rows, fr)
	}

	return set
}

// Build assembles term sets for every sheet, preserving sheet order. Sheets
// that yield no rows are dropped. If nothing survives anywhere, the job
// cannot proceed and ErrNoUsableTerms is returned.
func Build(sheets []RawSheet, opts BuildOptions) ([]SheetTermSet, error) {
	var sets []SheetTermSet
	for _, s := range sheets {
		set := BuildSheet(s.Name, s.Grid, opts)
		if len(set.Rows) == 0 {
			continue
		}
		sets = append(sets, set)
	}
	if len(sets) == 0 {
		return nil, ErrNoUsableTerms
	}
	return sets, nil
}

// FromWorkbook reads every sheet of an xlsx workbook into raw cell grids, in
// workbook order. No header row is assumed.
func FromWorkbook(path string) ([]RawSheet, error) {
	r, err := xlsx.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer r.Close()

	sheets := make([]RawSheet, 0, r.SheetCount())
	for i := 0; i < r.SheetCount(); i++ {
		sheet, err := r.Sheet(i)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %d: %w", i, err)
		}

		grid := make([][]string, len(sheet.Rows))
		for ri, row := range sheet.Rows {
			cells := make([]string, len(row))
			for ci, cell := range row {
				cells[ci] = cell.Value
			}
			grid[ri] = cells
		}
		sheets = append(sheets, RawSheet{Name: sheet.Name, Grid: grid})
	}

	return sheets, nil
}
