package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jackzampolin/linemark/internal/colors"
	"github.com/jackzampolin/linemark/internal/engine"
	"github.com/jackzampolin/linemark/internal/terms"
)

type fakeEngine struct {
	mu         sync.Mutex
	lines      map[int][]engine.LineRecord
	failPages  map[int]bool
	rejectAll  bool
	highlights []engine.Highlight
	saved      []string
}

func (f *fakeEngine) PageCount(ctx context.Context) (int, error) {
	return len(f.lines), nil
}

func (f *fakeEngine) Lines(ctx context.Context, page int) ([]engine.LineRecord, error) {
	if f.failPages[page] {
		return nil, fmt.Errorf("malformed page %d", page)
	}
	return f.lines[page], nil
}

func (f *fakeEngine) AddHighlight(ctx context.Context, h engine.Highlight) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rejectAll {
		return errors.New("annotation rejected")
	}
	f.highlights = append(f.highlights, h)
	return nil
}

func (f *fakeEngine) Save(ctx context.Context, outPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, outPath)
	return nil
}

func line(page int, y float64, text string) engine.LineRecord {
	return engine.LineRecord{
		Page: page,
		Rect: engine.Rect{X0: 10, Y0: y, X1: 500, Y1: y + 12},
		Text: text,
	}
}

func buildSets(t *testing.T, raw []terms.RawSheet) []terms.SheetTermSet {
	t.Helper()
	sets, err := terms.Build(raw, terms.BuildOptions{IgnoreCase: true, TrimCells: true})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return sets
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRunEndToEnd(t *testing.T) {
	eng := &fakeEngine{lines: map[int][]engine.LineRecord{
		1: {
			line(1, 700, "TankA Level High Alarm"),
			line(1, 680, "Unrelated body text"),
		},
		2: {
			line(2, 700, "Appendix"),
		},
	}}
	sets := buildSets(t, []terms.RawSheet{{
		Name: "Critical",
		Grid: [][]string{
			{"TankA", "High", ""},
			{"PumpB", "Low", ""},
		},
	}})

	out := filepath.Join(t.TempDir(), "doc_ann.pdf")
	result, err := Run(context.Background(), eng, sets, Options{
		IgnoreCase: true,
		OutputPath: out,
		Logger:     discard(),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Pages != 2 || result.FailedPages != 0 {
		t.Errorf("pages = %d failed = %d, want 2 / 0", result.Pages, result.FailedPages)
	}
	if result.TotalHits != 1 {
		t.Fatalf("TotalHits = %d, want 1", result.TotalHits)
	}
	if len(result.Sheets) != 1 {
		t.Fatalf("Sheets = %d, want 1", len(result.Sheets))
	}
	stats := result.Sheets[0]
	if stats.Sheet != "Critical" || stats.RowsTotal != 2 || stats.Hits != 1 || stats.NotFound != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Color != colors.ForSheet("Critical").Hex() {
		t.Errorf("Color = %s, want digest-derived hex", stats.Color)
	}

	missing := result.NotFound["Critical"]
	if len(missing) != 1 || missing[0].Index != 1 {
		t.Fatalf("NotFound = %+v, want row 1 (PumpB/Low)", result.NotFound)
	}
	if got := missing[0].Fragments; len(got) != 2 || got[0] != "PumpB" || got[1] != "Low" {
		t.Errorf("Fragments = %v", got)
	}

	if len(eng.highlights) != 1 {
		t.Fatalf("staged %d highlights, want 1", len(eng.highlights))
	}
	h := eng.highlights[0]
	if h.Label != "Critical : TankA Level High Alarm" {
		t.Errorf("Label = %q", h.Label)
	}
	if h.Opacity != DefaultOpacity {
		t.Errorf("Opacity = %v, want default", h.Opacity)
	}
	if h.Color != colors.ForSheet("Critical") {
		t.Errorf("Color = %+v", h.Color)
	}

	if len(eng.saved) != 1 || eng.saved[0] != out {
		t.Errorf("saved = %v, want [%s]", eng.saved, out)
	}
	if result.Output != out {
		t.Errorf("result.Output = %q", result.Output)
	}
}

func TestRunCompleteness(t *testing.T) {
	// Hits counts distinct found rows, so a row matching a line on several
	// pages still counts once and Hits + NotFound always equals RowsTotal.
	eng := &fakeEngine{lines: map[int][]engine.LineRecord{
		1: {line(1, 700, "VLV 101 interlock"), line(1, 650, "FT 202 trip")},
		2: {line(2, 700, "VLV 101 interlock echo")},
	}}
	sets := buildSets(t, []terms.RawSheet{{
		Name: "Tags",
		Grid: [][]string{
			{"VLV", "101", ""},
			{"FT", "202", ""},
			{"PT", "303", ""},
		},
	}})

	result, err := Run(context.Background(), eng, sets, Options{IgnoreCase: true, Logger: discard()})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stats := result.Sheets[0]
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2 distinct rows (VLV found twice counts once)", stats.Hits)
	}
	if stats.NotFound != 1 {
		t.Errorf("NotFound = %d, want 1 (PT/303)", stats.NotFound)
	}
	if stats.Hits+stats.NotFound != stats.RowsTotal {
		t.Errorf("Hits(%d) + NotFound(%d) != RowsTotal(%d)",
			stats.Hits, stats.NotFound, stats.RowsTotal)
	}
	if result.TotalHits != 3 {
		t.Errorf("TotalHits = %d, want 3 highlights (VLV on both pages, FT once)", result.TotalHits)
	}
	if result.SheetsProcessed != 1 {
		t.Errorf("SheetsProcessed = %d, want 1", result.SheetsProcessed)
	}
	if rows := result.NotFound["Tags"]; len(rows) != 1 || rows[0].Index != 2 {
		t.Errorf("NotFound rows = %+v, want only index 2", rows)
	}
}

func TestRunHighlightErrorContinues(t *testing.T) {
	eng := &fakeEngine{
		lines: map[int][]engine.LineRecord{
			1: {line(1, 700, "TankA Level High Alarm")},
		},
		rejectAll: true,
	}
	sets := buildSets(t, []terms.RawSheet{{
		Name: "S",
		Grid: [][]string{{"TankA", "High", ""}},
	}})

	result, err := Run(context.Background(), eng, sets, Options{IgnoreCase: true, Logger: discard()})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.TotalHits != 0 {
		t.Errorf("TotalHits = %d, want 0 when staging fails", result.TotalHits)
	}
	// The row still counts as found: the match was made even though the
	// annotation could not be staged.
	if len(result.NotFound) != 0 {
		t.Errorf("NotFound = %+v, want empty", result.NotFound)
	}
}

func TestRunFailedPageTally(t *testing.T) {
	eng := &fakeEngine{
		lines: map[int][]engine.LineRecord{
			1: {line(1, 700, "TankA High")},
			2: nil,
		},
		failPages: map[int]bool{2: true},
	}
	sets := buildSets(t, []terms.RawSheet{{
		Name: "S",
		Grid: [][]string{{"TankA", "High", ""}},
	}})

	result, err := Run(context.Background(), eng, sets, Options{IgnoreCase: true, Logger: discard()})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.FailedPages != 1 {
		t.Errorf("FailedPages = %d, want 1", result.FailedPages)
	}
	if result.TotalHits != 1 {
		t.Errorf("TotalHits = %d, want 1", result.TotalHits)
	}
}

func TestRunFilesMissingInput(t *testing.T) {
	_, err := RunFiles(context.Background(), Options{
		SpreadsheetPath: "/nonexistent/terms.xlsx",
		DocumentPath:    "/nonexistent/doc.pdf",
		Logger:          discard(),
	})
	if !errors.Is(err, ErrInputNotFound) {
		t.Errorf("RunFiles() error = %v, want ErrInputNotFound", err)
	}
}

func TestTruncateSheet(t *testing.T) {
	long := "A_very_long_sheet_name_exceeding_the_limit"
	got := truncateSheet(long)
	if len([]rune(got)) != 31 {
		t.Errorf("len = %d, want 31", len([]rune(got)))
	}
	if truncateSheet("Short") != "Short" {
		t.Error("short names pass through")
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc_ann.json")
	notFound := map[string][]NotFoundRow{
		"Critical": {{Index: 1, Fragments: []string{"PumpB", "Low"}}},
	}
	if err := writeReport(path, notFound); err != nil {
		t.Fatalf("writeReport() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var back map[string][]NotFoundRow
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(back["Critical"]) != 1 || back["Critical"][0].Index != 1 {
		t.Errorf("round trip = %+v", back)
	}
}
