package terms

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuildSheetRowFiltering(t *testing.T) {
	grid := [][]string{
		{"VLV", "101", ""},       // kept: two cells
		{"only-one", "", ""},     // dropped: one cell
		{"", "", ""},             // dropped: empty
		{"A", "B", "C"},          // kept: three cells
		{"", "left", "right"},    // kept: columns B and C
		{"X", "", "", "ignored"}, // dropped: one cell among first three
	}

	for _, ignoreCase := range []bool{true, false} {
		for _, trim := range []bool{true, false} {
			set := BuildSheet("S", grid, BuildOptions{IgnoreCase: ignoreCase, TrimCells: trim})
			if len(set.Rows) != 3 {
				t.Fatalf("IgnoreCase=%v TrimCells=%v: got %d rows, want 3", ignoreCase, trim, len(set.Rows))
			}
		}
	}
}

func TestBuildSheetTrim(t *testing.T) {
	grid := [][]string{
		{"  VLV  ", " 101", ""},
		{"   ", "101", ""}, // whitespace-only cell: absent once trimmed
	}

	set := BuildSheet("S", grid, BuildOptions{TrimCells: true})
	if len(set.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(set.Rows))
	}
	want := []string{"VLV", "101"}
	if !reflect.DeepEqual(set.Rows[0].Fragments(), want) {
		t.Errorf("fragments = %v, want %v", set.Rows[0].Fragments(), want)
	}

	// Without trimming, both rows survive (whitespace counts as content).
	set = BuildSheet("S", grid, BuildOptions{})
	if len(set.Rows) != 2 {
		t.Errorf("untrimmed: got %d rows, want 2", len(set.Rows))
	}
}

func TestBuildSheetDedup(t *testing.T) {
	grid := [][]string{
		{"VLV", "101", ""},
		{"vlv", "101", ""},
	}

	t.Run("case-insensitive collapses", func(t *testing.T) {
		set := BuildSheet("S", grid, BuildOptions{IgnoreCase: true})
		if len(set.Rows) != 1 {
			t.Fatalf("got %d rows, want 1", len(set.Rows))
		}
		// First occurrence wins, original casing preserved.
		if set.Rows[0].Cells[0] != "VLV" {
			t.Errorf("kept row cell = %q, want VLV", set.Rows[0].Cells[0])
		}
	})

	t.Run("case-sensitive keeps both", func(t *testing.T) {
		set := BuildSheet("S", grid, BuildOptions{IgnoreCase: false})
		if len(set.Rows) != 2 {
			t.Fatalf("got %d rows, want 2", len(set.Rows))
		}
	})
}

func TestBuildSheetIndexStableAcrossDedup(t *testing.T) {
	grid := [][]string{
		{"a", "b", ""},
		{"a", "b", ""}, // duplicate of index 1's tuple; index 1 is consumed
		{"c", "d", ""},
	}

	set := BuildSheet("S", grid, BuildOptions{})
	if len(set.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(set.Rows))
	}
	if set.Rows[0].Index != 0 || set.Rows[1].Index != 2 {
		t.Errorf("indices = %d, %d; want 0, 2", set.Rows[0].Index, set.Rows[1].Index)
	}
}

func TestBuildDropsEmptySheets(t *testing.T) {
	sheets := []RawSheet{
		{Name: "Empty", Grid: [][]string{{"lonely", "", ""}}},
		{Name: "Good", Grid: [][]string{{"a", "b", ""}}},
	}

	sets, err := Build(sheets, BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(sets) != 1 || sets[0].Name != "Good" {
		t.Errorf("sets = %+v, want only Good", sets)
	}
}

func TestBuildNoUsableTerms(t *testing.T) {
	sheets := []RawSheet{
		{Name: "A", Grid: [][]string{{"one", "", ""}}},
		{Name: "B", Grid: nil},
	}

	_, err := Build(sheets, BuildOptions{})
	if !errors.Is(err, ErrNoUsableTerms) {
		t.Errorf("Build() error = %v, want ErrNoUsableTerms", err)
	}
}

func TestFragmentsColumnOrder(t *testing.T) {
	fr := FragmentRow{Cells: [FragmentColumns]string{"", "mid", "tail"}}
	want := []string{"mid", "tail"}
	if !reflect.DeepEqual(fr.Fragments(), want) {
		t.Errorf("Fragments() = %v, want %v", fr.Fragments(), want)
	}
}
