package dedupe

import (
	"testing"
	"time"

	"github.com/income-clean/internal/record"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func row(rowID, id int64, ts time.Time) record.CleanedRecord {
	return record.CleanedRecord{RowID: rowID, ID: id, TimeStamp: ts}
}

func TestDedupe(t *testing.T) {
	t1 := t0.Add(time.Hour)

	tests := []struct {
		name          string
		in            []record.CleanedRecord
		wantSurvivors []int64 // surviving RowIDs, in order
		wantRemoved   []int64
	}{
		{
			name:          "no duplicates",
			in:            []record.CleanedRecord{row(1, 10, t0), row(2, 11, t0)},
			wantSurvivors: []int64{1, 2},
		},
		{
			name:          "verbatim duplicates keep first arrival",
			in:            []record.CleanedRecord{row(1, 10, t0), row(2, 10, t0), row(3, 10, t0)},
			wantSurvivors: []int64{1},
			wantRemoved:   []int64{2, 3},
		},
		{
			name:          "same id different timestamps both survive",
			in:            []record.CleanedRecord{row(1, 10, t0), row(2, 10, t1)},
			wantSurvivors: []int64{1, 2},
		},
		{
			name: "survivor chosen by smallest row id, not input position",
			in:   []record.CleanedRecord{row(9, 10, t0), row(4, 10, t0), row(7, 10, t0)},
			// Input order is preserved in the output, so RowID 4 is the sole survivor.
			wantSurvivors: []int64{4},
			wantRemoved:   []int64{9, 7},
		},
		{
			name:          "empty input",
			in:            nil,
			wantSurvivors: []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			survivors, removed := Dedupe(tt.in)
			checkRowIDs(t, "survivors", survivors, tt.wantSurvivors)
			checkRowIDs(t, "removed", removed, tt.wantRemoved)
		})
	}
}

// N copies of the same row must always converge to exactly one survivor.
func TestDedupeConvergence(t *testing.T) {
	for _, n := range []int{1, 2, 5, 50} {
		var in []record.CleanedRecord
		for i := 0; i < n; i++ {
			in = append(in, row(int64(i+1), 99, t0))
		}
		survivors, removed := Dedupe(in)
		if len(survivors) != 1 {
			t.Errorf("Dedupe(%d copies) survivors = %d, want 1", n, len(survivors))
		}
		if len(removed) != n-1 {
			t.Errorf("Dedupe(%d copies) removed = %d, want %d", n, len(removed), n-1)
		}
		if survivors[0].RowID != 1 {
			t.Errorf("Dedupe(%d copies) survivor RowID = %d, want 1", n, survivors[0].RowID)
		}
	}
}

func TestDedupeDeterministic(t *testing.T) {
	in := []record.CleanedRecord{
		row(3, 10, t0), row(1, 10, t0), row(2, 10, t0),
		row(5, 11, t0), row(4, 11, t0),
	}
	first, _ := Dedupe(in)
	for i := 0; i < 10; i++ {
		again, _ := Dedupe(in)
		if len(again) != len(first) {
			t.Fatalf("Dedupe() run %d: %d survivors, first run had %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("Dedupe() run %d survivor %d = %+v, first run had %+v", i, j, again[j], first[j])
			}
		}
	}
}

func TestGroupByID(t *testing.T) {
	t1 := t0.Add(time.Hour)

	records := []record.CleanedRecord{
		row(1, 10, t0),
		row(2, 10, t1), // same id, different timestamp: flagged here, kept by Dedupe
		row(3, 11, t0),
		row(4, 12, t0),
		row(5, 12, t0), // true residue: same id and timestamp
	}

	groups := GroupByID(records)
	if len(groups) != 2 {
		t.Fatalf("GroupByID() = %d groups, want 2", len(groups))
	}

	if groups[0].ID != 10 || groups[0].Count != 2 || groups[0].DistinctTimestamps != 2 {
		t.Errorf("group 10 = %+v, want count 2 with 2 distinct timestamps", groups[0])
	}
	if groups[1].ID != 12 || groups[1].Count != 2 || groups[1].DistinctTimestamps != 1 {
		t.Errorf("group 12 = %+v, want count 2 with 1 distinct timestamp", groups[1])
	}
}

// After Dedupe, GroupByID may still report id-only collisions, but never a
// group with fewer distinct timestamps than occurrences.
func TestGroupByIDAfterDedupe(t *testing.T) {
	t1 := t0.Add(time.Hour)

	records := []record.CleanedRecord{
		row(1, 10, t0), row(2, 10, t0), row(3, 10, t1),
	}

	survivors, _ := Dedupe(records)
	groups := GroupByID(survivors)

	if len(groups) != 1 {
		t.Fatalf("GroupByID(survivors) = %d groups, want 1 (id collision across timestamps is retained)", len(groups))
	}
	g := groups[0]
	if g.DistinctTimestamps != g.Count {
		t.Errorf("group %d has %d occurrences but %d distinct timestamps; Dedupe left residue",
			g.ID, g.Count, g.DistinctTimestamps)
	}
}

func checkRowIDs(t *testing.T, label string, got []record.CleanedRecord, want []int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %d records, want %d", label, len(got), len(want))
	}
	for i, r := range got {
		if r.RowID != want[i] {
			t.Errorf("%s[%d].RowID = %d, want %d", label, i, r.RowID, want[i])
		}
	}
}
