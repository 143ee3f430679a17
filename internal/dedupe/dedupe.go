// Package dedupe removes duplicate cleaned rows. The pipeline's duplicate key
// is the (id, TimeStamp) pair: the same external id ingested at different
// times is a new observation, not a duplicate, so id-only collisions are
// deliberately retained. GroupByID exposes the stricter id-only grouping as a
// diagnostic for operators.
package dedupe

import (
	"sort"
	"time"

	"github.com/income-clean/internal/record"
)

type key struct {
	id int64
	ts int64
}

func keyOf(r record.CleanedRecord) key {
	return key{id: r.ID, ts: r.TimeStamp.Unix()}
}

// Dedupe partitions records by (id, TimeStamp) and keeps exactly one record
// per partition. The survivor is the record with the smallest cleaned RowID,
// i.e. arrival order: RowID is a serial surrogate assigned on append, which
// makes the tie-break total and deterministic. Both returned slices preserve
// input order.
func Dedupe(records []record.CleanedRecord) (survivors, removed []record.CleanedRecord) {
	winner := make(map[key]int64, len(records))
	for _, r := range records {
		k := keyOf(r)
		if best, ok := winner[k]; !ok || r.RowID < best {
			winner[k] = r.RowID
		}
	}

	survivors = make([]record.CleanedRecord, 0, len(winner))
	for _, r := range records {
		if winner[keyOf(r)] == r.RowID {
			survivors = append(survivors, r)
		} else {
			removed = append(removed, r)
		}
	}
	return survivors, removed
}

// IDGroup is one external id appearing more than once in the cleaned set.
// DistinctTimestamps tells an operator whether the group is benign (every
// occurrence has its own timestamp) or residue the pipeline should have
// removed (fewer distinct timestamps than occurrences).
type IDGroup struct {
	ID                 int64       `json:"id"`
	Count              int         `json:"count"`
	DistinctTimestamps int         `json:"distinct_timestamps"`
	Timestamps         []time.Time `json:"timestamps"`
}

// GroupByID reports every id occurring more than once, ordered by id. This is
// advisory only; the pipeline never consumes it.
func GroupByID(records []record.CleanedRecord) []IDGroup {
	byID := make(map[int64][]time.Time)
	for _, r := range records {
		byID[r.ID] = append(byID[r.ID], r.TimeStamp)
	}

	var groups []IDGroup
	for id, stamps := range byID {
		if len(stamps) < 2 {
			continue
		}
		distinct := make(map[int64]struct{}, len(stamps))
		for _, ts := range stamps {
			distinct[ts.Unix()] = struct{}{}
		}
		groups = append(groups, IDGroup{
			ID:                 id,
			Count:              len(stamps),
			DistinctTimestamps: len(distinct),
			Timestamps:         stamps,
		})
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups
}
