// Package diagnostics holds the read-only verification queries operators run
// against the cleaned table. Advisory only: the pipeline never calls them,
// and nothing here writes.
package diagnostics

import (
	"context"
	"database/sql"
	"fmt"
)

// DuplicateGroup is one external id appearing more than once in the cleaned
// table. A group whose DistinctTimestamps equals its Count is benign (the
// same id observed at different times); fewer distinct timestamps than
// occurrences means residue a cleaning run should have removed.
type DuplicateGroup struct {
	ID                 int64 `json:"id"`
	Count              int   `json:"count"`
	DistinctTimestamps int   `json:"distinct_timestamps"`
}

// DuplicateReport lists ids with more than one cleaned row, ordered by id.
func DuplicateReport(ctx context.Context, db *sql.DB) ([]DuplicateGroup, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, COUNT(*), COUNT(DISTINCT time_stamp)
		FROM cleaned_income
		GROUP BY id
		HAVING COUNT(*) > 1
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("duplicate report query failed: %w", err)
	}
	defer rows.Close()

	var groups []DuplicateGroup
	for rows.Next() {
		var g DuplicateGroup
		if err := rows.Scan(&g.ID, &g.Count, &g.DistinctTimestamps); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// Counts holds the raw and cleaned table sizes.
type Counts struct {
	RawRows     int `json:"raw_rows"`
	CleanedRows int `json:"cleaned_rows"`
}

// RowCounts returns the size of both tables.
func RowCounts(ctx context.Context, db *sql.DB) (Counts, error) {
	var c Counts
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM raw_income").Scan(&c.RawRows); err != nil {
		return c, fmt.Errorf("raw count query failed: %w", err)
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cleaned_income").Scan(&c.CleanedRows); err != nil {
		return c, fmt.Errorf("cleaned count query failed: %w", err)
	}
	return c, nil
}

// StateCount is the number of cleaned rows for one state.
type StateCount struct {
	StateName string `json:"state_name"`
	Count     int    `json:"count"`
}

// CountByState groups the cleaned table by state name, largest first.
func CountByState(ctx context.Context, db *sql.DB) ([]StateCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT state_name, COUNT(*)
		FROM cleaned_income
		GROUP BY state_name
		ORDER BY COUNT(*) DESC, state_name`)
	if err != nil {
		return nil, fmt.Errorf("state count query failed: %w", err)
	}
	defer rows.Close()

	var counts []StateCount
	for rows.Next() {
		var sc StateCount
		if err := rows.Scan(&sc.StateName, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan state count: %w", err)
		}
		counts = append(counts, sc)
	}
	return counts, rows.Err()
}
