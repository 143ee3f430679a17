// Package store defines the raw-source and cleaned-store interfaces the
// cleaning pipeline runs against, with Postgres implementations for
// production and in-memory implementations for tests. The cleaned store is an
// explicit handle passed into the pipeline, never package-global state, so
// independent cleaned stores can coexist.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/income-clean/internal/record"
)

// RawSource is the read side of the ingestion feed plus the append used by
// the ingest surfaces (CSV import, HTTP ingest). The pipeline itself only
// ever reads it.
type RawSource interface {
	// All returns every current raw row in arrival order.
	All(ctx context.Context) ([]record.RawRecord, error)
	// Append stores one raw row and returns it with its assigned RowID.
	Append(ctx context.Context, raw record.RawRecord) (record.RawRecord, error)
	Count(ctx context.Context) (int, error)
}

// CleanStore is the tracked cleaned table. Only the pipeline mutates it;
// diagnostics read it.
type CleanStore interface {
	// Ensure creates the cleaned table if absent. Never destructive.
	Ensure(ctx context.Context) error
	// All returns every cleaned row ordered by RowID.
	All(ctx context.Context) ([]record.CleanedRecord, error)
	// Append stores the given rows, assigning RowIDs, and returns how many
	// were stored.
	Append(ctx context.Context, rows []record.CleanedRecord) (int, error)
	// DeleteByRowID removes the rows with the given surrogate keys and
	// returns how many were removed.
	DeleteByRowID(ctx context.Context, rowIDs []int64) (int, error)
	// Update rewrites the row identified by rec.RowID.
	Update(ctx context.Context, rec record.CleanedRecord) error
	Count(ctx context.Context) (int, error)
}

// RunStateStore persists the time of the last completed cleaning run. It
// backs the scheduler's catch-up decision and nothing else.
type RunStateStore interface {
	// LastRun returns the recorded time and whether one exists.
	LastRun(ctx context.Context) (time.Time, bool, error)
	SetLastRun(ctx context.Context, t time.Time) error
}

// UnavailableError reports that the raw or cleaned store could not be
// reached. It aborts the current run; recovery is the next scheduled or
// hooked invocation.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func unavailable(op string, err error) error {
	return &UnavailableError{Op: op, Err: err}
}
