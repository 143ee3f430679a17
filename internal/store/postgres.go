package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/income-clean/internal/record"
)

// Schema for the raw feed table. Raw rows are loaded by the import surfaces;
// the pipeline treats the table as read-only.
const rawSchema = `
CREATE TABLE IF NOT EXISTS raw_income (
    row_id     BIGSERIAL PRIMARY KEY,
    id         BIGINT NOT NULL,
    state_code TEXT,
    state_name TEXT,
    state_ab   TEXT,
    county     TEXT,
    city       TEXT,
    place      TEXT,
    type       TEXT,
    "primary"  TEXT,
    zip_code   INT,
    area_code  INT,
    aland      BIGINT,
    awater     BIGINT,
    lat        DOUBLE PRECISION,
    lon        DOUBLE PRECISION
)`

// Schema for the tracked cleaned table. Created on demand by Ensure and never
// dropped by anything in this module.
const cleanedSchema = `
CREATE TABLE IF NOT EXISTS cleaned_income (
    row_id     BIGSERIAL PRIMARY KEY,
    id         BIGINT NOT NULL,
    state_code TEXT,
    state_name TEXT,
    state_ab   TEXT,
    county     TEXT,
    city       TEXT,
    place      TEXT,
    type       TEXT,
    "primary"  TEXT,
    zip_code   INT,
    area_code  INT,
    aland      BIGINT,
    awater     BIGINT,
    lat        DOUBLE PRECISION,
    lon        DOUBLE PRECISION,
    time_stamp TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS cleaned_income_id_ts_idx ON cleaned_income (id, time_stamp)`

const runStateSchema = `
CREATE TABLE IF NOT EXISTS clean_run_state (
    id       INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
    last_run TIMESTAMPTZ NOT NULL
)`

// PGRawSource reads and appends raw rows in Postgres.
type PGRawSource struct {
	db *sql.DB
}

// NewPGRawSource ensures the raw table exists and returns a source over it.
func NewPGRawSource(ctx context.Context, db *sql.DB) (*PGRawSource, error) {
	if _, err := db.ExecContext(ctx, rawSchema); err != nil {
		return nil, unavailable("ensure raw table", err)
	}
	return &PGRawSource{db: db}, nil
}

func (s *PGRawSource) All(ctx context.Context) ([]record.RawRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT row_id, id, state_code, state_name, state_ab, county, city,
		       place, type, "primary", zip_code, area_code, aland, awater, lat, lon
		FROM raw_income
		ORDER BY row_id`)
	if err != nil {
		return nil, unavailable("read raw rows", err)
	}
	defer rows.Close()

	var out []record.RawRecord
	for rows.Next() {
		var r record.RawRecord
		err := rows.Scan(&r.RowID, &r.ID, &r.StateCode, &r.StateName, &r.StateAb,
			&r.County, &r.City, &r.Place, &r.Type, &r.Primary,
			&r.ZipCode, &r.AreaCode, &r.ALand, &r.AWater, &r.Lat, &r.Lon)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raw row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read raw rows", err)
	}
	return out, nil
}

func (s *PGRawSource) Append(ctx context.Context, raw record.RawRecord) (record.RawRecord, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO raw_income (
			id, state_code, state_name, state_ab, county, city, place,
			type, "primary", zip_code, area_code, aland, awater, lat, lon
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING row_id`,
		raw.ID, raw.StateCode, raw.StateName, raw.StateAb, raw.County, raw.City,
		raw.Place, raw.Type, raw.Primary, raw.ZipCode, raw.AreaCode,
		raw.ALand, raw.AWater, raw.Lat, raw.Lon,
	).Scan(&raw.RowID)
	if err != nil {
		return record.RawRecord{}, unavailable("append raw row", err)
	}
	return raw, nil
}

func (s *PGRawSource) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM raw_income").Scan(&n); err != nil {
		return 0, unavailable("count raw rows", err)
	}
	return n, nil
}

// PGCleanStore is the Postgres cleaned table.
type PGCleanStore struct {
	db *sql.DB
}

func NewPGCleanStore(db *sql.DB) *PGCleanStore {
	return &PGCleanStore{db: db}
}

func (s *PGCleanStore) Ensure(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, cleanedSchema); err != nil {
		return unavailable("ensure cleaned table", err)
	}
	return nil
}

func (s *PGCleanStore) All(ctx context.Context) ([]record.CleanedRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT row_id, id, state_code, state_name, state_ab, county, city,
		       place, type, "primary", zip_code, area_code, aland, awater,
		       lat, lon, time_stamp
		FROM cleaned_income
		ORDER BY row_id`)
	if err != nil {
		return nil, unavailable("read cleaned rows", err)
	}
	defer rows.Close()

	var out []record.CleanedRecord
	for rows.Next() {
		var r record.CleanedRecord
		err := rows.Scan(&r.RowID, &r.ID, &r.StateCode, &r.StateName, &r.StateAb,
			&r.County, &r.City, &r.Place, &r.Type, &r.Primary,
			&r.ZipCode, &r.AreaCode, &r.ALand, &r.AWater, &r.Lat, &r.Lon, &r.TimeStamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cleaned row: %w", err)
		}
		r.TimeStamp = r.TimeStamp.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read cleaned rows", err)
	}
	return out, nil
}

func (s *PGCleanStore) Append(ctx context.Context, recs []record.CleanedRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO cleaned_income (
			id, state_code, state_name, state_ab, county, city, place,
			type, "primary", zip_code, area_code, aland, awater, lat, lon, time_stamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`)
	if err != nil {
		return 0, unavailable("prepare cleaned insert", err)
	}
	defer stmt.Close()

	stored := 0
	for _, r := range recs {
		_, err := stmt.ExecContext(ctx,
			r.ID, r.StateCode, r.StateName, r.StateAb, r.County, r.City,
			r.Place, r.Type, r.Primary, r.ZipCode, r.AreaCode,
			r.ALand, r.AWater, r.Lat, r.Lon, r.TimeStamp)
		if err != nil {
			return stored, unavailable("append cleaned row", err)
		}
		stored++
	}
	return stored, nil
}

func (s *PGCleanStore) DeleteByRowID(ctx context.Context, rowIDs []int64) (int, error) {
	if len(rowIDs) == 0 {
		return 0, nil
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM cleaned_income WHERE row_id = ANY($1)", pq.Array(rowIDs))
	if err != nil {
		return 0, unavailable("delete cleaned rows", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return int(n), nil
}

func (s *PGCleanStore) Update(ctx context.Context, rec record.CleanedRecord) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE cleaned_income SET
			id = $2, state_code = $3, state_name = $4, state_ab = $5,
			county = $6, city = $7, place = $8, type = $9, "primary" = $10,
			zip_code = $11, area_code = $12, aland = $13, awater = $14,
			lat = $15, lon = $16, time_stamp = $17
		WHERE row_id = $1`,
		rec.RowID, rec.ID, rec.StateCode, rec.StateName, rec.StateAb,
		rec.County, rec.City, rec.Place, rec.Type, rec.Primary,
		rec.ZipCode, rec.AreaCode, rec.ALand, rec.AWater, rec.Lat, rec.Lon,
		rec.TimeStamp)
	if err != nil {
		return unavailable("update cleaned row", err)
	}
	return nil
}

func (s *PGCleanStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cleaned_income").Scan(&n); err != nil {
		return 0, unavailable("count cleaned rows", err)
	}
	return n, nil
}

// PGRunState persists the last completed run time in a single-row table.
type PGRunState struct {
	db *sql.DB
}

func NewPGRunState(ctx context.Context, db *sql.DB) (*PGRunState, error) {
	if _, err := db.ExecContext(ctx, runStateSchema); err != nil {
		return nil, unavailable("ensure run state table", err)
	}
	return &PGRunState{db: db}, nil
}

func (s *PGRunState) LastRun(ctx context.Context) (time.Time, bool, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx, "SELECT last_run FROM clean_run_state WHERE id = 1").Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, unavailable("read last run", err)
	}
	return t.UTC(), true, nil
}

func (s *PGRunState) SetLastRun(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clean_run_state (id, last_run) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET last_run = EXCLUDED.last_run`, t)
	if err != nil {
		return unavailable("record last run", err)
	}
	return nil
}
