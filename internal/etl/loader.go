// Package etl bulk-loads raw household income rows from CSV exports into the
// raw source. Loading is append-only; cleaning is the pipeline's job.
package etl

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/income-clean/internal/debug"
	"github.com/income-clean/internal/record"
	"github.com/income-clean/internal/store"
)

// Loader reads CSV files into a raw source.
type Loader struct {
	raw   store.RawSource
	debug bool
}

func NewLoader(raw store.RawSource, debugOn bool) *Loader {
	return &Loader{raw: raw, debug: debugOn}
}

// LoadCSV appends every parseable row of the file to the raw source. Rows
// that fail to parse or validate are skipped and logged, mirroring the
// pipeline's per-record error policy. Returns loaded and skipped counts.
func (l *Loader) LoadCSV(ctx context.Context, csvPath string) (int, int, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open CSV: %w", err)
	}
	defer file.Close()

	return l.Load(ctx, file)
}

// Load reads CSV from r. The first line must be a header; columns are
// matched by lowercased name so exports with reordered columns load fine.
func (l *Loader) Load(ctx context.Context, r io.Reader) (int, int, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	debug.Output(l.debug, "CSV columns: %v", header)

	columnMap := make(map[string]int)
	for i, col := range header {
		columnMap[strings.ToLower(strings.TrimSpace(col))] = i
	}

	loaded, skipped := 0, 0
	line := 1
	for {
		line++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			debug.Output(l.debug, "line %d: unreadable row: %v", line, err)
			skipped++
			continue
		}

		raw, err := parseRow(row, columnMap)
		if err != nil {
			debug.Output(l.debug, "line %d: %v", line, err)
			skipped++
			continue
		}
		if err := record.Validate(raw); err != nil {
			debug.Output(l.debug, "line %d: %v", line, err)
			skipped++
			continue
		}

		if _, err := l.raw.Append(ctx, raw); err != nil {
			return loaded, skipped, err
		}
		loaded++
		if loaded%1000 == 0 {
			debug.Output(l.debug, "loaded %d rows", loaded)
		}
	}

	debug.Output(l.debug, "loaded %d rows, skipped %d", loaded, skipped)
	return loaded, skipped, nil
}

func parseRow(row []string, columnMap map[string]int) (record.RawRecord, error) {
	get := func(name string) string {
		if idx, ok := columnMap[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	id, err := strconv.ParseInt(get("id"), 10, 64)
	if err != nil {
		return record.RawRecord{}, fmt.Errorf("bad id %q: %w", get("id"), err)
	}

	raw := record.RawRecord{
		ID:        id,
		StateCode: get("state_code"),
		StateName: get("state_name"),
		StateAb:   get("state_ab"),
		County:    get("county"),
		City:      get("city"),
		Place:     get("place"),
		Type:      get("type"),
		Primary:   get("primary"),
	}

	// Numeric columns are frequently blank in the feed; blank means zero,
	// garbage means a skipped row.
	if raw.ZipCode, err = parseInt(get("zip_code")); err != nil {
		return record.RawRecord{}, fmt.Errorf("bad zip_code: %w", err)
	}
	if raw.AreaCode, err = parseInt(get("area_code")); err != nil {
		return record.RawRecord{}, fmt.Errorf("bad area_code: %w", err)
	}
	if raw.ALand, err = parseInt64(get("aland")); err != nil {
		return record.RawRecord{}, fmt.Errorf("bad aland: %w", err)
	}
	if raw.AWater, err = parseInt64(get("awater")); err != nil {
		return record.RawRecord{}, fmt.Errorf("bad awater: %w", err)
	}
	if raw.Lat, err = parseFloat(get("lat")); err != nil {
		return record.RawRecord{}, fmt.Errorf("bad lat: %w", err)
	}
	if raw.Lon, err = parseFloat(get("lon")); err != nil {
		return record.RawRecord{}, fmt.Errorf("bad lon: %w", err)
	}
	return raw, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseInt64(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
