package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/income-clean/internal/record"
)

var errNoSuchRow = errors.New("no such row")

// In-memory implementations of the store interfaces. They back the test
// suite and any single-process deployment that has no Postgres, and the raw
// variant doubles as the insert-notification fan-out point consumed by the
// insertion hook.

// MemRawSource holds raw rows in memory and notifies subscribers on append.
type MemRawSource struct {
	mu     sync.Mutex
	rows   []record.RawRecord
	nextID int64
	subs   []chan record.RawRecord
}

func NewMemRawSource() *MemRawSource {
	return &MemRawSource{nextID: 1}
}

func (s *MemRawSource) All(ctx context.Context) ([]record.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]record.RawRecord, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *MemRawSource) Append(ctx context.Context, raw record.RawRecord) (record.RawRecord, error) {
	s.mu.Lock()
	raw.RowID = s.nextID
	s.nextID++
	s.rows = append(s.rows, raw)
	subs := make([]chan record.RawRecord, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	// Slow subscribers drop notifications rather than block ingestion; the
	// periodic full run reconciles anything a dropped notification missed.
	for _, ch := range subs {
		select {
		case ch <- raw:
		default:
		}
	}
	return raw, nil
}

func (s *MemRawSource) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows), nil
}

// Subscribe returns a channel receiving every subsequently appended row.
func (s *MemRawSource) Subscribe() <-chan record.RawRecord {
	ch := make(chan record.RawRecord, 64)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// MemCleanStore holds the cleaned set in memory.
type MemCleanStore struct {
	mu      sync.Mutex
	ensured bool
	rows    []record.CleanedRecord
	nextID  int64
}

func NewMemCleanStore() *MemCleanStore {
	return &MemCleanStore{nextID: 1}
}

func (s *MemCleanStore) Ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensured = true
	return nil
}

func (s *MemCleanStore) All(ctx context.Context) ([]record.CleanedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]record.CleanedRecord, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *MemCleanStore) Append(ctx context.Context, recs []record.CleanedRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		r.RowID = s.nextID
		s.nextID++
		s.rows = append(s.rows, r)
	}
	return len(recs), nil
}

func (s *MemCleanStore) DeleteByRowID(ctx context.Context, rowIDs []int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := make(map[int64]struct{}, len(rowIDs))
	for _, id := range rowIDs {
		doomed[id] = struct{}{}
	}

	kept := s.rows[:0]
	removed := 0
	for _, r := range s.rows {
		if _, gone := doomed[r.RowID]; gone {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.rows = kept
	return removed, nil
}

func (s *MemCleanStore) Update(ctx context.Context, rec record.CleanedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if r.RowID == rec.RowID {
			s.rows[i] = rec
			return nil
		}
	}
	return unavailable("update cleaned row", errNoSuchRow)
}

func (s *MemCleanStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows), nil
}

// MemRunState keeps the last run time in memory.
type MemRunState struct {
	mu   sync.Mutex
	last time.Time
	set  bool
}

func NewMemRunState() *MemRunState {
	return &MemRunState{}
}

func (s *MemRunState) LastRun(ctx context.Context) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.set, nil
}

func (s *MemRunState) SetLastRun(ctx context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = t
	s.set = true
	return nil
}
