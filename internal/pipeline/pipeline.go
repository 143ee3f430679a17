// Package pipeline is the single cleaning entry point: copy raw rows into
// the cleaned store with an ingestion timestamp, remove (id, TimeStamp)
// duplicates, normalize the survivors. Every step is individually
// idempotent, so a run interrupted anywhere converges to the same cleaned
// set on the next invocation.
package pipeline

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/income-clean/internal/debug"
	"github.com/income-clean/internal/dedupe"
	"github.com/income-clean/internal/normalize"
	"github.com/income-clean/internal/record"
	"github.com/income-clean/internal/store"
)

// ErrRunInFlight is returned by TryRun when another run holds the pipeline.
// It is informational, not a failure: the in-flight run does the same work.
var ErrRunInFlight = errors.New("cleaning run already in flight")

// DefaultBudget bounds one run when the caller configures nothing.
const DefaultBudget = 5 * time.Minute

// CleaningReport summarizes one completed run.
type CleaningReport struct {
	Copied            int           `json:"copied"`
	Skipped           int           `json:"skipped"`
	DuplicatesRemoved int           `json:"duplicates_removed"`
	Normalized        int           `json:"normalized"`
	Duration          time.Duration `json:"duration"`
}

// Options tunes a Pipeline. The zero value is usable.
type Options struct {
	// State, when set, records the completion time of each full run for the
	// scheduler's catch-up decision.
	State store.RunStateStore
	// Budget bounds one run; DefaultBudget when zero, negative disables.
	Budget time.Duration
	Debug  bool
}

// Pipeline cleans one raw source into one cleaned store. All invocations of
// one Pipeline value are serialized by an internal mutex; it is not designed
// for concurrent execution against the same cleaned store.
type Pipeline struct {
	raw    store.RawSource
	clean  store.CleanStore
	state  store.RunStateStore
	budget time.Duration
	debug  bool
	now    func() time.Time

	mu sync.Mutex
}

// New builds a pipeline over explicit store handles.
func New(raw store.RawSource, clean store.CleanStore, opts Options) *Pipeline {
	budget := opts.Budget
	if budget == 0 {
		budget = DefaultBudget
	}
	if budget < 0 {
		budget = 0
	}
	return &Pipeline{
		raw:    raw,
		clean:  clean,
		state:  opts.State,
		budget: budget,
		debug:  opts.Debug,
		now:    time.Now,
	}
}

// Run executes one full cleaning pass, blocking until any in-flight run
// finishes first. Idempotent: with no new raw data, a second run leaves the
// cleaned store content-identical.
func (p *Pipeline) Run(ctx context.Context) (CleaningReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.run(ctx)
}

// TryRun executes one full cleaning pass unless a run is already in flight,
// in which case it returns ErrRunInFlight without waiting. Preferred for the
// insertion hook, which must not pile up behind the scheduler.
func (p *Pipeline) TryRun(ctx context.Context) (CleaningReport, error) {
	if !p.mu.TryLock() {
		return CleaningReport{}, ErrRunInFlight
	}
	defer p.mu.Unlock()
	return p.run(ctx)
}

func (p *Pipeline) run(ctx context.Context) (CleaningReport, error) {
	start := p.now()
	ctx, cancel := p.withBudget(ctx)
	defer cancel()

	var rep CleaningReport

	if err := p.clean.Ensure(ctx); err != nil {
		return rep, err
	}

	// Copy: stamp raw rows with this run's ingestion time. A raw row whose
	// content is already in the cleaned store (in as-copied or normalized
	// form) was ingested by an earlier run and is not copied again; that is
	// what makes repeated runs over unchanged raw data a no-op instead of a
	// pile of fresh-timestamped observations. Malformed rows are skipped and
	// logged, never fatal to the run.
	done := debug.Phase(p.debug, "copy")
	existing, err := p.existingContent(ctx)
	if err != nil {
		return rep, err
	}
	raws, err := p.raw.All(ctx)
	if err != nil {
		return rep, err
	}

	runTime := p.now()
	already := 0
	batch := make([]record.CleanedRecord, 0, len(raws))
	for _, raw := range raws {
		if err := record.Validate(raw); err != nil {
			log.Printf("skipping raw row %d: %v", raw.RowID, err)
			rep.Skipped++
			continue
		}
		c := record.ToCleaned(raw, runTime)
		if existing[contentOf(c)] || existing[contentOf(normalize.Normalize(c))] {
			already++
			continue
		}
		batch = append(batch, c)
	}
	debug.Output(p.debug, "copy: %d new rows, %d already ingested", len(batch), already)
	copied, err := p.clean.Append(ctx, batch)
	rep.Copied = copied
	if err != nil {
		return rep, err
	}
	done()

	// Dedupe the full post-copy store.
	done = debug.Phase(p.debug, "dedupe")
	all, err := p.clean.All(ctx)
	if err != nil {
		return rep, err
	}
	survivors, removed := dedupe.Dedupe(all)
	if len(removed) > 0 {
		n, err := p.clean.DeleteByRowID(ctx, rowIDs(removed))
		rep.DuplicatesRemoved = n
		if err != nil {
			return rep, err
		}
	}
	done()

	// Normalize survivors, writing back only the rows that changed.
	done = debug.Phase(p.debug, "normalize")
	for _, s := range survivors {
		n := normalize.Normalize(s)
		if !normalize.Changed(s, n) {
			continue
		}
		if err := p.clean.Update(ctx, n); err != nil {
			return rep, err
		}
		rep.Normalized++
	}
	done()

	if p.state != nil {
		if err := p.state.SetLastRun(ctx, runTime); err != nil {
			log.Printf("failed to record run completion: %v", err)
		}
	}

	rep.Duration = p.now().Sub(start)
	debug.Output(p.debug, "run complete: copied=%d skipped=%d removed=%d normalized=%d in %v",
		rep.Copied, rep.Skipped, rep.DuplicatesRemoved, rep.Normalized, rep.Duration)
	return rep, nil
}

// RunIncremental pushes only the given newly inserted raw rows through
// validation, timestamping and normalization, then runs a duplicate check
// narrowed to the touched (id, TimeStamp) keys. It upholds the same cleaned
// set invariants as a full run for those keys; the periodic full Run remains
// the reconciliation path for everything else.
func (p *Pipeline) RunIncremental(ctx context.Context, rows []record.RawRecord) (CleaningReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := p.now()
	ctx, cancel := p.withBudget(ctx)
	defer cancel()

	var rep CleaningReport

	if err := p.clean.Ensure(ctx); err != nil {
		return rep, err
	}

	existing, err := p.existingContent(ctx)
	if err != nil {
		return rep, err
	}

	runTime := p.now()
	batch := make([]record.CleanedRecord, 0, len(rows))
	for _, raw := range rows {
		if err := record.Validate(raw); err != nil {
			log.Printf("skipping inserted row %d: %v", raw.RowID, err)
			rep.Skipped++
			continue
		}
		base := record.ToCleaned(raw, runTime)
		cleaned := normalize.Normalize(base)
		// Redelivered notifications are not new observations.
		if existing[contentOf(base)] || existing[contentOf(cleaned)] {
			continue
		}
		if normalize.Changed(base, cleaned) {
			rep.Normalized++
		}
		batch = append(batch, cleaned)
	}

	copied, err := p.clean.Append(ctx, batch)
	rep.Copied = copied
	if err != nil {
		return rep, err
	}

	// Narrow duplicate check: only partitions the new rows belong to.
	touched := make(map[int64]bool, len(batch))
	for _, r := range batch {
		touched[r.ID] = true
	}

	all, err := p.clean.All(ctx)
	if err != nil {
		return rep, err
	}
	var scope []record.CleanedRecord
	for _, r := range all {
		if touched[r.ID] {
			scope = append(scope, r)
		}
	}

	_, removed := dedupe.Dedupe(scope)
	if len(removed) > 0 {
		n, err := p.clean.DeleteByRowID(ctx, rowIDs(removed))
		rep.DuplicatesRemoved = n
		if err != nil {
			return rep, err
		}
	}

	rep.Duration = p.now().Sub(start)
	return rep, nil
}

func (p *Pipeline) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.budget <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.budget)
}

// content identifies a cleaned row by its data, ignoring the surrogate key
// and the ingestion timestamp. Two rows with equal content are the same
// observation regardless of when they were copied.
type content struct {
	id                int64
	stateCode         string
	stateName         string
	stateAb           string
	county, city      string
	place, typ, prim  string
	zipCode, areaCode int
	aland, awater     int64
	lat, lon          float64
}

func contentOf(r record.CleanedRecord) content {
	return content{
		id: r.ID, stateCode: r.StateCode, stateName: r.StateName,
		stateAb: r.StateAb, county: r.County, city: r.City,
		place: r.Place, typ: r.Type, prim: r.Primary,
		zipCode: r.ZipCode, areaCode: r.AreaCode,
		aland: r.ALand, awater: r.AWater, lat: r.Lat, lon: r.Lon,
	}
}

// existingContent indexes the cleaned store by row content so the copy steps
// can tell a new observation from a row an earlier (possibly interrupted)
// run already ingested.
func (p *Pipeline) existingContent(ctx context.Context) (map[content]bool, error) {
	stored, err := p.clean.All(ctx)
	if err != nil {
		return nil, err
	}
	existing := make(map[content]bool, len(stored))
	for _, r := range stored {
		existing[contentOf(r)] = true
	}
	return existing, nil
}

func rowIDs(recs []record.CleanedRecord) []int64 {
	ids := make([]int64, len(recs))
	for i, r := range recs {
		ids[i] = r.RowID
	}
	return ids
}
