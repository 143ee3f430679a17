package schedule

import (
	"context"
	"errors"
	"log"

	"github.com/income-clean/internal/config"
	"github.com/income-clean/internal/pipeline"
	"github.com/income-clean/internal/record"
)

// Hook reacts to raw-row insert notifications. In incremental mode (the
// default) it pushes just the new rows through the pipeline's incremental
// path; in full mode it triggers a whole-table run, skipping when one is
// already in flight so an insert burst never queues up pipeline runs behind
// the caller.
type Hook struct {
	pipe *pipeline.Pipeline
	mode config.HookMode
}

func NewHook(pipe *pipeline.Pipeline, mode config.HookMode) *Hook {
	return &Hook{pipe: pipe, mode: mode}
}

// Run consumes inserts until ctx is cancelled or the channel closes.
// Notifications arriving while one is being handled are batched into the
// next incremental pass.
func (h *Hook) Run(ctx context.Context, inserts <-chan record.RawRecord) {
	for {
		select {
		case <-ctx.Done():
			return
		case first, ok := <-inserts:
			if !ok {
				return
			}
			batch := []record.RawRecord{first}
		drain:
			for {
				select {
				case more, ok := <-inserts:
					if !ok {
						break drain
					}
					batch = append(batch, more)
				default:
					break drain
				}
			}
			h.handle(ctx, batch)
		}
	}
}

func (h *Hook) handle(ctx context.Context, batch []record.RawRecord) {
	switch h.mode {
	case config.HookFull:
		_, err := h.pipe.TryRun(ctx)
		if errors.Is(err, pipeline.ErrRunInFlight) {
			log.Printf("insertion hook: run in flight, %d inserts left for it", len(batch))
			return
		}
		if err != nil {
			log.Printf("insertion hook: full run failed: %v", err)
		}
	default:
		rep, err := h.pipe.RunIncremental(ctx, batch)
		if err != nil {
			log.Printf("insertion hook: incremental run failed: %v", err)
			return
		}
		if rep.Skipped > 0 {
			log.Printf("insertion hook: skipped %d malformed inserts", rep.Skipped)
		}
	}
}
