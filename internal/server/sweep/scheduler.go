// Package sweep runs the trash expiry sweep on a cron schedule inside the
// server process.
package sweep

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/dmitrijs2005/wsdrive/internal/logging"
	"github.com/dmitrijs2005/wsdrive/internal/server/services"
)

// Sweeper purges expired trash entries.
type Sweeper interface {
	Sweep(ctx context.Context) (*services.SweepSummary, error)
}

// Scheduler triggers Sweeper on a cron expression. Runs never overlap: a
// tick that arrives while a sweep is still running is skipped.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	logger  logging.Logger

	mu  sync.Mutex
	ctx context.Context
}

// NewScheduler parses spec (standard five-field cron or a descriptor such
// as "@hourly"). An empty spec returns a nil Scheduler; Run on nil is a
// no-op that waits for ctx.
func NewScheduler(spec string, s Sweeper, l logging.Logger) (*Scheduler, error) {
	if spec == "" {
		return nil, nil
	}

	sc := &Scheduler{sweeper: s, logger: l.With("module", "sweep_scheduler")}
	sc.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := sc.cron.AddFunc(spec, sc.tick); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return sc, nil
}

func (sc *Scheduler) tick() {
	sc.mu.Lock()
	ctx := sc.ctx
	sc.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	sc.runOnce(ctx)
}

func (sc *Scheduler) runOnce(ctx context.Context) {
	summary, err := sc.sweeper.Sweep(ctx)
	if err != nil {
		sc.logger.Error(ctx, "trash sweep failed", "error", err)
		return
	}
	if summary.FailCount > 0 {
		sc.logger.Warn(ctx, "trash sweep finished with failures",
			"processed", summary.Processed, "success", summary.SuccessCount, "failed", summary.FailCount)
		return
	}
	sc.logger.Info(ctx, "trash sweep finished", "processed", summary.Processed)
}

// Run starts the cron loop and blocks until ctx is cancelled, then waits
// for an in-flight sweep to return.
func (sc *Scheduler) Run(ctx context.Context) {
	if sc == nil {
		<-ctx.Done()
		return
	}

	sc.mu.Lock()
	sc.ctx = ctx
	sc.mu.Unlock()

	sc.logger.Info(ctx, "Starting sweep scheduler")
	sc.cron.Start()
	<-ctx.Done()

	sc.logger.Info(context.Background(), "Stopping sweep scheduler...")
	<-sc.cron.Stop().Done()
}
