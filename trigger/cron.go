package trigger

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"forgecd.dev/core/model"
	"forgecd.dev/core/store"
)

// CronRunner ticks once a minute (or every tickInterval, when a test
// overrides it) and enqueues a build for every enabled pipeline whose
// cron_expression matches the current minute.
type CronRunner struct {
	log          *logrus.Entry
	pipelines    *store.PipelineStore
	tickInterval time.Duration
	onDue        func(p *model.Pipeline)

	lastFired map[string]time.Time
}

// NewCronRunner builds a CronRunner. tickInterval of 0 means one tick
// per minute, counted from when Run starts rather than aligned to the
// wall-clock minute; tests pass something small instead.
func NewCronRunner(log *logrus.Entry, pipelines *store.PipelineStore, tickInterval time.Duration, onDue func(p *model.Pipeline)) *CronRunner {
	return &CronRunner{
		log:          log,
		pipelines:    pipelines,
		tickInterval: tickInterval,
		onDue:        onDue,
		lastFired:    make(map[string]time.Time),
	}
}

// Run blocks, ticking until ctx is cancelled.
func (r *CronRunner) Run(ctx context.Context) {
	interval := r.tickInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.tick(now)
		}
	}
}

func (r *CronRunner) tick(now time.Time) {
	pipelines, err := r.pipelines.List()
	if err != nil {
		r.log.WithError(err).Warn("cron tick: listing pipelines failed")
		return
	}

	minuteKey := now.Truncate(time.Minute)
	for _, p := range pipelines {
		if !p.Enabled || p.CronExpression == "" {
			continue
		}
		if r.lastFired[p.PipelineID] == minuteKey {
			continue // already fired for this minute boundary
		}
		schedule, err := model.ParseCron(p.CronExpression)
		if err != nil {
			continue // invariant guarantees this shouldn't happen; skip defensively
		}
		if schedule.Matches(now) {
			r.lastFired[p.PipelineID] = minuteKey
			r.onDue(p)
		}
	}
}
