package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// reindexer is the part of the tool server the scheduler drives.
type reindexer interface {
	ReindexAll(ctx context.Context) error
}

// startScheduler re-indexes every known project on spec, a standard
// five-field cron expression. An empty spec disables scheduling.
func startScheduler(ctx context.Context, r reindexer, spec string) (*cron.Cron, error) {
	if spec == "" {
		return nil, nil
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		if err := r.ReindexAll(ctx); err != nil {
			slog.Warn("schedule.reindex", "err", err)
			return
		}
		slog.Info("schedule.reindex", "elapsed", time.Since(start))
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	slog.Info("schedule.start", "spec", spec)
	return c, nil
}
