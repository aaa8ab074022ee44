package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"fpc-portal/internal/metrics"
)

// Janitor periodically removes sessions idle for longer than ttl.
type Janitor struct {
	store   Storage
	ttl     time.Duration
	metrics *metrics.Metrics
	cron    *cron.Cron
	now     func() time.Time
}

func NewJanitor(store Storage, ttl time.Duration, m *metrics.Metrics) *Janitor {
	return &Janitor{
		store:   store,
		ttl:     ttl,
		metrics: m,
		cron:    cron.New(),
		now:     time.Now,
	}
}

// Start schedules the purge with a cron spec such as "@every 15m".
func (j *Janitor) Start(spec string) error {
	if _, err := j.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := j.Purge(ctx); err != nil {
			slog.Error("session purge failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule session purge %q: %w", spec, err)
	}

	j.cron.Start()
	slog.Info("session janitor started", "schedule", spec, "idle_ttl", j.ttl)
	return nil
}

// Stop halts scheduling and waits for a running purge to finish or ctx to
// end.
func (j *Janitor) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (j *Janitor) Purge(ctx context.Context) (int64, error) {
	purged, err := j.store.PurgeIdle(ctx, j.now().Add(-j.ttl))
	if err != nil {
		return 0, err
	}
	j.metrics.AddPurged(purged)
	if purged > 0 {
		slog.Info("idle sessions purged", "count", purged)
	}
	return purged, nil
}
