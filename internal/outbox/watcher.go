// Package outbox watches for outgoing messages that never left the store.
// Delivery itself is handled downstream; the watcher only surfaces backlog.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Counter reports how many unsent outgoing messages are older than cutoff.
type Counter interface {
	CountUnsentOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Watcher periodically counts stale unsent messages and logs a warning when
// the backlog is non-empty.
type Watcher struct {
	counter    Counter
	schedule   string
	staleAfter time.Duration
	logger     *slog.Logger
	cron       *cron.Cron
	now        func() time.Time
}

func NewWatcher(log *slog.Logger, counter Counter, schedule string, staleAfter time.Duration) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		counter:    counter,
		schedule:   schedule,
		staleAfter: staleAfter,
		logger:     log.With(slog.String("component", "outbox")),
		now:        time.Now,
	}
}

// Start registers the check on the cron schedule and begins running it.
func (w *Watcher) Start() error {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser))
	if _, err := c.AddFunc(w.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		w.check(ctx)
	}); err != nil {
		return fmt.Errorf("invalid outbox schedule %q: %w", w.schedule, err)
	}
	c.Start()
	w.cron = c
	w.logger.Info("outbox watcher started", slog.String("schedule", w.schedule))
	return nil
}

// Stop halts the schedule and waits for a running check to finish.
func (w *Watcher) Stop() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

func (w *Watcher) check(ctx context.Context) {
	cutoff := w.now().UTC().Add(-w.staleAfter)
	count, err := w.counter.CountUnsentOlderThan(ctx, cutoff)
	if err != nil {
		w.logger.Error("outbox check failed", slog.String("error", err.Error()))
		return
	}
	if count > 0 {
		w.logger.Warn("unsent message backlog",
			slog.Int64("count", count),
			slog.Duration("older_than", w.staleAfter))
	}
}
