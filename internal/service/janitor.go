package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vidfetch/internal/core/ports"
)

// Janitor removes job workspaces left behind by a crashed or killed process.
type Janitor struct {
	sweeper  ports.Sweeper
	interval time.Duration
	maxAge   time.Duration
	logger   *slog.Logger
}

// NewJanitor creates a new Janitor.
func NewJanitor(sweeper ports.Sweeper, interval, maxAge time.Duration, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		sweeper:  sweeper,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger.With(slog.String("component", "janitor")),
	}
}

// RunOnce performs a single sweep and returns how many workspaces it removed.
func (j *Janitor) RunOnce(ctx context.Context) (int, error) {
	removed, err := j.sweeper.Sweep(ctx, j.maxAge)
	for _, id := range removed {
		j.logger.Info("removed stale job workspace", slog.String("job", id))
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		j.logger.Warn("sweep incomplete", slog.Any("error", err))
	}
	return len(removed), err
}

// Run sweeps immediately and then every interval until ctx is done. A
// non-positive interval disables the loop after the first sweep.
func (j *Janitor) Run(ctx context.Context) {
	_, _ = j.RunOnce(ctx)
	if j.interval <= 0 {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = j.RunOnce(ctx)
		}
	}
}
