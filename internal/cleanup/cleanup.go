// Package cleanup deletes a job's temporary artifacts.
//
// Removal never fails outward: each matched file is attempted on its own,
// retried briefly while another process still holds it open, and given up
// on (with a log entry) otherwise.
package cleanup

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"vidfetch/internal/retry"
)

const (
	// DefaultSettle is waited before the first glob so a just-closed handle
	// has been released by the OS.
	DefaultSettle = 100 * time.Millisecond

	defaultAttempts = 3
	defaultDelay    = 300 * time.Millisecond
)

// DefaultPolicy retries removals that failed on a file lock.
func DefaultPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: defaultAttempts,
		Delay:       defaultDelay,
		Retryable:   IsLockError,
	}
}

// Cleaner removes files matching a glob pattern.
type Cleaner struct {
	Settle time.Duration
	Policy retry.Policy

	logger *slog.Logger
	remove func(string) error
}

// New creates a Cleaner with the default settle delay and retry policy.
func New(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		Settle: DefaultSettle,
		Policy: DefaultPolicy(),
		logger: logger,
		remove: os.Remove,
	}
}

// Remove deletes every file matching pattern and returns how many are gone
// afterwards. Files that vanished on their own count as removed.
func (c *Cleaner) Remove(pattern string) int {
	log := c.logger.With(slog.String("pattern", pattern))
	log.Debug("cleanup started")

	if c.Settle > 0 {
		time.Sleep(c.Settle)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		log.Error("cleanup glob failed", slog.String("error", err.Error()))
		return 0
	}
	if len(matches) == 0 {
		log.Debug("cleanup found no files")
		return 0
	}

	removed := 0
	for _, path := range matches {
		if c.removeOne(log, path) {
			removed++
		}
	}
	return removed
}

func (c *Cleaner) removeOne(log *slog.Logger, path string) bool {
	log = log.With(slog.String("file", path))

	err := c.Policy.Do(context.Background(), func(attempt int) error {
		err := c.remove(path)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			log.Debug("temp file removed", slog.Int("attempt", attempt))
			return nil
		}
		if IsLockError(err) && attempt < c.Policy.MaxAttempts {
			log.Warn("temp file locked, retrying", slog.Int("attempt", attempt))
		}
		return err
	})
	if err == nil {
		return true
	}

	if IsLockError(err) {
		log.Error("could not remove temp file after retries", slog.String("error", err.Error()))
	} else {
		log.Error("could not remove temp file", slog.String("error", err.Error()))
	}
	return false
}
