// Package retry runs an operation under a small fixed-delay retry policy.
package retry

import (
	"context"
	"time"
)

// Policy describes how many times an operation is attempted, how long to
// wait between attempts, and which errors are worth another attempt.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// Retryable reports whether err should be retried. A nil Retryable
	// retries every error.
	Retryable func(error) bool
}

// Do calls fn until it succeeds, returns a non-retryable error, the attempts
// are exhausted, or ctx is done. It returns the last error from fn, or the
// context error if ctx ended first. attempt starts at 1.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt == attempts || !p.retryable(err) {
			return err
		}

		timer := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func (p Policy) retryable(err error) bool {
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}
