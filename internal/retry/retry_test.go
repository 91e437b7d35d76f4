package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBusy = errors.New("busy")

func isBusy(err error) bool { return errors.Is(err, errBusy) }

func TestPolicyDo(t *testing.T) {
	errDenied := errors.New("denied")
	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{"first try succeeds", nil, 1, nil},
		{"retryable then success", []error{errBusy, errBusy}, 3, nil},
		{"retryable exhausted", []error{errBusy, errBusy, errBusy, errBusy}, 3, errBusy},
		{"non retryable stops", []error{errDenied}, 1, errDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Policy{MaxAttempts: 3, Delay: time.Millisecond, Retryable: isBusy}
			calls := 0
			err := p.Do(context.Background(), func(attempt int) error {
				calls++
				if attempt != calls {
					t.Fatalf("attempt = %d, want %d", attempt, calls)
				}
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPolicyDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5, Delay: time.Hour}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(int) error {
			calls++
			return errBusy
		})
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after cancel")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestPolicyZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Policy{}.Do(context.Background(), func(int) error {
		calls++
		return errBusy
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
