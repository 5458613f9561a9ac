package retry

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"
)

// classified mimics the CRM error shape: a status code plus an optional
// authoritative wait hint.
type classified struct {
	status int
	hint   time.Duration
}

func (e *classified) Error() string {
	return fmt.Sprintf("status %d", e.status)
}

func (e *classified) StatusCode() int {
	return e.status
}

func (e *classified) RetryAfter() (time.Duration, bool) {
	return e.hint, e.hint > 0
}

// timeoutErr mimics a net.Error timeout.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func fastPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts:          maxAttempts,
		InitialBackoff:       time.Microsecond,
		MaxBackoff:           time.Millisecond,
		Multiplier:           2.0,
		RetryableStatusCodes: DefaultRetryableStatusCodes(),
	}
}

func TestIsRetryable(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"rate limited", &classified{status: 429}, true},
		{"server error", &classified{status: 500}, true},
		{"bad gateway", &classified{status: 502}, true},
		{"auth error", &classified{status: 401}, false},
		{"forbidden", &classified{status: 403}, false},
		{"not found", &classified{status: 404}, false},
		{"validation", &classified{status: 422}, false},
		{"net timeout", timeoutErr{}, true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"call deadline", context.DeadlineExceeded, true},
		{"caller cancelled", context.Canceled, false},
		{"unrecognized", errors.New("something odd"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err, policy); got != tt.expect {
			t.Errorf("%s: IsRetryable(%v) = %v, want %v", tt.name, tt.err, got, tt.expect)
		}
	}
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	failures := 2
	calls := 0

	result, err := Do(context.Background(), "op", fastPolicy(5), func(ctx context.Context) (string, error) {
		calls++
		if calls <= failures {
			return "", &classified{status: 503}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected ok, got %q", result)
	}
	if calls != failures+1 {
		t.Errorf("expected %d calls, got %d", failures+1, calls)
	}
}

func TestDo_ExhaustsAndReturnsLastError(t *testing.T) {
	calls := 0
	lastErr := &classified{status: 500}

	_, err := Do(context.Background(), "op", fastPolicy(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, lastErr
	})
	if !errors.Is(err, lastErr) {
		t.Errorf("expected last error to propagate unchanged, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 calls, got %d", calls)
	}
}

func TestDo_NonRetryablePropagatesImmediately(t *testing.T) {
	calls := 0
	notFound := &classified{status: 404}

	_, err := Do(context.Background(), "op", fastPolicy(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, notFound
	})
	if !errors.Is(err, notFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls)
	}
}

func TestBackoff_SequenceWithoutJitter(t *testing.T) {
	policy := Policy{
		MaxAttempts:    6,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
		Jitter:         false,
	}

	expected := []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second,
	}
	var prev time.Duration
	for i, want := range expected {
		got := backoffFor(i+1, policy)
		if got != want {
			t.Errorf("attempt %d: backoff = %v, want %v", i+1, got, want)
		}
		if got < prev {
			t.Errorf("attempt %d: backoff decreased from %v to %v", i+1, prev, got)
		}
		if got > policy.MaxBackoff {
			t.Errorf("attempt %d: backoff %v exceeds max %v", i+1, got, policy.MaxBackoff)
		}
		prev = got
	}
}

func TestBackoff_JitterStaysInRange(t *testing.T) {
	policy := Policy{
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     time.Minute,
		Multiplier:     2.0,
		Jitter:         true,
	}

	for i := 0; i < 100; i++ {
		got := backoffFor(1, policy)
		if got < 1*time.Second || got >= 1500*time.Millisecond {
			t.Fatalf("jittered backoff %v outside [1s, 1.5s)", got)
		}
	}
}

func TestWaitFor_HintWins(t *testing.T) {
	policy := Policy{
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     time.Minute,
		Multiplier:     2.0,
	}

	hinted := &classified{status: 429, hint: 7 * time.Second}
	if got := waitFor(hinted, 1, policy); got != 7*time.Second {
		t.Errorf("expected hint 7s to win, got %v", got)
	}

	unhinted := &classified{status: 429}
	if got := waitFor(unhinted, 1, policy); got != 1*time.Second {
		t.Errorf("expected computed backoff 1s, got %v", got)
	}
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	policy := fastPolicy(3)
	policy.InitialBackoff = 10 * time.Second
	policy.MaxBackoff = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, "op", policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, &classified{status: 503}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestDoBlocking_SharesDecisionLogic(t *testing.T) {
	calls := 0
	result, err := DoBlocking("op", fastPolicy(3), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, timeoutErr{}
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got %d", result)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ZeroMaxAttemptsStillRunsOnce(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), "op", Policy{}, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
