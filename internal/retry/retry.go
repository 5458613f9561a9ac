package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"syscall"
	"time"

	"github.com/andomingos87/seleto-industrial-sub000/internal/metrics"
)

// Policy defines retry behavior. It is a value type: every call site receives
// its own copy and nothing is shared or mutated after construction.
type Policy struct {
	MaxAttempts          int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	Multiplier           float64
	Jitter               bool
	RetryableStatusCodes map[int]struct{}
}

// DefaultPolicy provides sensible defaults for outbound CRM calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:          3,
		InitialBackoff:       1 * time.Second,
		MaxBackoff:           30 * time.Second,
		Multiplier:           2.0,
		Jitter:               true,
		RetryableStatusCodes: DefaultRetryableStatusCodes(),
	}
}

// DefaultRetryableStatusCodes returns the status codes retried by default.
func DefaultRetryableStatusCodes() map[int]struct{} {
	return map[int]struct{}{
		429: {},
		500: {},
		502: {},
		503: {},
		504: {},
	}
}

// statusCoder is implemented by classified API errors that carry an HTTP
// status. A zero status means the failure never reached the HTTP layer.
type statusCoder interface {
	StatusCode() int
}

// waitHinter is implemented by errors that carry an authoritative wait hint,
// such as a Retry-After header. The hint always wins over computed backoff.
type waitHinter interface {
	RetryAfter() (time.Duration, bool)
}

// IsRetryable reports whether err is worth another attempt under p.
// Classified errors are retried iff their status is in the policy set;
// transport-level failures (timeouts, connection errors) are always retried;
// everything else, including unrecognized errors, propagates immediately.
func IsRetryable(err error, p Policy) bool {
	if err == nil {
		return false
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		if status := sc.StatusCode(); status > 0 {
			_, ok := p.RetryableStatusCodes[status]
			return ok
		}
	}

	return isTransport(err)
}

func isTransport(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	// A deadline hit on a single call is a timeout, not a caller cancellation.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// backoffFor computes the exponential backoff for a 1-based attempt number.
func backoffFor(attempt int, p Policy) time.Duration {
	wait := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt-1))
	if wait > float64(p.MaxBackoff) {
		wait = float64(p.MaxBackoff)
	}
	if p.Jitter {
		wait += rand.Float64() * wait * 0.5
	}
	return time.Duration(wait)
}

// waitFor decides how long to wait before the next attempt. An authoritative
// hint on the error (rate-limit Retry-After) overrides the computed backoff.
func waitFor(err error, attempt int, p Policy) time.Duration {
	var h waitHinter
	if errors.As(err, &h) {
		if hint, ok := h.RetryAfter(); ok {
			return hint
		}
	}
	return backoffFor(attempt, p)
}

// Do executes op under p, sleeping cooperatively between attempts so the
// caller's context can abort the wait. The operation's name is used only for
// logging and metrics. After MaxAttempts failures the last error is returned
// unchanged.
func Do[T any](ctx context.Context, name string, p Policy, op func(context.Context) (T, error)) (T, error) {
	return run(name, p, func() (T, error) { return op(ctx) }, func(wait time.Duration) error {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	})
}

// DoBlocking is Do for callers without a context. It shares the exact same
// decision logic; only the wait primitive differs.
func DoBlocking[T any](name string, p Policy, op func() (T, error)) (T, error) {
	return run(name, p, op, func(wait time.Duration) error {
		time.Sleep(wait)
		return nil
	})
}

func run[T any](name string, p Policy, op func() (T, error), sleep func(time.Duration) error) (T, error) {
	var zero T
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err, p) {
			return zero, err
		}
		if attempt == p.MaxAttempts {
			break
		}

		wait := waitFor(err, attempt, p)
		slog.Warn("retrying operation",
			"op", name,
			"attempt", attempt,
			"max_attempts", p.MaxAttempts,
			"wait", wait,
			"error", err)
		metrics.RetryAttempts.WithLabelValues(name).Inc()

		if err := sleep(wait); err != nil {
			return zero, err
		}
	}

	slog.Error("retries exhausted",
		"op", name,
		"attempts", p.MaxAttempts,
		"error", lastErr)
	metrics.RetryExhaustions.WithLabelValues(name).Inc()
	return zero, lastErr
}
