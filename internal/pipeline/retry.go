package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tallylabs/expensebot/pkg/logger"
)

// Transient error patterns that indicate a deploy invocation should be
// retried.
var transientErrorPatterns = []string{
	"timeout",
	"timed out",
	"connection refused",
	"connection reset",
	"network error",
	"temporarily unavailable",
	"tls handshake",
	"could not resolve host",
	"failed to fetch",
}

// RetryStrategy defines retry behavior for deploy invocations.
type RetryStrategy struct {
	MaxAttempts     int
	RetryableErrors []string
	BackoffDuration time.Duration
}

// DefaultRetryStrategy returns the default retry strategy.
func DefaultRetryStrategy() *RetryStrategy {
	return &RetryStrategy{
		MaxAttempts:     2,
		RetryableErrors: transientErrorPatterns,
		BackoffDuration: 5 * time.Second,
	}
}

// Attempt records a single invocation attempt.
type Attempt struct {
	AttemptNumber int
	StartedAt     time.Time
	Duration      time.Duration
	Error         string
}

// Retrier reruns failed operations when the failure looks transient.
type Retrier struct {
	strategy *RetryStrategy
	attempts map[string][]Attempt
	logger   *slog.Logger
}

// RetrierOption is a functional option for configuring the Retrier.
type RetrierOption func(*Retrier)

// WithRetryStrategy sets a custom retry strategy.
func WithRetryStrategy(strategy *RetryStrategy) RetrierOption {
	return func(r *Retrier) {
		r.strategy = strategy
	}
}

// NewRetrier creates a new Retrier.
func NewRetrier(logger *slog.Logger, opts ...RetrierOption) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Retrier{
		strategy: DefaultRetryStrategy(),
		attempts: make(map[string][]Attempt),
		logger:   logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// IsRetryableError checks if an error matches any transient pattern.
func (r *Retrier) IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range r.strategy.RetryableErrors {
		if strings.Contains(errStr, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// Attempts returns all recorded attempts for an operation.
func (r *Retrier) Attempts(name string) []Attempt {
	return r.attempts[name]
}

// Do runs op, retrying up to the strategy's max attempts as long as the
// failure is transient. The last error is returned when all attempts fail.
func (r *Retrier) Do(ctx context.Context, name string, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.strategy.MaxAttempts; attempt++ {
		started := time.Now()
		err := op(ctx)

		record := Attempt{
			AttemptNumber: attempt,
			StartedAt:     started,
			Duration:      time.Since(started),
		}
		if err != nil {
			record.Error = err.Error()
		}
		r.attempts[name] = append(r.attempts[name], record)

		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == r.strategy.MaxAttempts || !r.IsRetryableError(err) {
			break
		}

		r.logger.Warn("transient failure, retrying",
			"run_id", logger.RunIDFromContext(ctx),
			"operation", name,
			"attempt", attempt,
			"backoff", r.strategy.BackoffDuration,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.strategy.BackoffDuration):
		}
	}

	return lastErr
}
