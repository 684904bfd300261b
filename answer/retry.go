package answer

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

type RetryConfig struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	JitterFactor      float64
}

var DefaultRetryConfig = RetryConfig{
	MaxAttempts:       3,
	InitialBackoff:    100 * time.Millisecond,
	MaxBackoff:        10 * time.Second,
	BackoffMultiplier: 2.0,
	JitterFactor:      0.1,
}

// WithRetry wraps a function with retry logic using exponential backoff and jitter
func WithRetry[T any](ctx context.Context, fn func(context.Context) (T, error), cfg RetryConfig) (T, error) {
	var result T
	var err error

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		if !isRetryableError(err) || ctx.Err() != nil {
			return result, err
		}
		// Don't sleep after the last attempt
		if attempt == attempts-1 {
			break
		}

		backoff := calculateBackoff(attempt, cfg)
		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return result, ctx.Err()
		case <-t.C:
		}
	}

	return result, err
}

func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffMultiplier, float64(attempt))
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	jitter := (rand.Float64()*2 - 1) * cfg.JitterFactor * backoff
	return time.Duration(backoff + jitter)
}

// isRetryableError determines if an error should be retried.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	if errors.Is(err, ErrMalformedResponse) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

// Retrying wraps a Service so that failed requests are repeated with
// backoff. Cancellation, client errors and malformed replies are
// returned immediately.
type Retrying struct {
	next Service
	cfg  RetryConfig
	log  *zap.SugaredLogger
}

// NewRetrying returns svc wrapped with retry logic.
func NewRetrying(svc Service, cfg RetryConfig, log *zap.SugaredLogger) *Retrying {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Retrying{next: svc, cfg: cfg, log: log}
}

func (r *Retrying) Answer(ctx context.Context, req Request) (string, error) {
	attempt := 0
	return WithRetry(ctx, func(ctx context.Context) (string, error) {
		attempt++
		text, err := r.next.Answer(ctx, req)
		if err != nil && attempt < r.cfg.MaxAttempts && isRetryableError(err) {
			r.log.Debugw("answer request failed, retrying", "attempt", attempt, "error", err)
		}
		return text, err
	}, r.cfg)
}
