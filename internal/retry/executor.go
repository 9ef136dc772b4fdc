package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Policy configures retries. Attempts counts the first call.
type Policy struct {
	Attempts    int           `yaml:"attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	CallTimeout time.Duration `yaml:"call_timeout"`
}

// DefaultPolicy: 4 attempts, 2s base delay, 30s per call.
func DefaultPolicy() Policy {
	return Policy{Attempts: 4, BaseDelay: 2 * time.Second, CallTimeout: 30 * time.Second}
}

// Executor runs external calls with bounded exponential backoff.
type Executor struct {
	policy Policy
}

// New creates an Executor. Zero fields fall back to DefaultPolicy.
func New(p Policy) *Executor {
	def := DefaultPolicy()
	if p.Attempts <= 0 {
		p.Attempts = def.Attempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.CallTimeout <= 0 {
		p.CallTimeout = def.CallTimeout
	}
	return &Executor{policy: p}
}

// Policy returns the effective policy.
func (e *Executor) Policy() Policy { return e.policy }

// Delay returns the wait after the given zero-based failed attempt: base * 2^attempt.
func (e *Executor) Delay(attempt int) time.Duration {
	return e.policy.BaseDelay * time.Duration(1<<uint(attempt))
}

// Do calls fn until it succeeds, fails terminally or attempts run out.
// Each attempt gets its own CallTimeout. Waiting honours ctx.
func Do[T any](ctx context.Context, e *Executor, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < e.policy.Attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, e.policy.CallTimeout)
		v, err := fn(callCtx)
		cancel()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s: %w", op, ctx.Err())
		}
		if !IsTransient(err) {
			return zero, fmt.Errorf("%s: %w", op, err)
		}
		if attempt == e.policy.Attempts-1 {
			break
		}

		backoff := e.Delay(attempt)
		log.Warn().Err(err).Str("op", op).
			Int("attempt", attempt+1).Int("max", e.policy.Attempts).
			Dur("backoff", backoff).Msg("transient failure, retrying")
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(backoff):
		}
	}
	return zero, fmt.Errorf("%s: all %d attempts exhausted: %w", op, e.policy.Attempts, lastErr)
}

// Run is Do for calls without a payload.
func Run(ctx context.Context, e *Executor, op string, fn func(context.Context) error) error {
	_, err := Do(ctx, e, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
