// Package resilience retries calls to external dependencies with
// exponential backoff and jitter. The catalog uses it for the startup bulk
// load, where the alternative to retrying is an empty index.
package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// RetryConfig controls attempt count and backoff shape. Zero values fall
// back to defaults (3 attempts, 100ms doubling to 10s, 10% jitter).
type RetryConfig struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
}

func (cfg RetryConfig) withDefaults() RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.JitterFraction <= 0 {
		cfg.JitterFraction = 0.1
	}
	return cfg
}

// Retry runs fn until it succeeds or MaxAttempts is reached, waiting a
// jittered, exponentially growing delay between attempts. Cancelling ctx
// during a wait aborts immediately.
func Retry(ctx context.Context, name string, cfg RetryConfig, fn func() error) error {
	cfg = cfg.withDefaults()
	log := slog.Default().With("component", "retry", "operation", name)

	delay := cfg.InitialDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				log.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt >= cfg.MaxAttempts {
			return fmt.Errorf("%s: %d attempts exhausted: %w", name, attempt, err)
		}

		wait := jitter(delay, cfg)
		log.Warn("attempt failed, backing off",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"error", err,
			"wait", wait,
		)
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s interrupted: %w", name, ctx.Err())
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

// jitter spreads a delay by up to JitterFraction in either direction,
// clamped to (0, MaxDelay].
func jitter(delay time.Duration, cfg RetryConfig) time.Duration {
	spread := time.Duration((rand.Float64()*2 - 1) * cfg.JitterFraction * float64(delay))
	d := delay + spread
	if d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	if d <= 0 {
		d = delay
	}
	return d
}
