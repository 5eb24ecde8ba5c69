package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2,
		JitterFraction: 0.1,
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "op", fastConfig(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryRecoversAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "op", fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	boom := errors.New("permanent")
	calls := 0
	err := Retry(context.Background(), "op", fastConfig(), func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Retry error = %v, want wrapped %v", err, boom)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, "op", fastConfig(), func() error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestJitterStaysWithinBounds(t *testing.T) {
	cfg := fastConfig().withDefaults()
	for i := 0; i < 100; i++ {
		d := jitter(cfg.MaxDelay, cfg)
		if d > cfg.MaxDelay {
			t.Fatalf("jitter = %v, exceeds max %v", d, cfg.MaxDelay)
		}
		if d <= 0 {
			t.Fatalf("jitter = %v, want positive", d)
		}
	}
}
