// Package retry runs an operation a bounded number of times with a fixed
// pause between attempts.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxAttempts = 5
	DefaultDelay       = time.Second
)

// Config controls Do. Sleep is injectable; when nil the pause honours ctx.
type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
	// Name labels log lines.
	Name string
}

// Default returns five attempts one second apart.
func Default() Config {
	return Config{MaxAttempts: DefaultMaxAttempts, Delay: DefaultDelay}
}

// ExhaustedError is returned once every attempt has failed. It unwraps to
// the last attempt's error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all retries failed: %v", e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Do calls fn until it succeeds or the attempt budget is spent. attempt is
// 1-based. A cancelled context stops the loop between attempts and its error
// is returned as is.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context, attempt int) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = wait
	}

	var last error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		last = fn(ctx, attempt)
		if last == nil {
			if attempt > 1 {
				log.Info().Str("op", cfg.Name).Int("attempt", attempt).Msg("succeeded after retry")
			}
			return nil
		}
		log.Warn().Err(last).Str("op", cfg.Name).
			Int("attempt", attempt).
			Int("max_attempts", cfg.MaxAttempts).
			Msg("attempt failed")

		if attempt == cfg.MaxAttempts {
			break
		}
		if err := sleep(ctx, cfg.Delay); err != nil {
			return err
		}
	}
	return &ExhaustedError{Attempts: cfg.MaxAttempts, Last: last}
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
