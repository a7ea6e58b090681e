package pipeline

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/docsift/internal/oracle"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	return oracle.IsRetryable(err)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// RetryEncoder retries transient encoder failures with jittered backoff.
type RetryEncoder struct {
	Inner oracle.Encoder
	Log   *slog.Logger
	// Backoff overrides the package Backoff; tests use it to skip sleeping.
	Backoff func(attempt int) time.Duration
}

func (r *RetryEncoder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	backoff := r.Backoff
	if backoff == nil {
		backoff = Backoff
	}
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	var vecs [][]float32
	var lastErr error
	for attempt := range MaxRetries {
		vecs, lastErr = r.Inner.Embed(ctx, texts)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		if attempt == MaxRetries-1 {
			break
		}
		log.Warn("retryable encoder error", "attempt", attempt, "batch_size", len(texts), "error", lastErr)
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return vecs, lastErr
}
