package worker

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrRetriesExhausted is returned by Poll when MaxRetries attempts did not finish the job.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryPolicy defines exponential backoff parameters.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns delay for a given attempt (1-based) with clamping.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	d := time.Duration(delay)
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = time.Second
	}
	return d
}

// Poll calls fn until it reports done, returns an error, or the context ends.
// Attempts are spaced by NextDelay. MaxRetries <= 0 means poll until ctx is done.
func (r RetryPolicy) Poll(ctx context.Context, fn func(ctx context.Context, attempt int) (bool, error)) error {
	for attempt := 1; ; attempt++ {
		done, err := fn(ctx, attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if r.MaxRetries > 0 && attempt >= r.MaxRetries {
			return ErrRetriesExhausted
		}

		timer := time.NewTimer(r.NextDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
