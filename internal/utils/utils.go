package utils

import (
	"context"
	"math"
	"time"
)

var sleep = time.Sleep

// WaitFor blocks for d or until ctx is done, whichever comes first.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Round rounds v to the nearest multiple of step. Non-positive steps round to cents.
func Round(v, step float64) float64 {
	if step <= 0 {
		step = 0.01
	}
	if step < 1 {
		inv := math.Round(1 / step)
		return math.Round(v*inv) / inv
	}
	return math.Round(v/step) * step
}
