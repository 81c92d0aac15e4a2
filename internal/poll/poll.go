// Package poll is the bounded retry-with-fixed-delay primitive shared by
// meta resolution and the offer flow.
package poll

import (
	"context"
	"time"
)

// Options bound a polling run.
type Options struct {
	// Attempts is the number of retries after the immediate first call.
	Attempts int
	// Interval is the fixed wait between calls.
	Interval time.Duration
}

// Until calls fn immediately and then up to opts.Attempts more times,
// opts.Interval apart, until fn reports done. It returns the last value and
// whether fn succeeded. A cancelled context stops the run early.
func Until[T any](ctx context.Context, opts Options, fn func(context.Context) (T, bool)) (T, bool) {
	v, done := fn(ctx)
	if done {
		return v, true
	}

	timer := time.NewTimer(opts.Interval)
	defer timer.Stop()

	for attempt := 0; attempt < opts.Attempts; attempt++ {
		if attempt > 0 {
			timer.Reset(opts.Interval)
		}
		select {
		case <-ctx.Done():
			return v, false
		case <-timer.C:
		}
		v, done = fn(ctx)
		if done {
			return v, true
		}
	}
	return v, false
}
