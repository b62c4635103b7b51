// internal/ratelimit/limiter.go

// Package ratelimit implements the shared request limiter. Unlike a plain
// token bucket it enforces three simultaneous constraints: a per-second
// ceiling, a per-minute ceiling, and a minimum spacing between consecutive
// requests so traffic never shows a machine-regular burst pattern.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a sliding-window rate limiter safe for concurrent use.
// Acquire grants slots in arrival order.
type Limiter struct {
	perSecond  int
	perMinute  int
	minSpacing time.Duration

	// acquireMu serializes waiting acquirers so slots are granted in
	// request order. stateMu guards the request log.
	acquireMu sync.Mutex
	stateMu   sync.Mutex

	history     []time.Time // ascending request timestamps, <= 1 minute old
	lastRequest time.Time
}

// Config configures a Limiter.
type Config struct {
	PerSecond  int
	PerMinute  int
	MinSpacing time.Duration
}

// New creates a limiter. Non-positive ceilings fall back to conservative
// defaults.
func New(cfg Config) *Limiter {
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = 2
	}
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 30
	}
	if cfg.MinSpacing < 0 {
		cfg.MinSpacing = 0
	}
	return &Limiter{
		perSecond:  cfg.PerSecond,
		perMinute:  cfg.PerMinute,
		minSpacing: cfg.MinSpacing,
	}
}

// GetWaitTime returns how long the caller must wait until the next request
// is permitted. Zero means a request may proceed immediately.
func (l *Limiter) GetWaitTime() time.Duration {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return l.waitTimeLocked(time.Now())
}

// waitTimeLocked computes the maximum of the three constraint-implied
// waits. Caller holds stateMu.
func (l *Limiter) waitTimeLocked(now time.Time) time.Duration {
	l.pruneLocked(now)

	var wait time.Duration

	// Per-second window: wait until the oldest request inside the window
	// ages out.
	secondCutoff := now.Add(-time.Second)
	inSecond := 0
	var oldestInSecond time.Time
	for i := len(l.history) - 1; i >= 0; i-- {
		if l.history[i].After(secondCutoff) {
			inSecond++
			oldestInSecond = l.history[i]
		} else {
			break
		}
	}
	if inSecond >= l.perSecond {
		if w := oldestInSecond.Add(time.Second).Sub(now); w > wait {
			wait = w
		}
	}

	// Per-minute window: history only holds requests newer than a minute,
	// so its length is the window count.
	if len(l.history) >= l.perMinute {
		oldest := l.history[len(l.history)-l.perMinute]
		if w := oldest.Add(time.Minute).Sub(now); w > wait {
			wait = w
		}
	}

	// Minimum spacing since the last request.
	if l.minSpacing > 0 && !l.lastRequest.IsZero() {
		if w := l.lastRequest.Add(l.minSpacing).Sub(now); w > wait {
			wait = w
		}
	}

	return wait
}

// pruneLocked drops request timestamps older than one minute. Caller holds
// stateMu.
func (l *Limiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-time.Minute)
	drop := 0
	for drop < len(l.history) && !l.history[drop].After(cutoff) {
		drop++
	}
	if drop > 0 {
		l.history = append(l.history[:0], l.history[drop:]...)
	}
}

// Acquire blocks until a request slot is available, then records the
// request. After Acquire returns nil the caller is permitted to proceed
// with no further check. Returns the context error on cancellation.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.acquireMu.Lock()
	defer l.acquireMu.Unlock()

	for {
		l.stateMu.Lock()
		now := time.Now()
		wait := l.waitTimeLocked(now)
		if wait <= 0 {
			l.history = append(l.history, now)
			l.lastRequest = now
			l.stateMu.Unlock()
			return nil
		}
		l.stateMu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// CanRequest reports whether a request would be permitted right now,
// without blocking or recording anything.
func (l *Limiter) CanRequest() bool {
	return l.GetWaitTime() <= 0
}

// Reset clears all recorded history.
func (l *Limiter) Reset() {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.history = nil
	l.lastRequest = time.Time{}
}

// RequestsInLastMinute returns the current window occupancy.
func (l *Limiter) RequestsInLastMinute() int {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.pruneLocked(time.Now())
	return len(l.history)
}
