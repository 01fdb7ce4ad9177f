package core

import (
	"context"
	"sync/atomic"
	"time"
)

// Defaults used when the limiter is built with non-positive settings.
const (
	DefaultMaxConcurrentRuns = 4
	DefaultMaxRunWait        = 10 * time.Second
)

// drainPoll is how often WaitForDrain checks for idle.
const drainPoll = 50 * time.Millisecond

// RunLimiter bounds how many pipeline runs hold parsed tables in memory at
// once. Every page render, chart and export re-runs the pipeline, so the
// limiter is shared by all handlers.
type RunLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
	served  atomic.Int64
	refused atomic.Int64
}

// NewRunLimiter allows maxConcurrent runs. Callers that cannot get a slot
// within maxWait receive ErrBusy.
func NewRunLimiter(maxConcurrent int, maxWait time.Duration) *RunLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRuns
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxRunWait
	}
	return &RunLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot. The caller must Release it.
func (l *RunLimiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	default:
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-timer.C:
		l.refused.Add(1)
		return ErrBusy
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *RunLimiter) Release() {
	l.active.Add(-1)
	l.served.Add(1)
	<-l.slots
}

// Do runs fn while holding a slot.
func (l *RunLimiter) Do(ctx context.Context, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}

// WaitForDrain blocks until no run is active or ctx is done.
func (l *RunLimiter) WaitForDrain(ctx context.Context) error {
	if l.active.Load() == 0 {
		return nil
	}
	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.active.Load() == 0 {
				return nil
			}
		}
	}
}

// LimiterStatus is a point-in-time view of the limiter.
type LimiterStatus struct {
	Active        int   `json:"active"`
	Available     int   `json:"available"`
	MaxConcurrent int   `json:"max_concurrent"`
	Served        int64 `json:"served"`
	Refused       int64 `json:"refused"`
}

// Status reports current usage.
func (l *RunLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        int(l.active.Load()),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
		Served:        l.served.Load(),
		Refused:       l.refused.Load(),
	}
}
