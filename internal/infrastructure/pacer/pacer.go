// Package pacer spaces upstream calls per class so that the process as a
// whole never exceeds the informal rate limits of the Jobsuche API.
package pacer

import (
	"context"
	"sync"
	"time"

	"github.com/janhq/jobsuche-mcp/internal/domain/jobsearch"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure/metrics"
)

// Pacer hands out start slots per class. Each Wait reserves the earliest slot
// that is at least the class interval after the previously reserved one, then
// sleeps until that slot outside the lock.
type Pacer struct {
	mu        sync.Mutex
	intervals map[jobsearch.PaceClass]time.Duration
	last      map[jobsearch.PaceClass]time.Time
	now       func() time.Time
}

// New creates a pacer. Classes without an interval are not spaced.
func New(intervals map[jobsearch.PaceClass]time.Duration) *Pacer {
	copied := make(map[jobsearch.PaceClass]time.Duration, len(intervals))
	for class, interval := range intervals {
		copied[class] = interval
	}
	return &Pacer{
		intervals: copied,
		last:      make(map[jobsearch.PaceClass]time.Time),
		now:       time.Now,
	}
}

// Wait blocks until the caller may issue a call of class and returns the
// permitted timestamp. On cancellation the reserved slot is released when no
// later caller has reserved after it.
func (p *Pacer) Wait(ctx context.Context, class jobsearch.PaceClass) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	p.mu.Lock()
	now := p.now()
	slot := now
	previous, seen := p.last[class]
	if seen {
		if next := previous.Add(p.intervals[class]); next.After(slot) {
			slot = next
		}
	}
	p.last[class] = slot
	p.mu.Unlock()

	wait := slot.Sub(now)
	metrics.RecordPacerWait(string(class), wait.Seconds())
	if wait <= 0 {
		return slot, nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return slot, nil
	case <-ctx.Done():
		p.mu.Lock()
		if p.last[class].Equal(slot) {
			if seen {
				p.last[class] = previous
			} else {
				delete(p.last, class)
			}
		}
		p.mu.Unlock()
		return time.Time{}, ctx.Err()
	}
}

// Intervals returns the configured spacing per class.
func (p *Pacer) Intervals() map[jobsearch.PaceClass]time.Duration {
	out := make(map[jobsearch.PaceClass]time.Duration, len(p.intervals))
	for class, interval := range p.intervals {
		out[class] = interval
	}
	return out
}
