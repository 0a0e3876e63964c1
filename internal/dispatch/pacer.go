package dispatch

import (
	"sync"
	"time"
)

// pacer is the shared pacing clock: successive call initiations across all
// workers are spaced by at least interval. Constructed once per dispatcher
// and owned by it.
type pacer struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

func newPacer(interval time.Duration) *pacer {
	return &pacer{interval: interval}
}

// reserve claims the next initiation slot and returns how long the caller
// must wait before starting its call. The slot is advanced under the lock so
// concurrent workers can never burst inside one interval.
func (p *pacer) reserve(now time.Time) time.Duration {
	if p.interval <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	slot := p.next
	if slot.Before(now) {
		slot = now
	}
	p.next = slot.Add(p.interval)
	return slot.Sub(now)
}
