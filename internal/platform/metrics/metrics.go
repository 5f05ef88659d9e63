package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps coarse request counters for the /metrics endpoint.
// Counters are monotonic for the process lifetime.
type Collector struct {
	requests    uint64
	clientErrs  uint64
	serverErrs  uint64
	rateLimited uint64
	slow        uint64
	durationMs  uint64
}

// slowThreshold flags requests worth looking at in the snapshot.
const slowThreshold = 500 * time.Millisecond

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.requests, 1)
	switch {
	case status == 429:
		atomic.AddUint64(&c.rateLimited, 1)
	case status >= 500:
		atomic.AddUint64(&c.serverErrs, 1)
	case status >= 400:
		atomic.AddUint64(&c.clientErrs, 1)
	}
	if duration >= slowThreshold {
		atomic.AddUint64(&c.slow, 1)
	}
	atomic.AddUint64(&c.durationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) Snapshot() map[string]any {
	requests := atomic.LoadUint64(&c.requests)
	totalMs := atomic.LoadUint64(&c.durationMs)
	avg := float64(0)
	if requests > 0 {
		avg = float64(totalMs) / float64(requests)
	}
	return map[string]any{
		"requestsTotal":     requests,
		"clientErrorsTotal": atomic.LoadUint64(&c.clientErrs),
		"serverErrorsTotal": atomic.LoadUint64(&c.serverErrs),
		"rateLimitedTotal":  atomic.LoadUint64(&c.rateLimited),
		"slowRequestsTotal": atomic.LoadUint64(&c.slow),
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
	}
}
