package utils

import (
	"sort"
	"sync"
	"time"
)

// LatencyTracker keeps a bounded ring of recent duration samples so the
// analysis service can report rolling percentiles without unbounded growth.
type LatencyTracker struct {
	mu   sync.Mutex
	ring []time.Duration
	next int
}

// NewLatencyTracker creates a tracker that retains the most recent maxSize
// samples, evicting the oldest once full.
func NewLatencyTracker(maxSize int) *LatencyTracker {
	if maxSize <= 0 {
		maxSize = 512
	}
	return &LatencyTracker{ring: make([]time.Duration, 0, maxSize)}
}

// Observe records one duration sample.
func (l *LatencyTracker) Observe(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.ring) < cap(l.ring) {
		l.ring = append(l.ring, d)
		return
	}
	l.ring[l.next] = d
	l.next = (l.next + 1) % cap(l.ring)
}

// Percentile returns the duration at percentile p (0 yields the minimum,
// 100 the maximum). With no samples it returns zero.
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	sorted := l.snapshot()
	if len(sorted) == 0 {
		return 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	switch {
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	idx := int((p / 100.0) * float64(len(sorted)-1))
	return sorted[idx]
}

// Count reports how many samples are currently retained.
func (l *LatencyTracker) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ring)
}

func (l *LatencyTracker) snapshot() []time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]time.Duration(nil), l.ring...)
}
