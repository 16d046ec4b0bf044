package utils

import (
	"testing"
	"time"
)

func TestLatencyTrackerPercentiles(t *testing.T) {
	tracker := NewLatencyTracker(100)
	for i := 1; i <= 100; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}

	if tracker.Count() != 100 {
		t.Fatalf("expected 100 samples, got %d", tracker.Count())
	}
	if got := tracker.Percentile(0); got != time.Millisecond {
		t.Fatalf("expected min 1ms, got %v", got)
	}
	if got := tracker.Percentile(100); got != 100*time.Millisecond {
		t.Fatalf("expected max 100ms, got %v", got)
	}
	p50 := tracker.Percentile(50)
	if p50 < 45*time.Millisecond || p50 > 55*time.Millisecond {
		t.Fatalf("p50 out of range: %v", p50)
	}
	p95 := tracker.Percentile(95)
	if p95 < 90*time.Millisecond || p95 > 100*time.Millisecond {
		t.Fatalf("p95 out of range: %v", p95)
	}
}

func TestLatencyTrackerEvictsOldest(t *testing.T) {
	tracker := NewLatencyTracker(3)
	for i := 1; i <= 5; i++ {
		tracker.Observe(time.Duration(i) * time.Second)
	}
	if tracker.Count() != 3 {
		t.Fatalf("expected bounded count 3, got %d", tracker.Count())
	}
	if got := tracker.Percentile(0); got != 3*time.Second {
		t.Fatalf("oldest samples should be evicted, min is %v", got)
	}
}

func TestLatencyTrackerEmpty(t *testing.T) {
	tracker := NewLatencyTracker(10)
	if got := tracker.Percentile(95); got != 0 {
		t.Fatalf("expected zero for empty tracker, got %v", got)
	}
}
