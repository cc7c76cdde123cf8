package discovery_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sweepstakes/internal/discovery"
	"sweepstakes/internal/domain"
)

var t0 = time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)

func TestCompute_Breakdown(t *testing.T) {
	end := t0.Add(2*24*time.Hour + 3*time.Hour)
	got := discovery.Compute(end, t0)
	want := discovery.Countdown{Days: 2, Hours: 3, Urgent: true}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestCompute_Floors(t *testing.T) {
	end := t0.Add(5*24*time.Hour + 23*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond)
	got := discovery.Compute(end, t0)
	if got.Days != 5 || got.Hours != 23 || got.Minutes != 59 || got.Seconds != 59 || got.Urgent {
		t.Fatalf("got %+v", got)
	}
}

func TestCompute_Expired(t *testing.T) {
	if got := discovery.Compute(t0.Add(-time.Second), t0); !got.Expired || got.Urgent {
		t.Fatalf("expected expired, got %+v", got)
	}
	if got := discovery.Compute(t0, t0); !got.Expired {
		t.Fatalf("zero difference must be expired, got %+v", got)
	}
}

func TestComputeFor_NoEndDate(t *testing.T) {
	if _, ok := discovery.ComputeFor(domain.Listing{}, t0); ok {
		t.Fatalf("expected no countdown")
	}
	if _, ok := discovery.ComputeFor(domain.Listing{EndDate: ptr("whenever")}, t0); ok {
		t.Fatalf("malformed end date must not produce a countdown")
	}
}

// stepClock advances a fixed amount on every reading.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.now
	c.now = c.now.Add(c.step)
	return n
}

func TestWatch_StopEndsEmission(t *testing.T) {
	clock := &stepClock{now: t0, step: time.Second}
	var emits int32
	w := discovery.StartWatch(context.Background(), t0.Add(time.Hour), clock, 2*time.Millisecond, func(discovery.Countdown) {
		atomic.AddInt32(&emits, 1)
	})
	time.Sleep(20 * time.Millisecond)
	w.Stop()
	after := atomic.LoadInt32(&emits)
	if after == 0 {
		t.Fatalf("expected at least one emit")
	}
	time.Sleep(20 * time.Millisecond)
	if got := atomic.LoadInt32(&emits); got != after {
		t.Fatalf("emitted after Stop: %d -> %d", after, got)
	}
	w.Stop() // idempotent
}

func TestWatch_ContextCancelEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := discovery.StartWatch(ctx, t0.Add(time.Hour), domain.ClockFunc(func() time.Time { return t0 }), time.Millisecond, func(discovery.Countdown) {})
	cancel()
	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatalf("watch did not end on cancel")
	}
}

func TestWatch_EndsOnExpiry(t *testing.T) {
	clock := &stepClock{now: t0, step: time.Second}
	var last discovery.Countdown
	var n int
	w := discovery.StartWatch(context.Background(), t0.Add(3*time.Second), clock, time.Millisecond, func(c discovery.Countdown) {
		last = c
		n++
	})
	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatalf("watch did not end on expiry")
	}
	if !last.Expired || n != 4 {
		t.Fatalf("expected 4 emits ending expired, got n=%d last=%+v", n, last)
	}
}
