package discovery

import (
	"context"
	"time"

	"sweepstakes/internal/domain"
)

// UrgentDays is the threshold under which a live countdown is urgent.
const UrgentDays = 3

// Countdown is a time-remaining breakdown. When Expired, the numeric fields are zero.
type Countdown struct {
	Expired bool `json:"expired"`
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
	Urgent  bool `json:"urgent"`
}

// Compute derives the breakdown from end as observed at now.
func Compute(end, now time.Time) Countdown {
	diff := end.Sub(now)
	if diff <= 0 {
		return Countdown{Expired: true}
	}
	ms := diff.Milliseconds()
	c := Countdown{
		Days:    int(ms / 86_400_000),
		Hours:   int(ms / 3_600_000 % 24),
		Minutes: int(ms / 60_000 % 60),
		Seconds: int(ms / 1000 % 60),
	}
	c.Urgent = c.Days < UrgentDays
	return c
}

// ComputeFor is Compute for a listing. ok is false when the listing has
// no usable end date and so no countdown at all.
func ComputeFor(l domain.Listing, now time.Time) (c Countdown, ok bool) {
	end, ok := endOf(l.EndDate)
	if !ok {
		return Countdown{}, false
	}
	return Compute(end, now), true
}

// Watch recomputes a countdown on a fixed interval while it is observed.
type Watch struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartWatch emits the current breakdown immediately and then once per
// interval against a fresh clock reading. It ends when ctx is done, Stop is
// called, or the countdown reaches the expired state (which is emitted).
func StartWatch(ctx context.Context, end time.Time, clock domain.Clock, interval time.Duration, emit func(Countdown)) *Watch {
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	w := &Watch{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(w.done)
		defer cancel()

		c := Compute(end, clock.Now())
		emit(c)
		if c.Expired {
			return
		}

		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if ctx.Err() != nil {
					return
				}
				c := Compute(end, clock.Now())
				emit(c)
				if c.Expired {
					return
				}
			}
		}
	}()
	return w
}

// Stop ends the watch and waits until no further emit can happen. Safe to call twice.
func (w *Watch) Stop() {
	w.cancel()
	<-w.done
}

// Done is closed once the watch has fully ended.
func (w *Watch) Done() <-chan struct{} { return w.done }
