// Package countdown computes the time left until an event starts.
package countdown

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

const (
	msPerSecond = int64(1000)
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// Remaining is a days/hours/minutes/seconds breakdown. When Expired is set
// all other fields are zero.
type Remaining struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
	Expired bool  `json:"expired"`
}

// Compute breaks target-now down with an integer division cascade on
// milliseconds. A non-positive difference is Expired.
func Compute(target, now time.Time) Remaining {
	ms := target.Sub(now).Milliseconds()
	if ms <= 0 {
		return Remaining{Expired: true}
	}
	r := Remaining{}
	r.Days = ms / msPerDay
	ms %= msPerDay
	r.Hours = ms / msPerHour
	ms %= msPerHour
	r.Minutes = ms / msPerMinute
	ms %= msPerMinute
	r.Seconds = ms / msPerSecond
	return r
}

var targetLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTarget accepts RFC 3339 instants and zone-less date or date-time
// strings. Zone-less values are wall time in loc; a bare date is loc midnight.
func ParseTarget(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("countdown: empty target")
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range targetLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("countdown: unrecognized target " + s)
}

// EventStart combines an event date ("2006-01-02") and optional time
// ("15:04:05" or "15:04") into the instant the countdown targets.
func EventStart(date, clock string, loc *time.Location) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return ParseTarget(date, loc)
	}
	return ParseTarget(strings.TrimSpace(date)+"T"+clock, loc)
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the subset of *time.Ticker the timer uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// SystemClock is the wall clock.
var SystemClock Clock = realClock{}

// Timer emits a fresh Remaining once per second until the target passes.
// Each tick re-derives from the clock so timer slop never accumulates.
type Timer struct {
	clock Clock

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTimer builds a Timer on clock (SystemClock if nil).
func NewTimer(clock Clock) *Timer {
	if clock == nil {
		clock = SystemClock
	}
	return &Timer{clock: clock}
}

// Start begins counting toward target and returns the channel of updates.
// The first value is sent immediately. After the Expired value is sent the
// channel is closed and nothing more is produced. Any previous run is
// stopped first.
func (t *Timer) Start(ctx context.Context, target time.Time) <-chan Remaining {
	t.Stop()

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Remaining, 1)
	done := make(chan struct{})

	t.mu.Lock()
	t.cancel = cancel
	t.done = done
	t.mu.Unlock()

	go t.run(ctx, target, out, done)
	return out
}

// Reset restarts the timer on a new target, tearing down the old ticker.
func (t *Timer) Reset(ctx context.Context, target time.Time) <-chan Remaining {
	return t.Start(ctx, target)
}

// Stop ends the current run, if any, and waits for its goroutine to exit.
func (t *Timer) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (t *Timer) run(ctx context.Context, target time.Time, out chan<- Remaining, done chan<- struct{}) {
	defer close(done)
	defer close(out)

	emit := func() bool {
		r := Compute(target, t.clock.Now())
		select {
		case out <- r:
		case <-ctx.Done():
			return false
		}
		return !r.Expired
	}

	if !emit() {
		return
	}

	ticker := t.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if !emit() {
				return
			}
		}
	}
}
