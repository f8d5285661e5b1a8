package countdown

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestCompute(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		offset time.Duration
		want   Remaining
	}{
		{"one of each", 90_061_000 * time.Millisecond, Remaining{Days: 1, Hours: 1, Minutes: 1, Seconds: 1}},
		{"sub-second remainder truncates", 1_999 * time.Millisecond, Remaining{Seconds: 1}},
		{"under one second still counting", 500 * time.Millisecond, Remaining{}},
		{"exactly now is expired", 0, Remaining{Expired: true}},
		{"past is expired", -time.Hour, Remaining{Expired: true}},
		{"many days", 50*24*time.Hour + 23*time.Hour + 59*time.Minute + 59*time.Second, Remaining{Days: 50, Hours: 23, Minutes: 59, Seconds: 59}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compute(now.Add(tt.offset), now); got != tt.want {
				t.Errorf("Compute = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeIsExactDecomposition(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for ms := int64(1000); ms < 10*msPerDay; ms += 7_777_777 {
		r := Compute(now.Add(time.Duration(ms)*time.Millisecond), now)
		total := r.Days*msPerDay + r.Hours*msPerHour + r.Minutes*msPerMinute + r.Seconds*msPerSecond
		if total != ms-ms%msPerSecond {
			t.Fatalf("ms=%d decomposed to %+v (%d)", ms, r, total)
		}
		if r.Hours >= 24 || r.Minutes >= 60 || r.Seconds >= 60 {
			t.Fatalf("ms=%d out of range: %+v", ms, r)
		}
	}
}

func TestParseTarget(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-02-21", time.Date(2026, 2, 21, 0, 0, 0, 0, loc)},
		{"2026-02-21T09:00:00", time.Date(2026, 2, 21, 9, 0, 0, 0, loc)},
		{"2026-02-21T09:30", time.Date(2026, 2, 21, 9, 30, 0, 0, loc)},
		{"2026-02-21T14:00:00Z", time.Date(2026, 2, 21, 14, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.in, loc)
		if err != nil {
			t.Errorf("ParseTarget(%q) error: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTarget(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "soon", "21/02/2026"} {
		if _, err := ParseTarget(bad, loc); err == nil {
			t.Errorf("ParseTarget(%q) should fail", bad)
		}
	}
}

func TestEventStart(t *testing.T) {
	got, err := EventStart("2026-02-21", "09:00:00", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2026, 2, 21, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("EventStart = %s, want %s", got, want)
	}
	got, err = EventStart("2026-02-21", "", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("EventStart without time = %s, want midnight", got)
	}
}

// fakeClock advances only when the test ticks it.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

type fakeTicker struct {
	c       chan time.Time
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               { f.stopped = true }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

// advance moves time forward and delivers one tick to the newest ticker.
func (c *fakeClock) advance(t *testing.T, d time.Duration) {
	t.Helper()
	var tk *fakeTicker
	deadline := time.Now().Add(2 * time.Second)
	for tk == nil {
		c.mu.Lock()
		if n := len(c.tickers); n > 0 {
			tk = c.tickers[n-1]
		}
		c.mu.Unlock()
		if tk == nil {
			if time.Now().After(deadline) {
				t.Fatal("ticker never created")
			}
			time.Sleep(time.Millisecond)
		}
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	tk.c <- now
}

func recv(t *testing.T, ch <-chan Remaining) (Remaining, bool) {
	t.Helper()
	select {
	case r, ok := <-ch:
		return r, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for countdown value")
		return Remaining{}, false
	}
}

func TestTimerCountsDownAndExpiresOnce(t *testing.T) {
	start := time.Date(2026, 2, 20, 23, 59, 58, 0, time.UTC)
	clock := &fakeClock{now: start}
	timer := NewTimer(clock)
	defer timer.Stop()

	ch := timer.Start(context.Background(), start.Add(2*time.Second))

	if r, _ := recv(t, ch); r != (Remaining{Seconds: 2}) {
		t.Fatalf("initial = %+v", r)
	}
	clock.advance(t, time.Second)
	if r, _ := recv(t, ch); r != (Remaining{Seconds: 1}) {
		t.Fatalf("after 1s = %+v", r)
	}
	clock.advance(t, time.Second)
	if r, _ := recv(t, ch); !r.Expired {
		t.Fatalf("after 2s = %+v, want expired", r)
	}
	if _, ok := recv(t, ch); ok {
		t.Fatal("channel should close after expiry")
	}
}

func TestTimerAlreadyExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	timer := NewTimer(&fakeClock{now: now})
	ch := timer.Start(context.Background(), now.Add(-time.Minute))

	if r, _ := recv(t, ch); !r.Expired {
		t.Fatalf("got %+v, want expired", r)
	}
	if _, ok := recv(t, ch); ok {
		t.Fatal("channel should be closed")
	}
}

func TestTimerResetStopsPreviousRun(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}
	timer := NewTimer(clock)
	defer timer.Stop()

	old := timer.Start(context.Background(), now.Add(time.Hour))
	recv(t, old)

	next := timer.Reset(context.Background(), now.Add(2*time.Hour))

	// The old channel is closed once its goroutine exits.
	for {
		if _, ok := recv(t, old); !ok {
			break
		}
	}

	if r, _ := recv(t, next); r.Hours != 2 {
		t.Fatalf("new target not used: %+v", r)
	}
	clock.mu.Lock()
	first := clock.tickers[0]
	clock.mu.Unlock()
	if !first.stopped {
		t.Error("old ticker was not stopped")
	}
}
