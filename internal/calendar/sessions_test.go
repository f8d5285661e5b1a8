package calendar

import (
	"testing"
	"time"
)

func TestExpandSessions(t *testing.T) {
	// 2026-03-02 is a Monday.
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 15)

	rules := []SessionRule{
		{Title: "Volunteer orientation", RRule: "FREQ=WEEKLY;BYDAY=TU", Start: "18:00", Duration: 90 * time.Minute, Location: "Online"},
		{Title: "Sponsor Q&A", RRule: "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO", Start: "12:30"},
		{Title: "Broken", RRule: "FREQ=SOMETIMES"},
	}

	got, err := ExpandSessions(rules, from, to, time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	want := []struct {
		title string
		start time.Time
	}{
		{"Sponsor Q&A", time.Date(2026, 3, 2, 12, 30, 0, 0, time.UTC)},
		{"Volunteer orientation", time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC)},
		{"Volunteer orientation", time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)},
		{"Sponsor Q&A", time.Date(2026, 3, 16, 12, 30, 0, 0, time.UTC)},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d sessions, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Title != w.title || !got[i].Start.Equal(w.start) {
			t.Errorf("[%d] = %s @ %s, want %s @ %s", i, got[i].Title, got[i].Start, w.title, w.start)
		}
	}
	if d := got[1].End.Sub(got[1].Start); d != 90*time.Minute {
		t.Errorf("orientation duration = %s", d)
	}
	if d := got[0].End.Sub(got[0].Start); d != time.Hour {
		t.Errorf("default duration = %s, want 1h", d)
	}
}

func TestExpandSessionsCapsOpenEndedRules(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := ExpandSessions([]SessionRule{{Title: "Daily", RRule: "FREQ=DAILY"}}, from, from.AddDate(1, 0, 0), time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != maxSessionsPerRule {
		t.Errorf("got %d, want cap %d", len(got), maxSessionsPerRule)
	}
}

func TestExpandSessionsBadRange(t *testing.T) {
	now := time.Now()
	if _, err := ExpandSessions(nil, now, now.Add(-time.Hour), time.UTC); err == nil {
		t.Error("reversed range should fail")
	}
}
