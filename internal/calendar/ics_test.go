package calendar

import (
	"bytes"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"startright/internal/model"
)

func sampleEvent() model.Event {
	return model.Event{
		ID:          12,
		Title:       "Start Right Spring Summit",
		Description: "Workshops, panels; networking, and lunch",
		Date:        "2026-02-21",
		Time:        "09:00:00",
		Location:    "Newark, NJ",
		Venue:       "Rutgers Student Center",
	}
}

func utcOpts() Options {
	return Options{Location: time.UTC, UIDDomain: "example.org"}
}

func TestWindow(t *testing.T) {
	start, end, err := Window(sampleEvent(), utcOpts())
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2026, 2, 21, 9, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %s, want %s", start, want)
	}
	if got := end.Sub(start); got != 4*time.Hour {
		t.Errorf("duration = %s, want 4h", got)
	}

	ev := sampleEvent()
	ev.Time = ""
	ev.Date = "2026-02-21T00:00:00.000Z"
	start, _, err = Window(ev, Options{Location: time.UTC, DefaultTime: "10:30"})
	if err != nil {
		t.Fatal(err)
	}
	if start.Hour() != 10 || start.Minute() != 30 || start.Day() != 21 {
		t.Errorf("default time not applied: %s", start)
	}
}

func TestBuildICS(t *testing.T) {
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	body, err := BuildICS(sampleEvent(), now, utcOpts())
	if err != nil {
		t.Fatal(err)
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("generated calendar does not parse: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ve := events[0]

	prop := func(p ical.ComponentProperty) string {
		t.Helper()
		v := ve.GetProperty(p)
		if v == nil {
			t.Fatalf("missing %s", p)
		}
		return strings.NewReplacer(`\,`, ",", `\;`, ";").Replace(v.Value)
	}

	if got := prop(ical.ComponentPropertyUniqueId); got != "event-12@example.org" {
		t.Errorf("UID = %q", got)
	}
	if got := prop(ical.ComponentPropertyDtStart); got != "20260221T090000Z" {
		t.Errorf("DTSTART = %q", got)
	}
	if got := prop(ical.ComponentPropertyDtEnd); got != "20260221T130000Z" {
		t.Errorf("DTEND = %q", got)
	}
	if got := prop(ical.ComponentPropertySummary); got != "Start Right Spring Summit" {
		t.Errorf("SUMMARY = %q", got)
	}
	if got := prop(ical.ComponentPropertyLocation); got != "Rutgers Student Center, Newark, NJ" {
		t.Errorf("LOCATION = %q", got)
	}
	if got := prop(ical.ComponentPropertyStatus); got != "CONFIRMED" {
		t.Errorf("STATUS = %q", got)
	}

	// Commas and semicolons in text must be escaped on the wire.
	raw := string(body)
	if !strings.Contains(raw, `panels\; networking\, and lunch`) {
		t.Errorf("DESCRIPTION not escaped:\n%s", raw)
	}
	if !strings.Contains(raw, "PRODID:-//Start Right Conference//Event Calendar//EN") {
		t.Error("missing PRODID")
	}
	if !strings.Contains(raw, "METHOD:PUBLISH") {
		t.Error("missing METHOD")
	}
	assertCRLF(t, raw)
}

func TestBuildICSFoldsLongLinesWithCRLF(t *testing.T) {
	ev := sampleEvent()
	ev.Description = strings.Repeat("A long description that must be folded. ", 10)
	body, err := BuildICS(ev, time.Now(), utcOpts())
	if err != nil {
		t.Fatal(err)
	}
	raw := string(body)
	if !strings.Contains(raw, "\r\n ") {
		t.Errorf("expected a folded continuation line:\n%s", raw)
	}
	assertCRLF(t, raw)
}

// assertCRLF fails unless every line of raw ends in CRLF.
func assertCRLF(t *testing.T, raw string) {
	t.Helper()
	if !strings.HasSuffix(raw, "\r\n") {
		t.Errorf("calendar does not end in CRLF: %q", raw[max(0, len(raw)-20):])
	}
	for i, line := range strings.Split(strings.TrimSuffix(raw, "\r\n"), "\r\n") {
		if strings.ContainsAny(line, "\r\n") {
			t.Errorf("line %d has a bare line break: %q", i+1, line)
		}
	}
}

func TestBuildICSSameUIDOnRegenerate(t *testing.T) {
	a, err := BuildICS(sampleEvent(), time.Now(), utcOpts())
	if err != nil {
		t.Fatal(err)
	}
	b, err := BuildICS(sampleEvent(), time.Now().Add(time.Hour), utcOpts())
	if err != nil {
		t.Fatal(err)
	}
	uid := "UID:event-12@example.org"
	if !strings.Contains(string(a), uid) || !strings.Contains(string(b), uid) {
		t.Error("UID changed between downloads")
	}
}

func TestBuildICSRejectsIncompleteEvents(t *testing.T) {
	cases := map[string]func(*model.Event){
		"no id":    func(e *model.Event) { e.ID = 0 },
		"no title": func(e *model.Event) { e.Title = "  " },
		"no date":  func(e *model.Event) { e.Date = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			ev := sampleEvent()
			mutate(&ev)
			body, err := BuildICS(ev, time.Now(), utcOpts())
			if !errors.Is(err, ErrIncompleteEvent) {
				t.Errorf("err = %v, want ErrIncompleteEvent", err)
			}
			if body != nil {
				t.Error("no bytes expected on failure")
			}
		})
	}

	ev := sampleEvent()
	ev.Date = "next tuesday"
	if _, err := BuildICS(ev, time.Now(), utcOpts()); err == nil {
		t.Error("unparseable date should fail")
	}
}

func TestGoogleCalendarURL(t *testing.T) {
	link, err := GoogleCalendarURL(sampleEvent(), utcOpts())
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatal(err)
	}
	if u.Host != "calendar.google.com" || u.Path != "/calendar/render" {
		t.Errorf("unexpected base %s", link)
	}
	q := u.Query()
	want := map[string]string{
		"action":   "TEMPLATE",
		"text":     "Start Right Spring Summit",
		"dates":    "20260221T090000Z/20260221T130000Z",
		"details":  "Workshops, panels; networking, and lunch",
		"location": "Rutgers Student Center, Newark, NJ",
	}
	for k, v := range want {
		if got := q.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestFilename(t *testing.T) {
	tests := map[string]string{
		"Start Right Spring Summit": "start-right-spring-summit.ics",
		"  2026: Kick-off!! ":       "2026-kick-off.ics",
		"":                          "event-12.ics",
	}
	for title, want := range tests {
		ev := sampleEvent()
		ev.Title = title
		if got := Filename(ev); got != want {
			t.Errorf("Filename(%q) = %q, want %q", title, got, want)
		}
	}
}
