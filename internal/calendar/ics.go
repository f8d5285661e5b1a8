package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"startright/internal/model"
)

// ErrIncompleteEvent is returned when an event lacks the fields a calendar
// entry needs (id, title, date).
var ErrIncompleteEvent = errors.New("calendar: event is missing id, title or date")

// Options controls how events are placed in time and identified.
type Options struct {
	// Location is the zone event dates/times are wall time in.
	Location *time.Location
	// DefaultTime is used when the event has no time ("15:04:05").
	DefaultTime string
	// Duration is the assumed event length; the API does not model it.
	Duration time.Duration
	// UIDDomain is the fixed suffix of every VEVENT UID.
	UIDDomain string
	// ProductID is the VCALENDAR PRODID.
	ProductID string
}

func (o Options) normalized() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.DefaultTime == "" {
		o.DefaultTime = "09:00:00"
	}
	if o.Duration <= 0 {
		o.Duration = 4 * time.Hour
	}
	if o.UIDDomain == "" {
		o.UIDDomain = "startrightconference.org"
	}
	if o.ProductID == "" {
		o.ProductID = "-//Start Right Conference//Event Calendar//EN"
	}
	return o
}

var clockLayouts = []string{"15:04:05", "15:04"}

// Window returns the start and end instants for ev: date + time (or the
// default time) in opts.Location, lasting opts.Duration.
func Window(ev model.Event, opts Options) (time.Time, time.Time, error) {
	opts = opts.normalized()

	date := strings.TrimSpace(ev.Date)
	if date == "" {
		return time.Time{}, time.Time{}, ErrIncompleteEvent
	}
	// Some payloads carry a full timestamp in date; keep only the day.
	if len(date) > 10 {
		date = date[:10]
	}
	day, err := time.ParseInLocation("2006-01-02", date, opts.Location)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("calendar: bad event date %q: %w", ev.Date, err)
	}

	clock := strings.TrimSpace(ev.Time)
	if clock == "" {
		clock = opts.DefaultTime
	}
	var tod time.Time
	for _, layout := range clockLayouts {
		if tod, err = time.Parse(layout, clock); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("calendar: bad event time %q: %w", clock, err)
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, opts.Location)
	return start, start.Add(opts.Duration), nil
}

// UID is stable per event id so re-downloading updates the same calendar
// entry instead of duplicating it.
func UID(ev model.Event, opts Options) string {
	opts = opts.normalized()
	return "event-" + strconv.FormatInt(ev.ID, 10) + "@" + opts.UIDDomain
}

// BuildICS renders a single-event VCALENDAR for ev. now becomes DTSTAMP.
// Any problem with the event yields an error and no bytes.
func BuildICS(ev model.Event, now time.Time, opts Options) ([]byte, error) {
	opts = opts.normalized()
	if ev.ID == 0 || strings.TrimSpace(ev.Title) == "" {
		return nil, ErrIncompleteEvent
	}
	start, end, err := Window(ev, opts)
	if err != nil {
		return nil, err
	}

	cal := ical.NewCalendar()
	cal.SetProductId(opts.ProductID)
	cal.SetMethod(ical.MethodPublish)

	vev := cal.AddEvent(UID(ev, opts))
	vev.SetDtStampTime(now)
	vev.SetStartAt(start)
	vev.SetEndAt(end)
	vev.SetSummary(ev.Title)
	vev.SetDescription(ev.Description)
	vev.SetLocation(location(ev))
	vev.SetProperty(ical.ComponentPropertyStatus, "CONFIRMED")
	vev.SetProperty(ical.ComponentPropertySequence, "0")

	// RFC 5545 lines end in CRLF, folded lines included.
	out := cal.Serialize(ical.WithNewLineWindows)
	if !strings.Contains(out, "BEGIN:VEVENT") {
		return nil, errors.New("calendar: serializer produced no event")
	}
	return []byte(out), nil
}

// Filename is a download name derived from the event title.
func Filename(ev model.Event) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(ev.Title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		slug = "event-" + strconv.FormatInt(ev.ID, 10)
	}
	return slug + ".ics"
}

func location(ev model.Event) string {
	switch {
	case ev.Venue != "" && ev.Location != "":
		return ev.Venue + ", " + ev.Location
	case ev.Venue != "":
		return ev.Venue
	default:
		return ev.Location
	}
}
