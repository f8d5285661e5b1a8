package calendar

import (
	"net/url"
	"strings"

	"startright/internal/model"
)

const (
	googleCalendarBase = "https://calendar.google.com/calendar/render"
	utcBasic           = "20060102T150405Z"
)

// GoogleCalendarURL builds the "add to Google Calendar" link used when the
// .ics download cannot be produced. It carries the same window, title,
// description and location as the file would.
func GoogleCalendarURL(ev model.Event, opts Options) (string, error) {
	opts = opts.normalized()
	if strings.TrimSpace(ev.Title) == "" {
		return "", ErrIncompleteEvent
	}
	start, end, err := Window(ev, opts)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", ev.Title)
	q.Set("dates", start.UTC().Format(utcBasic)+"/"+end.UTC().Format(utcBasic))
	q.Set("details", ev.Description)
	q.Set("location", location(ev))

	return googleCalendarBase + "?" + q.Encode(), nil
}
