// Package filter narrows the fetched event list the way the events page
// search form does.
package filter

import (
	"net/url"
	"sort"
	"strings"

	"startright/internal/model"
)

// Criteria is the set of active predicates. Empty fields are inactive.
type Criteria struct {
	Search   string
	Theme    string
	Location string
	Year     string
	Date     string
}

// FromQuery reads criteria from the events page query string.
func FromQuery(q url.Values) Criteria {
	return Criteria{
		Search:   strings.TrimSpace(q.Get("q")),
		Theme:    strings.TrimSpace(q.Get("theme")),
		Location: strings.TrimSpace(q.Get("location")),
		Year:     strings.TrimSpace(q.Get("year")),
		Date:     strings.TrimSpace(q.Get("date")),
	}
}

// Active reports whether any predicate is set.
func (c Criteria) Active() bool {
	return c != Criteria{}
}

// Query is the inverse of FromQuery, for building "clear" and paging links.
func (c Criteria) Query() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("q", c.Search)
	set("theme", c.Theme)
	set("location", c.Location)
	set("year", c.Year)
	set("date", c.Date)
	return q
}

// Match is the AND of all active predicates.
func (c Criteria) Match(ev model.Event) bool {
	if c.Search != "" {
		needle := strings.ToLower(c.Search)
		hay := strings.ToLower(strings.Join([]string{ev.Title, ev.Description, ev.Location, ev.Venue, ev.Theme}, "\n"))
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	if c.Theme != "" && !strings.EqualFold(c.Theme, ev.Theme) {
		return false
	}
	if c.Location != "" && !strings.EqualFold(c.Location, ev.Location) {
		return false
	}
	if c.Year != "" && c.Year != ev.Year() {
		return false
	}
	if c.Date != "" && c.Date != day(ev.Date) {
		return false
	}
	return true
}

// Apply returns the events matching c in their original order. With no
// active predicate the input is returned unchanged.
func Apply(events []model.Event, c Criteria) []model.Event {
	if !c.Active() {
		return events
	}
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if c.Match(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// Choices are the distinct values offered in the filter selects.
type Choices struct {
	Themes    []string
	Locations []string
	// Years are newest first.
	Years []string
}

// Options collects select choices from events.
func Options(events []model.Event) Choices {
	themes := map[string]struct{}{}
	locations := map[string]struct{}{}
	years := map[string]struct{}{}
	for _, ev := range events {
		if ev.Theme != "" {
			themes[ev.Theme] = struct{}{}
		}
		if ev.Location != "" {
			locations[ev.Location] = struct{}{}
		}
		if y := ev.Year(); y != "" {
			years[y] = struct{}{}
		}
	}
	ch := Choices{
		Themes:    sortedKeys(themes),
		Locations: sortedKeys(locations),
		Years:     sortedKeys(years),
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ch.Years)))
	return ch
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func day(date string) string {
	if len(date) > 10 {
		return date[:10]
	}
	return date
}
