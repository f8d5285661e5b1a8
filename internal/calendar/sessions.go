package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "startright/internal/log"
)

// maxSessionsPerRule keeps an open-ended RRULE from flooding a page.
const maxSessionsPerRule = 50

// SessionRule describes a recurring info session (volunteer orientation,
// sponsor Q&A, ...).
type SessionRule struct {
	Title    string
	RRule    string // e.g. FREQ=WEEKLY;BYDAY=TU
	Start    string // local wall clock, "15:04"
	Duration time.Duration
	Location string
}

// Session is one concrete occurrence of a SessionRule.
type Session struct {
	Title    string
	Location string
	Start    time.Time
	End      time.Time
}

// ExpandSessions lists every occurrence of rules that starts within
// [from, to], in loc, sorted by start. Rules that fail to parse are logged
// and skipped so one bad entry does not hide the rest.
func ExpandSessions(rules []SessionRule, from, to time.Time, loc *time.Location) ([]Session, error) {
	if to.Before(from) {
		return nil, errors.New("calendar: range end is before range start")
	}
	if loc == nil {
		loc = time.Local
	}

	out := make([]Session, 0)
	for _, rule := range rules {
		occ, err := expandRule(rule, from, to, loc)
		if err != nil {
			appLog.Error("info session rule skipped", err, "title", rule.Title, "rrule", rule.RRule)
			continue
		}
		out = append(out, occ...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func expandRule(rule SessionRule, from, to time.Time, loc *time.Location) ([]Session, error) {
	r, err := rrule.StrToRRule(rule.RRule)
	if err != nil {
		return nil, fmt.Errorf("parse rrule: %w", err)
	}

	clock := rule.Start
	if clock == "" {
		clock = "18:00"
	}
	tod, err := time.Parse("15:04", clock)
	if err != nil {
		return nil, fmt.Errorf("parse start %q: %w", clock, err)
	}

	// Anchor DTSTART on the first day of the range at the session's wall time.
	local := from.In(loc)
	anchor := time.Date(local.Year(), local.Month(), local.Day(), tod.Hour(), tod.Minute(), 0, 0, loc)
	r.DTStart(anchor)

	dur := rule.Duration
	if dur <= 0 {
		dur = time.Hour
	}

	starts := r.Between(from.In(loc), to.In(loc), true)
	if len(starts) > maxSessionsPerRule {
		starts = starts[:maxSessionsPerRule]
	}

	out := make([]Session, 0, len(starts))
	for _, s := range starts {
		s = s.In(loc)
		out = append(out, Session{
			Title:    rule.Title,
			Location: rule.Location,
			Start:    s,
			End:      s.Add(dur),
		})
	}
	return out, nil
}
