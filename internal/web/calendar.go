package web

import (
	"net/http"
	"strconv"

	"startright/internal/calendar"
	appLog "startright/internal/log"
)

// handleCalendar serves the event as an .ics download. When the file cannot
// be built the visitor is sent to the Google Calendar link instead, with a
// toast explaining why.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.eventForForm(w, r)
	if !ok {
		return
	}
	cfg := s.config()
	opts := s.calendarOptions(cfg)

	body, err := calendar.BuildICS(*ev, s.now(), opts)
	if err == nil {
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+calendar.Filename(*ev)+`"`)
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	appLog.Warn("calendar file generation failed; falling back to Google Calendar", "event_id", ev.ID, "err", err)
	link, linkErr := calendar.GoogleCalendarURL(*ev, opts)
	if linkErr != nil {
		setFlash(w, "We couldn't create a calendar entry for this event.")
		http.Redirect(w, r, "/events/"+strconv.FormatInt(ev.ID, 10), http.StatusSeeOther)
		return
	}
	setFlash(w, "We couldn't create the calendar file, so we opened Google Calendar instead.")
	http.Redirect(w, r, link, http.StatusSeeOther)
}
