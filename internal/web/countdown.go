package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"startright/internal/countdown"
	appLog "startright/internal/log"
	"startright/internal/metrics"
)

// handleCountdown streams the time left until an event starts as
// server-sent events: one "tick" per second, then a single "expired" after
// which the stream ends.
func (s *Server) handleCountdown(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	ev, ok := s.eventForForm(w, r)
	if !ok {
		return
	}
	target, err := countdown.EventStart(ev.Date, ev.Time, s.config().Location())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "event has no usable start time")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.CountdownStreams.Inc()
	defer metrics.CountdownStreams.Dec()

	timer := countdown.NewTimer(s.clock)
	defer timer.Stop()

	for rem := range timer.Start(r.Context(), target) {
		payload, err := json.Marshal(rem)
		if err != nil {
			appLog.Error("countdown encode failed", err)
			return
		}
		name := "tick"
		if rem.Expired {
			name = "expired"
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
			return
		}
		flusher.Flush()
	}
}
