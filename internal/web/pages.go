package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"startright/internal/api"
	"startright/internal/calendar"
	"startright/internal/countdown"
	"startright/internal/filter"
	appLog "startright/internal/log"
	"startright/internal/model"
	"startright/internal/qr"
)

const (
	gallerySize = 24
	eventsSize  = 100
	reviewsSize = 20
)

// section is one independently loaded part of a page. A failed section
// shows Err inline and does not affect its neighbours.
type section[T any] struct {
	Items []T
	Err   string
}

func load[T any](ctx context.Context, what string, fetch func(context.Context) ([]T, error)) section[T] {
	items, err := fetch(ctx)
	if err != nil {
		appLog.Warn("page section failed", "section", what, "err", err)
		return section[T]{Err: api.UserMessage(err, "We couldn't load the "+what+" right now.")}
	}
	return section[T]{Items: items}
}

// countdownView seeds the countdown widget; the browser keeps it live over
// the event stream.
type countdownView struct {
	EventID   int64
	Target    string
	Remaining countdown.Remaining
	Known     bool
}

func (s *Server) countdownFor(ev *model.Event) countdownView {
	if ev == nil {
		return countdownView{}
	}
	cfg := s.config()
	start, err := countdown.EventStart(ev.Date, ev.Time, cfg.Location())
	if err != nil {
		return countdownView{EventID: ev.ID}
	}
	return countdownView{
		EventID:   ev.ID,
		Target:    start.Format(time.RFC3339),
		Remaining: countdown.Compute(start, s.now()),
		Known:     true,
	}
}

// currentEvent is the next upcoming event, or the most recent past one when
// nothing is scheduled.
func (s *Server) currentEvent(ctx context.Context) (*model.Event, error) {
	upcoming, upErr := s.api.ListUpcomingEvents(ctx, model.PageParams{})
	if upErr == nil && len(upcoming) > 0 {
		sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].Date < upcoming[j].Date })
		return &upcoming[0], nil
	}
	past, pastErr := s.api.ListPastEvents(ctx, model.PageParams{})
	if pastErr == nil && len(past) > 0 {
		sort.SliceStable(past, func(i, j int) bool { return past[i].Date > past[j].Date })
		return &past[0], nil
	}
	if err := errors.Join(upErr, pastErr); err != nil {
		return nil, err
	}
	return nil, nil
}

// eventPage is the data behind pages scoped to the current event.
type eventPage struct {
	Event     *model.Event
	EventErr  string
	Countdown countdownView
}

func (s *Server) currentEventPage(ctx context.Context) eventPage {
	ev, err := s.currentEvent(ctx)
	if err != nil {
		appLog.Warn("current event lookup failed", "err", err)
		return eventPage{EventErr: api.UserMessage(err, "We couldn't load the conference details right now.")}
	}
	return eventPage{Event: ev, Countdown: s.countdownFor(ev)}
}

type landingData struct {
	eventPage
	Speakers section[model.Speaker]
	Articles section[model.EventArticle]
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := landingData{eventPage: s.currentEventPage(ctx)}

	if ev := data.Event; ev != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			data.Speakers = load(gctx, "speakers", func(ctx context.Context) ([]model.Speaker, error) {
				return s.api.ListSpeakers(ctx, ev.ID)
			})
			if len(data.Speakers.Items) > 6 {
				data.Speakers.Items = data.Speakers.Items[:6]
			}
			return nil
		})
		g.Go(func() error {
			data.Articles = load(gctx, "articles", func(ctx context.Context) ([]model.EventArticle, error) {
				return s.listArticles(ctx, ev.ID)
			})
			if len(data.Articles.Items) > 3 {
				data.Articles.Items = data.Articles.Items[:3]
			}
			return nil
		})
		_ = g.Wait()
	}

	s.render(w, r, http.StatusOK, "landing", "Start Right Conference", data)
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "about", "About", s.currentEventPage(r.Context()))
}

type listPage[T any] struct {
	eventPage
	section[T]
}

// scoped renders a page listing one resource of the current event.
func scoped[T any](s *Server, w http.ResponseWriter, r *http.Request, page, title, what string, fetch func(context.Context, int64) ([]T, error)) {
	ctx := r.Context()
	data := listPage[T]{eventPage: s.currentEventPage(ctx)}
	status := http.StatusOK
	switch {
	case data.EventErr != "":
		status = http.StatusBadGateway
	case data.Event != nil:
		data.section = load(ctx, what, func(ctx context.Context) ([]T, error) {
			return fetch(ctx, data.Event.ID)
		})
	}
	s.render(w, r, status, page, title, data)
}

func (s *Server) handleSpeakers(w http.ResponseWriter, r *http.Request) {
	scoped(s, w, r, "speakers", "Speakers", "speakers", s.api.ListSpeakers)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	scoped(s, w, r, "schedule", "Schedule", "schedule", s.api.ListItinerary)
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	scoped(s, w, r, "articles", "Articles", "articles", s.listArticles)
}

// listArticles fills in the owning event id, which list payloads may omit
// but article links need.
func (s *Server) listArticles(ctx context.Context, eventID int64) ([]model.EventArticle, error) {
	items, err := s.api.ListArticles(ctx, eventID)
	for i := range items {
		if items[i].EventID == 0 {
			items[i].EventID = eventID
		}
	}
	return items, err
}

type galleryPage struct {
	listPage[model.GalleryItem]
	Page     int
	PrevPage int
	NextPage int
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := parseIntDefault(r.URL.Query().Get("page"), 0)
	if page < 0 {
		page = 0
	}
	data := galleryPage{listPage: listPage[model.GalleryItem]{eventPage: s.currentEventPage(ctx)}, Page: page, PrevPage: -1, NextPage: -1}
	status := http.StatusOK
	switch {
	case data.EventErr != "":
		status = http.StatusBadGateway
	case data.Event != nil:
		id := data.Event.ID
		data.section = load(ctx, "gallery", func(ctx context.Context) ([]model.GalleryItem, error) {
			return s.api.ListGallery(ctx, id, model.PageParams{Page: page, Size: gallerySize})
		})
		if page > 0 {
			data.PrevPage = page - 1
		}
		if len(data.Items) == gallerySize {
			data.NextPage = page + 1
		}
	}
	s.render(w, r, status, "gallery", "Gallery", data)
}

type articlePage struct {
	EventID int64
	Article *model.EventArticle
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(r)
	articleID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if !ok || err != nil {
		s.handleNotFound(w, r)
		return
	}
	a, err := s.api.GetArticle(r.Context(), eventID, articleID)
	if err != nil {
		s.apiFailure(w, r, err, "We couldn't load this article right now.")
		return
	}
	s.render(w, r, http.StatusOK, "article", a.Title, articlePage{EventID: eventID, Article: a})
}

type eventsPage struct {
	Past     bool
	Events   []model.Event
	Total    int
	Err      string
	Criteria filter.Criteria
	Choices  filter.Choices
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.renderEvents(w, r, false)
}

func (s *Server) handlePastEvents(w http.ResponseWriter, r *http.Request) {
	s.renderEvents(w, r, true)
}

func (s *Server) renderEvents(w http.ResponseWriter, r *http.Request, past bool) {
	ctx := r.Context()
	list := s.api.ListUpcomingEvents
	title := "Upcoming Events"
	if past {
		list = s.api.ListPastEvents
		title = "Past Events"
	}

	data := eventsPage{Past: past, Criteria: filter.FromQuery(r.URL.Query())}
	events, err := list(ctx, model.PageParams{Size: eventsSize})
	if err != nil {
		appLog.Warn("events list failed", "past", past, "err", err)
		data.Err = api.UserMessage(err, "We couldn't load events right now.")
		s.render(w, r, http.StatusBadGateway, "events", title, data)
		return
	}
	data.Total = len(events)
	data.Choices = filter.Options(events)
	data.Events = filter.Apply(events, data.Criteria)
	s.render(w, r, http.StatusOK, "events", title, data)
}

type eventDetail struct {
	Event       *model.Event
	Countdown   countdownView
	Speakers    section[model.Speaker]
	Itinerary   section[model.ItineraryItem]
	Reviews     section[model.Review]
	SeatsLeft   int
	SeatsKnown  bool
	GoogleLink  string
	Upcoming    bool
	ReviewForm  formState
	ShareOrigin string
}

func (s *Server) handleEventDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	ctx := r.Context()
	ev, err := s.api.GetEvent(ctx, id)
	if err != nil {
		s.apiFailure(w, r, err, "We couldn't load this event right now.")
		return
	}
	s.render(w, r, http.StatusOK, "event", ev.Title, s.loadEventDetail(ctx, ev, formState{}))
}

// loadEventDetail loads the event's sections concurrently. Each one records
// its own failure.
func (s *Server) loadEventDetail(ctx context.Context, ev *model.Event, review formState) eventDetail {
	cfg := s.config()
	d := eventDetail{
		Event:       ev,
		Countdown:   s.countdownFor(ev),
		ReviewForm:  review,
		ShareOrigin: cfg.SiteOrigin,
	}
	d.Upcoming = d.Countdown.Known && !d.Countdown.Remaining.Expired
	d.SeatsLeft, d.SeatsKnown = ev.SeatsLeft()
	if link, err := calendar.GoogleCalendarURL(*ev, s.calendarOptions(cfg)); err == nil {
		d.GoogleLink = link
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.Speakers = load(gctx, "speakers", func(ctx context.Context) ([]model.Speaker, error) {
			return s.api.ListSpeakers(ctx, ev.ID)
		})
		return nil
	})
	g.Go(func() error {
		d.Itinerary = load(gctx, "schedule", func(ctx context.Context) ([]model.ItineraryItem, error) {
			return s.api.ListItinerary(ctx, ev.ID)
		})
		return nil
	})
	g.Go(func() error {
		d.Reviews = load(gctx, "reviews", func(ctx context.Context) ([]model.Review, error) {
			return s.api.ListReviews(ctx, ev.ID, model.PageParams{Size: reviewsSize})
		})
		return nil
	})
	_ = g.Wait()
	return d
}

type getInvolvedPage struct {
	eventPage
	Sessions []calendar.Session
}

func (s *Server) handleGetInvolved(w http.ResponseWriter, r *http.Request) {
	cfg := s.config()
	data := getInvolvedPage{eventPage: s.currentEventPage(r.Context())}

	rules := make([]calendar.SessionRule, 0, len(cfg.InfoSessions))
	for _, is := range cfg.InfoSessions {
		rules = append(rules, calendar.SessionRule{
			Title:    is.Title,
			RRule:    is.RRule,
			Start:    is.StartTime,
			Duration: time.Duration(is.DurationMinutes) * time.Minute,
			Location: is.Location,
		})
	}
	from := s.now()
	sessions, err := calendar.ExpandSessions(rules, from, from.AddDate(0, 0, 60), cfg.Location())
	if err != nil {
		appLog.Error("info session expansion failed", err)
	}
	data.Sessions = sessions

	s.render(w, r, http.StatusOK, "getinvolved", "Get Involved", data)
}

type errorPage struct {
	Message string
}

// apiFailure renders a not-found page for 404s and an inline error page for
// anything else.
func (s *Server) apiFailure(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if api.IsNotFound(err) {
		s.handleNotFound(w, r)
		return
	}
	appLog.Warn("api call failed", "path", r.URL.Path, "err", err)
	s.render(w, r, http.StatusBadGateway, "error", "Something went wrong", errorPage{Message: api.UserMessage(err, fallback)})
}

// registrationQR is the image shown on a registration confirmation: the
// API's own check-in code when it sent an image, else a rendered link to the
// registration page.
func (s *Server) registrationQR(eventID int64, resp *model.RegistrationResponse) template.URL {
	if resp != nil {
		code := strings.TrimSpace(resp.QRCode)
		if strings.HasPrefix(code, "data:image/") || strings.HasPrefix(code, "https://") {
			return template.URL(code)
		}
	}
	cfg := s.config()
	return template.URL(qr.ImageURL(cfg.QR.ServiceURL, cfg.SiteOrigin, eventID, cfg.QR.Size))
}
