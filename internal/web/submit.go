package web

import (
	"context"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"startright/internal/api"
	"startright/internal/forms"
	appLog "startright/internal/log"
	"startright/internal/model"
)

// maxFormBytes bounds a posted form.
const maxFormBytes = 64 << 10

// formState carries what a form page needs to re-render after a failed
// submit: the posted values, per-field errors and the API's message. A
// failed submit never carries a success payload.
type formState struct {
	Values  url.Values
	Errors  forms.Errors
	Message string
}

// Failed reports whether the last submit was rejected.
func (f formState) Failed() bool {
	return f.Message != "" || len(f.Errors) > 0
}

// status is the HTTP status for re-rendering a failed submit: 422 when the
// visitor's input was invalid, 502 when the API refused or failed.
func (f formState) status() int {
	if len(f.Errors) > 0 {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

func readForm(w http.ResponseWriter, r *http.Request) (url.Values, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		appLog.Warn("bad form post", "path", r.URL.Path, "err", err)
		return nil, false
	}
	return r.PostForm, true
}

type registrationPage struct {
	Event      *model.Event
	SeatsLeft  int
	SeatsKnown bool
	Form       formState
	Done       *model.RegistrationResponse
	QRImage    template.URL
	Name       string
}

func (s *Server) eventForForm(w http.ResponseWriter, r *http.Request) (*model.Event, bool) {
	id, ok := eventIDParam(r)
	if !ok {
		s.handleNotFound(w, r)
		return nil, false
	}
	ev, err := s.api.GetEvent(r.Context(), id)
	if err != nil {
		s.apiFailure(w, r, err, "We couldn't load this event right now.")
		return nil, false
	}
	return ev, true
}

func (s *Server) newRegistrationPage(ev *model.Event, f formState) registrationPage {
	p := registrationPage{Event: ev, Form: f}
	p.SeatsLeft, p.SeatsKnown = ev.SeatsLeft()
	return p
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.eventForForm(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "register", "Register: "+ev.Title, s.newRegistrationPage(ev, formState{}))
}

func (s *Server) handleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.eventForForm(w, r)
	if !ok {
		return
	}
	values, ok := readForm(w, r)
	if !ok {
		s.render(w, r, http.StatusBadRequest, "register", "Register: "+ev.Title,
			s.newRegistrationPage(ev, formState{Message: "Your submission could not be read. Please try again."}))
		return
	}

	req, errs := forms.DecodeRegistration(values)
	if !errs.OK() {
		s.render(w, r, http.StatusUnprocessableEntity, "register", "Register: "+ev.Title,
			s.newRegistrationPage(ev, formState{Values: values, Errors: errs}))
		return
	}

	resp, err := s.api.Register(r.Context(), ev.ID, req)
	if err != nil {
		appLog.Warn("registration failed", "event_id", ev.ID, "err", err)
		s.render(w, r, http.StatusBadGateway, "register", "Register: "+ev.Title,
			s.newRegistrationPage(ev, formState{Values: values, Message: api.UserMessage(err, "Registration failed. Please try again.")}))
		return
	}

	appLog.Info("registration accepted", "event_id", ev.ID, "registration_id", resp.ID)
	p := s.newRegistrationPage(ev, formState{})
	p.Done = resp
	p.QRImage = s.registrationQR(ev.ID, resp)
	p.Name = req.FullName()
	s.render(w, r, http.StatusOK, "register", "You're registered", p)
}

func (s *Server) handleReviewSubmit(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.eventForForm(w, r)
	if !ok {
		return
	}
	values, ok := readForm(w, r)
	if !ok {
		http.Error(w, "Bad form", http.StatusBadRequest)
		return
	}

	state := s.submitReview(r.Context(), ev.ID, values)
	if state.Failed() {
		// Keep the visitor on the event page with their text intact.
		s.render(w, r, state.status(), "event", ev.Title, s.loadEventDetail(r.Context(), ev, state))
		return
	}
	setFlash(w, "Thanks for your review!")
	http.Redirect(w, r, "/events/"+strconv.FormatInt(ev.ID, 10)+"#reviews", http.StatusSeeOther)
}

// submitReview validates and posts a review. The zero formState means it
// was accepted.
func (s *Server) submitReview(ctx context.Context, eventID int64, values url.Values) formState {
	req, errs := forms.DecodeReview(values)
	if !errs.OK() {
		return formState{Values: values, Errors: errs}
	}
	if _, err := s.api.CreateReview(ctx, eventID, req); err != nil {
		appLog.Warn("review submit failed", "event_id", eventID, "err", err)
		return formState{Values: values, Message: api.UserMessage(err, "We couldn't post your review. Please try again.")}
	}
	return formState{}
}

type applicationPage struct {
	Kind  string
	Event *model.Event
	Form  formState
	Done  *model.ApplicationResponse
}

func (s *Server) handleVolunteerForm(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.eventForForm(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "volunteer", "Volunteer", applicationPage{Kind: "volunteer", Event: ev})
}

func (s *Server) handleVolunteerSubmit(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.eventForForm(w, r)
	if !ok {
		return
	}
	values, ok := readForm(w, r)
	if !ok {
		s.render(w, r, http.StatusBadRequest, "volunteer", "Volunteer",
			applicationPage{Kind: "volunteer", Event: ev, Form: formState{Message: "Your submission could not be read. Please try again."}})
		return
	}

	app, errs := forms.DecodeVolunteer(ev.ID, values)
	if !errs.OK() {
		s.render(w, r, http.StatusUnprocessableEntity, "volunteer", "Volunteer",
			applicationPage{Kind: "volunteer", Event: ev, Form: formState{Values: values, Errors: errs}})
		return
	}
	resp, err := s.api.SubmitVolunteer(r.Context(), app)
	if err != nil {
		appLog.Warn("volunteer application failed", "event_id", ev.ID, "err", err)
		s.render(w, r, http.StatusBadGateway, "volunteer", "Volunteer",
			applicationPage{Kind: "volunteer", Event: ev, Form: formState{Values: values, Message: api.UserMessage(err, "We couldn't send your application. Please try again.")}})
		return
	}
	appLog.Info("volunteer application accepted", "event_id", ev.ID, "application_id", resp.ID)
	s.render(w, r, http.StatusOK, "volunteer", "Thank you", applicationPage{Kind: "volunteer", Event: ev, Done: resp})
}

func (s *Server) handleSponsorForm(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.eventForForm(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "sponsor", "Sponsor", applicationPage{Kind: "sponsor", Event: ev})
}

func (s *Server) handleSponsorSubmit(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.eventForForm(w, r)
	if !ok {
		return
	}
	values, ok := readForm(w, r)
	if !ok {
		s.render(w, r, http.StatusBadRequest, "sponsor", "Sponsor",
			applicationPage{Kind: "sponsor", Event: ev, Form: formState{Message: "Your submission could not be read. Please try again."}})
		return
	}

	app, errs := forms.DecodeSponsor(ev.ID, values)
	if !errs.OK() {
		s.render(w, r, http.StatusUnprocessableEntity, "sponsor", "Sponsor",
			applicationPage{Kind: "sponsor", Event: ev, Form: formState{Values: values, Errors: errs}})
		return
	}
	resp, err := s.api.SubmitSponsor(r.Context(), app)
	if err != nil {
		appLog.Warn("sponsor application failed", "event_id", ev.ID, "err", err)
		s.render(w, r, http.StatusBadGateway, "sponsor", "Sponsor",
			applicationPage{Kind: "sponsor", Event: ev, Form: formState{Values: values, Message: api.UserMessage(err, "We couldn't send your application. Please try again.")}})
		return
	}
	appLog.Info("sponsor application accepted", "event_id", ev.ID, "application_id", resp.ID)
	s.render(w, r, http.StatusOK, "sponsor", "Thank you", applicationPage{Kind: "sponsor", Event: ev, Done: resp})
}

type qaPage struct {
	eventPage
	Form formState
	Done bool
}

// Questions from the Q&A page are stored as reviews on the current event.
func (s *Server) handleQAForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "qa", "Q&A", qaPage{eventPage: s.currentEventPage(r.Context())})
}

func (s *Server) handleQASubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := qaPage{eventPage: s.currentEventPage(ctx)}
	if data.Event == nil {
		data.Form = formState{Message: "There is no event to ask about right now."}
		s.render(w, r, http.StatusConflict, "qa", "Q&A", data)
		return
	}
	values, ok := readForm(w, r)
	if !ok {
		data.Form = formState{Message: "Your submission could not be read. Please try again."}
		s.render(w, r, http.StatusBadRequest, "qa", "Q&A", data)
		return
	}
	data.Form = s.submitReview(ctx, data.Event.ID, values)
	if data.Form.Failed() {
		s.render(w, r, data.Form.status(), "qa", "Q&A", data)
		return
	}
	data.Done = true
	s.render(w, r, http.StatusOK, "qa", "Q&A", data)
}
