package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"sync"
	"time"

	"startright/internal/api"
	"startright/internal/calendar"
	"startright/internal/config"
	"startright/internal/countdown"
	"startright/internal/imagecache"
	appLog "startright/internal/log"
	"startright/internal/metrics"
)

// Server renders the conference site on top of the remote API.
type Server struct {
	mu  sync.RWMutex
	cfg *config.Config

	api    *api.Client
	images *imagecache.Hook
	clock  countdown.Clock

	pages map[string]*template.Template
	mux   *http.ServeMux
}

// NewServer constructs a new Server. images may wrap a nil bucket; pages
// then link images directly.
func NewServer(cfg *config.Config, client *api.Client, images *imagecache.Hook) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if images == nil {
		images = imagecache.NewHook(nil, nil)
	}
	s := &Server{
		cfg:    cfg,
		api:    client,
		images: images,
		clock:  countdown.SystemClock,
		mux:    http.NewServeMux(),
	}
	pages, err := s.parsePages()
	if err != nil {
		return nil, err
	}
	s.pages = pages
	s.registerRoutes()
	return s, nil
}

// Handler returns the underlying http.Handler for this server, wrapped with
// request logging.
func (s *Server) Handler() http.Handler {
	return requestLogger(s.mux)
}

// SetConfig swaps the live configuration. In-flight requests keep the
// snapshot they started with.
func (s *Server) SetConfig(cfg *config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	appLog.Info("site config reloaded", "origin", cfg.SiteOrigin, "timezone", cfg.Timezone)
}

func (s *Server) config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Server) now() time.Time {
	return s.clock.Now()
}

func (s *Server) calendarOptions(cfg *config.Config) calendar.Options {
	return CalendarOptions(cfg)
}

// CalendarOptions maps the calendar section of cfg onto calendar.Options.
func CalendarOptions(cfg *config.Config) calendar.Options {
	return calendar.Options{
		Location:    cfg.Location(),
		DefaultTime: cfg.Calendar.DefaultTime,
		Duration:    time.Duration(cfg.Calendar.DurationHours) * time.Hour,
		UIDDomain:   cfg.Calendar.UIDDomain,
		ProductID:   cfg.Calendar.ProductID,
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", metrics.Handler())
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", s.staticFileServer()))

	s.mux.HandleFunc("GET /{$}", s.handleLanding)
	s.mux.HandleFunc("GET /about", s.handleAbout)
	s.mux.HandleFunc("GET /speakers", s.handleSpeakers)
	s.mux.HandleFunc("GET /schedule", s.handleSchedule)
	s.mux.HandleFunc("GET /gallery", s.handleGallery)
	s.mux.HandleFunc("GET /articles", s.handleArticles)
	s.mux.HandleFunc("GET /get-involved", s.handleGetInvolved)

	s.mux.HandleFunc("GET /events", s.handleEvents)
	s.mux.HandleFunc("GET /events/past", s.handlePastEvents)
	s.mux.HandleFunc("GET /events/{eventId}", s.handleEventDetail)
	s.mux.HandleFunc("GET /events/{eventId}/articles/{id}", s.handleArticle)
	s.mux.HandleFunc("GET /events/{eventId}/register", s.handleRegisterForm)
	s.mux.HandleFunc("POST /events/{eventId}/register", s.handleRegisterSubmit)
	s.mux.HandleFunc("POST /events/{eventId}/reviews", s.handleReviewSubmit)
	s.mux.HandleFunc("GET /events/{eventId}/calendar.ics", s.handleCalendar)
	s.mux.HandleFunc("GET /events/{eventId}/countdown", s.handleCountdown)

	s.mux.HandleFunc("GET /volunteer/apply/{eventId}", s.handleVolunteerForm)
	s.mux.HandleFunc("POST /volunteer/apply/{eventId}", s.handleVolunteerSubmit)
	s.mux.HandleFunc("GET /sponsor/apply/{eventId}", s.handleSponsorForm)
	s.mux.HandleFunc("POST /sponsor/apply/{eventId}", s.handleSponsorSubmit)
	s.mux.HandleFunc("GET /qa", s.handleQAForm)
	s.mux.HandleFunc("POST /qa", s.handleQASubmit)

	s.mux.HandleFunc("GET /media/{key}", s.handleMedia)

	s.mux.Handle("GET /admin/cache", s.adminOnly(http.HandlerFunc(s.handleAdminCache)))
	s.mux.Handle("POST /admin/cache/warm", s.adminOnly(http.HandlerFunc(s.handleAdminWarm)))

	s.mux.HandleFunc("/", s.handleNotFound)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// adminOnly guards admin endpoints with HTTP Basic Auth. Without configured
// credentials the endpoints do not exist.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := s.config()
		if !cfg.AdminAuthEnabled() {
			http.NotFound(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, cfg.BasicAuth.Username) || !secureCompare(p, cfg.BasicAuth.Password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Start Right admin", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves s on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func StartServer(ctx context.Context, s *Server) error {
	srv := &http.Server{
		Addr:              s.config().Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func eventIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("eventId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
