package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"startright/internal/api"
	"startright/internal/imagecache"
	appLog "startright/internal/log"
	"startright/internal/model"
)

// handleMedia serves a cached image body. Keys are content addresses of the
// source URL, so responses never change for a key.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	entry, err := s.images.Open(r.Context(), key)
	switch {
	case errors.Is(err, imagecache.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, imagecache.ErrUnavailable):
		http.Error(w, "image cache unavailable", http.StatusServiceUnavailable)
		return
	case err != nil:
		appLog.Error("media lookup failed", err, "key", key)
		http.Error(w, "image cache error", http.StatusInternalServerError)
		return
	}

	// Only images are ever served from the site's origin.
	if !imagecache.IsImageType(entry.ContentType) {
		appLog.Warn("refusing to serve non-image media", "key", key, "content_type", entry.ContentType)
		http.NotFound(w, r)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
	etag := `"` + entry.Key + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", entry.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(entry.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(entry.Body)
}

func (s *Server) handleAdminCache(w http.ResponseWriter, r *http.Request) {
	st, err := s.images.Stats(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, imagecache.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type warmResponse struct {
	Requested int    `json:"requested"`
	Stored    int    `json:"stored"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleAdminWarm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()
	requested, stored, err := WarmImages(ctx, s.api, s.images)
	resp := warmResponse{Requested: requested, Stored: stored}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// ImageURLs lists every image the site shows for upcoming and past events:
// event banners, speaker photos and the first gallery page.
func ImageURLs(ctx context.Context, client *api.Client) ([]string, error) {
	var errs []error
	var urls []string

	var events []model.Event
	for _, list := range []func(context.Context, model.PageParams) ([]model.Event, error){
		client.ListUpcomingEvents, client.ListPastEvents,
	} {
		evs, err := list(ctx, model.PageParams{Size: eventsSize})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, evs...)
	}

	for _, ev := range events {
		urls = append(urls, ev.ImageURL)
		speakers, err := client.ListSpeakers(ctx, ev.ID)
		if err != nil {
			errs = append(errs, err)
		}
		for _, sp := range speakers {
			urls = append(urls, sp.ImageURL)
		}
		gallery, err := client.ListGallery(ctx, ev.ID, model.PageParams{Size: gallerySize})
		if err != nil {
			errs = append(errs, err)
		}
		for _, g := range gallery {
			urls = append(urls, g.ImageURL)
		}
	}
	return urls, errors.Join(errs...)
}

// WarmImages fetches every site image into the cache. It reports how many
// URLs were considered and how many were newly stored.
func WarmImages(ctx context.Context, client *api.Client, images *imagecache.Hook) (int, int, error) {
	urls, listErr := ImageURLs(ctx, client)
	if listErr != nil {
		appLog.Warn("image warm: some listings failed", "err", listErr)
	}
	stored, err := images.Warm(ctx, urls)
	appLog.Info("image warm finished", "urls", len(urls), "stored", stored)
	return len(urls), stored, errors.Join(listErr, err)
}
