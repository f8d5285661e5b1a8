// Package imagecache keeps copies of remote event imagery in a named bucket
// so repeat page views can serve them locally.
//
// Resolution never blocks a page on the network: a miss answers immediately
// with no cached source (the page links the original URL) and fills the
// bucket in the background for the next view.
package imagecache

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	appLog "startright/internal/log"
	"startright/internal/metrics"
)

// MediaPrefix is where cached blobs are served from.
const MediaPrefix = "/media/"

// maxFailures bounds the remembered fill failures.
const maxFailures = 1024

// Result is what a page needs to render one image.
type Result struct {
	// CachedSrc is a local media reference when the image is cached, else "".
	CachedSrc string `json:"cachedSrc,omitempty"`
	// Loading is true only while a lookup is outstanding; Resolve always
	// returns with it false.
	Loading bool `json:"loading"`
	// Error is a non-fatal description of the last failure for this URL.
	// Callers use it to decide whether to show a placeholder.
	Error string `json:"error,omitempty"`
}

// Src picks the src attribute for an <img>: the cached copy if any, else the
// original URL.
func (r Result) Src(original string) string {
	if r.CachedSrc != "" {
		return r.CachedSrc
	}
	return original
}

// Hook resolves image URLs against a bucket.
type Hook struct {
	bucket  *Bucket
	fetcher *Fetcher

	group singleflight.Group
	wg    sync.WaitGroup

	base   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	failures map[string]string
}

// NewHook builds a Hook. bucket may be nil when the cache store could not be
// opened; every lookup then reports the store as unavailable and pages fall
// back to direct URLs.
func NewHook(bucket *Bucket, fetcher *Fetcher) *Hook {
	if fetcher == nil {
		fetcher = NewFetcher(0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hook{
		bucket:   bucket,
		fetcher:  fetcher,
		base:     ctx,
		cancel:   cancel,
		failures: make(map[string]string),
	}
}

// MediaPath returns the local reference for a media key.
func MediaPath(key string) string {
	return MediaPrefix + key
}

// Resolve looks rawURL up in the bucket. It never returns an error: failures
// are logged and surfaced through Result.Error.
func (h *Hook) Resolve(ctx context.Context, rawURL string) Result {
	if rawURL == "" || !isCacheable(rawURL) {
		return Result{}
	}
	if h.bucket == nil {
		metrics.ImageCacheLookups.WithLabelValues("unavailable").Inc()
		return Result{Error: ErrUnavailable.Error()}
	}

	entry, err := h.bucket.Match(ctx, rawURL)
	switch {
	case err == nil:
		metrics.ImageCacheLookups.WithLabelValues("hit").Inc()
		return Result{CachedSrc: MediaPath(entry.Key)}
	case errors.Is(err, ErrNotFound):
		metrics.ImageCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.ImageCacheLookups.WithLabelValues("unavailable").Inc()
		appLog.Warn("image cache lookup failed; serving direct URL", "url", redactURL(rawURL), "err", err)
		return Result{Error: err.Error()}
	}

	res := Result{Error: h.lastFailure(rawURL)}
	h.fillInBackground(rawURL)
	return res
}

// fillInBackground fetches and stores rawURL without blocking the caller.
// Concurrent misses for the same URL share one fetch.
func (h *Hook) fillInBackground(rawURL string) {
	// Add happens under mu so Close cannot start waiting in between.
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	go func() {
		defer h.wg.Done()
		_, _, _ = h.group.Do(rawURL, func() (any, error) {
			return nil, h.fetchAndStore(h.base, rawURL)
		})
	}()
}

func (h *Hook) fetchAndStore(ctx context.Context, rawURL string) error {
	entry, err := h.fetcher.Fetch(ctx, rawURL)
	if err == nil {
		err = h.bucket.Put(ctx, entry)
	}
	if err != nil {
		metrics.ImageCacheStores.WithLabelValues("failed").Inc()
		appLog.Warn("image cache fill failed", "url", redactURL(rawURL), "err", err)
		h.setFailure(rawURL, err.Error())
		return err
	}
	metrics.ImageCacheStores.WithLabelValues("stored").Inc()
	appLog.Debug("image cached", "url", redactURL(rawURL), "bytes", len(entry.Body))
	h.setFailure(rawURL, "")
	return nil
}

// Open returns the stored blob for a media key.
func (h *Hook) Open(ctx context.Context, key string) (*Entry, error) {
	if h.bucket == nil {
		return nil, ErrUnavailable
	}
	return h.bucket.MatchKey(ctx, key)
}

// Warm synchronously stores every URL not already in the bucket and returns
// how many were added. Individual failures are joined into the error.
func (h *Hook) Warm(ctx context.Context, urls []string) (int, error) {
	if h.bucket == nil {
		return 0, ErrUnavailable
	}
	seen := make(map[string]bool, len(urls))
	stored := 0
	var errs []error
	for _, u := range urls {
		if u == "" || seen[u] || !isCacheable(u) {
			continue
		}
		seen[u] = true

		ok, err := h.bucket.Has(ctx, u)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			continue
		}
		if err := h.fetchAndStore(ctx, u); err != nil {
			errs = append(errs, err)
			continue
		}
		stored++
	}
	return stored, errors.Join(errs...)
}

// Stats proxies Bucket.Stats.
func (h *Hook) Stats(ctx context.Context) (Stats, error) {
	if h.bucket == nil {
		return Stats{}, ErrUnavailable
	}
	return h.bucket.Stats(ctx)
}

// Wait blocks until all in-flight background fills finish.
func (h *Hook) Wait() {
	h.wg.Wait()
}

// Close cancels in-flight fills and waits for them to return. Later misses
// no longer start fills. The bucket is owned by the caller and left open.
func (h *Hook) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()
	h.wg.Wait()
}

func (h *Hook) lastFailure(rawURL string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failures[rawURL]
}

func (h *Hook) setFailure(rawURL, msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if msg == "" {
		delete(h.failures, rawURL)
		return
	}
	if _, ok := h.failures[rawURL]; !ok && len(h.failures) >= maxFailures {
		for k := range h.failures {
			delete(h.failures, k)
			break
		}
	}
	h.failures[rawURL] = msg
}
