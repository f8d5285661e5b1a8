package imagecache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodyBytes caps a single cached image.
const maxBodyBytes = 15 << 20

// ErrNotImage is returned when a fetched body is not a raster image.
var ErrNotImage = errors.New("imagecache: response is not an image")

// IsImageType reports whether contentType is a raster image type. SVG is
// excluded because it can carry script.
func IsImageType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "image/") && mt != "image/svg+xml"
}

// Fetcher performs the live GET for a cache miss.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher whose requests are bounded by timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// NewFetcherWithClient lets callers supply their own *http.Client.
func NewFetcherWithClient(c *http.Client) *Fetcher {
	return &Fetcher{client: c}
}

// Fetch downloads rawURL. Only 2xx responses produce an Entry; anything else
// is an error and nothing should be stored.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Entry{}, err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return Entry{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Entry{}, fmt.Errorf("fetch %s: %s", redactURL(rawURL), resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return Entry{}, fmt.Errorf("read %s: %w", redactURL(rawURL), err)
	}
	if len(body) > maxBodyBytes {
		return Entry{}, errors.New("image exceeds cache size limit")
	}

	// Both the declared type and the sniffed body must be an image. Formats
	// the sniffer does not know come back as application/octet-stream.
	ct := resp.Header.Get("Content-Type")
	sniffed := http.DetectContentType(body)
	if ct == "" {
		ct = sniffed
	}
	if !IsImageType(ct) || (!IsImageType(sniffed) && sniffed != "application/octet-stream") {
		return Entry{}, fmt.Errorf("fetch %s: %w (declared %q, sniffed %q)", redactURL(rawURL), ErrNotImage, ct, sniffed)
	}

	return Entry{
		URL:         rawURL,
		Key:         Key(rawURL),
		ContentType: ct,
		Body:        body,
		StoredAt:    time.Now(),
	}, nil
}

// isCacheable reports whether rawURL is an absolute http(s) URL. Relative
// and data: URLs are served by the site itself and never cached.
func isCacheable(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// redactURL hides path and query of a URL for logging purposes.
//
//	https://cdn.example.com/path/photo.jpg?sig=abcd -> https://cdn.example.com/...(redacted)
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "url://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
