package imagecache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchAcceptsOnlyImages(t *testing.T) {
	binary := []byte{0x00, 0x01, 0x02, 0x03, 0xfe}
	cases := []struct {
		name        string
		contentType string
		body        []byte
		wantErr     bool
	}{
		{"png", "image/png", pngBytes, false},
		{"png without header", "", pngBytes, false},
		{"unknown image format", "image/avif", binary, false},
		{"plain text", "text/plain", []byte("secret internal data"), true},
		{"html", "text/html", []byte("<html><script>alert(1)</script></html>"), true},
		{"html disguised as png", "image/png", []byte("<html><script>alert(1)</script></html>"), true},
		{"svg", "image/svg+xml", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), true},
		{"json", "application/json", []byte(`{"token":"x"}`), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				// A nil value stops net/http from sniffing its own header.
				w.Header()["Content-Type"] = nil
				if tc.contentType != "" {
					w.Header().Set("Content-Type", tc.contentType)
				}
				_, _ = w.Write(tc.body)
			}))
			defer srv.Close()

			entry, err := NewFetcher(time.Second).Fetch(context.Background(), srv.URL+"/img")
			if tc.wantErr {
				if !errors.Is(err, ErrNotImage) {
					t.Fatalf("Fetch err = %v, want ErrNotImage", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if !IsImageType(entry.ContentType) {
				t.Errorf("ContentType = %q, want an image type", entry.ContentType)
			}
		})
	}
}

func TestIsImageType(t *testing.T) {
	for ct, want := range map[string]bool{
		"image/png":                true,
		"image/jpeg; charset=none": true,
		"image/svg+xml":            false,
		"text/html":                false,
		"":                         false,
	} {
		if got := IsImageType(ct); got != want {
			t.Errorf("IsImageType(%q) = %v, want %v", ct, got, want)
		}
	}
}
