package qr

import (
	"net/url"
	"testing"
)

func TestImageURLEncodesRegistrationPage(t *testing.T) {
	got := ImageURL("https://api.qrserver.com/v1/create-qr-code/", "https://example.com", 42, "")

	u, err := url.Parse(got)
	if err != nil {
		t.Fatal(err)
	}
	if u.Host != "api.qrserver.com" || u.Path != "/v1/create-qr-code/" {
		t.Errorf("service URL changed: %s", got)
	}
	if data := u.Query().Get("data"); data != "https://example.com/events/42/register" {
		t.Errorf("data = %q", data)
	}
	if size := u.Query().Get("size"); size != DefaultSize {
		t.Errorf("size = %q", size)
	}
}

func TestImageURLKeepsExistingQuery(t *testing.T) {
	got := ImageURL("https://qr.example/render?fmt=svg", "https://example.com/", 7, "300x300")
	u, err := url.Parse(got)
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("fmt") != "svg" || q.Get("size") != "300x300" || q.Get("data") != "https://example.com/events/7/register" {
		t.Errorf("unexpected query %v", q)
	}
}
