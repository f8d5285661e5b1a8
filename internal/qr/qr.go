// Package qr builds links to the public QR rendering service that encodes a
// visitor's registration page.
package qr

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultSize is used when no size is configured.
const DefaultSize = "200x200"

// RegistrationURL is the site page a scanned code should open.
func RegistrationURL(origin string, eventID int64) string {
	return strings.TrimRight(origin, "/") + "/events/" + strconv.FormatInt(eventID, 10) + "/register"
}

// ImageURL returns serviceURL with size and data query parameters set. The
// data parameter is the percent-encoded registration URL. No request is made.
func ImageURL(serviceURL, origin string, eventID int64, size string) string {
	if size == "" {
		size = DefaultSize
	}
	q := url.Values{}
	q.Set("size", size)
	q.Set("data", RegistrationURL(origin, eventID))

	sep := "?"
	if strings.Contains(serviceURL, "?") {
		sep = "&"
	}
	return serviceURL + sep + q.Encode()
}
