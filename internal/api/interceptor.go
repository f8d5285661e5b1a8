package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	appLog "startright/internal/log"
	"startright/internal/metrics"
)

// interceptor observes every response from the API: it logs failures and
// records latency, then hands the response or error back untouched.
type interceptor struct {
	next http.RoundTripper
	// basePath is the API root's path, trimmed from endpoint labels.
	basePath string
}

func (t *interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	elapsed := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	metrics.APIRequestDuration.
		WithLabelValues(req.Method, endpointLabel(t.basePath, req.URL.Path), metrics.StatusClass(status)).
		Observe(elapsed.Seconds())

	switch {
	case err != nil:
		appLog.Error("api request failed", err,
			"method", req.Method,
			"path", req.URL.Path,
			"duration_ms", elapsed.Milliseconds(),
		)
	case status >= 400:
		appLog.Warn("api request returned error status",
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		)
	default:
		appLog.Debug("api request ok",
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		)
	}

	return resp, err
}

// endpointLabel turns a request path into its route shape:
// "/api/v1/events/7/articles/9" under "/api/v1" is "/events/{id}/articles/{id}".
func endpointLabel(basePath, path string) string {
	path = strings.TrimPrefix(path, strings.TrimRight(basePath, "/"))
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segs {
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			segs[i] = "{id}"
		}
	}
	return "/" + strings.Join(segs, "/")
}
