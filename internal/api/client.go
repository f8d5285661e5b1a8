// Package api is a thin typed client for the conference REST API.
//
// Every method issues exactly one request and decodes the JSON body into the
// matching model type. There is no retry, caching or batching; errors are
// returned to the caller unchanged apart from non-2xx responses, which are
// converted into *APIError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"startright/internal/model"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// UserMessage returns the text to show a visitor for a failed call: the API's
// own message when there is one, else a generic fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return fallback
}

// Client talks to the remote API through one shared *http.Client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for baseURL (e.g. https://api.example.org/api/v1).
// The transport is wrapped so every response passes through the logging and
// metrics interceptor.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &interceptor{next: http.DefaultTransport, basePath: basePath(baseURL)},
		},
	}
}

// NewClientWithHTTP is used by tests and callers that need a custom
// transport; the interceptor is still applied on top of it.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	wrapped := *hc
	wrapped.Transport = &interceptor{next: next, basePath: basePath(baseURL)}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: &wrapped}
}

func basePath(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Path
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) ListEvents(ctx context.Context, p model.PageParams) ([]model.Event, error) {
	var out []model.Event
	err := c.do(ctx, http.MethodGet, "/events", pageQuery(p), nil, &out)
	return out, err
}

func (c *Client) ListUpcomingEvents(ctx context.Context, p model.PageParams) ([]model.Event, error) {
	var out []model.Event
	err := c.do(ctx, http.MethodGet, "/events/upcoming", pageQuery(p), nil, &out)
	return out, err
}

func (c *Client) ListPastEvents(ctx context.Context, p model.PageParams) ([]model.Event, error) {
	var out []model.Event
	err := c.do(ctx, http.MethodGet, "/events/past", pageQuery(p), nil, &out)
	return out, err
}

func (c *Client) GetEvent(ctx context.Context, eventID int64) (*model.Event, error) {
	var out model.Event
	if err := c.do(ctx, http.MethodGet, eventPath(eventID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register signs a guest up for an event. The response carries the QR
// payload and token used for check-in.
func (c *Client) Register(ctx context.Context, eventID int64, req model.RegistrationRequest) (*model.RegistrationResponse, error) {
	var out model.RegistrationResponse
	if err := c.do(ctx, http.MethodPost, eventPath(eventID)+"/register-v2", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSpeakers(ctx context.Context, eventID int64) ([]model.Speaker, error) {
	var out []model.Speaker
	err := c.do(ctx, http.MethodGet, eventPath(eventID)+"/speakers-v2", nil, nil, &out)
	return out, err
}

func (c *Client) ListGallery(ctx context.Context, eventID int64, p model.PageParams) ([]model.GalleryItem, error) {
	var out []model.GalleryItem
	err := c.do(ctx, http.MethodGet, eventPath(eventID)+"/gallery", pageQuery(p), nil, &out)
	return out, err
}

func (c *Client) ListArticles(ctx context.Context, eventID int64) ([]model.EventArticle, error) {
	var out []model.EventArticle
	err := c.do(ctx, http.MethodGet, eventPath(eventID)+"/articles", nil, nil, &out)
	return out, err
}

func (c *Client) GetArticle(ctx context.Context, eventID, articleID int64) (*model.EventArticle, error) {
	var out model.EventArticle
	path := eventPath(eventID) + "/articles/" + strconv.FormatInt(articleID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListItinerary(ctx context.Context, eventID int64) ([]model.ItineraryItem, error) {
	var out []model.ItineraryItem
	err := c.do(ctx, http.MethodGet, eventPath(eventID)+"/itinerary", nil, nil, &out)
	return out, err
}

func (c *Client) ListReviews(ctx context.Context, eventID int64, p model.PageParams) ([]model.Review, error) {
	var out []model.Review
	err := c.do(ctx, http.MethodGet, eventPath(eventID)+"/reviews", pageQuery(p), nil, &out)
	return out, err
}

func (c *Client) CreateReview(ctx context.Context, eventID int64, req model.ReviewRequest) (*model.Review, error) {
	var out model.Review
	if err := c.do(ctx, http.MethodPost, eventPath(eventID)+"/reviews", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateReview(ctx context.Context, eventID, reviewID int64, req model.ReviewRequest) (*model.Review, error) {
	var out model.Review
	path := eventPath(eventID) + "/reviews/" + strconv.FormatInt(reviewID, 10)
	if err := c.do(ctx, http.MethodPut, path, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteReview(ctx context.Context, eventID, reviewID int64) error {
	path := eventPath(eventID) + "/reviews/" + strconv.FormatInt(reviewID, 10)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) SubmitVolunteer(ctx context.Context, app model.VolunteerApplication) (*model.ApplicationResponse, error) {
	var out model.ApplicationResponse
	if err := c.do(ctx, http.MethodPost, "/applications/volunteer", nil, app, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitSponsor(ctx context.Context, app model.SponsorApplication) (*model.ApplicationResponse, error) {
	var out model.ApplicationResponse
	if err := c.do(ctx, http.MethodPost, "/applications/sponsor", nil, app, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func eventPath(eventID int64) string {
	return "/events/" + strconv.FormatInt(eventID, 10)
}

func pageQuery(p model.PageParams) url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Size > 0 {
		q.Set("size", strconv.Itoa(p.Size))
	}
	return q
}

// do performs one request. out may be nil when the body is ignored.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError pulls a human-readable message out of an error body. The API
// uses {"message": "..."} but some endpoints answer {"error": "..."}.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
