package model

import "strings"

// Event is a single conference instance as returned by the remote API.
// Date is "YYYY-MM-DD"; Time is "HH:MM:SS" and may be empty.
type Event struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	Location    string `json:"location,omitempty"`
	Venue       string `json:"venue,omitempty"`
	Theme       string `json:"theme,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Capacity    *int   `json:"capacity,omitempty"`
	Registered  *int   `json:"registeredCount,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Year returns the four-digit year from Date, or "" if Date is malformed.
func (e Event) Year() string {
	if len(e.Date) < 4 {
		return ""
	}
	y := e.Date[:4]
	for _, r := range y {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return y
}

// SeatsLeft reports remaining capacity when both numbers are known.
func (e Event) SeatsLeft() (int, bool) {
	if e.Capacity == nil || e.Registered == nil {
		return 0, false
	}
	left := *e.Capacity - *e.Registered
	if left < 0 {
		left = 0
	}
	return left, true
}

// Speaker is a person presenting at an event.
type Speaker struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Title        string `json:"title,omitempty"`
	Organization string `json:"organization,omitempty"`
	Bio          string `json:"bio,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
	Topic        string `json:"topic,omitempty"`
	LinkedInURL  string `json:"linkedinUrl,omitempty"`
}

// Review is a guest's rating and comment for an event.
type Review struct {
	ID        int64  `json:"id"`
	EventID   int64  `json:"eventId,omitempty"`
	Name      string `json:"name"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// ReviewRequest is the body for creating or updating a review.
type ReviewRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// EventArticle is a news piece or recap attached to an event.
type EventArticle struct {
	ID          int64  `json:"id"`
	EventID     int64  `json:"eventId,omitempty"`
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Content     string `json:"content"`
	ImageURL    string `json:"imageUrl,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

// GalleryItem is a single photo from an event.
type GalleryItem struct {
	ID       int64  `json:"id"`
	ImageURL string `json:"imageUrl"`
	Caption  string `json:"caption,omitempty"`
}

// ItineraryItem is one scheduled segment of an event's day.
type ItineraryItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime,omitempty"`
	Speaker     string `json:"speaker,omitempty"`
	Venue       string `json:"venue,omitempty"`
	Kind        string `json:"type,omitempty"`
}

// RegistrationRequest is a guest signup submitted to /events/{id}/register-v2.
type RegistrationRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	School         string `json:"school,omitempty"`
	GraduationYear int    `json:"graduationYear,omitempty"`
	Major          string `json:"major,omitempty"`
	HowHeard       string `json:"howHeard,omitempty"`
}

// FullName joins first and last name.
func (r RegistrationRequest) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// RegistrationResponse carries the check-in QR payload and token.
type RegistrationResponse struct {
	ID        int64  `json:"id"`
	EventID   int64  `json:"eventId,omitempty"`
	Email     string `json:"email,omitempty"`
	Token     string `json:"token"`
	QRCode    string `json:"qrCode,omitempty"`
	Message   string `json:"message,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// VolunteerApplication is submitted to /applications/volunteer.
type VolunteerApplication struct {
	EventID      int64  `json:"eventId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Availability string `json:"availability,omitempty"`
	Role         string `json:"preferredRole,omitempty"`
	Motivation   string `json:"motivation"`
}

// SponsorApplication is submitted to /applications/sponsor.
type SponsorApplication struct {
	EventID      int64  `json:"eventId"`
	Organization string `json:"organizationName"`
	ContactName  string `json:"contactName"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Website      string `json:"website,omitempty"`
	Tier         string `json:"tier,omitempty"`
	Budget       int    `json:"budget,omitempty"`
	Message      string `json:"message,omitempty"`
}

// ApplicationResponse acknowledges a volunteer or sponsor application.
type ApplicationResponse struct {
	ID      int64  `json:"id"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// PageParams are passed through to list endpoints verbatim; zero values are omitted.
type PageParams struct {
	Page int
	Size int
}
