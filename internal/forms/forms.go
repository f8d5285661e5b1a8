// Package forms decodes and validates the site's HTML form submissions
// before they are posted to the API. Rules live in JSON schemas; failures
// come back as per-field messages for inline rendering.
package forms

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"startright/internal/model"
)

// Kind selects a form schema.
type Kind string

const (
	Registration Kind = "registration"
	Review       Kind = "review"
	Volunteer    Kind = "volunteer"
	Sponsor      Kind = "sponsor"
)

// Errors maps a form field (by its JSON name) to a message.
type Errors map[string]string

// OK reports whether there are no field errors.
func (e Errors) OK() bool { return len(e) == 0 }

// Error lists the failing fields so Errors can travel as an error.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid form fields: " + strings.Join(fields, ", ")
}

func (e Errors) merge(other Errors) Errors {
	for k, v := range other {
		if _, ok := e[k]; !ok {
			e[k] = v
		}
	}
	return e
}

// Validate checks v (one of the model request types) against the kind's
// schema.
func Validate(kind Kind, v any) Errors {
	out := Errors{}
	loader, ok := schemaLoaders[kind]
	if !ok {
		out["_form"] = fmt.Sprintf("unknown form %q", kind)
		return out
	}

	res, err := gojsonschema.Validate(loader, gojsonschema.NewGoLoader(v))
	if err != nil {
		out["_form"] = "The form could not be checked. Please try again."
		return out
	}
	if res.Valid() {
		return out
	}

	rank := map[string]int{}
	for _, re := range res.Errors() {
		field := re.Field()
		if re.Type() == "required" {
			if p, ok := re.Details()["property"].(string); ok {
				field = p
			}
		}
		r := priority(re.Type())
		if prev, seen := rank[field]; seen && prev <= r {
			continue
		}
		rank[field] = r
		out[field] = message(re)
	}
	return out
}

// Lower is reported first when a field fails more than one rule.
func priority(errType string) int {
	switch errType {
	case "required":
		return 0
	case "string_gte", "invalid_type":
		return 1
	case "format", "pattern":
		return 2
	default:
		return 3
	}
}

func message(re gojsonschema.ResultError) string {
	d := re.Details()
	switch re.Type() {
	case "required":
		return "This field is required."
	case "string_gte":
		if n, ok := d["min"]; ok && fmt.Sprint(n) == "1" {
			return "This field is required."
		}
		return fmt.Sprintf("Must be at least %v characters.", d["min"])
	case "string_lte":
		return fmt.Sprintf("Must be at most %v characters.", d["max"])
	case "format":
		if d["format"] == "email" {
			return "Enter a valid email address."
		}
		return "Enter a valid web address."
	case "pattern":
		return "Enter a valid phone number."
	case "number_gte":
		return fmt.Sprintf("Must be %v or more.", d["min"])
	case "number_lte":
		return fmt.Sprintf("Must be %v or less.", d["max"])
	case "enum":
		return "Choose one of the listed options."
	default:
		return re.Description()
	}
}

func field(v url.Values, key string) string {
	return strings.TrimSpace(v.Get(key))
}

// optionalInt parses an optional whole number. A blank value is zero.
func optionalInt(v url.Values, key string, errs Errors) int {
	s := field(v, key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		errs[key] = "Enter a whole number."
		return 0
	}
	return n
}

// DecodeRegistration reads the registration form and validates it.
func DecodeRegistration(v url.Values) (model.RegistrationRequest, Errors) {
	errs := Errors{}
	req := model.RegistrationRequest{
		FirstName: field(v, "firstName"),
		LastName:  field(v, "lastName"),
		Email:     field(v, "email"),
		Phone:     field(v, "phone"),
		School:    field(v, "school"),
		Major:     field(v, "major"),
		HowHeard:  field(v, "howHeard"),
	}
	req.GraduationYear = optionalInt(v, "graduationYear", errs)
	return req, errs.merge(Validate(Registration, req))
}

// DecodeReview reads the review (and Q&A) form and validates it.
func DecodeReview(v url.Values) (model.ReviewRequest, Errors) {
	errs := Errors{}
	req := model.ReviewRequest{
		Name:    field(v, "name"),
		Email:   field(v, "email"),
		Comment: field(v, "comment"),
	}
	req.Rating = optionalInt(v, "rating", errs)
	return req, errs.merge(Validate(Review, req))
}

// DecodeVolunteer reads the volunteer application for eventID.
func DecodeVolunteer(eventID int64, v url.Values) (model.VolunteerApplication, Errors) {
	app := model.VolunteerApplication{
		EventID:      eventID,
		Name:         field(v, "name"),
		Email:        field(v, "email"),
		Phone:        field(v, "phone"),
		Availability: field(v, "availability"),
		Role:         field(v, "preferredRole"),
		Motivation:   field(v, "motivation"),
	}
	return app, Validate(Volunteer, app)
}

// DecodeSponsor reads the sponsor application for eventID.
func DecodeSponsor(eventID int64, v url.Values) (model.SponsorApplication, Errors) {
	errs := Errors{}
	app := model.SponsorApplication{
		EventID:      eventID,
		Organization: field(v, "organizationName"),
		ContactName:  field(v, "contactName"),
		Email:        field(v, "email"),
		Phone:        field(v, "phone"),
		Website:      field(v, "website"),
		Tier:         strings.ToLower(field(v, "tier")),
		Message:      field(v, "message"),
	}
	app.Budget = optionalInt(v, "budget", errs)
	return app, errs.merge(Validate(Sponsor, app))
}
