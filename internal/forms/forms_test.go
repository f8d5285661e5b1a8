package forms

import (
	"net/url"
	"strings"
	"testing"
)

func TestDecodeRegistration(t *testing.T) {
	good := url.Values{
		"firstName":      {" Ada "},
		"lastName":       {"Lovelace"},
		"email":          {"ada@example.com"},
		"phone":          {"(555) 010-2000"},
		"graduationYear": {"2027"},
	}
	req, errs := DecodeRegistration(good)
	if !errs.OK() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if req.FirstName != "Ada" || req.GraduationYear != 2027 || req.FullName() != "Ada Lovelace" {
		t.Errorf("decoded %+v", req)
	}

	tests := []struct {
		name  string
		edit  func(url.Values)
		field string
		msg   string
	}{
		{"missing first name", func(v url.Values) { v.Del("firstName") }, "firstName", "required"},
		{"bad email", func(v url.Values) { v.Set("email", "not-an-email") }, "email", "valid email"},
		{"blank email", func(v url.Values) { v.Set("email", " ") }, "email", "required"},
		{"bad phone", func(v url.Values) { v.Set("phone", "call me") }, "phone", "phone"},
		{"year out of range", func(v url.Values) { v.Set("graduationYear", "1900") }, "graduationYear", "1950 or more"},
		{"year not a number", func(v url.Values) { v.Set("graduationYear", "soon") }, "graduationYear", "whole number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := url.Values{}
			for k, vs := range good {
				v[k] = append([]string(nil), vs...)
			}
			tt.edit(v)
			_, errs := DecodeRegistration(v)
			msg, ok := errs[tt.field]
			if !ok {
				t.Fatalf("no error for %s: %v", tt.field, errs)
			}
			if !strings.Contains(msg, tt.msg) {
				t.Errorf("%s message = %q, want it to mention %q", tt.field, msg, tt.msg)
			}
			if len(errs) != 1 {
				t.Errorf("expected only %s to fail, got %v", tt.field, errs)
			}
		})
	}
}

func TestDecodeReview(t *testing.T) {
	_, errs := DecodeReview(url.Values{"name": {"Sam"}, "rating": {"5"}, "comment": {"Great panels and mentors."}})
	if !errs.OK() {
		t.Fatalf("unexpected errors: %v", errs)
	}

	_, errs = DecodeReview(url.Values{"name": {"S"}, "rating": {"6"}, "comment": {"meh"}})
	for _, f := range []string{"name", "rating", "comment"} {
		if _, ok := errs[f]; !ok {
			t.Errorf("expected error on %s, got %v", f, errs)
		}
	}
	if !strings.Contains(errs["rating"], "5 or less") {
		t.Errorf("rating message = %q", errs["rating"])
	}

	_, errs = DecodeReview(url.Values{"name": {"Sam"}, "comment": {"Great panels and mentors."}})
	if !strings.Contains(errs["rating"], "1 or more") {
		t.Errorf("missing rating should fail the minimum, got %v", errs)
	}
}

func TestDecodeVolunteer(t *testing.T) {
	v := url.Values{
		"name":       {"Jordan"},
		"email":      {"jordan@example.com"},
		"motivation": {"I want to help students start right."},
	}
	app, errs := DecodeVolunteer(9, v)
	if !errs.OK() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if app.EventID != 9 {
		t.Errorf("EventID = %d", app.EventID)
	}

	v.Set("motivation", "because")
	if _, errs = DecodeVolunteer(0, v); errs["motivation"] == "" || errs["eventId"] == "" {
		t.Errorf("expected motivation and eventId errors, got %v", errs)
	}
}

func TestDecodeSponsor(t *testing.T) {
	v := url.Values{
		"organizationName": {"Acme"},
		"contactName":      {"Pat"},
		"email":            {"pat@acme.test"},
		"website":          {"https://acme.test"},
		"tier":             {"Gold"},
		"budget":           {"5000"},
	}
	app, errs := DecodeSponsor(3, v)
	if !errs.OK() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if app.Tier != "gold" || app.Budget != 5000 {
		t.Errorf("decoded %+v", app)
	}

	v.Set("budget", "-1")
	v.Set("tier", "diamond")
	v.Set("website", "acme dot test")
	_, errs = DecodeSponsor(3, v)
	for _, f := range []string{"budget", "tier", "website"} {
		if errs[f] == "" {
			t.Errorf("expected error on %s, got %v", f, errs)
		}
	}
}

func TestValidateUnknownKind(t *testing.T) {
	errs := Validate(Kind("newsletter"), struct{}{})
	if errs.OK() {
		t.Fatal("unknown kind should not validate")
	}
	if !strings.Contains(errs.Error(), "_form") {
		t.Errorf("Error() = %q", errs.Error())
	}
}
