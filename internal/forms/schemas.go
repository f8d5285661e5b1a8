package forms

import "github.com/xeipuuv/gojsonschema"

const registrationSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["firstName", "lastName", "email"],
  "properties": {
    "firstName": { "type": "string", "minLength": 1, "maxLength": 100 },
    "lastName": { "type": "string", "minLength": 1, "maxLength": 100 },
    "email": { "type": "string", "minLength": 1, "format": "email" },
    "phone": { "type": "string", "pattern": "^[0-9+()\\-. ]{7,20}$" },
    "school": { "type": "string", "maxLength": 200 },
    "graduationYear": { "type": "integer", "minimum": 1950, "maximum": 2100 },
    "major": { "type": "string", "maxLength": 200 },
    "howHeard": { "type": "string", "maxLength": 200 }
  }
}`

const reviewSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "rating", "comment"],
  "properties": {
    "name": { "type": "string", "minLength": 2, "maxLength": 100 },
    "email": { "type": "string", "format": "email" },
    "rating": { "type": "integer", "minimum": 1, "maximum": 5 },
    "comment": { "type": "string", "minLength": 10, "maxLength": 2000 }
  }
}`

const volunteerSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["eventId", "name", "email", "motivation"],
  "properties": {
    "eventId": { "type": "integer", "minimum": 1 },
    "name": { "type": "string", "minLength": 2, "maxLength": 100 },
    "email": { "type": "string", "minLength": 1, "format": "email" },
    "phone": { "type": "string", "pattern": "^[0-9+()\\-. ]{7,20}$" },
    "availability": { "type": "string", "maxLength": 500 },
    "preferredRole": { "type": "string", "maxLength": 100 },
    "motivation": { "type": "string", "minLength": 20, "maxLength": 2000 }
  }
}`

const sponsorSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["eventId", "organizationName", "contactName", "email"],
  "properties": {
    "eventId": { "type": "integer", "minimum": 1 },
    "organizationName": { "type": "string", "minLength": 2, "maxLength": 200 },
    "contactName": { "type": "string", "minLength": 2, "maxLength": 100 },
    "email": { "type": "string", "minLength": 1, "format": "email" },
    "phone": { "type": "string", "pattern": "^[0-9+()\\-. ]{7,20}$" },
    "website": { "type": "string", "format": "uri" },
    "tier": { "enum": ["", "platinum", "gold", "silver", "bronze", "community"] },
    "budget": { "type": "integer", "minimum": 0 },
    "message": { "type": "string", "maxLength": 2000 }
  }
}`

var schemaLoaders = map[Kind]gojsonschema.JSONLoader{
	Registration: gojsonschema.NewStringLoader(registrationSchemaJSON),
	Review:       gojsonschema.NewStringLoader(reviewSchemaJSON),
	Volunteer:    gojsonschema.NewStringLoader(volunteerSchemaJSON),
	Sponsor:      gojsonschema.NewStringLoader(sponsorSchemaJSON),
}
