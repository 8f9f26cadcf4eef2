package models

import (
	"strings"

	dErrors "idproof/pkg/domain-errors"
)

// Applicant is the attribute bag submitted for verification. It is built per
// request and treated as immutable once handed to a vendor call.
type Applicant struct {
	UUID                string `json:"uuid,omitempty"`
	FirstName           string `json:"first_name,omitempty"`
	MiddleName          string `json:"middle_name,omitempty"`
	LastName            string `json:"last_name,omitempty"`
	DOB                 string `json:"dob,omitempty"`
	SSN                 string `json:"ssn,omitempty"`
	Address1            string `json:"address1,omitempty"`
	Address2            string `json:"address2,omitempty"`
	City                string `json:"city,omitempty"`
	State               string `json:"state,omitempty"`
	ZipCode             string `json:"zipcode,omitempty"`
	Phone               string `json:"phone,omitempty"`
	StateIDNumber       string `json:"state_id_number,omitempty"`
	StateIDType         string `json:"state_id_type,omitempty"`
	StateIDJurisdiction string `json:"state_id_jurisdiction,omitempty"`
}

// applicantAttributes is the set of recognized verification attribute names,
// in submission-payload form.
var applicantAttributes = map[string]struct{}{
	"uuid":                  {},
	"first_name":            {},
	"middle_name":           {},
	"last_name":             {},
	"dob":                   {},
	"ssn":                   {},
	"address1":              {},
	"address2":              {},
	"city":                  {},
	"state":                 {},
	"zipcode":               {},
	"phone":                 {},
	"state_id_number":       {},
	"state_id_type":         {},
	"state_id_jurisdiction": {},
}

// IsApplicantAttribute reports whether name is a recognized applicant
// attribute. Symbol-style names (":ssn") and mixed case are accepted so the
// check matches however the web layer spells the key.
func IsApplicantAttribute(name string) bool {
	normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ":"))
	_, ok := applicantAttributes[normalized]
	return ok
}

// Attrs flattens the applicant back to submission-payload form, omitting
// empty values.
func (a Applicant) Attrs() map[string]string {
	out := map[string]string{}
	put := func(name, value string) {
		if value != "" {
			out[name] = value
		}
	}
	put("uuid", a.UUID)
	put("first_name", a.FirstName)
	put("middle_name", a.MiddleName)
	put("last_name", a.LastName)
	put("dob", a.DOB)
	put("ssn", a.SSN)
	put("address1", a.Address1)
	put("address2", a.Address2)
	put("city", a.City)
	put("state", a.State)
	put("zipcode", a.ZipCode)
	put("phone", a.Phone)
	put("state_id_number", a.StateIDNumber)
	put("state_id_type", a.StateIDType)
	put("state_id_jurisdiction", a.StateIDJurisdiction)
	return out
}

// ApplicantFromAttrs builds an Applicant from a raw attribute map, rejecting
// unknown keys before any vendor is contacted.
func ApplicantFromAttrs(attrs map[string]string) (Applicant, error) {
	var a Applicant
	for name, value := range attrs {
		if !IsApplicantAttribute(name) {
			return Applicant{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown applicant attribute %q", name)
		}
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ":"))
		switch normalized {
		case "uuid":
			a.UUID = value
		case "first_name":
			a.FirstName = value
		case "middle_name":
			a.MiddleName = value
		case "last_name":
			a.LastName = value
		case "dob":
			a.DOB = value
		case "ssn":
			a.SSN = value
		case "address1":
			a.Address1 = value
		case "address2":
			a.Address2 = value
		case "city":
			a.City = value
		case "state":
			a.State = value
		case "zipcode":
			a.ZipCode = value
		case "phone":
			a.Phone = value
		case "state_id_number":
			a.StateIDNumber = value
		case "state_id_type":
			a.StateIDType = value
		case "state_id_jurisdiction":
			a.StateIDJurisdiction = value
		}
	}
	return a, nil
}
