package resolve

import (
	"strings"

	"idproof/internal/proofing/models"
)

// DocumentPII seeds the identity from everything the document scan produced.
type DocumentPII struct{}

func (DocumentPII) ResolveIdentity(docPII, _ models.Applicant, soFar Identity, next Next) (Identity, error) {
	merged := soFar.Clone()
	for name, value := range docPII.Attrs() {
		merged[name] = value
	}
	return next(merged)
}

// UserEntered overlays the fields the user is allowed to supply or correct
// themselves. Document values win for everything else, so a doctored form
// cannot override what the scan read off the ID.
type UserEntered struct{}

// userEditableFields are the attributes collected from the user rather than
// the document.
var userEditableFields = []string{"ssn", "phone", "address1", "address2", "city", "state", "zipcode"}

func (UserEntered) ResolveIdentity(_, userPII models.Applicant, soFar Identity, next Next) (Identity, error) {
	merged := soFar.Clone()
	attrs := userPII.Attrs()
	for _, field := range userEditableFields {
		if value, ok := attrs[field]; ok {
			merged[field] = value
		}
	}
	return next(merged)
}

// SSNFormat canonicalizes the merged SSN to ###-##-#### so every downstream
// consumer sees one spelling regardless of how it was entered.
type SSNFormat struct{}

func (SSNFormat) ResolveIdentity(_, _ models.Applicant, soFar Identity, next Next) (Identity, error) {
	merged := soFar.Clone()
	if ssn, ok := merged["ssn"]; ok {
		digits := digitsOnly(ssn)
		if len(digits) == 9 {
			merged["ssn"] = digits[0:3] + "-" + digits[3:5] + "-" + digits[5:9]
		}
	}
	return next(merged)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DefaultChain is the production plugin order: document values first, user
// corrections over them, then formatting. Order is load-bearing.
func DefaultChain() *Resolver {
	return New(DocumentPII{}, UserEntered{}, SSNFormat{})
}
