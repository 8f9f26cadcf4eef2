// Package vendors defines the common interface every third-party verification
// vendor implements, plus the registry that decides which vendor services a
// proofing stage.
package vendors

import (
	"context"

	"idproof/internal/proofing/models"
)

// Response is the raw outcome of one vendor call before the agent wraps it
// into a VendorResult.
type Response struct {
	Success             bool
	Errors              map[string][]string
	Reasons             []string
	SessionID           string
	NormalizedApplicant *models.Applicant
}

// Vendor is a named, stage-tagged verification capability. Implementations
// must be safe for concurrent use; the agent may invoke independent stages in
// parallel.
type Vendor interface {
	// Name returns the operator-facing vendor name used in configuration
	// entries such as "lexisnexis:resolution".
	Name() string

	// Stage returns the single proofing stage this vendor services.
	Stage() models.Stage

	// Proof runs the verification call. The context carries the bounded
	// deadline; implementations must respect it.
	Proof(ctx context.Context, applicant models.Applicant) (Response, error)
}
