package models

import (
	"encoding/json"

	dErrors "idproof/pkg/domain-errors"
)

// VendorResult is the uniform outcome record for one vendor call. It is
// created once per call and never mutated; the agent converts every vendor
// failure mode into one of these so downstream consumers never handle raw
// vendor exceptions.
type VendorResult struct {
	Success             bool                `json:"success"`
	Errors              map[string][]string `json:"errors"`
	Reasons             []string            `json:"reasons"`
	SessionID           string              `json:"session_id"`
	NormalizedApplicant *Applicant          `json:"normalized_applicant"`
	TimedOut            bool                `json:"timed_out"`
}

// NewVendorResult validates the one construction invariant: a successful
// result cannot carry field errors.
func NewVendorResult(success bool, errs map[string][]string, reasons []string, sessionID string, normalized *Applicant, timedOut bool) (VendorResult, error) {
	if success && len(errs) > 0 {
		return VendorResult{}, dErrors.New(dErrors.CodeInvalidInput, "vendor result cannot be successful with field errors")
	}
	if errs == nil {
		errs = map[string][]string{}
	}
	if reasons == nil {
		reasons = []string{}
	}
	return VendorResult{
		Success:             success,
		Errors:              errs,
		Reasons:             reasons,
		SessionID:           sessionID,
		NormalizedApplicant: normalized,
		TimedOut:            timedOut,
	}, nil
}

// TimedOutResult builds the uniform shape for a vendor call that exceeded its
// deadline: failed, no field errors, timed_out set.
func TimedOutResult(sessionID string) VendorResult {
	return VendorResult{
		Success:   false,
		Errors:    map[string][]string{},
		Reasons:   []string{},
		SessionID: sessionID,
		TimedOut:  true,
	}
}

// FailedResult builds the uniform shape for a vendor call that raised a
// non-timeout exception.
func FailedResult(sessionID string) VendorResult {
	return VendorResult{
		Success:   false,
		Errors:    map[string][]string{},
		Reasons:   []string{},
		SessionID: sessionID,
	}
}

// MarshalJSON keeps the wire shape stable even for zero-value results, so a
// decode on the polling side always sees errors/reasons as present.
func (r VendorResult) MarshalJSON() ([]byte, error) {
	type wire VendorResult
	w := wire(r)
	if w.Errors == nil {
		w.Errors = map[string][]string{}
	}
	if w.Reasons == nil {
		w.Reasons = []string{}
	}
	return json.Marshal(w)
}

// DecodeVendorResult reconstructs a result from its JSON encoding. The nested
// applicant comes back as the Applicant type; an absent applicant stays nil.
func DecodeVendorResult(data []byte) (VendorResult, error) {
	var r VendorResult
	if err := json.Unmarshal(data, &r); err != nil {
		return VendorResult{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "decode vendor result")
	}
	if r.Success && len(r.Errors) > 0 {
		return VendorResult{}, dErrors.New(dErrors.CodeInvalidInput, "vendor result cannot be successful with field errors")
	}
	return r, nil
}
