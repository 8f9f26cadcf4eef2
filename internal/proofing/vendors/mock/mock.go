// Package mock provides deterministic stub vendors, one per stage. They stand
// in for real vendors in lower environments when mock fallback is enabled.
package mock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"idproof/internal/proofing/models"
	"idproof/internal/proofing/vendors"
)

// Trigger values recognized by the mocks. Submitting these exercises the
// corresponding failure path end to end without a real vendor.
const (
	UnverifiableSSN     = "000-00-0000"
	TimeoutFirstName    = "Time Exception"
	ExceptionFirstName  = "Fail"
	UnverifiableStateID = "00000000"
	UnverifiablePhone   = "703-555-5599"
)

// Resolution simulates an identity resolution vendor.
type Resolution struct {
	Latency time.Duration
}

func (Resolution) Name() string        { return "mock" }
func (Resolution) Stage() models.Stage { return models.StageResolution }

func (v Resolution) Proof(ctx context.Context, applicant models.Applicant) (vendors.Response, error) {
	if err := sleep(ctx, v.Latency); err != nil {
		return vendors.Response{}, err
	}
	switch {
	case applicant.FirstName == TimeoutFirstName:
		return vendors.Response{}, vendors.NewTimeoutError("mock", context.DeadlineExceeded)
	case applicant.FirstName == ExceptionFirstName:
		return vendors.Response{}, errors.New("mock resolution vendor raised")
	case applicant.SSN == UnverifiableSSN:
		return vendors.Response{
			SessionID: mockSessionID(),
			Errors:    map[string][]string{"ssn": {"Unverified SSN."}},
			Reasons:   []string{"Fail SSN"},
		}, nil
	}
	normalized := applicant
	return vendors.Response{
		Success:             true,
		SessionID:           mockSessionID(),
		Reasons:             []string{"Everything looks good"},
		NormalizedApplicant: &normalized,
	}, nil
}

// StateID simulates a state driver's-license verification vendor.
type StateID struct {
	Latency time.Duration
}

func (StateID) Name() string        { return "mock" }
func (StateID) Stage() models.Stage { return models.StageStateID }

func (v StateID) Proof(ctx context.Context, applicant models.Applicant) (vendors.Response, error) {
	if err := sleep(ctx, v.Latency); err != nil {
		return vendors.Response{}, err
	}
	if applicant.StateIDNumber == UnverifiableStateID {
		return vendors.Response{
			SessionID: mockSessionID(),
			Errors:    map[string][]string{"state_id_number": {"The state ID number could not be verified."}},
			Reasons:   []string{"Fail state ID"},
		}, nil
	}
	normalized := applicant
	return vendors.Response{
		Success:             true,
		SessionID:           mockSessionID(),
		Reasons:             []string{"valid state ID"},
		NormalizedApplicant: &normalized,
	}, nil
}

// Address simulates an address/phone verification vendor.
type Address struct {
	Latency time.Duration
}

func (Address) Name() string        { return "mock" }
func (Address) Stage() models.Stage { return models.StageAddress }

func (v Address) Proof(ctx context.Context, applicant models.Applicant) (vendors.Response, error) {
	if err := sleep(ctx, v.Latency); err != nil {
		return vendors.Response{}, err
	}
	if applicant.Phone == UnverifiablePhone {
		return vendors.Response{
			SessionID: mockSessionID(),
			Errors:    map[string][]string{"phone": {"The phone number could not be verified."}},
			Reasons:   []string{"Fail phone"},
		}, nil
	}
	normalized := applicant
	return vendors.Response{
		Success:             true,
		SessionID:           mockSessionID(),
		Reasons:             []string{"valid phone"},
		NormalizedApplicant: &normalized,
	}, nil
}

// PhoneFinder simulates a phone ownership lookup vendor.
type PhoneFinder struct {
	Latency time.Duration
}

func (PhoneFinder) Name() string        { return "mock" }
func (PhoneFinder) Stage() models.Stage { return models.StagePhoneFinder }

func (v PhoneFinder) Proof(ctx context.Context, applicant models.Applicant) (vendors.Response, error) {
	if err := sleep(ctx, v.Latency); err != nil {
		return vendors.Response{}, err
	}
	if applicant.Phone == UnverifiablePhone {
		return vendors.Response{
			SessionID: mockSessionID(),
			Errors:    map[string][]string{"phone": {"The phone number could not be matched to the applicant."}},
			Reasons:   []string{"Fail phone finder"},
		}, nil
	}
	normalized := applicant
	return vendors.Response{
		Success:             true,
		SessionID:           mockSessionID(),
		Reasons:             []string{"phone matched"},
		NormalizedApplicant: &normalized,
	}, nil
}

// All returns one mock per stage for registry fallback wiring.
func All() []vendors.Vendor {
	return []vendors.Vendor{Resolution{}, StateID{}, Address{}, PhoneFinder{}}
}

// mockSessionID stands in for the vendor-issued transaction id.
func mockSessionID() string {
	return uuid.New().String()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
