// Package session models the document capture session the web layer hands to
// the engine: the applicant attribute bag, any OCR'd document PII, and the
// async correlation record the caller polls with.
package session

import (
	"context"
	"time"

	"idproof/internal/proofing/models"
	"idproof/pkg/domain"
)

// CaptureSession is the per-submission state. The async fields are written
// once at submit time and never mutated afterwards.
type CaptureSession struct {
	UUID    string        `json:"uuid"`
	UserID  domain.UserID `json:"user_id"`
	Issuer  string        `json:"issuer"`

	// Applicant holds user-entered PII.
	Applicant models.Applicant `json:"applicant"`

	// DocumentPII holds attributes OCR'd from the scanned ID, when a document
	// was captured.
	DocumentPII *models.Applicant `json:"document_pii,omitempty"`

	// AsyncResultID and AsyncResultStartedAt form the polling contract.
	AsyncResultID        domain.ResultID `json:"async_result_id"`
	AsyncResultStartedAt time.Time       `json:"async_result_started_at"`
}

// HasDocument reports whether a scanned ID produced OCR'd PII for this
// session.
func (s *CaptureSession) HasDocument() bool {
	return s.DocumentPII != nil
}

// Store persists capture sessions between the submitting request and the
// background worker.
type Store interface {
	Save(ctx context.Context, sess *CaptureSession) error
	Find(ctx context.Context, uuid string) (*CaptureSession, error)
}
