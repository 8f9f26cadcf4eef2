package audit

import (
	"context"
	"time"

	id "idproof/pkg/domain"
)

// Event is emitted from the proofing pipeline to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. Events carry vendor
// provenance and correlation ids, never raw PII.
type Event struct {
	Timestamp time.Time
	UserID    id.UserID
	ResultID  id.ResultID
	Action    string
	Stage     string
	Vendor    string
	Issuer    string
	Decision  string
	Reason    string
	// TraceID correlates the event with the originating web request.
	TraceID string
}

// AuditEvent names every action the pipeline emits.
type AuditEvent string

const (
	EventJobSubmitted     AuditEvent = "proofing_job_submitted"
	EventJobCompleted     AuditEvent = "proofing_job_completed"
	EventStageProofed     AuditEvent = "proofing_stage_proofed"
	EventStageSkipped     AuditEvent = "proofing_stage_skipped"
	EventDuplicateSsnSeen AuditEvent = "duplicate_ssn_detected"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
