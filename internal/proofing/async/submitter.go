// Package async implements the background proofing pipeline: the submitter
// enqueues jobs and hands the caller a result id to poll with, and the runner
// consumes jobs and drives the agent.
package async

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"idproof/internal/platform/queue"
	"idproof/internal/proofing/metrics"
	"idproof/internal/proofing/models"
	"idproof/internal/proofing/session"
	"idproof/pkg/domain"
	dErrors "idproof/pkg/domain-errors"
	audit "idproof/pkg/platform/audit"
	"idproof/pkg/platform/audit/publisher"
	"idproof/pkg/requestcontext"
)

// JobPayload is the wire format of one queued proofing job. The applicant and
// stage list travel as embedded JSON strings; the payload carries a full
// snapshot so the worker can still run the job after the capture session has
// expired from the session store.
type JobPayload struct {
	ResultID        domain.ResultID `json:"result_id"`
	ApplicantJSON   string          `json:"applicant_json"`
	StagesJSON      string          `json:"stages_json"`
	DocumentPIIJSON string          `json:"document_pii_json,omitempty"`

	SessionUUID string        `json:"session_uuid"`
	UserID      domain.UserID `json:"user_id"`
	Issuer      string        `json:"issuer"`

	TraceID               string `json:"trace_id,omitempty"`
	RequestIP             string `json:"request_ip,omitempty"`
	ThreatMetrixSessionID string `json:"threatmetrix_session_id,omitempty"`
}

// Applicant decodes the embedded applicant snapshot.
func (p JobPayload) Applicant() (models.Applicant, error) {
	var a models.Applicant
	if err := json.Unmarshal([]byte(p.ApplicantJSON), &a); err != nil {
		return models.Applicant{}, fmt.Errorf("decode applicant_json: %w", err)
	}
	return a, nil
}

// Stages decodes the embedded stage list.
func (p JobPayload) Stages() ([]models.Stage, error) {
	var stages []models.Stage
	if err := json.Unmarshal([]byte(p.StagesJSON), &stages); err != nil {
		return nil, fmt.Errorf("decode stages_json: %w", err)
	}
	return stages, nil
}

// DocumentPII decodes the embedded document snapshot, nil when no document
// was captured.
func (p JobPayload) DocumentPII() (*models.Applicant, error) {
	if p.DocumentPIIJSON == "" {
		return nil, nil
	}
	var a models.Applicant
	if err := json.Unmarshal([]byte(p.DocumentPIIJSON), &a); err != nil {
		return nil, fmt.Errorf("decode document_pii_json: %w", err)
	}
	return &a, nil
}

// SubmitParams carries the request-scoped inputs forwarded to the worker.
type SubmitParams struct {
	TraceID               string
	RequestIP             string
	ThreatMetrixSessionID string
}

// Submitter enqueues proofing jobs. Publishing is fire-and-forget from the
// caller's perspective: once Submit returns, the caller polls the result id.
type Submitter struct {
	publisher queue.Publisher
	sessions  session.Store
	topic     string
	metrics   *metrics.Metrics
	audit     *publisher.Publisher
	logger    *slog.Logger
}

// NewSubmitter wires a submitter to the job topic.
func NewSubmitter(pub queue.Publisher, sessions session.Store, topic string, m *metrics.Metrics, auditPub *publisher.Publisher, logger *slog.Logger) *Submitter {
	return &Submitter{
		publisher: pub,
		sessions:  sessions,
		topic:     topic,
		metrics:   m,
		audit:     auditPub,
		logger:    logger,
	}
}

// Submit validates the requested stages, mints a result id, stamps it onto the
// session, and enqueues exactly one job. The session is saved before the
// publish so a poll arriving between the two observes a pending result rather
// than a missing one.
func (s *Submitter) Submit(ctx context.Context, sess *session.CaptureSession, stages []models.Stage, params SubmitParams) (domain.ResultID, error) {
	if err := validateStages(stages); err != nil {
		return domain.ResultID{}, err
	}

	resultID := domain.NewResultID()
	sess.AsyncResultID = resultID
	sess.AsyncResultStartedAt = requestcontext.Now(ctx)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return domain.ResultID{}, fmt.Errorf("save session before enqueue: %w", err)
	}

	applicantJSON, err := json.Marshal(sess.Applicant)
	if err != nil {
		return domain.ResultID{}, fmt.Errorf("marshal applicant: %w", err)
	}
	stagesJSON, err := json.Marshal(stages)
	if err != nil {
		return domain.ResultID{}, fmt.Errorf("marshal stages: %w", err)
	}
	var documentJSON []byte
	if sess.DocumentPII != nil {
		if documentJSON, err = json.Marshal(sess.DocumentPII); err != nil {
			return domain.ResultID{}, fmt.Errorf("marshal document pii: %w", err)
		}
	}

	payload, err := json.Marshal(JobPayload{
		ResultID:              resultID,
		ApplicantJSON:         string(applicantJSON),
		StagesJSON:            string(stagesJSON),
		DocumentPIIJSON:       string(documentJSON),
		SessionUUID:           sess.UUID,
		UserID:                sess.UserID,
		Issuer:                sess.Issuer,
		TraceID:               params.TraceID,
		RequestIP:             params.RequestIP,
		ThreatMetrixSessionID: params.ThreatMetrixSessionID,
	})
	if err != nil {
		return domain.ResultID{}, fmt.Errorf("marshal job payload: %w", err)
	}

	if err := s.publisher.Publish(ctx, s.topic, []byte(resultID.String()), payload); err != nil {
		return domain.ResultID{}, fmt.Errorf("enqueue proofing job: %w", err)
	}

	s.metrics.JobsSubmitted.Inc()
	s.logger.InfoContext(ctx, "proofing job submitted",
		"result_id", resultID,
		"session_uuid", sess.UUID,
		"stages", stages,
		"trace_id", params.TraceID,
	)
	if s.audit != nil {
		_ = s.audit.Emit(ctx, audit.Event{
			UserID:   sess.UserID,
			ResultID: resultID,
			Action:   string(audit.EventJobSubmitted),
			Issuer:   sess.Issuer,
			TraceID:  params.TraceID,
		})
	}
	return resultID, nil
}

func validateStages(stages []models.Stage) error {
	if len(stages) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "no proofing stages requested")
	}
	seen := make(map[models.Stage]bool, len(stages))
	for _, stage := range stages {
		if _, err := models.ParseStage(string(stage)); err != nil {
			return err
		}
		if seen[stage] {
			return dErrors.Newf(dErrors.CodeInvalidInput, "stage %q requested more than once", stage)
		}
		seen[stage] = true
	}
	return nil
}
