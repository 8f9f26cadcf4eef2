package async

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"idproof/internal/platform/queue"
	"idproof/internal/proofing/agent"
	"idproof/internal/proofing/metrics"
	"idproof/internal/proofing/models"
	"idproof/internal/proofing/session"
	"idproof/internal/proofing/store"
	"idproof/pkg/domain"
	audit "idproof/pkg/platform/audit"
	"idproof/pkg/platform/audit/publisher"
	"idproof/pkg/platform/sentinel"
)

// SsnChecker is the duplicate-SSN fraud signal consulted before proofing.
type SsnChecker interface {
	SsnIsUnique(ctx context.Context, ssn string, userID domain.UserID, issuer string) (bool, error)
}

// Runner consumes proofing jobs and drives the agent. Handle is safe under
// redelivery: completed results short-circuit, and the result store makes
// repeated stage writes a no-op in effect.
type Runner struct {
	agent    *agent.Agent
	results  store.ResultStore
	sessions session.Store
	ssnCheck SsnChecker
	metrics  *metrics.Metrics
	audit    *publisher.Publisher
	logger   *slog.Logger
}

// NewRunner wires a runner. ssnCheck may be nil when duplicate detection is
// not deployed.
func NewRunner(a *agent.Agent, results store.ResultStore, sessions session.Store, ssnCheck SsnChecker, m *metrics.Metrics, auditPub *publisher.Publisher, logger *slog.Logger) *Runner {
	return &Runner{
		agent:    a,
		results:  results,
		sessions: sessions,
		ssnCheck: ssnCheck,
		metrics:  m,
		audit:    auditPub,
		logger:   logger,
	}
}

// Handle processes one queued job. It satisfies queue.Handler; a returned
// error leaves the message uncommitted for redelivery.
func (r *Runner) Handle(ctx context.Context, msg queue.Message) error {
	var payload JobPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		// Malformed payloads never become valid on redelivery; drop them.
		r.logger.ErrorContext(ctx, "dropping undecodable proofing job",
			"topic", msg.Topic,
			"error", err,
		)
		return nil
	}
	applicant, applicantErr := payload.Applicant()
	stages, stagesErr := payload.Stages()
	docPII, docErr := payload.DocumentPII()
	if err := errors.Join(applicantErr, stagesErr, docErr); err != nil {
		r.logger.ErrorContext(ctx, "dropping proofing job with undecodable snapshot",
			"result_id", payload.ResultID,
			"error", err,
		)
		return nil
	}

	rec, err := r.results.Find(ctx, payload.ResultID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	if rec.Completed() {
		r.logger.InfoContext(ctx, "proofing job already completed, skipping redelivery",
			"result_id", payload.ResultID,
		)
		return nil
	}

	sess := r.loadSession(ctx, payload, applicant, docPII)
	r.checkDuplicateSSN(ctx, payload, applicant.SSN)

	requested := stageSet(stages)
	g, runCtx := errgroup.WithContext(ctx)

	if requested[models.StageResolution] || requested[models.StageStateID] {
		g.Go(func() error {
			_, err := r.agent.ProofResolution(runCtx, sess, agent.ResolutionParams{
				ShouldProofStateID:    requested[models.StageStateID],
				TraceID:               payload.TraceID,
				UserID:                payload.UserID.String(),
				RequestIP:             payload.RequestIP,
				Issuer:                payload.Issuer,
				ThreatMetrixSessionID: payload.ThreatMetrixSessionID,
			})
			return err
		})
	}
	if requested[models.StageAddress] || requested[models.StagePhoneFinder] {
		g.Go(func() error {
			_, err := r.agent.ProofAddress(runCtx, sess, agent.AddressParams{
				ShouldProofPhoneFinder: requested[models.StagePhoneFinder],
				TraceID:                payload.TraceID,
				UserID:                 payload.UserID.String(),
				Issuer:                 payload.Issuer,
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := r.results.MarkCompleted(ctx, payload.ResultID); err != nil {
		return err
	}
	r.metrics.JobsCompleted.Inc()
	r.logger.InfoContext(ctx, "proofing job completed",
		"result_id", payload.ResultID,
		"trace_id", payload.TraceID,
	)
	if r.audit != nil {
		_ = r.audit.Emit(ctx, audit.Event{
			UserID:   payload.UserID,
			ResultID: payload.ResultID,
			Action:   string(audit.EventJobCompleted),
			Issuer:   payload.Issuer,
			TraceID:  payload.TraceID,
		})
	}
	return nil
}

// loadSession prefers the stored capture session and falls back to an
// ephemeral one rebuilt from the payload snapshot when the session expired.
func (r *Runner) loadSession(ctx context.Context, payload JobPayload, applicant models.Applicant, docPII *models.Applicant) *session.CaptureSession {
	if r.sessions != nil && payload.SessionUUID != "" {
		sess, err := r.sessions.Find(ctx, payload.SessionUUID)
		if err == nil {
			sess.AsyncResultID = payload.ResultID
			return sess
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			r.logger.WarnContext(ctx, "session lookup failed, using payload snapshot",
				"session_uuid", payload.SessionUUID,
				"error", err,
			)
		}
	}
	return &session.CaptureSession{
		UUID:          payload.SessionUUID,
		UserID:        payload.UserID,
		Issuer:        payload.Issuer,
		Applicant:     applicant,
		DocumentPII:   docPII,
		AsyncResultID: payload.ResultID,
	}
}

// checkDuplicateSSN consults the fraud signal. A duplicate flags and counts
// but never blocks the job, and a checker failure is logged and ignored.
func (r *Runner) checkDuplicateSSN(ctx context.Context, payload JobPayload, ssn string) {
	if r.ssnCheck == nil || ssn == "" {
		return
	}
	unique, err := r.ssnCheck.SsnIsUnique(ctx, ssn, payload.UserID, payload.Issuer)
	if err != nil {
		r.logger.WarnContext(ctx, "duplicate ssn check failed",
			"result_id", payload.ResultID,
			"error", err,
		)
		return
	}
	if !unique {
		r.logger.WarnContext(ctx, "proofing job flagged for duplicate ssn",
			"result_id", payload.ResultID,
		)
	}
}

func stageSet(stages []models.Stage) map[models.Stage]bool {
	out := make(map[models.Stage]bool, len(stages))
	for _, s := range stages {
		out[s] = true
	}
	return out
}
