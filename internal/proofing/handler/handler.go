// Package handler exposes the async polling surface. The web layer submits
// jobs out of band and polls here until the worker finishes.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"idproof/internal/proofing/async"
	"idproof/internal/proofing/models"
	"idproof/internal/proofing/session"
	"idproof/internal/proofing/store"
	"idproof/pkg/domain"
	dErrors "idproof/pkg/domain-errors"
	"idproof/pkg/platform/httputil"
	"idproof/pkg/platform/sentinel"
	"idproof/pkg/requestcontext"
)

// Results is the read side of the result store.
type Results interface {
	Find(ctx context.Context, id domain.ResultID) (*store.ProofingRecord, error)
}

// Submitter enqueues async proofing jobs.
type Submitter interface {
	Submit(ctx context.Context, sess *session.CaptureSession, stages []models.Stage, params async.SubmitParams) (domain.ResultID, error)
}

// Handler wires the submit and polling endpoints.
type Handler struct {
	results   Results
	submitter Submitter
	logger    *slog.Logger
}

// New constructs a proofing handler.
func New(results Results, submitter Submitter, logger *slog.Logger) *Handler {
	return &Handler{results: results, submitter: submitter, logger: logger}
}

// Register mounts the proofing endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/proofing/jobs", h.HandleSubmitJob)
	r.Get("/proofing/results/{id}", h.HandleGetResult)
}

// SubmitRequest is the job submission payload from the web layer. The PII
// blocks come in as raw attribute maps so unknown attribute names are
// rejected rather than silently dropped.
type SubmitRequest struct {
	SessionUUID string            `json:"session_uuid"`
	UserID      domain.UserID     `json:"user_id"`
	Issuer      string            `json:"issuer"`
	Applicant   map[string]string `json:"applicant"`
	DocumentPII map[string]string `json:"document_pii,omitempty"`
	Stages      []models.Stage    `json:"stages"`

	ThreatMetrixSessionID string `json:"threatmetrix_session_id,omitempty"`
}

// HandleSubmitJob handles POST /proofing/jobs: validate, enqueue, and hand
// back the result id to poll.
func (h *Handler) HandleSubmitJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed submit payload"))
		return
	}
	if req.UserID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "user_id is required"))
		return
	}
	if req.SessionUUID == "" {
		req.SessionUUID = uuid.New().String()
	}

	// Attribute names are validated before anything is enqueued; a typo'd
	// field must fail the request, not vanish from the vendor call.
	applicant, err := models.ApplicantFromAttrs(req.Applicant)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var docPII *models.Applicant
	if req.DocumentPII != nil {
		doc, err := models.ApplicantFromAttrs(req.DocumentPII)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		docPII = &doc
	}

	sess := &session.CaptureSession{
		UUID:        req.SessionUUID,
		UserID:      req.UserID,
		Issuer:      req.Issuer,
		Applicant:   applicant,
		DocumentPII: docPII,
	}
	requestIP := requestcontext.ClientIP(ctx)
	if requestIP == "" {
		requestIP = r.RemoteAddr
	}
	resultID, err := h.submitter.Submit(ctx, sess, req.Stages, async.SubmitParams{
		TraceID:               requestcontext.RequestID(ctx),
		RequestIP:             requestIP,
		ThreatMetrixSessionID: req.ThreatMetrixSessionID,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "job submission failed",
			"session_uuid", req.SessionUUID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, ResultResponse{
		ResultID: resultID,
		Status:   "pending",
	})
}

// ResultResponse is the completed-record payload.
type ResultResponse struct {
	ResultID    domain.ResultID                      `json:"result_id"`
	Status      string                               `json:"status"`
	Stages      map[models.Stage]models.VendorResult `json:"stages,omitempty"`
	Components  *models.ProofingComponents           `json:"components,omitempty"`
	CompletedAt *time.Time                           `json:"completed_at,omitempty"`
}

// HandleGetResult handles GET /proofing/results/{id}. A record that does not
// exist yet reads as pending: the submitter hands out the id before the
// worker writes anything under it.
func (h *Handler) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resultID, err := domain.ParseResultID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.results.Find(ctx, resultID)
	switch {
	case err == nil && rec.Completed():
		httputil.WriteJSON(w, http.StatusOK, ResultResponse{
			ResultID:    rec.ResultID,
			Status:      "completed",
			Stages:      rec.Stages,
			Components:  &rec.Components,
			CompletedAt: rec.CompletedAt,
		})

	case err == nil, isNotFound(err):
		httputil.WriteJSON(w, http.StatusAccepted, ResultResponse{
			ResultID: resultID,
			Status:   "pending",
		})

	default:
		h.logger.ErrorContext(ctx, "result lookup failed",
			"result_id", resultID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound)
}
