// Package agent orchestrates per-stage vendor invocation: applicant view
// construction, vendor lookup, bounded-timeout calls, failure classification,
// and persistence through the result store.
package agent

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"idproof/internal/proofing/metrics"
	"idproof/internal/proofing/models"
	"idproof/internal/proofing/resolve"
	"idproof/internal/proofing/schedule"
	"idproof/internal/proofing/session"
	"idproof/internal/proofing/store"
	"idproof/internal/proofing/vendors"
)

// Agent runs proofing stages against the configured vendors. Vendor failures
// never escape as errors; they are classified into the persisted VendorResult.
// The only errors Proof* methods return are resolution-plugin failures and
// storage failures.
type Agent struct {
	registry  *vendors.Registry
	results   store.ResultStore
	scheduler *schedule.Scheduler
	resolver  *resolve.Resolver
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	timeout   time.Duration
}

// New wires an agent. The timeout bounds every individual vendor call.
func New(registry *vendors.Registry, results store.ResultStore, scheduler *schedule.Scheduler, resolver *resolve.Resolver, m *metrics.Metrics, logger *slog.Logger, timeout time.Duration) *Agent {
	return &Agent{
		registry:  registry,
		results:   results,
		scheduler: scheduler,
		resolver:  resolver,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("idproof/agent"),
		timeout:   timeout,
	}
}

// ResolutionParams carries the per-request inputs for the resolution stage
// and its dependent state_id stage.
type ResolutionParams struct {
	ShouldProofStateID    bool
	TraceID               string
	UserID                string
	RequestIP             string
	Issuer                string
	ThreatMetrixSessionID string
}

// AddressParams carries the per-request inputs for the address stage and its
// companion phone_finder stage.
type AddressParams struct {
	ShouldProofPhoneFinder bool
	TraceID                string
	UserID                 string
	Issuer                 string
}

// ProofResolution runs the resolution stage and, when eligible, the state_id
// stage. It returns the persisted resolution result, or nil when the stage
// has no vendor and was skipped entirely.
//
// state_id is attempted only if ShouldProofStateID is set AND resolution
// succeeded. When resolution fails, the persisted stage map carries no
// state_id entry at all: absence distinguishes "not attempted" from
// "attempted and failed".
func (a *Agent) ProofResolution(ctx context.Context, sess *session.CaptureSession, params ResolutionParams) (*models.VendorResult, error) {
	applicant, err := a.resolvedApplicant(sess)
	if err != nil {
		return nil, err
	}

	result, err := a.proofStage(ctx, models.StageResolution, sess, applicant, params.TraceID)
	if err != nil || result == nil {
		return result, err
	}

	components := models.ProofingComponents{}
	if vendor := a.registry.Get(models.StageResolution); vendor != nil {
		components.ResolutionCheck = vendor.Name()
		if params.ThreatMetrixSessionID != "" {
			// Device profiling rides on the resolution vendor's session, so
			// provenance follows whichever vendor served the stage.
			components.ThreatMetrix = vendor.Name()
			components.ThreatMetrixReviewStatus = "pending"
		}
	}
	if err := a.results.StoreComponents(ctx, sess.AsyncResultID, components); err != nil {
		return nil, err
	}

	if params.ShouldProofStateID && result.Success {
		if err := a.proofStateID(ctx, sess, applicant, params); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// ProofAddress runs the address stage and, when requested, the phone_finder
// stage, independently of the resolution outcome. It returns the address
// result; phone_finder has no dependency on the address outcome and its
// record lives in the stage map.
func (a *Agent) ProofAddress(ctx context.Context, sess *session.CaptureSession, params AddressParams) (*models.VendorResult, error) {
	result, err := a.proofStage(ctx, models.StageAddress, sess, sess.Applicant, params.TraceID)
	if err != nil {
		return nil, err
	}
	if result != nil {
		if vendor := a.registry.Get(models.StageAddress); vendor != nil {
			err := a.results.StoreComponents(ctx, sess.AsyncResultID, models.ProofingComponents{
				AddressCheck: vendor.Name(),
			})
			if err != nil {
				return nil, err
			}
		}
	}

	if params.ShouldProofPhoneFinder {
		if _, err := a.proofStage(ctx, models.StagePhoneFinder, sess, sess.Applicant, params.TraceID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (a *Agent) proofStateID(ctx context.Context, sess *session.CaptureSession, applicant models.Applicant, params ResolutionParams) error {
	jurisdiction := applicant.StateIDJurisdiction
	if a.scheduler != nil && a.scheduler.InMaintenanceWindow(jurisdiction, time.Now()) {
		// Soft signal: skip the call rather than burn a doomed attempt. The
		// stage stays absent from the stage map, same as "no vendor".
		a.logger.WarnContext(ctx, "state_id vendor in maintenance window, skipping stage",
			"jurisdiction", jurisdiction,
			"trace_id", params.TraceID,
		)
		return nil
	}

	result, err := a.proofStage(ctx, models.StageStateID, sess, applicant, params.TraceID)
	if err != nil || result == nil {
		return err
	}

	if vendor := a.registry.Get(models.StageStateID); vendor != nil {
		return a.results.StoreComponents(ctx, sess.AsyncResultID, models.ProofingComponents{
			SourceCheck: vendor.Name(),
		})
	}
	return nil
}

// proofStage performs the call/classify/persist pattern shared by every
// stage. A nil result with nil error means the stage had no vendor and was
// skipped; it contributes nothing to the stage map.
func (a *Agent) proofStage(ctx context.Context, stage models.Stage, sess *session.CaptureSession, applicant models.Applicant, traceID string) (*models.VendorResult, error) {
	vendor := a.registry.Get(stage)
	if vendor == nil {
		a.logger.InfoContext(ctx, "no vendor for stage, skipping",
			"stage", stage,
			"trace_id", traceID,
		)
		return nil, nil
	}

	result := a.callVendor(ctx, vendor, stage, applicant, traceID)
	if err := a.results.StoreStageResult(ctx, sess.AsyncResultID, stage, result); err != nil {
		return nil, err
	}
	return &result, nil
}

// callVendor invokes the vendor with a bounded deadline and classifies the
// outcome. Vendor exceptions are captured for diagnostics, never re-raised.
func (a *Agent) callVendor(ctx context.Context, vendor vendors.Vendor, stage models.Stage, applicant models.Applicant, traceID string) models.VendorResult {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	callCtx, span := a.tracer.Start(callCtx, "vendor.proof",
		trace.WithAttributes(
			attribute.String("proofing.stage", string(stage)),
			attribute.String("proofing.vendor", vendor.Name()),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := vendor.Proof(callCtx, applicant)
	elapsed := time.Since(start)
	a.metrics.VendorLatency.WithLabelValues(string(stage), vendor.Name()).Observe(elapsed.Seconds())

	switch {
	case err == nil:
		outcome := metrics.OutcomeFail
		if resp.Success {
			outcome = metrics.OutcomePass
		}
		a.metrics.VendorCalls.WithLabelValues(string(stage), vendor.Name(), outcome).Inc()
		result, buildErr := models.NewVendorResult(resp.Success, resp.Errors, resp.Reasons, resp.SessionID, resp.NormalizedApplicant, false)
		if buildErr != nil {
			// A vendor claiming success alongside field errors violates the
			// result invariant; treat it as a vendor exception.
			a.logger.ErrorContext(ctx, "vendor returned contradictory outcome",
				"stage", stage,
				"vendor", vendor.Name(),
				"trace_id", traceID,
				"error", buildErr,
			)
			return models.FailedResult(resp.SessionID)
		}
		return result

	case vendors.IsTimeout(err):
		a.metrics.VendorCalls.WithLabelValues(string(stage), vendor.Name(), metrics.OutcomeTimeout).Inc()
		a.logger.WarnContext(ctx, "vendor call timed out",
			"stage", stage,
			"vendor", vendor.Name(),
			"trace_id", traceID,
			"elapsed_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return models.TimedOutResult(resp.SessionID)

	default:
		a.metrics.VendorCalls.WithLabelValues(string(stage), vendor.Name(), metrics.OutcomeError).Inc()
		a.logger.ErrorContext(ctx, "vendor call failed",
			"stage", stage,
			"vendor", vendor.Name(),
			"trace_id", traceID,
			"error", err,
		)
		return models.FailedResult(resp.SessionID)
	}
}

// resolvedApplicant merges document and user PII through the plugin chain
// when a document was captured; otherwise the user-entered applicant is used
// as-is. Plugin errors propagate: a broken plugin fails the whole resolution.
func (a *Agent) resolvedApplicant(sess *session.CaptureSession) (models.Applicant, error) {
	if !sess.HasDocument() || a.resolver == nil {
		return sess.Applicant, nil
	}
	identity, err := a.resolver.ResolveIdentity(*sess.DocumentPII, sess.Applicant)
	if err != nil {
		return models.Applicant{}, err
	}
	return models.ApplicantFromAttrs(identity)
}
