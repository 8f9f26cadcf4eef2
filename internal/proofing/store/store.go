// Package store persists proofing outcomes keyed by async result id. This is
// the storage read path shared by the agent (writer), the job runner, and the
// poll surface (reader): absence of a record under an id means "still
// pending".
package store

import (
	"context"
	"time"

	"idproof/internal/proofing/models"
	"idproof/pkg/domain"
)

// ProofingRecord is everything persisted for one submission. Stages is keyed
// by attempted stage only; a stage that was skipped or never eligible has no
// entry, which is how "not attempted" stays distinct from "attempted and
// failed".
type ProofingRecord struct {
	ResultID    domain.ResultID                      `json:"result_id"`
	Stages      map[models.Stage]models.VendorResult `json:"stages"`
	Components  models.ProofingComponents            `json:"components"`
	CompletedAt *time.Time                           `json:"completed_at,omitempty"`
}

// Completed reports whether the worker finished all requested stages.
func (r *ProofingRecord) Completed() bool {
	return r != nil && r.CompletedAt != nil
}

// ResultStore is the write-through contract the agent persists results with.
// Implementations must make repeated writes of the same stage/payload a no-op
// in effect, since the queue delivers jobs at least once.
type ResultStore interface {
	// StoreStageResult records one stage's outcome under the result id.
	StoreStageResult(ctx context.Context, id domain.ResultID, stage models.Stage, result models.VendorResult) error

	// StoreComponents merges the vendor provenance for the submission.
	StoreComponents(ctx context.Context, id domain.ResultID, components models.ProofingComponents) error

	// MarkCompleted stamps the record once every requested stage has run.
	MarkCompleted(ctx context.Context, id domain.ResultID) error

	// Find returns the record, or sentinel.ErrNotFound while still pending.
	Find(ctx context.Context, id domain.ResultID) (*ProofingRecord, error)
}
