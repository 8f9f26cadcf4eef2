package duplicates

import (
	"context"
	"log/slog"

	"idproof/internal/proofing/duplicates/store"
	"idproof/internal/proofing/metrics"
	"idproof/pkg/domain"
	audit "idproof/pkg/platform/audit"
	"idproof/pkg/platform/audit/publisher"
)

// Finder answers duplicate-SSN questions against the profile store.
type Finder struct {
	profiles           store.ProfileStore
	keys               KeyRing
	facialMatchIssuers []string
	metrics            *metrics.Metrics
	audit              *publisher.Publisher
	logger             *slog.Logger
}

// NewFinder builds a finder. The audit publisher may be nil; detection then
// only logs and counts.
func NewFinder(
	profiles store.ProfileStore,
	keys KeyRing,
	facialMatchIssuers []string,
	m *metrics.Metrics,
	auditPub *publisher.Publisher,
	logger *slog.Logger,
) *Finder {
	return &Finder{
		profiles:           profiles,
		keys:               keys,
		facialMatchIssuers: facialMatchIssuers,
		metrics:            m,
		audit:              auditPub,
		logger:             logger,
	}
}

// SsnIsUnique reports whether no other user holds a profile with the same SSN.
// The querying user's own profiles never count as duplicates, so re-proofing
// under the same SSN stays unique. Lookups run against every key on the ring,
// so matches survive key rotation.
func (f *Finder) SsnIsUnique(ctx context.Context, ssn string, userID domain.UserID, issuer string) (bool, error) {
	profiles, err := f.profiles.FindByFingerprints(ctx, f.keys.All(ssn))
	if err != nil {
		return false, err
	}
	for _, p := range profiles {
		if p.UserID == userID {
			continue
		}
		f.recordHit(ctx, userID, issuer)
		return false, nil
	}
	return true, nil
}

// AssociatedFacialMatchProfilesWithSsn returns every other user's active
// profile that shares the SSN and belongs to a user with an identity at a
// facial-match relying party, ordered by profile id ascending.
func (f *Finder) AssociatedFacialMatchProfilesWithSsn(ctx context.Context, ssn string, userID domain.UserID) ([]store.Profile, error) {
	return f.profiles.FindActiveFacialMatchByFingerprints(ctx, f.keys.All(ssn), f.facialMatchIssuers, userID)
}

func (f *Finder) recordHit(ctx context.Context, userID domain.UserID, issuer string) {
	if f.metrics != nil {
		f.metrics.DuplicateSsnHits.Inc()
	}
	if f.logger != nil {
		f.logger.WarnContext(ctx, "duplicate ssn detected",
			slog.String("user_id", userID.String()),
			slog.String("issuer", issuer),
		)
	}
	if f.audit != nil {
		_ = f.audit.Emit(ctx, audit.Event{
			UserID:   userID,
			Action:   string(audit.EventDuplicateSsnSeen),
			Issuer:   issuer,
			Decision: "flagged",
			Reason:   "ssn fingerprint matched another user's profile",
		})
	}
}
