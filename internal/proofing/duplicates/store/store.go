// Package store persists proofed profiles and the identity associations used
// to scope duplicate-SSN detection to facial-match relying parties.
package store

import (
	"context"

	"idproof/pkg/domain"
)

// Profile is one proofed identity. The numeric ID is the insertion-ordered
// primary key; facial-match queries sort on it for deterministic output.
type Profile struct {
	ID             int64
	ProfileID      domain.ProfileID
	UserID         domain.UserID
	Active         bool
	SsnFingerprint string
}

// Identity records that a user has an account relationship with a relying
// party (issuer).
type Identity struct {
	UserID domain.UserID
	Issuer string
}

// ProfileStore answers fingerprint queries. Reads are best-effort: duplicate
// detection tolerates read skew, so no transaction isolation is assumed.
type ProfileStore interface {
	// FindByFingerprints returns every profile whose fingerprint matches any
	// of fps, in profile id order.
	FindByFingerprints(ctx context.Context, fps []string) ([]Profile, error)

	// FindActiveFacialMatchByFingerprints returns active profiles matching
	// any of fps whose user holds at least one identity at one of the given
	// issuers, excluding the querying user, ordered by profile id ascending.
	FindActiveFacialMatchByFingerprints(ctx context.Context, fps []string, issuers []string, excludeUser domain.UserID) ([]Profile, error)
}
