package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"idproof/pkg/domain"
)

// PostgresStore is the production profile store on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FindByFingerprints(ctx context.Context, fps []string) ([]Profile, error) {
	query := `
		SELECT id, profile_id, user_id, active, ssn_fingerprint
		FROM profiles
		WHERE ssn_fingerprint = ANY($1)
		ORDER BY id ASC
	`
	rows, err := s.pool.Query(ctx, query, fps)
	if err != nil {
		return nil, fmt.Errorf("find profiles by fingerprints: %w", err)
	}
	defer rows.Close()
	return scanProfiles(rows)
}

func (s *PostgresStore) FindActiveFacialMatchByFingerprints(ctx context.Context, fps []string, issuers []string, excludeUser domain.UserID) ([]Profile, error) {
	query := `
		SELECT p.id, p.profile_id, p.user_id, p.active, p.ssn_fingerprint
		FROM profiles p
		WHERE p.ssn_fingerprint = ANY($1)
		  AND p.active
		  AND p.user_id <> $3
		  AND EXISTS (
			SELECT 1 FROM identities i
			WHERE i.user_id = p.user_id AND i.issuer = ANY($2)
		  )
		ORDER BY p.id ASC
	`
	rows, err := s.pool.Query(ctx, query, fps, issuers, excludeUser.String())
	if err != nil {
		return nil, fmt.Errorf("find facial match profiles: %w", err)
	}
	defer rows.Close()
	return scanProfiles(rows)
}

// InsertProfile writes a profile row; used by tests and backfill tooling.
func (s *PostgresStore) InsertProfile(ctx context.Context, p Profile) (Profile, error) {
	query := `
		INSERT INTO profiles (profile_id, user_id, active, ssn_fingerprint)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := s.pool.QueryRow(ctx, query, p.ProfileID.String(), p.UserID.String(), p.Active, p.SsnFingerprint).Scan(&p.ID)
	if err != nil {
		return Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	return p, nil
}

// InsertIdentity writes a user/issuer association; used by tests and backfill
// tooling.
func (s *PostgresStore) InsertIdentity(ctx context.Context, ident Identity) error {
	query := `INSERT INTO identities (user_id, issuer) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := s.pool.Exec(ctx, query, ident.UserID.String(), ident.Issuer); err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanProfiles(rows pgxRows) ([]Profile, error) {
	var out []Profile
	for rows.Next() {
		var (
			p                   Profile
			rawProfile, rawUser string
		)
		if err := rows.Scan(&p.ID, &rawProfile, &rawUser, &p.Active, &p.SsnFingerprint); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profileID, err := domain.ParseProfileID(rawProfile)
		if err != nil {
			return nil, err
		}
		userID, err := domain.ParseUserID(rawUser)
		if err != nil {
			return nil, err
		}
		p.ProfileID = profileID
		p.UserID = userID
		out = append(out, p)
	}
	return out, rows.Err()
}
