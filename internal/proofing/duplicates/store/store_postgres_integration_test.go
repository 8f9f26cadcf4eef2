//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"idproof/pkg/domain"
	"idproof/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx      context.Context
	postgres *containers.PostgresContainer
	pool     *pgxpool.Pool
	store    *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.GetManager().GetPostgres(s.T())

	pool, err := pgxpool.New(s.ctx, s.postgres.URL)
	s.Require().NoError(err)
	s.pool = pool
	s.store = NewPostgresStore(pool)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "profiles", "identities"))
}

func (s *PostgresStoreSuite) newUserID() domain.UserID {
	id, err := domain.ParseUserID(uuid.New().String())
	s.Require().NoError(err)
	return id
}

func (s *PostgresStoreSuite) newProfileID() domain.ProfileID {
	id, err := domain.ParseProfileID(uuid.New().String())
	s.Require().NoError(err)
	return id
}

func (s *PostgresStoreSuite) insertProfile(userID domain.UserID, active bool, fp string) Profile {
	p, err := s.store.InsertProfile(s.ctx, Profile{
		ProfileID:      s.newProfileID(),
		UserID:         userID,
		Active:         active,
		SsnFingerprint: fp,
	})
	s.Require().NoError(err)
	return p
}

func (s *PostgresStoreSuite) TestFindByFingerprints() {
	userA := s.newUserID()
	userB := s.newUserID()

	first := s.insertProfile(userA, true, "fp-1")
	second := s.insertProfile(userB, false, "fp-2")
	s.insertProfile(s.newUserID(), true, "fp-other")

	found, err := s.store.FindByFingerprints(s.ctx, []string{"fp-1", "fp-2"})
	s.Require().NoError(err)
	s.Require().Len(found, 2)

	// Ordered by insertion id; inactive profiles are still visible here.
	s.Equal(first.ID, found[0].ID)
	s.Equal(userA, found[0].UserID)
	s.True(found[0].Active)
	s.Equal("fp-1", found[0].SsnFingerprint)
	s.Equal(second.ID, found[1].ID)
	s.False(found[1].Active)
}

func (s *PostgresStoreSuite) TestFindByFingerprintsNoMatch() {
	s.insertProfile(s.newUserID(), true, "fp-1")

	found, err := s.store.FindByFingerprints(s.ctx, []string{"fp-unknown"})
	s.Require().NoError(err)
	s.Empty(found)
}

func (s *PostgresStoreSuite) TestFindActiveFacialMatchByFingerprints() {
	me := s.newUserID()
	eligible := s.newUserID()
	noIdentity := s.newUserID()
	inactive := s.newUserID()

	s.Require().NoError(s.store.InsertIdentity(s.ctx, Identity{UserID: eligible, Issuer: "facial-rp"}))
	s.Require().NoError(s.store.InsertIdentity(s.ctx, Identity{UserID: inactive, Issuer: "facial-rp"}))
	s.Require().NoError(s.store.InsertIdentity(s.ctx, Identity{UserID: me, Issuer: "facial-rp"}))

	first := s.insertProfile(eligible, true, "fp-1")
	s.insertProfile(noIdentity, true, "fp-1")
	s.insertProfile(inactive, false, "fp-1")
	s.insertProfile(me, true, "fp-1")
	second := s.insertProfile(eligible, true, "fp-1")

	found, err := s.store.FindActiveFacialMatchByFingerprints(s.ctx, []string{"fp-1"}, []string{"facial-rp"}, me)
	s.Require().NoError(err)

	s.Require().Len(found, 2)
	s.Equal(first.ID, found[0].ID)
	s.Equal(second.ID, found[1].ID)
	s.Equal(eligible, found[0].UserID)
}

func (s *PostgresStoreSuite) TestInsertIdentityIsIdempotent() {
	user := s.newUserID()
	s.Require().NoError(s.store.InsertIdentity(s.ctx, Identity{UserID: user, Issuer: "facial-rp"}))
	s.Require().NoError(s.store.InsertIdentity(s.ctx, Identity{UserID: user, Issuer: "facial-rp"}))

	s.insertProfile(user, true, "fp-1")
	found, err := s.store.FindActiveFacialMatchByFingerprints(s.ctx, []string{"fp-1"}, []string{"facial-rp"}, s.newUserID())
	s.Require().NoError(err)
	s.Len(found, 1)
}
