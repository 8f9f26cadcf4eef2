//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idproof/internal/proofing/models"
	"idproof/pkg/domain"
	"idproof/pkg/platform/sentinel"
	"idproof/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	ctx   context.Context
	redis *containers.RedisContainer
	store *RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
	s.store = NewRedisStore(s.redis.Client, time.Hour)
}

func (s *RedisStoreSuite) TestFindBeforeAnyWrite() {
	_, err := s.store.Find(s.ctx, domain.NewResultID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestStageResultRoundTrip() {
	id := domain.NewResultID()
	normalized := models.Applicant{FirstName: "Jane", SSN: "123-45-6789"}
	result, err := models.NewVendorResult(true, nil, []string{"Everything looks good"}, "sid-1", &normalized, false)
	s.Require().NoError(err)

	s.Require().NoError(s.store.StoreStageResult(s.ctx, id, models.StageResolution, result))
	s.Require().NoError(s.store.StoreStageResult(s.ctx, id, models.StageAddress, models.TimedOutResult("sid-2")))

	rec, err := s.store.Find(s.ctx, id)
	s.Require().NoError(err)
	s.Len(rec.Stages, 2)
	s.Equal(result, rec.Stages[models.StageResolution])
	s.True(rec.Stages[models.StageAddress].TimedOut)
	s.False(rec.Completed())
}

func (s *RedisStoreSuite) TestStageWriteIsIdempotent() {
	id := domain.NewResultID()
	result := models.FailedResult("sid")

	s.Require().NoError(s.store.StoreStageResult(s.ctx, id, models.StageResolution, result))
	s.Require().NoError(s.store.StoreStageResult(s.ctx, id, models.StageResolution, result))

	rec, err := s.store.Find(s.ctx, id)
	s.Require().NoError(err)
	s.Len(rec.Stages, 1)
	s.Equal(result, rec.Stages[models.StageResolution])
}

func (s *RedisStoreSuite) TestComponentsMergeAcrossWrites() {
	id := domain.NewResultID()
	s.Require().NoError(s.store.StoreComponents(s.ctx, id, models.ProofingComponents{ResolutionCheck: "lexisnexis"}))
	s.Require().NoError(s.store.StoreComponents(s.ctx, id, models.ProofingComponents{SourceCheck: "aamva"}))

	rec, err := s.store.Find(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("lexisnexis", rec.Components.ResolutionCheck)
	s.Equal("aamva", rec.Components.SourceCheck)
}

func (s *RedisStoreSuite) TestFirstCompletionStampWins() {
	id := domain.NewResultID()
	s.Require().NoError(s.store.StoreStageResult(s.ctx, id, models.StageResolution, models.FailedResult("sid")))

	s.Require().NoError(s.store.MarkCompleted(s.ctx, id))
	first, err := s.store.Find(s.ctx, id)
	s.Require().NoError(err)
	s.Require().True(first.Completed())

	s.Require().NoError(s.store.MarkCompleted(s.ctx, id))
	second, err := s.store.Find(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(first.CompletedAt, second.CompletedAt)
}

func (s *RedisStoreSuite) TestRecordsExpire() {
	shortLived := NewRedisStore(s.redis.Client, time.Second)
	id := domain.NewResultID()
	s.Require().NoError(shortLived.StoreStageResult(s.ctx, id, models.StageResolution, models.FailedResult("sid")))

	ttl, err := s.redis.Client.TTL(s.ctx, resultKey(id)).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Second)
}
