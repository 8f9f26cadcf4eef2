package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idproof/internal/proofing/models"
	"idproof/pkg/domain"
	"idproof/pkg/platform/sentinel"
)

func TestInMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	id := domain.NewResultID()

	t.Run("find before any write is not found", func(t *testing.T) {
		_, err := s.Find(ctx, id)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("stage writes accumulate under the result id", func(t *testing.T) {
		require.NoError(t, s.StoreStageResult(ctx, id, models.StageResolution, models.FailedResult("sid-1")))
		require.NoError(t, s.StoreStageResult(ctx, id, models.StageAddress, models.TimedOutResult("sid-2")))

		rec, err := s.Find(ctx, id)
		require.NoError(t, err)
		assert.Len(t, rec.Stages, 2)
		assert.True(t, rec.Stages[models.StageAddress].TimedOut)
		assert.False(t, rec.Completed())
	})

	t.Run("components merge across writes", func(t *testing.T) {
		require.NoError(t, s.StoreComponents(ctx, id, models.ProofingComponents{ResolutionCheck: "mock"}))
		require.NoError(t, s.StoreComponents(ctx, id, models.ProofingComponents{AddressCheck: "mock"}))

		rec, err := s.Find(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "mock", rec.Components.ResolutionCheck)
		assert.Equal(t, "mock", rec.Components.AddressCheck)
	})

	t.Run("first completion stamp wins on redelivery", func(t *testing.T) {
		require.NoError(t, s.MarkCompleted(ctx, id))
		first, err := s.Find(ctx, id)
		require.NoError(t, err)
		require.True(t, first.Completed())

		require.NoError(t, s.MarkCompleted(ctx, id))
		second, err := s.Find(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, first.CompletedAt, second.CompletedAt)
	})

	t.Run("find returns a copy", func(t *testing.T) {
		rec, err := s.Find(ctx, id)
		require.NoError(t, err)
		rec.Stages[models.StageStateID] = models.FailedResult("tamper")

		fresh, err := s.Find(ctx, id)
		require.NoError(t, err)
		assert.NotContains(t, fresh.Stages, models.StageStateID)
	})
}

func TestStoreStageResultIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	id := domain.NewResultID()
	result := models.FailedResult("sid")

	require.NoError(t, s.StoreStageResult(ctx, id, models.StageResolution, result))
	require.NoError(t, s.StoreStageResult(ctx, id, models.StageResolution, result))

	rec, err := s.Find(ctx, id)
	require.NoError(t, err)
	assert.Len(t, rec.Stages, 1)
	assert.Equal(t, result, rec.Stages[models.StageResolution])
}
