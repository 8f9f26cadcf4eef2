package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"idproof/internal/proofing/models"
	"idproof/pkg/domain"
	"idproof/pkg/platform/sentinel"
)

// RedisStore is the production result store. One hash per result id: a field
// per attempted stage, plus components and completion fields. HSET of an
// identical payload is a no-op in effect, which gives the idempotency the
// at-least-once queue requires.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

const (
	fieldComponents = "components"
	fieldCompleted  = "completed_at"
	stageFieldPfx   = "stage:"
)

// NewRedisStore creates a result store with the given record TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func resultKey(id domain.ResultID) string {
	return "proofing:result:" + id.String()
}

func (s *RedisStore) StoreStageResult(ctx context.Context, id domain.ResultID, stage models.Stage, result models.VendorResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal stage result: %w", err)
	}
	key := resultKey(id)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, stageFieldPfx+string(stage), payload)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store stage result: %w", err)
	}
	return nil
}

func (s *RedisStore) StoreComponents(ctx context.Context, id domain.ResultID, components models.ProofingComponents) error {
	key := resultKey(id)
	// Merge with whatever is already recorded; stages write disjoint fields.
	existing, err := s.client.HGet(ctx, key, fieldComponents).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("load components: %w", err)
	}
	merged := components
	if len(existing) > 0 {
		var prior models.ProofingComponents
		if err := json.Unmarshal(existing, &prior); err != nil {
			return fmt.Errorf("decode components: %w", err)
		}
		merged = prior.Merge(components)
	}
	payload, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("marshal components: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fieldComponents, payload)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store components: %w", err)
	}
	return nil
}

func (s *RedisStore) MarkCompleted(ctx context.Context, id domain.ResultID) error {
	key := resultKey(id)
	stamp := s.now().UTC().Format(time.RFC3339Nano)
	// HSetNX keeps the first completion stamp on redelivery.
	pipe := s.client.TxPipeline()
	pipe.HSetNX(ctx, key, fieldCompleted, stamp)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, id domain.ResultID) (*ProofingRecord, error) {
	fields, err := s.client.HGetAll(ctx, resultKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load result: %w", err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}

	rec := &ProofingRecord{
		ResultID: id,
		Stages:   make(map[models.Stage]models.VendorResult),
	}
	for field, raw := range fields {
		switch {
		case field == fieldComponents:
			if err := json.Unmarshal([]byte(raw), &rec.Components); err != nil {
				return nil, fmt.Errorf("decode components: %w", err)
			}
		case field == fieldCompleted:
			stamp, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				return nil, fmt.Errorf("decode completion stamp: %w", err)
			}
			rec.CompletedAt = &stamp
		case len(field) > len(stageFieldPfx) && field[:len(stageFieldPfx)] == stageFieldPfx:
			stage, err := models.ParseStage(field[len(stageFieldPfx):])
			if err != nil {
				return nil, err
			}
			result, err := models.DecodeVendorResult([]byte(raw))
			if err != nil {
				return nil, err
			}
			rec.Stages[stage] = result
		}
	}
	return rec, nil
}
