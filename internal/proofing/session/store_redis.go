package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"idproof/pkg/platform/sentinel"
)

// RedisStore is the production session store. Sessions share the result
// store's TTL so a submission and its session expire together.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(uuid string) string {
	return "proofing:session:" + uuid
}

func (s *RedisStore) Save(ctx context.Context, sess *CaptureSession) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal capture session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.UUID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save capture session: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, uuid string) (*CaptureSession, error) {
	payload, err := s.client.Get(ctx, sessionKey(uuid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load capture session: %w", err)
	}
	var sess CaptureSession
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("decode capture session: %w", err)
	}
	return &sess, nil
}
