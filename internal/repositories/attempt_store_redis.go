package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript deletes a lock only while it still carries the holder's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisAttemptStore keeps attempts in redis so any storefront instance can
// pick up a session's pending payment. Lock guards backend calls across
// instances; the reconciler takes it next to its in-process busy flag.
type RedisAttemptStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisAttemptStore(client *redis.Client, freshness time.Duration) *RedisAttemptStore {
	return &RedisAttemptStore{Client: client, TTL: recordTTL(freshness)}
}

func (s *RedisAttemptStore) Load(ctx context.Context, key string) (models.PaymentAttempt, error) {
	raw, err := s.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.PaymentAttempt{}, ErrNoAttempt
	}
	if err != nil {
		return models.PaymentAttempt{}, fmt.Errorf("read attempt: %w", err)
	}
	return decodeAttempt(raw)
}

func (s *RedisAttemptStore) Save(ctx context.Context, key string, a models.PaymentAttempt) error {
	raw, err := encodeAttempt(a)
	if err != nil {
		return fmt.Errorf("encode attempt: %w", err)
	}
	if err := s.Client.Set(ctx, key, raw, s.TTL).Err(); err != nil {
		return fmt.Errorf("store attempt: %w", err)
	}
	return nil
}

func (s *RedisAttemptStore) Clear(ctx context.Context, key string) error {
	if err := s.Client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("clear attempt: %w", err)
	}
	return nil
}

func (s *RedisAttemptStore) ClearIf(ctx context.Context, key, paymentRef string) (bool, error) {
	cleared := false
	err := s.Client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if !ownedBy(raw, paymentRef) {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err == nil {
			cleared = true
		}
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		// the record changed under us, so it is no longer ours
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("clear attempt: %w", err)
	}
	return cleared, nil
}

func (s *RedisAttemptStore) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := s.Client.SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock attempt: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		// the caller's ctx may already be done; unlocking must still happen
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = unlockScript.Run(ctx, s.Client, []string{lockKey(key)}, token).Err()
	}, nil
}
