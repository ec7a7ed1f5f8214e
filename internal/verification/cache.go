package verification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"kycgate/internal/verification/metrics"
)

const recordKeyPrefix = "kyc:record:"

// CachedStore is a read-through Redis cache in front of another Store. Status
// reads dominate this workload (the onboarding wizard polls them), so records
// are cached with a TTL and invalidated on every write. Cache failures fall
// back to the inner store; they never fail the operation.
type CachedStore struct {
	inner   Store
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration, m *metrics.Metrics) *CachedStore {
	return &CachedStore{inner: inner, client: client, ttl: ttl, metrics: m}
}

func (s *CachedStore) Create(ctx context.Context, record *Record) error {
	if err := s.inner.Create(ctx, record); err != nil {
		return err
	}
	s.invalidate(ctx, record.MerchantID)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, merchantID uuid.UUID) (*Record, error) {
	key := recordKeyPrefix + merchantID.String()
	payload, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var record Record
		if err := json.Unmarshal(payload, &record); err == nil {
			s.metrics.RecordCacheHit()
			return &record, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		s.invalidate(ctx, merchantID)
	} else if !errors.Is(err, redis.Nil) {
		// Redis being down must not take status reads with it.
		s.invalidate(ctx, merchantID)
	}

	s.metrics.RecordCacheMiss()
	record, err := s.inner.Get(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(record); err == nil {
		_ = s.client.Set(ctx, key, payload, s.ttl).Err()
	}
	return record, nil
}

func (s *CachedStore) Update(ctx context.Context, merchantID uuid.UUID, mutate func(*Record) error) (*Record, error) {
	record, err := s.inner.Update(ctx, merchantID, mutate)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, merchantID)
	return record, nil
}

func (s *CachedStore) ListPending(ctx context.Context) ([]*Record, error) {
	return s.inner.ListPending(ctx)
}

func (s *CachedStore) invalidate(ctx context.Context, merchantID uuid.UUID) {
	_ = s.client.Del(ctx, recordKeyPrefix+merchantID.String()).Err()
}
