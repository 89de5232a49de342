package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"ridehail/internal/domain"
)

// DefaultJourneyCacheTTL bounds staleness while a journey is moving through its lifecycle.
const DefaultJourneyCacheTTL = 10 * time.Second

const journeyCachePrefix = "cache:journey:"

// journeyVersionTTL outlives any in-flight cache fill.
const journeyVersionTTL = time.Hour

// CacheStore handles journey read caching in Redis.
type CacheStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheStore creates a new CacheStore. A non-positive ttl selects DefaultJourneyCacheTTL.
func NewCacheStore(client *redis.Client, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = DefaultJourneyCacheTTL
	}
	return &CacheStore{client: client, ttl: ttl}
}

// GetJourney retrieves a journey from cache. A miss returns nil, nil.
func (s *CacheStore) GetJourney(ctx context.Context, journeyID string) (*domain.Journey, error) {
	data, err := s.client.Get(ctx, journeyCachePrefix+journeyID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var journey domain.Journey
	if err := json.Unmarshal(data, &journey); err != nil {
		return nil, err
	}
	return &journey, nil
}

// JourneyVersion returns the journey's invalidation counter. Read it before
// loading the row that will be passed to SetJourney.
func (s *CacheStore) JourneyVersion(ctx context.Context, journeyID string) (int64, error) {
	v, err := s.client.Get(ctx, journeyVersionKey(journeyID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetJourney stores a journey in cache unless it was invalidated after
// version was read. The check and the write run in one WATCH transaction.
func (s *CacheStore) SetJourney(ctx context.Context, journey *domain.Journey, version int64) error {
	data, err := json.Marshal(journey)
	if err != nil {
		return err
	}

	versionKey := journeyVersionKey(journey.ID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, journeyCachePrefix+journey.ID, data, s.ttl)
			return nil
		})
		return err
	}, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		// Invalidated mid-fill.
		return nil
	}
	return err
}

// InvalidateJourney removes a journey from cache and bumps its version.
func (s *CacheStore) InvalidateJourney(ctx context.Context, journeyID string) error {
	versionKey := journeyVersionKey(journeyID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, journeyCachePrefix+journeyID)
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, journeyVersionTTL)
		return nil
	})
	return err
}

func journeyVersionKey(journeyID string) string {
	return journeyCachePrefix + journeyID + ":version"
}
