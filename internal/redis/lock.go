package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles short-lived mutual exclusion in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquirePaymentLock attempts to take the payment lock for a journey.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquirePaymentLock(ctx context.Context, journeyID string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, paymentLockKey(journeyID), "1", ttl).Result()
}

// ReleasePaymentLock releases the payment lock for a journey.
func (s *LockStore) ReleasePaymentLock(ctx context.Context, journeyID string) error {
	return s.client.Del(ctx, paymentLockKey(journeyID)).Err()
}

func paymentLockKey(journeyID string) string {
	return fmt.Sprintf("lock:payment:%s", journeyID)
}
