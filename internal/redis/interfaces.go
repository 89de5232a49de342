package redis

import (
	"context"
	"time"

	"ridehail/internal/domain"
)

// JourneyCacheInterface defines the journey read cache. Every invalidation
// bumps the journey's cache version; a fill carrying an older version is
// dropped.
type JourneyCacheInterface interface {
	GetJourney(ctx context.Context, journeyID string) (*domain.Journey, error)
	JourneyVersion(ctx context.Context, journeyID string) (int64, error)
	SetJourney(ctx context.Context, journey *domain.Journey, version int64) error
	InvalidateJourney(ctx context.Context, journeyID string) error
}

// LocationStoreInterface defines the interface for driver location operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, driverID string, p domain.Point) error
	RemoveLocation(ctx context.Context, driverID string) error
}

// LockStoreInterface defines the interface for payment locking.
type LockStoreInterface interface {
	AcquirePaymentLock(ctx context.Context, journeyID string, ttl time.Duration) (bool, error)
	ReleasePaymentLock(ctx context.Context, journeyID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ JourneyCacheInterface  = (*CacheStore)(nil)
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
