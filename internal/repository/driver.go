package repository

import (
	"context"

	"ridehail/internal/domain"
)

// DriverRepository defines the persistence operations for driver profiles.
type DriverRepository interface {
	// Create adds a new driver profile. Returns ErrConflict if the user
	// already has one.
	Create(ctx context.Context, profile *domain.DriverProfile) error

	// GetByUserID retrieves the profile owned by a user.
	GetByUserID(ctx context.Context, userID string) (*domain.DriverProfile, error)

	// Update writes the editable profile fields and completion percentage.
	Update(ctx context.Context, profile *domain.DriverProfile) error

	// SetOnline updates the online flag.
	SetOnline(ctx context.Context, userID string, online bool) error

	// SetVerified updates the verified flag.
	SetVerified(ctx context.Context, userID string, verified bool) error

	// IncrementTotalRides adds one to the completed ride counter.
	IncrementTotalRides(ctx context.Context, userID string) error

	// AddRating folds a rating into the running average.
	AddRating(ctx context.Context, userID string, rating int) error
}
