package repository

import (
	"context"
	"time"

	"ridehail/internal/domain"
)

// JourneyFilter narrows journey listings. Zero fields are ignored.
type JourneyFilter struct {
	RiderID  string
	DriverID string
	Status   domain.JourneyStatus
	Limit    int
}

// Completion carries the measured values written when a journey completes.
type Completion struct {
	ActualFare    int
	Distance      float64
	Duration      int
	PaymentStatus domain.PaymentStatus
	CompletedAt   time.Time
}

// Cancellation carries the values written when a journey is cancelled.
type Cancellation struct {
	Reason      string
	CancelledBy domain.CancelledBy
	CancelledAt time.Time
}

// JourneyRepository defines the persistence operations for journeys.
//
// Every state-changing method is a single conditional update. When the
// journey exists but is not in the expected state the method returns
// ErrStaleState and leaves the row untouched.
type JourneyRepository interface {
	// Create persists a new journey.
	Create(ctx context.Context, journey *domain.Journey) error

	// GetByID retrieves a journey by ID.
	GetByID(ctx context.Context, id string) (*domain.Journey, error)

	// List retrieves journeys matching the filter, newest first.
	List(ctx context.Context, filter JourneyFilter) ([]*domain.Journey, error)

	// Accept assigns driverID to a REQUESTED journey.
	Accept(ctx context.Context, id, driverID string, at time.Time) (*domain.Journey, error)

	// AdvanceStatus moves a journey from one status to the next, stamping
	// the milestone timestamp that belongs to the target status.
	AdvanceStatus(ctx context.Context, id string, from, to domain.JourneyStatus, at time.Time) (*domain.Journey, error)

	// Complete moves a STARTED journey to COMPLETED.
	Complete(ctx context.Context, id string, c Completion) (*domain.Journey, error)

	// Cancel moves a journey to CANCELLED if its status is one of from.
	Cancel(ctx context.Context, id string, from []domain.JourneyStatus, c Cancellation) (*domain.Journey, error)

	// SetPaymentStatus sets the payment status of a COMPLETED journey whose
	// payment is not already COMPLETED.
	SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Journey, error)

	// Rate records the rider's rating of a COMPLETED, unrated journey.
	Rate(ctx context.Context, id string, rating int, feedback string) (*domain.Journey, error)
}
