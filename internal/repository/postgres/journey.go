package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

const journeyColumns = `id, rider_id, driver_id, status, vehicle_type,
	pickup_address, pickup_lng, pickup_lat, dropoff_address, dropoff_lng, dropoff_lat,
	estimated_fare, actual_fare, distance_km, duration_min, payment_method, payment_status,
	requested_at, accepted_at, arrived_at, started_at, completed_at, cancelled_at,
	cancellation_reason, cancelled_by, rating, feedback, created_at, updated_at`

// milestoneColumns maps a target status to the timestamp it stamps.
var milestoneColumns = map[domain.JourneyStatus]string{
	domain.JourneyStatusAccepted: "accepted_at",
	domain.JourneyStatusArrived:  "arrived_at",
	domain.JourneyStatusStarted:  "started_at",
}

// JourneyRepository is a PostgreSQL implementation of repository.JourneyRepository.
type JourneyRepository struct {
	q Querier
}

// NewJourneyRepository creates a new PostgreSQL journey repository.
func NewJourneyRepository(db *sql.DB) *JourneyRepository {
	return &JourneyRepository{q: db}
}

// Create persists a new journey.
func (r *JourneyRepository) Create(ctx context.Context, j *domain.Journey) error {
	query := `
		INSERT INTO journeys (id, rider_id, status, vehicle_type,
			pickup_address, pickup_lng, pickup_lat, dropoff_address, dropoff_lng, dropoff_lat,
			estimated_fare, payment_method, payment_status, requested_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	paymentMethod := j.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = domain.PaymentMethodCash
	}
	paymentStatus := j.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = domain.PaymentStatusPending
	}

	_, err := r.q.ExecContext(ctx, query,
		j.ID,
		j.RiderID,
		j.Status,
		j.VehicleType,
		j.Pickup.Address,
		j.Pickup.Point.Lng,
		j.Pickup.Point.Lat,
		j.Dropoff.Address,
		j.Dropoff.Point.Lng,
		j.Dropoff.Point.Lat,
		j.EstimatedFare,
		paymentMethod,
		paymentStatus,
		nullTime(j.RequestedAt),
		j.CreatedAt,
		j.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

// GetByID retrieves a journey by ID.
func (r *JourneyRepository) GetByID(ctx context.Context, id string) (*domain.Journey, error) {
	query := `SELECT ` + journeyColumns + ` FROM journeys WHERE id = $1`

	j, err := scanJourney(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return j, nil
}

// List retrieves journeys matching the filter, newest first.
func (r *JourneyRepository) List(ctx context.Context, filter repository.JourneyFilter) ([]*domain.Journey, error) {
	var (
		conds []string
		args  []any
	)
	if filter.RiderID != "" {
		args = append(args, filter.RiderID)
		conds = append(conds, fmt.Sprintf("rider_id = $%d", len(args)))
	}
	if filter.DriverID != "" {
		args = append(args, filter.DriverID)
		conds = append(conds, fmt.Sprintf("driver_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + journeyColumns + ` FROM journeys`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	journeys := []*domain.Journey{}
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			return nil, err
		}
		journeys = append(journeys, j)
	}
	return journeys, rows.Err()
}

// Accept assigns driverID to a REQUESTED journey.
func (r *JourneyRepository) Accept(ctx context.Context, id, driverID string, at time.Time) (*domain.Journey, error) {
	query := `
		UPDATE journeys
		SET driver_id = $2, status = $3, accepted_at = $4, updated_at = $4
		WHERE id = $1 AND status = $5
		RETURNING ` + journeyColumns

	row := r.q.QueryRowContext(ctx, query, id, driverID, domain.JourneyStatusAccepted, at, domain.JourneyStatusRequested)
	return r.conditional(ctx, id, row)
}

// AdvanceStatus moves a journey from one status to the next.
func (r *JourneyRepository) AdvanceStatus(ctx context.Context, id string, from, to domain.JourneyStatus, at time.Time) (*domain.Journey, error) {
	column, ok := milestoneColumns[to]
	if !ok {
		return nil, fmt.Errorf("no milestone column for status %s", to)
	}

	query := fmt.Sprintf(`
		UPDATE journeys
		SET status = $2, %s = $3, updated_at = $3
		WHERE id = $1 AND status = $4
		RETURNING %s`, column, journeyColumns)

	row := r.q.QueryRowContext(ctx, query, id, to, at, from)
	return r.conditional(ctx, id, row)
}

// Complete moves a STARTED journey to COMPLETED.
func (r *JourneyRepository) Complete(ctx context.Context, id string, c repository.Completion) (*domain.Journey, error) {
	query := `
		UPDATE journeys
		SET status = $2, actual_fare = $3, distance_km = $4, duration_min = $5,
			payment_status = $6, completed_at = $7, updated_at = $7
		WHERE id = $1 AND status = $8
		RETURNING ` + journeyColumns

	row := r.q.QueryRowContext(ctx, query,
		id,
		domain.JourneyStatusCompleted,
		c.ActualFare,
		c.Distance,
		c.Duration,
		c.PaymentStatus,
		c.CompletedAt,
		domain.JourneyStatusStarted,
	)
	return r.conditional(ctx, id, row)
}

// Cancel moves a journey to CANCELLED if its status is one of from.
func (r *JourneyRepository) Cancel(ctx context.Context, id string, from []domain.JourneyStatus, c repository.Cancellation) (*domain.Journey, error) {
	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}

	query := `
		UPDATE journeys
		SET status = $2, cancellation_reason = $3, cancelled_by = $4, cancelled_at = $5, updated_at = $5
		WHERE id = $1 AND status = ANY($6)
		RETURNING ` + journeyColumns

	row := r.q.QueryRowContext(ctx, query,
		id,
		domain.JourneyStatusCancelled,
		nullString(c.Reason),
		c.CancelledBy,
		c.CancelledAt,
		pq.Array(statuses),
	)
	return r.conditional(ctx, id, row)
}

// SetPaymentStatus sets the payment status of a COMPLETED journey whose
// payment is not already COMPLETED.
func (r *JourneyRepository) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Journey, error) {
	query := `
		UPDATE journeys
		SET payment_status = $2, updated_at = now()
		WHERE id = $1 AND status = $3 AND payment_status <> $4
		RETURNING ` + journeyColumns

	row := r.q.QueryRowContext(ctx, query, id, status, domain.JourneyStatusCompleted, domain.PaymentStatusCompleted)
	return r.conditional(ctx, id, row)
}

// Rate records the rider's rating of a COMPLETED, unrated journey.
func (r *JourneyRepository) Rate(ctx context.Context, id string, rating int, feedback string) (*domain.Journey, error) {
	query := `
		UPDATE journeys
		SET rating = $2, feedback = $3, updated_at = now()
		WHERE id = $1 AND status = $4 AND rating IS NULL
		RETURNING ` + journeyColumns

	row := r.q.QueryRowContext(ctx, query, id, rating, nullString(feedback), domain.JourneyStatusCompleted)
	return r.conditional(ctx, id, row)
}

// conditional scans the RETURNING row of a conditional update. When no row
// was updated it tells a missing journey apart from one in another state.
func (r *JourneyRepository) conditional(ctx context.Context, id string, row *sql.Row) (*domain.Journey, error) {
	j, err := scanJourney(row)
	if err == nil {
		return j, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM journeys WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.ErrNotFound
	}
	return nil, repository.ErrStaleState
}

func scanJourney(s scanner) (*domain.Journey, error) {
	var (
		j                                     domain.Journey
		driverID, reason, cancelledBy, fb     sql.NullString
		actualFare, duration, rating          sql.NullInt64
		distance                              sql.NullFloat64
		requested, accepted, arrived, started sql.NullTime
		completed, cancelled                  sql.NullTime
	)

	err := s.Scan(
		&j.ID,
		&j.RiderID,
		&driverID,
		&j.Status,
		&j.VehicleType,
		&j.Pickup.Address,
		&j.Pickup.Point.Lng,
		&j.Pickup.Point.Lat,
		&j.Dropoff.Address,
		&j.Dropoff.Point.Lng,
		&j.Dropoff.Point.Lat,
		&j.EstimatedFare,
		&actualFare,
		&distance,
		&duration,
		&j.PaymentMethod,
		&j.PaymentStatus,
		&requested,
		&accepted,
		&arrived,
		&started,
		&completed,
		&cancelled,
		&reason,
		&cancelledBy,
		&rating,
		&fb,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	j.DriverID = driverID.String
	j.CancellationReason = reason.String
	j.CancelledBy = domain.CancelledBy(cancelledBy.String)
	j.Feedback = fb.String
	if actualFare.Valid {
		v := int(actualFare.Int64)
		j.ActualFare = &v
	}
	if distance.Valid {
		v := distance.Float64
		j.Distance = &v
	}
	if duration.Valid {
		v := int(duration.Int64)
		j.Duration = &v
	}
	if rating.Valid {
		v := int(rating.Int64)
		j.Rating = &v
	}
	j.RequestedAt = timePtr(requested)
	j.AcceptedAt = timePtr(accepted)
	j.ArrivedAt = timePtr(arrived)
	j.StartedAt = timePtr(started)
	j.CompletedAt = timePtr(completed)
	j.CancelledAt = timePtr(cancelled)

	return &j, nil
}
