package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

const driverColumns = `user_id, full_name, date_of_birth, national_id, address,
	license_number, license_expiry, insurance_number, insurance_expiry,
	vehicle_type, vehicle_make, vehicle_model, vehicle_year, vehicle_color, plate_number,
	is_verified, is_online, completion_percentage, rating, rating_count, total_rides,
	created_at, updated_at`

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// Create adds a new driver profile.
func (r *DriverRepository) Create(ctx context.Context, p *domain.DriverProfile) error {
	query := `
		INSERT INTO driver_profiles (` + driverColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	_, err := r.q.ExecContext(ctx, query,
		p.UserID,
		p.Personal.FullName,
		nullTime(p.Personal.DateOfBirth),
		p.Personal.NationalID,
		p.Personal.Address,
		p.Documents.LicenseNumber,
		nullTime(p.Documents.LicenseExpiry),
		p.Documents.InsuranceNumber,
		nullTime(p.Documents.InsuranceExpiry),
		p.Vehicle.Type,
		p.Vehicle.Make,
		p.Vehicle.Model,
		p.Vehicle.Year,
		p.Vehicle.Color,
		p.Vehicle.PlateNumber,
		p.IsVerified,
		p.IsOnline,
		p.CompletionPercentage,
		p.Stats.Rating,
		p.Stats.RatingCount,
		p.Stats.TotalRides,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

// GetByUserID retrieves the profile owned by a user.
func (r *DriverRepository) GetByUserID(ctx context.Context, userID string) (*domain.DriverProfile, error) {
	query := `SELECT ` + driverColumns + ` FROM driver_profiles WHERE user_id = $1`

	var (
		p                    domain.DriverProfile
		dob, license, insure sql.NullTime
	)
	err := r.q.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.Personal.FullName,
		&dob,
		&p.Personal.NationalID,
		&p.Personal.Address,
		&p.Documents.LicenseNumber,
		&license,
		&p.Documents.InsuranceNumber,
		&insure,
		&p.Vehicle.Type,
		&p.Vehicle.Make,
		&p.Vehicle.Model,
		&p.Vehicle.Year,
		&p.Vehicle.Color,
		&p.Vehicle.PlateNumber,
		&p.IsVerified,
		&p.IsOnline,
		&p.CompletionPercentage,
		&p.Stats.Rating,
		&p.Stats.RatingCount,
		&p.Stats.TotalRides,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	p.Personal.DateOfBirth = timePtr(dob)
	p.Documents.LicenseExpiry = timePtr(license)
	p.Documents.InsuranceExpiry = timePtr(insure)

	return &p, nil
}

// Update writes the editable profile fields and completion percentage.
func (r *DriverRepository) Update(ctx context.Context, p *domain.DriverProfile) error {
	query := `
		UPDATE driver_profiles
		SET full_name = $2, date_of_birth = $3, national_id = $4, address = $5,
			license_number = $6, license_expiry = $7, insurance_number = $8, insurance_expiry = $9,
			vehicle_type = $10, vehicle_make = $11, vehicle_model = $12, vehicle_year = $13,
			vehicle_color = $14, plate_number = $15, completion_percentage = $16, updated_at = now()
		WHERE user_id = $1
	`

	return r.exec(ctx, query,
		p.UserID,
		p.Personal.FullName,
		nullTime(p.Personal.DateOfBirth),
		p.Personal.NationalID,
		p.Personal.Address,
		p.Documents.LicenseNumber,
		nullTime(p.Documents.LicenseExpiry),
		p.Documents.InsuranceNumber,
		nullTime(p.Documents.InsuranceExpiry),
		p.Vehicle.Type,
		p.Vehicle.Make,
		p.Vehicle.Model,
		p.Vehicle.Year,
		p.Vehicle.Color,
		p.Vehicle.PlateNumber,
		p.CompletionPercentage,
	)
}

// SetOnline updates the online flag.
func (r *DriverRepository) SetOnline(ctx context.Context, userID string, online bool) error {
	return r.exec(ctx, `UPDATE driver_profiles SET is_online = $2, updated_at = now() WHERE user_id = $1`, userID, online)
}

// SetVerified updates the verified flag.
func (r *DriverRepository) SetVerified(ctx context.Context, userID string, verified bool) error {
	return r.exec(ctx, `UPDATE driver_profiles SET is_verified = $2, updated_at = now() WHERE user_id = $1`, userID, verified)
}

// IncrementTotalRides adds one to the completed ride counter.
func (r *DriverRepository) IncrementTotalRides(ctx context.Context, userID string) error {
	return r.exec(ctx, `UPDATE driver_profiles SET total_rides = total_rides + 1, updated_at = now() WHERE user_id = $1`, userID)
}

// AddRating folds a rating into the running average.
func (r *DriverRepository) AddRating(ctx context.Context, userID string, rating int) error {
	query := `
		UPDATE driver_profiles
		SET rating = (rating * rating_count + $2) / (rating_count + 1),
			rating_count = rating_count + 1,
			updated_at = now()
		WHERE user_id = $1
	`
	return r.exec(ctx, query, userID, float64(rating))
}

func (r *DriverRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
