package service

import (
	"context"
	"errors"
	"log"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/events"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// DriverService manages driver profiles and availability.
type DriverService struct {
	drivers   repository.DriverRepository
	users     repository.UserRepository
	locations redis.LocationStoreInterface
	sink      events.Sink
	now       func() time.Time
}

// NewDriverService creates a new DriverService. locations may be nil when
// live positions are not tracked.
func NewDriverService(
	drivers repository.DriverRepository,
	users repository.UserRepository,
	locations redis.LocationStoreInterface,
	sink events.Sink,
) *DriverService {
	if sink == nil {
		sink = events.NewDisabledPublisher()
	}
	return &DriverService{
		drivers:   drivers,
		users:     users,
		locations: locations,
		sink:      sink,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ProfileInput contains the fields of a new driver profile.
type ProfileInput struct {
	Personal  domain.PersonalInfo
	Documents domain.Documents
	Vehicle   domain.VehicleInfo
}

// ProfilePatch contains the editable profile fields. Nil fields are left unchanged.
type ProfilePatch struct {
	FullName    *string
	DateOfBirth *time.Time
	NationalID  *string
	Address     *string

	LicenseNumber   *string
	LicenseExpiry   *time.Time
	InsuranceNumber *string
	InsuranceExpiry *time.Time

	VehicleType  *domain.VehicleType
	VehicleMake  *string
	VehicleModel *string
	VehicleYear  *int
	VehicleColor *string
	PlateNumber  *string
}

// ProfileCompletion reports how far a driver is from going online.
type ProfileCompletion struct {
	Percentage    int      `json:"percentage"`
	MissingFields []string `json:"missingFields"`
	CanGoOnline   bool     `json:"canGoOnline"`
}

// CreateProfile creates the driver profile of a DRIVER user.
func (s *DriverService) CreateProfile(ctx context.Context, userID string, in ProfileInput) (*domain.DriverProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Role != domain.RoleDriver {
		return nil, ErrNotADriver
	}
	if in.Vehicle.Type != "" && !in.Vehicle.Type.Valid() {
		return nil, ErrInvalidVehicleType
	}

	now := s.now()
	profile := &domain.DriverProfile{
		UserID:    userID,
		Personal:  in.Personal,
		Documents: in.Documents,
		Vehicle:   in.Vehicle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	profile.Personal.NationalID = domain.MaskNationalID(profile.Personal.NationalID)
	profile.RecomputeCompletion()

	if err := s.drivers.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrProfileExists
		}
		return nil, err
	}

	log.Printf("[DRIVER] profile created user=%s completion=%d%%", userID, profile.CompletionPercentage)
	return profile, nil
}

// UpdateProfile applies a partial update and recomputes completion. A driver
// who is online and no longer eligible is taken offline.
func (s *DriverService) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*domain.DriverProfile, error) {
	if patch.VehicleType != nil && !patch.VehicleType.Valid() {
		return nil, ErrInvalidVehicleType
	}

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	patch.apply(profile)
	profile.RecomputeCompletion()
	profile.UpdatedAt = s.now()

	if err := s.drivers.Update(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}

	if profile.IsOnline && !profile.CanGoOnline() {
		if err := s.goOffline(ctx, profile); err != nil {
			return nil, err
		}
	}

	log.Printf("[DRIVER] profile updated user=%s completion=%d%%", userID, profile.CompletionPercentage)
	return profile, nil
}

func (p ProfilePatch) apply(profile *domain.DriverProfile) {
	setString(&profile.Personal.FullName, p.FullName)
	setTime(&profile.Personal.DateOfBirth, p.DateOfBirth)
	if p.NationalID != nil {
		profile.Personal.NationalID = domain.MaskNationalID(*p.NationalID)
	}
	setString(&profile.Personal.Address, p.Address)

	setString(&profile.Documents.LicenseNumber, p.LicenseNumber)
	setTime(&profile.Documents.LicenseExpiry, p.LicenseExpiry)
	setString(&profile.Documents.InsuranceNumber, p.InsuranceNumber)
	setTime(&profile.Documents.InsuranceExpiry, p.InsuranceExpiry)

	if p.VehicleType != nil {
		profile.Vehicle.Type = *p.VehicleType
	}
	setString(&profile.Vehicle.Make, p.VehicleMake)
	setString(&profile.Vehicle.Model, p.VehicleModel)
	if p.VehicleYear != nil {
		profile.Vehicle.Year = *p.VehicleYear
	}
	setString(&profile.Vehicle.Color, p.VehicleColor)
	setString(&profile.Vehicle.PlateNumber, p.PlateNumber)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setTime(dst **time.Time, v *time.Time) {
	if v != nil {
		t := *v
		*dst = &t
	}
}

// UpdateStatus toggles availability. Going online requires a verified
// profile at or above the completion threshold; going offline always succeeds.
func (s *DriverService) UpdateStatus(ctx context.Context, userID string, online bool) (*domain.DriverProfile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !online {
		if err := s.goOffline(ctx, profile); err != nil {
			return nil, err
		}
		return profile, nil
	}

	if !profile.IsVerified {
		return nil, ErrDriverUnverified
	}
	if profile.CompletionPercentage < domain.MinCompletionToGoOnline {
		return nil, ErrProfileIncomplete
	}

	if err := s.drivers.SetOnline(ctx, userID, true); err != nil {
		return nil, driverErr(err)
	}
	profile.IsOnline = true

	log.Printf("[DRIVER] online user=%s vehicle=%s", userID, profile.Vehicle.Type)
	s.sink.Publish(ctx, events.TopicDriverStatus,
		events.NewDriverStatusChanged(userID, true, profile.Vehicle.Type), userID)

	return profile, nil
}

func (s *DriverService) goOffline(ctx context.Context, profile *domain.DriverProfile) error {
	if err := s.drivers.SetOnline(ctx, profile.UserID, false); err != nil {
		return driverErr(err)
	}
	profile.IsOnline = false

	if s.locations != nil {
		if err := s.locations.RemoveLocation(ctx, profile.UserID); err != nil {
			log.Printf("[DRIVER] failed to remove location for %s: %v", profile.UserID, err)
		}
	}

	log.Printf("[DRIVER] offline user=%s", profile.UserID)
	s.sink.Publish(ctx, events.TopicDriverStatus,
		events.NewDriverStatusChanged(profile.UserID, false, profile.Vehicle.Type), profile.UserID)
	return nil
}

// GetProfileCompletion returns the completion percentage and missing fields.
func (s *DriverService) GetProfileCompletion(ctx context.Context, userID string) (*ProfileCompletion, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	percentage, missing := profile.Completion()
	return &ProfileCompletion{
		Percentage:    percentage,
		MissingFields: missing,
		CanGoOnline:   profile.IsVerified && percentage >= domain.MinCompletionToGoOnline,
	}, nil
}

// GetProfile returns the driver profile owned by userID.
func (s *DriverService) GetProfile(ctx context.Context, userID string) (*domain.DriverProfile, error) {
	profile, err := s.drivers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, driverErr(err)
	}
	return profile, nil
}

// VerifyDriver marks a driver profile as verified.
func (s *DriverService) VerifyDriver(ctx context.Context, userID string) (*domain.DriverProfile, error) {
	if err := s.drivers.SetVerified(ctx, userID, true); err != nil {
		return nil, driverErr(err)
	}
	log.Printf("[DRIVER] verified user=%s", userID)
	return s.GetProfile(ctx, userID)
}

// UpdateLocation records an online driver's live position.
func (s *DriverService) UpdateLocation(ctx context.Context, userID string, p domain.Point) error {
	if !validPoint(p) {
		return ErrInvalidLocation
	}

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !profile.IsOnline {
		return ErrDriverOffline
	}

	if s.locations != nil {
		if err := s.locations.UpdateLocation(ctx, userID, p); err != nil {
			return err
		}
	}

	s.sink.Publish(ctx, events.TopicDriverLocation, events.NewDriverLocationUpdated(userID, p), userID)
	return nil
}

func driverErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrDriverNotFound
	}
	return err
}
