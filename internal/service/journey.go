package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/events"
	"ridehail/internal/fare"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

const paymentLockTTL = 30 * time.Second

// QRRenderer renders a payload as an image data URI.
type QRRenderer interface {
	Render(payload []byte) (string, error)
}

// JourneyService drives a journey through its lifecycle.
type JourneyService struct {
	journeys repository.JourneyRepository
	drivers  repository.DriverRepository
	users    repository.UserRepository
	sink     events.Sink
	notifier *NotificationService
	receipts *ReceiptService
	gateway  PaymentGateway
	qr       QRRenderer

	cache redis.JourneyCacheInterface
	locks redis.LockStoreInterface

	now func() time.Time
}

// NewJourneyService creates a new JourneyService. A nil sink disables
// event publication.
func NewJourneyService(
	journeys repository.JourneyRepository,
	drivers repository.DriverRepository,
	users repository.UserRepository,
	sink events.Sink,
	gateway PaymentGateway,
	qr QRRenderer,
) *JourneyService {
	if sink == nil {
		sink = events.NewDisabledPublisher()
	}
	if gateway == nil {
		gateway = NewSimulatedGateway(0)
	}
	return &JourneyService{
		journeys: journeys,
		drivers:  drivers,
		users:    users,
		sink:     sink,
		notifier: NewNotificationService(sink),
		receipts: NewReceiptService(),
		gateway:  gateway,
		qr:       qr,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithCache enables the journey read cache.
func (s *JourneyService) WithCache(cache redis.JourneyCacheInterface) *JourneyService {
	s.cache = cache
	return s
}

// WithPaymentLocks serialises payment confirmation per journey.
func (s *JourneyService) WithPaymentLocks(locks redis.LockStoreInterface) *JourneyService {
	s.locks = locks
	return s
}

// CreateJourneyInput contains the parameters for requesting a journey.
type CreateJourneyInput struct {
	VehicleType   domain.VehicleType
	Pickup        domain.Location
	Dropoff       domain.Location
	PaymentMethod domain.PaymentMethod // Optional: defaults to CASH
}

// CreateJourney records a new journey request at REQUESTED.
func (s *JourneyService) CreateJourney(ctx context.Context, riderID string, in CreateJourneyInput) (*domain.Journey, error) {
	if !in.VehicleType.Valid() {
		return nil, ErrInvalidVehicleType
	}
	if !validPoint(in.Pickup.Point) || !validPoint(in.Dropoff.Point) {
		return nil, ErrInvalidLocation
	}

	method := in.PaymentMethod
	if method == "" {
		method = domain.PaymentMethodCash
	}
	if !method.Valid() {
		return nil, ErrInvalidPayment
	}

	if _, err := s.users.GetByID(ctx, riderID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRiderNotFound
		}
		return nil, err
	}

	estimate, err := fare.Estimate(in.VehicleType, in.Pickup.Point, in.Dropoff.Point)
	if err != nil {
		return nil, ErrInvalidVehicleType
	}

	now := s.now()
	j := &domain.Journey{
		ID:            uuid.New().String(),
		RiderID:       riderID,
		Status:        domain.JourneyStatusRequested,
		VehicleType:   in.VehicleType,
		Pickup:        in.Pickup,
		Dropoff:       in.Dropoff,
		EstimatedFare: estimate,
		PaymentMethod: method,
		PaymentStatus: domain.PaymentStatusPending,
		RequestedAt:   &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.journeys.Create(ctx, j); err != nil {
		return nil, err
	}

	log.Printf("[JOURNEY] requested id=%s rider=%s vehicle=%s fare=%d", j.ID, riderID, j.VehicleType, estimate)
	s.sink.Publish(ctx, events.TopicJourneyRequested, events.NewJourneyRequested(j), j.ID)

	return j, nil
}

// AcceptJourney assigns an eligible driver to a REQUESTED journey. When
// several drivers race, exactly one wins; the rest see ErrJourneyUnavailable.
func (s *JourneyService) AcceptJourney(ctx context.Context, journeyID, driverID string) (*domain.Journey, error) {
	profile, err := s.drivers.GetByUserID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}
	if !profile.IsOnline {
		return nil, ErrDriverOffline
	}
	if !profile.IsVerified {
		return nil, ErrDriverUnverified
	}

	j, err := s.load(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	if j.Status != domain.JourneyStatusRequested {
		return nil, ErrJourneyUnavailable
	}
	if j.VehicleType != profile.Vehicle.Type {
		return nil, ErrVehicleMismatch
	}

	updated, err := s.journeys.Accept(ctx, journeyID, driverID, s.now())
	if err != nil {
		return nil, journeyErr(err, ErrJourneyUnavailable)
	}
	s.invalidate(ctx, journeyID)

	log.Printf("[JOURNEY] accepted id=%s driver=%s", journeyID, driverID)
	s.sink.Publish(ctx, events.TopicJourneyAccepted, events.NewJourneyAccepted(updated), updated.ID)
	s.notifier.NotifyDriverAssigned(ctx, updated)

	return updated, nil
}

// UpdateStatus moves an assigned journey to ARRIVED or STARTED.
func (s *JourneyService) UpdateStatus(ctx context.Context, journeyID, driverID string, status domain.JourneyStatus) (*domain.Journey, error) {
	if status != domain.JourneyStatusArrived && status != domain.JourneyStatusStarted {
		return nil, ErrInvalidStatusUpdate
	}

	j, err := s.load(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	if j.DriverID == "" || j.DriverID != driverID {
		return nil, ErrNotJourneyDriver
	}
	if !domain.CanTransition(j.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, j.Status, status)
	}

	stale := fmt.Errorf("%w: journey is no longer %s", ErrInvalidTransition, j.Status)
	updated, err := s.journeys.AdvanceStatus(ctx, journeyID, j.Status, status, s.now())
	if err != nil {
		return nil, journeyErr(err, stale)
	}
	s.invalidate(ctx, journeyID)

	log.Printf("[JOURNEY] status id=%s %s->%s", journeyID, j.Status, status)
	switch status {
	case domain.JourneyStatusStarted:
		s.sink.Publish(ctx, events.TopicJourneyStarted, events.NewJourneyStarted(updated), updated.ID)
		s.notifier.NotifyJourneyStarted(ctx, updated)
	case domain.JourneyStatusArrived:
		s.notifier.NotifyDriverArrived(ctx, updated)
	}

	return updated, nil
}

// CompletionInput carries the measured values of a finished journey.
// A zero ActualFare is priced from the distance.
type CompletionInput struct {
	ActualFare int
	Distance   float64 // km
	Duration   int     // minutes
}

// CompleteJourney finishes a STARTED journey. CARD and WALLET fares are
// settled immediately; CASH and UPI wait for ConfirmPayment.
func (s *JourneyService) CompleteJourney(ctx context.Context, journeyID, driverID string, in CompletionInput) (*domain.Journey, error) {
	if in.ActualFare < 0 || in.Distance < 0 || in.Duration < 0 {
		return nil, ErrInvalidCompletion
	}

	j, err := s.load(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	if j.DriverID == "" || j.DriverID != driverID {
		return nil, ErrNotJourneyDriver
	}
	if j.Status != domain.JourneyStatusStarted {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, j.Status, domain.JourneyStatusCompleted)
	}

	distance := in.Distance
	if distance == 0 {
		distance = fare.HaversineKm(j.Pickup.Point, j.Dropoff.Point)
	}
	actual := in.ActualFare
	if actual == 0 {
		b, err := fare.ForDistance(j.VehicleType, distance)
		if err != nil {
			return nil, ErrInvalidVehicleType
		}
		actual = b.Total
	}

	paymentStatus := domain.PaymentStatusPending
	if j.PaymentMethod.IsPreAuthorized() {
		paymentStatus = domain.PaymentStatusCompleted
	}

	stale := fmt.Errorf("%w: journey is no longer %s", ErrInvalidTransition, domain.JourneyStatusStarted)
	updated, err := s.journeys.Complete(ctx, journeyID, repository.Completion{
		ActualFare:    actual,
		Distance:      distance,
		Duration:      in.Duration,
		PaymentStatus: paymentStatus,
		CompletedAt:   s.now(),
	})
	if err != nil {
		return nil, journeyErr(err, stale)
	}
	s.invalidate(ctx, journeyID)

	if err := s.drivers.IncrementTotalRides(ctx, driverID); err != nil {
		log.Printf("[JOURNEY] failed to increment total rides for driver %s: %v", driverID, err)
	}

	log.Printf("[JOURNEY] completed id=%s fare=%d payment=%s", journeyID, actual, paymentStatus)
	s.sink.Publish(ctx, events.TopicJourneyCompleted, events.NewJourneyCompleted(updated), updated.ID)
	s.notifier.NotifyJourneyCompleted(ctx, updated)

	return updated, nil
}

// CancelJourney cancels a journey that has not started yet.
func (s *JourneyService) CancelJourney(ctx context.Context, journeyID, userID, reason string, cancelledBy domain.CancelledBy) (*domain.Journey, error) {
	if cancelledBy != domain.CancelledByRider && cancelledBy != domain.CancelledByDriver {
		return nil, ErrInvalidCancelledBy
	}

	j, err := s.load(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	switch cancelledBy {
	case domain.CancelledByRider:
		if j.RiderID != userID {
			return nil, ErrNotJourneyRider
		}
	case domain.CancelledByDriver:
		if j.DriverID == "" || j.DriverID != userID {
			return nil, ErrNotJourneyDriver
		}
	}
	if !domain.IsCancellable(j.Status) {
		return nil, ErrJourneyNotCancellable
	}

	updated, err := s.journeys.Cancel(ctx, journeyID, domain.CancellableStatuses, repository.Cancellation{
		Reason:      reason,
		CancelledBy: cancelledBy,
		CancelledAt: s.now(),
	})
	if err != nil {
		return nil, journeyErr(err, ErrJourneyNotCancellable)
	}
	s.invalidate(ctx, journeyID)

	log.Printf("[JOURNEY] cancelled id=%s by=%s", journeyID, cancelledBy)
	s.sink.Publish(ctx, events.TopicJourneyCancelled, events.NewJourneyCancelled(updated), updated.ID)
	s.notifier.NotifyJourneyCancelled(ctx, updated)

	return updated, nil
}

// GetJourneyByID returns a journey with its rider and driver resolved.
// Only the parties and administrators may read it.
func (s *JourneyService) GetJourneyByID(ctx context.Context, journeyID, userID string, role domain.Role) (*domain.JourneyDetails, error) {
	j, err := s.loadCached(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin && !j.IsParty(userID) {
		return nil, ErrNotJourneyParty
	}

	details := &domain.JourneyDetails{Journey: j}
	details.Rider = s.partySummary(ctx, j.RiderID, false)
	if j.DriverID != "" {
		details.Driver = s.partySummary(ctx, j.DriverID, true)
	}
	return details, nil
}

// ListByRider returns the rider's journeys, newest first.
func (s *JourneyService) ListByRider(ctx context.Context, riderID string, status domain.JourneyStatus) ([]*domain.Journey, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatusFilter
	}
	return s.journeys.List(ctx, repository.JourneyFilter{RiderID: riderID, Status: status})
}

// ListByDriver returns the driver's journeys, newest first.
func (s *JourneyService) ListByDriver(ctx context.Context, driverID string, status domain.JourneyStatus) ([]*domain.Journey, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatusFilter
	}
	return s.journeys.List(ctx, repository.JourneyFilter{DriverID: driverID, Status: status})
}

type paymentPayload struct {
	JourneyID     string               `json:"journeyId"`
	Amount        int                  `json:"amount"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Timestamp     string               `json:"timestamp"`
}

// GeneratePaymentQR returns a scan-to-pay code for an unpaid completed journey.
func (s *JourneyService) GeneratePaymentQR(ctx context.Context, journeyID, riderID string) (*domain.PaymentQR, error) {
	j, err := s.load(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	if j.RiderID != riderID {
		return nil, ErrNotJourneyRider
	}
	if j.Status != domain.JourneyStatusCompleted {
		return nil, ErrJourneyNotCompleted
	}
	if j.PaymentStatus == domain.PaymentStatusCompleted {
		return nil, ErrAlreadyPaid
	}

	amount := j.ChargeableAmount()
	payload, err := json.Marshal(paymentPayload{
		JourneyID:     j.ID,
		Amount:        amount,
		PaymentMethod: j.PaymentMethod,
		Timestamp:     s.now().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("encode payment payload: %w", err)
	}

	image, err := s.qr.Render(payload)
	if err != nil {
		return nil, err
	}

	return &domain.PaymentQR{
		JourneyID:     j.ID,
		Amount:        amount,
		PaymentMethod: j.PaymentMethod,
		QRImage:       image,
	}, nil
}

// ConfirmPayment settles a completed journey's fare. Confirming an already
// paid journey reports AlreadyPaid without charging again.
func (s *JourneyService) ConfirmPayment(ctx context.Context, journeyID, riderID string) (*domain.PaymentConfirmation, error) {
	j, err := s.load(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	if j.RiderID != riderID {
		return nil, ErrNotJourneyRider
	}
	if j.PaymentStatus == domain.PaymentStatusCompleted {
		return &domain.PaymentConfirmation{AlreadyPaid: true}, nil
	}
	if j.Status != domain.JourneyStatusCompleted {
		return nil, ErrJourneyNotCompleted
	}

	if s.locks != nil {
		acquired, err := s.locks.AcquirePaymentLock(ctx, journeyID, paymentLockTTL)
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, ErrPaymentInProgress
		}
		defer func() {
			if err := s.locks.ReleasePaymentLock(context.WithoutCancel(ctx), journeyID); err != nil {
				log.Printf("[JOURNEY] failed to release payment lock for %s: %v", journeyID, err)
			}
		}()

		// Another confirmation may have finished before we held the lock.
		if j, err = s.load(ctx, journeyID); err != nil {
			return nil, err
		}
		if j.PaymentStatus == domain.PaymentStatusCompleted {
			return &domain.PaymentConfirmation{AlreadyPaid: true}, nil
		}
	}

	amount := j.ChargeableAmount()
	approved, err := s.gateway.Charge(ctx, j.ID, amount, j.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("charge journey %s: %w", j.ID, err)
	}
	if !approved {
		failed, err := s.journeys.SetPaymentStatus(ctx, journeyID, domain.PaymentStatusFailed)
		if err != nil && !errors.Is(err, repository.ErrStaleState) {
			log.Printf("[JOURNEY] failed to mark payment failed for %s: %v", journeyID, err)
		}
		s.invalidate(ctx, journeyID)
		if failed == nil {
			failed = j
		}
		s.notifier.NotifyPaymentFailed(ctx, failed)
		return nil, ErrPaymentDeclined
	}

	updated, err := s.journeys.SetPaymentStatus(ctx, journeyID, domain.PaymentStatusCompleted)
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return &domain.PaymentConfirmation{AlreadyPaid: true}, nil
		}
		return nil, journeyErr(err, ErrJourneyNotCompleted)
	}
	s.invalidate(ctx, journeyID)

	log.Printf("[JOURNEY] payment confirmed id=%s amount=%d method=%s", journeyID, amount, updated.PaymentMethod)
	s.notifier.NotifyPaymentConfirmed(ctx, updated)

	return &domain.PaymentConfirmation{
		Amount:        amount,
		PaymentMethod: updated.PaymentMethod,
	}, nil
}

// RateJourney records the rider's one-time rating of a completed journey
// and folds it into the driver's average.
func (s *JourneyService) RateJourney(ctx context.Context, journeyID, riderID string, rating int, feedback string) (*domain.Journey, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	j, err := s.load(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	if j.RiderID != riderID {
		return nil, ErrNotJourneyRider
	}
	if j.Status != domain.JourneyStatusCompleted {
		return nil, ErrJourneyNotCompleted
	}
	if j.Rating != nil {
		return nil, ErrAlreadyRated
	}

	updated, err := s.journeys.Rate(ctx, journeyID, rating, feedback)
	if err != nil {
		return nil, journeyErr(err, ErrAlreadyRated)
	}
	s.invalidate(ctx, journeyID)

	if err := s.drivers.AddRating(ctx, updated.DriverID, rating); err != nil {
		log.Printf("[JOURNEY] failed to add rating for driver %s: %v", updated.DriverID, err)
	}
	s.notifier.NotifyJourneyRated(ctx, updated, rating)

	return updated, nil
}

// GetReceipt returns the fare breakdown of a completed journey.
func (s *JourneyService) GetReceipt(ctx context.Context, journeyID, userID string, role domain.Role) (*domain.Receipt, error) {
	j, err := s.loadCached(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin && !j.IsParty(userID) {
		return nil, ErrNotJourneyParty
	}
	return s.receipts.Generate(j)
}

// FormatReceipt renders a receipt as plain text.
func (s *JourneyService) FormatReceipt(r *domain.Receipt) string {
	return s.receipts.Format(r)
}

// EstimateFare quotes a fare without creating a journey.
func (s *JourneyService) EstimateFare(v domain.VehicleType, pickup, dropoff domain.Point) (fare.Breakdown, error) {
	if !v.Valid() {
		return fare.Breakdown{}, ErrInvalidVehicleType
	}
	if !validPoint(pickup) || !validPoint(dropoff) {
		return fare.Breakdown{}, ErrInvalidLocation
	}
	return fare.Quote(v, pickup, dropoff)
}

func (s *JourneyService) load(ctx context.Context, journeyID string) (*domain.Journey, error) {
	j, err := s.journeys.GetByID(ctx, journeyID)
	if err != nil {
		return nil, journeyErr(err, err)
	}
	return j, nil
}

func (s *JourneyService) loadCached(ctx context.Context, journeyID string) (*domain.Journey, error) {
	if s.cache == nil {
		return s.load(ctx, journeyID)
	}

	cached, err := s.cache.GetJourney(ctx, journeyID)
	if err != nil {
		log.Printf("[JOURNEY] cache read failed for %s: %v", journeyID, err)
	}
	if cached != nil {
		return cached, nil
	}

	// The version is taken before the row so that a mutation committed in
	// between makes the fill below a no-op.
	version, verr := s.cache.JourneyVersion(ctx, journeyID)
	if verr != nil {
		log.Printf("[JOURNEY] cache version read failed for %s: %v", journeyID, verr)
	}

	j, err := s.load(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	if verr == nil {
		if err := s.cache.SetJourney(ctx, j, version); err != nil {
			log.Printf("[JOURNEY] cache write failed for %s: %v", journeyID, err)
		}
	}
	return j, nil
}

func (s *JourneyService) invalidate(ctx context.Context, journeyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateJourney(ctx, journeyID); err != nil {
		log.Printf("[JOURNEY] cache invalidation failed for %s: %v", journeyID, err)
	}
}

// partySummary resolves a user for the read-side view. Lookup failures
// leave the summary out rather than failing the read.
func (s *JourneyService) partySummary(ctx context.Context, userID string, withVehicle bool) *domain.PartySummary {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		log.Printf("[JOURNEY] failed to resolve party %s: %v", userID, err)
		return nil
	}

	summary := &domain.PartySummary{ID: user.ID, Name: user.Name, Phone: user.Phone}
	if !withVehicle {
		return summary
	}

	profile, err := s.drivers.GetByUserID(ctx, userID)
	if err != nil {
		log.Printf("[JOURNEY] failed to resolve driver profile %s: %v", userID, err)
		return summary
	}
	vehicle := profile.Vehicle
	rating := profile.Stats.Rating
	summary.Vehicle = &vehicle
	summary.Rating = &rating
	return summary
}

// journeyErr maps repository errors to service errors. stale replaces
// ErrStaleState from a conditional update.
func journeyErr(err, stale error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrJourneyNotFound
	case errors.Is(err, repository.ErrStaleState):
		return stale
	default:
		return err
	}
}

func validPoint(p domain.Point) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
