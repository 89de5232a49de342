package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/events"
	"ridehail/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK JOURNEY REPOSITORY
// ──────────────────────────────────────────────

// MockJourneyRepository is an in-memory JourneyRepository. Every conditional
// update checks and writes under one lock, like a single UPDATE ... WHERE.
type MockJourneyRepository struct {
	mu       sync.Mutex
	journeys map[string]*domain.Journey

	// Counters for verification
	CreateCallCount int32
	AcceptCallCount int32

	// Error injection
	CreateError error
}

// NewMockJourneyRepository creates a new mock journey repository.
func NewMockJourneyRepository() *MockJourneyRepository {
	return &MockJourneyRepository{
		journeys: make(map[string]*domain.Journey),
	}
}

// AddJourney adds a journey to the mock repository.
func (m *MockJourneyRepository) AddJourney(j *domain.Journey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *j
	m.journeys[j.ID] = &copy
}

// GetJourney returns a copy of the stored journey (for test assertions).
func (m *MockJourneyRepository) GetJourney(id string) *domain.Journey {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.journeys[id]
	if !ok {
		return nil
	}
	copy := *j
	return &copy
}

func (m *MockJourneyRepository) Create(ctx context.Context, j *domain.Journey) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.AddJourney(j)
	return nil
}

func (m *MockJourneyRepository) GetByID(ctx context.Context, id string) (*domain.Journey, error) {
	if j := m.GetJourney(id); j != nil {
		return j, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockJourneyRepository) List(ctx context.Context, f repository.JourneyFilter) ([]*domain.Journey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := []*domain.Journey{}
	for _, j := range m.journeys {
		if f.RiderID != "" && j.RiderID != f.RiderID {
			continue
		}
		if f.DriverID != "" && j.DriverID != f.DriverID {
			continue
		}
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		copy := *j
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.After(result[k].CreatedAt)
	})
	return result, nil
}

// update applies fn to the journey if cond holds, all under the lock.
func (m *MockJourneyRepository) update(id string, cond func(*domain.Journey) bool, fn func(*domain.Journey)) (*domain.Journey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.journeys[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !cond(j) {
		return nil, repository.ErrStaleState
	}
	fn(j)
	copy := *j
	return &copy, nil
}

func (m *MockJourneyRepository) Accept(ctx context.Context, id, driverID string, at time.Time) (*domain.Journey, error) {
	atomic.AddInt32(&m.AcceptCallCount, 1)
	return m.update(id,
		func(j *domain.Journey) bool { return j.Status == domain.JourneyStatusRequested },
		func(j *domain.Journey) {
			j.DriverID = driverID
			j.Status = domain.JourneyStatusAccepted
			j.AcceptedAt = &at
			j.UpdatedAt = at
		})
}

func (m *MockJourneyRepository) AdvanceStatus(ctx context.Context, id string, from, to domain.JourneyStatus, at time.Time) (*domain.Journey, error) {
	return m.update(id,
		func(j *domain.Journey) bool { return j.Status == from },
		func(j *domain.Journey) {
			j.Status = to
			switch to {
			case domain.JourneyStatusArrived:
				j.ArrivedAt = &at
			case domain.JourneyStatusStarted:
				j.StartedAt = &at
			}
			j.UpdatedAt = at
		})
}

func (m *MockJourneyRepository) Complete(ctx context.Context, id string, c repository.Completion) (*domain.Journey, error) {
	return m.update(id,
		func(j *domain.Journey) bool { return j.Status == domain.JourneyStatusStarted },
		func(j *domain.Journey) {
			fare, distance, duration, at := c.ActualFare, c.Distance, c.Duration, c.CompletedAt
			j.Status = domain.JourneyStatusCompleted
			j.ActualFare = &fare
			j.Distance = &distance
			j.Duration = &duration
			j.PaymentStatus = c.PaymentStatus
			j.CompletedAt = &at
			j.UpdatedAt = at
		})
}

func (m *MockJourneyRepository) Cancel(ctx context.Context, id string, from []domain.JourneyStatus, c repository.Cancellation) (*domain.Journey, error) {
	return m.update(id,
		func(j *domain.Journey) bool {
			for _, s := range from {
				if j.Status == s {
					return true
				}
			}
			return false
		},
		func(j *domain.Journey) {
			at := c.CancelledAt
			j.Status = domain.JourneyStatusCancelled
			j.CancellationReason = c.Reason
			j.CancelledBy = c.CancelledBy
			j.CancelledAt = &at
			j.UpdatedAt = at
		})
}

func (m *MockJourneyRepository) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Journey, error) {
	return m.update(id,
		func(j *domain.Journey) bool {
			return j.Status == domain.JourneyStatusCompleted && j.PaymentStatus != domain.PaymentStatusCompleted
		},
		func(j *domain.Journey) { j.PaymentStatus = status })
}

func (m *MockJourneyRepository) Rate(ctx context.Context, id string, rating int, feedback string) (*domain.Journey, error) {
	return m.update(id,
		func(j *domain.Journey) bool { return j.Status == domain.JourneyStatusCompleted && j.Rating == nil },
		func(j *domain.Journey) {
			r := rating
			j.Rating = &r
			j.Feedback = feedback
		})
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu       sync.RWMutex
	profiles map[string]*domain.DriverProfile

	// Counters for verification
	SetOnlineCallCount int32

	// Error injection
	IncrementError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		profiles: make(map[string]*domain.DriverProfile),
	}
}

// AddProfile adds a driver profile to the mock repository.
func (m *MockDriverRepository) AddProfile(p *domain.DriverProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *p
	m.profiles[p.UserID] = &copy
}

// GetProfile returns a copy of the stored profile (for test assertions).
func (m *MockDriverRepository) GetProfile(userID string) *domain.DriverProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil
	}
	copy := *p
	return &copy
}

func (m *MockDriverRepository) Create(ctx context.Context, p *domain.DriverProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.UserID]; ok {
		return repository.ErrConflict
	}
	copy := *p
	m.profiles[p.UserID] = &copy
	return nil
}

func (m *MockDriverRepository) GetByUserID(ctx context.Context, userID string) (*domain.DriverProfile, error) {
	if p := m.GetProfile(userID); p != nil {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) Update(ctx context.Context, p *domain.DriverProfile) error {
	return m.mutate(p.UserID, func(stored *domain.DriverProfile) {
		stored.Personal = p.Personal
		stored.Documents = p.Documents
		stored.Vehicle = p.Vehicle
		stored.CompletionPercentage = p.CompletionPercentage
		stored.UpdatedAt = p.UpdatedAt
	})
}

func (m *MockDriverRepository) SetOnline(ctx context.Context, userID string, online bool) error {
	atomic.AddInt32(&m.SetOnlineCallCount, 1)
	return m.mutate(userID, func(p *domain.DriverProfile) { p.IsOnline = online })
}

func (m *MockDriverRepository) SetVerified(ctx context.Context, userID string, verified bool) error {
	return m.mutate(userID, func(p *domain.DriverProfile) { p.IsVerified = verified })
}

func (m *MockDriverRepository) IncrementTotalRides(ctx context.Context, userID string) error {
	if m.IncrementError != nil {
		return m.IncrementError
	}
	return m.mutate(userID, func(p *domain.DriverProfile) { p.Stats.TotalRides++ })
}

func (m *MockDriverRepository) AddRating(ctx context.Context, userID string, rating int) error {
	return m.mutate(userID, func(p *domain.DriverProfile) { p.Stats.AddRating(rating) })
}

func (m *MockDriverRepository) mutate(userID string, fn func(*domain.DriverProfile)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	fn(p)
	return nil
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *u
	m.users[u.ID] = &copy
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email || existing.Phone == u.Phone {
			return repository.ErrConflict
		}
	}
	copy := *u
	m.users[u.ID] = &copy
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ──────────────────────────────────────────────
// MOCK REDIS STORES
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.Mutex
	locations map[string]domain.Point

	UpdateLocationCallCount int32
	UpdateLocationError     error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{locations: make(map[string]domain.Point)}
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, p domain.Point) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[driverID] = p
	return nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, driverID)
	return nil
}

// HasLocation checks if a driver has a stored location.
func (m *MockLocationStore) HasLocation(driverID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.locations[driverID]
	return ok
}

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool)}
}

func (m *MockLockStore) AcquirePaymentLock(ctx context.Context, journeyID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[journeyID] {
		return false, nil
	}
	m.locks[journeyID] = true
	return true, nil
}

func (m *MockLockStore) ReleasePaymentLock(ctx context.Context, journeyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, journeyID)
	return nil
}

// MockJourneyCache is a mock implementation of JourneyCacheInterface.
type MockJourneyCache struct {
	mu       sync.Mutex
	journeys map[string]*domain.Journey
	versions map[string]int64

	// BeforeSet runs at the start of SetJourney, outside the lock.
	BeforeSet func()

	InvalidateCallCount int32
	StaleFillCount      int32
}

// NewMockJourneyCache creates a new mock journey cache.
func NewMockJourneyCache() *MockJourneyCache {
	return &MockJourneyCache{
		journeys: make(map[string]*domain.Journey),
		versions: make(map[string]int64),
	}
}

// Cached reports whether a journey is currently cached.
func (m *MockJourneyCache) Cached(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.journeys[id]
	return ok
}

func (m *MockJourneyCache) JourneyVersion(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[id], nil
}

func (m *MockJourneyCache) GetJourney(ctx context.Context, id string) (*domain.Journey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.journeys[id]
	if !ok {
		return nil, nil
	}
	copy := *j
	return &copy, nil
}

func (m *MockJourneyCache) SetJourney(ctx context.Context, j *domain.Journey, version int64) error {
	if m.BeforeSet != nil {
		m.BeforeSet()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.versions[j.ID] != version {
		atomic.AddInt32(&m.StaleFillCount, 1)
		return nil
	}
	copy := *j
	m.journeys[j.ID] = &copy
	return nil
}

func (m *MockJourneyCache) InvalidateJourney(ctx context.Context, id string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.journeys, id)
	m.versions[id]++
	return nil
}

// ──────────────────────────────────────────────
// MOCK EVENT SINK, GATEWAY, QR
// ──────────────────────────────────────────────

type published struct {
	Topic events.Topic
	Event any
	Key   string
}

// MockSink records every published event.
type MockSink struct {
	mu     sync.Mutex
	events []published

	// Error injection
	Fail bool
}

func (m *MockSink) Publish(ctx context.Context, topic events.Topic, event any, key string) events.PublishResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, published{Topic: topic, Event: event, Key: key})
	if m.Fail {
		return events.PublishResult{Err: errors.New("broker unavailable")}
	}
	return events.PublishResult{Success: true}
}

// Topics returns the topics published so far, in order.
func (m *MockSink) Topics() []events.Topic {
	m.mu.Lock()
	defer m.mu.Unlock()
	topics := make([]events.Topic, len(m.events))
	for i, e := range m.events {
		topics[i] = e.Topic
	}
	return topics
}

// Find returns the first event published on topic.
func (m *MockSink) Find(topic events.Topic) (published, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.Topic == topic {
			return e, true
		}
	}
	return published{}, false
}

// MockGateway approves or declines every charge.
type MockGateway struct {
	Decline bool
	Err     error

	ChargeCallCount int32
}

func (m *MockGateway) Charge(ctx context.Context, journeyID string, amount int, method domain.PaymentMethod) (bool, error) {
	atomic.AddInt32(&m.ChargeCallCount, 1)
	if m.Err != nil {
		return false, m.Err
	}
	return !m.Decline, nil
}

// MockQR returns the payload as the image.
type MockQR struct {
	LastPayload []byte
}

func (m *MockQR) Render(payload []byte) (string, error) {
	m.LastPayload = payload
	return "data:image/png;base64,stub", nil
}
