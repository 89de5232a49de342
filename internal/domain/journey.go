package domain

import "time"

// JourneyStatus represents the current status of a journey.
type JourneyStatus string

const (
	JourneyStatusRequested JourneyStatus = "REQUESTED"
	JourneyStatusAccepted  JourneyStatus = "ACCEPTED"
	JourneyStatusArrived   JourneyStatus = "ARRIVED"
	JourneyStatusStarted   JourneyStatus = "STARTED"
	JourneyStatusCompleted JourneyStatus = "COMPLETED"
	JourneyStatusCancelled JourneyStatus = "CANCELLED"
)

// Valid reports whether s is a known journey status.
func (s JourneyStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminal reports whether no further transition is possible from s.
func (s JourneyStatus) IsTerminal() bool {
	return s == JourneyStatusCompleted || s == JourneyStatusCancelled
}

// allowedTransitions is the journey state flow as code.
var allowedTransitions = map[JourneyStatus][]JourneyStatus{
	JourneyStatusRequested: {JourneyStatusAccepted, JourneyStatusCancelled},
	JourneyStatusAccepted:  {JourneyStatusArrived, JourneyStatusCancelled},
	JourneyStatusArrived:   {JourneyStatusStarted, JourneyStatusCancelled},
	JourneyStatusStarted:   {JourneyStatusCompleted, JourneyStatusCancelled},
	JourneyStatusCompleted: {},
	JourneyStatusCancelled: {},
}

// CancellableStatuses are the statuses from which a party may cancel.
// STARTED allows CANCELLED in the table, but once a trip is underway
// cancellation is not offered to riders or drivers.
var CancellableStatuses = []JourneyStatus{
	JourneyStatusRequested,
	JourneyStatusAccepted,
	JourneyStatusArrived,
}

// CanTransition reports whether a journey may move from one status to another.
func CanTransition(from, to JourneyStatus) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// IsCancellable reports whether a party may still cancel a journey in status s.
func IsCancellable(s JourneyStatus) bool {
	for _, c := range CancellableStatuses {
		if c == s {
			return true
		}
	}
	return false
}

// VehicleType is the class of vehicle a journey is requested for.
type VehicleType string

const (
	VehicleTypeCar             VehicleType = "CAR"
	VehicleTypeBike            VehicleType = "BIKE"
	VehicleTypeAuto            VehicleType = "AUTO"
	VehicleTypeERickshaw       VehicleType = "E_RICKSHAW"
	VehicleTypeElectricScooter VehicleType = "ELECTRIC_SCOOTER"
)

// VehicleTypes lists every supported vehicle type.
var VehicleTypes = []VehicleType{
	VehicleTypeCar,
	VehicleTypeBike,
	VehicleTypeAuto,
	VehicleTypeERickshaw,
	VehicleTypeElectricScooter,
}

// Valid reports whether v is a supported vehicle type.
func (v VehicleType) Valid() bool {
	for _, t := range VehicleTypes {
		if t == v {
			return true
		}
	}
	return false
}

// CancelledBy identifies which party cancelled a journey.
type CancelledBy string

const (
	CancelledByRider  CancelledBy = "RIDER"
	CancelledByDriver CancelledBy = "DRIVER"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Location is an address with its coordinate.
type Location struct {
	Address string `json:"address"`
	Point   Point  `json:"point"`
}

// Journey is a single ride from pickup to dropoff.
type Journey struct {
	ID            string
	RiderID       string
	DriverID      string
	Status        JourneyStatus
	VehicleType   VehicleType
	Pickup        Location
	Dropoff       Location
	EstimatedFare int

	// Measured values, set at completion.
	ActualFare *int
	Distance   *float64 // km
	Duration   *int     // minutes

	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus

	RequestedAt *time.Time
	AcceptedAt  *time.Time
	ArrivedAt   *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time

	CancellationReason string
	CancelledBy        CancelledBy

	Rating   *int
	Feedback string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChargeableAmount is the fare due for the journey: the measured fare when
// present, otherwise the estimate.
func (j *Journey) ChargeableAmount() int {
	if j.ActualFare != nil {
		return *j.ActualFare
	}
	return j.EstimatedFare
}

// IsParty reports whether userID is the rider or the assigned driver.
func (j *Journey) IsParty(userID string) bool {
	return userID != "" && (j.RiderID == userID || j.DriverID == userID)
}

// PartySummary is the read-side view of a rider or driver attached to a journey.
type PartySummary struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Phone   string       `json:"phone"`
	Vehicle *VehicleInfo `json:"vehicle,omitempty"`
	Rating  *float64     `json:"rating,omitempty"`
}

// JourneyDetails is a journey with its parties resolved.
type JourneyDetails struct {
	Journey *Journey
	Rider   *PartySummary
	Driver  *PartySummary
}
