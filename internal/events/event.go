package events

import (
	"time"

	"ridehail/internal/domain"
)

// Event type discriminators.
const (
	TypeJourneyRequested      = "JourneyRequested"
	TypeJourneyAccepted       = "JourneyAccepted"
	TypeJourneyStarted        = "JourneyStarted"
	TypeJourneyCompleted      = "JourneyCompleted"
	TypeJourneyCancelled      = "JourneyCancelled"
	TypeDriverLocationUpdated = "DriverLocationUpdated"
	TypeDriverStatusChanged   = "DriverStatusChanged"
	TypeRiderNotification     = "RiderNotification"
	TypeDriverNotification    = "DriverNotification"
)

// Envelope is embedded in every event so the encoded object stays flat.
type Envelope struct {
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
}

func newEnvelope(eventType string) Envelope {
	return Envelope{EventType: eventType, Timestamp: time.Now().UTC()}
}

// JourneyRequested is published when a rider creates a journey.
type JourneyRequested struct {
	Envelope
	JourneyID     string               `json:"journeyId"`
	RiderID       string               `json:"riderId"`
	VehicleType   domain.VehicleType   `json:"vehicleType"`
	Pickup        domain.Location      `json:"pickup"`
	Dropoff       domain.Location      `json:"dropoff"`
	EstimatedFare int                  `json:"estimatedFare"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

// JourneyAccepted is published when a driver wins a journey.
type JourneyAccepted struct {
	Envelope
	JourneyID   string             `json:"journeyId"`
	RiderID     string             `json:"riderId"`
	DriverID    string             `json:"driverId"`
	VehicleType domain.VehicleType `json:"vehicleType"`
}

// JourneyStarted is published when the rider is picked up.
type JourneyStarted struct {
	Envelope
	JourneyID string `json:"journeyId"`
	RiderID   string `json:"riderId"`
	DriverID  string `json:"driverId"`
}

// JourneyCompleted is published when the driver closes a journey.
type JourneyCompleted struct {
	Envelope
	JourneyID     string               `json:"journeyId"`
	RiderID       string               `json:"riderId"`
	DriverID      string               `json:"driverId"`
	ActualFare    int                  `json:"actualFare"`
	Distance      float64              `json:"distance"`
	Duration      int                  `json:"duration"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
}

// JourneyCancelled is published when either party cancels.
type JourneyCancelled struct {
	Envelope
	JourneyID   string             `json:"journeyId"`
	RiderID     string             `json:"riderId"`
	DriverID    string             `json:"driverId,omitempty"`
	CancelledBy domain.CancelledBy `json:"cancelledBy"`
	Reason      string             `json:"reason,omitempty"`
}

// DriverLocationUpdated carries a driver's latest position.
type DriverLocationUpdated struct {
	Envelope
	DriverID string       `json:"driverId"`
	Location domain.Point `json:"location"`
}

// DriverStatusChanged is published when a driver goes online or offline.
type DriverStatusChanged struct {
	Envelope
	DriverID    string             `json:"driverId"`
	IsOnline    bool               `json:"isOnline"`
	VehicleType domain.VehicleType `json:"vehicleType,omitempty"`
}

// Notification is a user-facing message for a rider or driver.
type Notification struct {
	Envelope
	UserID    string            `json:"userId"`
	JourneyID string            `json:"journeyId,omitempty"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Type      string            `json:"type"`
	Data      map[string]string `json:"data,omitempty"`
}

// NewJourneyRequested builds the event for a newly created journey.
func NewJourneyRequested(j *domain.Journey) JourneyRequested {
	return JourneyRequested{
		Envelope:      newEnvelope(TypeJourneyRequested),
		JourneyID:     j.ID,
		RiderID:       j.RiderID,
		VehicleType:   j.VehicleType,
		Pickup:        j.Pickup,
		Dropoff:       j.Dropoff,
		EstimatedFare: j.EstimatedFare,
		PaymentMethod: j.PaymentMethod,
	}
}

// NewJourneyAccepted builds the event for an accepted journey.
func NewJourneyAccepted(j *domain.Journey) JourneyAccepted {
	return JourneyAccepted{
		Envelope:    newEnvelope(TypeJourneyAccepted),
		JourneyID:   j.ID,
		RiderID:     j.RiderID,
		DriverID:    j.DriverID,
		VehicleType: j.VehicleType,
	}
}

// NewJourneyStarted builds the event for a started journey.
func NewJourneyStarted(j *domain.Journey) JourneyStarted {
	return JourneyStarted{
		Envelope:  newEnvelope(TypeJourneyStarted),
		JourneyID: j.ID,
		RiderID:   j.RiderID,
		DriverID:  j.DriverID,
	}
}

// NewJourneyCompleted builds the event for a completed journey.
func NewJourneyCompleted(j *domain.Journey) JourneyCompleted {
	e := JourneyCompleted{
		Envelope:      newEnvelope(TypeJourneyCompleted),
		JourneyID:     j.ID,
		RiderID:       j.RiderID,
		DriverID:      j.DriverID,
		ActualFare:    j.ChargeableAmount(),
		PaymentMethod: j.PaymentMethod,
		PaymentStatus: j.PaymentStatus,
	}
	if j.Distance != nil {
		e.Distance = *j.Distance
	}
	if j.Duration != nil {
		e.Duration = *j.Duration
	}
	return e
}

// NewJourneyCancelled builds the event for a cancelled journey.
func NewJourneyCancelled(j *domain.Journey) JourneyCancelled {
	return JourneyCancelled{
		Envelope:    newEnvelope(TypeJourneyCancelled),
		JourneyID:   j.ID,
		RiderID:     j.RiderID,
		DriverID:    j.DriverID,
		CancelledBy: j.CancelledBy,
		Reason:      j.CancellationReason,
	}
}

// NewDriverLocationUpdated builds a location event.
func NewDriverLocationUpdated(driverID string, p domain.Point) DriverLocationUpdated {
	return DriverLocationUpdated{
		Envelope: newEnvelope(TypeDriverLocationUpdated),
		DriverID: driverID,
		Location: p,
	}
}

// NewDriverStatusChanged builds an availability event.
func NewDriverStatusChanged(driverID string, online bool, vehicle domain.VehicleType) DriverStatusChanged {
	return DriverStatusChanged{
		Envelope:    newEnvelope(TypeDriverStatusChanged),
		DriverID:    driverID,
		IsOnline:    online,
		VehicleType: vehicle,
	}
}

// NewRiderNotification builds a notification addressed to a rider.
func NewRiderNotification(riderID, journeyID, title, message, kind string, data map[string]string) Notification {
	return Notification{
		Envelope:  newEnvelope(TypeRiderNotification),
		UserID:    riderID,
		JourneyID: journeyID,
		Title:     title,
		Message:   message,
		Type:      kind,
		Data:      data,
	}
}

// NewDriverNotification builds a notification addressed to a driver.
func NewDriverNotification(driverID, journeyID, title, message, kind string, data map[string]string) Notification {
	return Notification{
		Envelope:  newEnvelope(TypeDriverNotification),
		UserID:    driverID,
		JourneyID: journeyID,
		Title:     title,
		Message:   message,
		Type:      kind,
		Data:      data,
	}
}
