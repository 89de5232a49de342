package service

import (
	"fmt"
	"strings"

	"ridehail/internal/domain"
	"ridehail/internal/fare"
)

// ReceiptService builds fare breakdowns for completed journeys.
type ReceiptService struct{}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService() *ReceiptService {
	return &ReceiptService{}
}

// Generate builds the receipt of a completed journey. The distance component
// is whatever the total carries above the base fare.
func (s *ReceiptService) Generate(j *domain.Journey) (*domain.Receipt, error) {
	if j.Status != domain.JourneyStatusCompleted {
		return nil, ErrJourneyNotCompleted
	}

	distance := fare.HaversineKm(j.Pickup.Point, j.Dropoff.Point)
	if j.Distance != nil {
		distance = *j.Distance
	}

	breakdown, err := fare.ForDistance(j.VehicleType, distance)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVehicleType, err)
	}

	total := j.ChargeableAmount()
	distanceFare := total - breakdown.BaseFare
	if distanceFare < 0 {
		distanceFare = 0
	}

	receipt := &domain.Receipt{
		JourneyID:      j.ID,
		VehicleType:    j.VehicleType,
		BaseFare:       breakdown.BaseFare,
		DistanceFare:   distanceFare,
		EstimatedFare:  j.EstimatedFare,
		TotalFare:      total,
		DistanceKm:     distance,
		PaymentMethod:  j.PaymentMethod,
		PaymentStatus:  j.PaymentStatus,
		PickupAddress:  j.Pickup.Address,
		DropoffAddress: j.Dropoff.Address,
	}
	if j.Duration != nil {
		receipt.DurationMin = *j.Duration
	}

	return receipt, nil
}

// Format renders the receipt as plain text (for email/print).
func (s *ReceiptService) Format(r *domain.Receipt) string {
	var b strings.Builder
	line := strings.Repeat("=", 37)
	rule := strings.Repeat("-", 37)

	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "          JOURNEY RECEIPT")
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Journey ID: %s\n\n", r.JourneyID)

	fmt.Fprintln(&b, "JOURNEY DETAILS")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Vehicle:  %s\n", r.VehicleType)
	fmt.Fprintf(&b, "Pickup:   %s\n", r.PickupAddress)
	fmt.Fprintf(&b, "Dropoff:  %s\n", r.DropoffAddress)
	fmt.Fprintf(&b, "Distance: %.2f km\n", r.DistanceKm)
	fmt.Fprintf(&b, "Duration: %d min\n\n", r.DurationMin)

	fmt.Fprintln(&b, "FARE BREAKDOWN")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Base Fare:      %d\n", r.BaseFare)
	fmt.Fprintf(&b, "Distance Fare:  %d\n", r.DistanceFare)
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "TOTAL:          %d\n\n", r.TotalFare)

	fmt.Fprintln(&b, "PAYMENT")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Method: %s\n", r.PaymentMethod)
	fmt.Fprintf(&b, "Status: %s\n", r.PaymentStatus)
	fmt.Fprintln(&b, line)

	return b.String()
}
