package service

import (
	"context"
	"log"

	"ridehail/internal/domain"
)

// PaymentGateway charges a rider for a journey.
type PaymentGateway interface {
	Charge(ctx context.Context, journeyID string, amount int, method domain.PaymentMethod) (bool, error)
}

// SimulatedGateway approves every charge up to an optional limit. No money moves.
type SimulatedGateway struct {
	declineAbove int
}

// NewSimulatedGateway creates a gateway that declines amounts above
// declineAbove. Zero approves everything.
func NewSimulatedGateway(declineAbove int) *SimulatedGateway {
	return &SimulatedGateway{declineAbove: declineAbove}
}

// Charge simulates a payment charge.
func (g *SimulatedGateway) Charge(ctx context.Context, journeyID string, amount int, method domain.PaymentMethod) (bool, error) {
	if amount < 0 {
		return false, nil
	}
	if g.declineAbove > 0 && amount > g.declineAbove {
		log.Printf("[PAYMENT] declined journey=%s amount=%d method=%s", journeyID, amount, method)
		return false, nil
	}
	log.Printf("[PAYMENT] charged journey=%s amount=%d method=%s", journeyID, amount, method)
	return true, nil
}
