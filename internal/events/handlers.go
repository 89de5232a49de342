package events

import (
	"context"
	"log"
)

// RegisterDefaultHandlers wires a logging handler for every event type in
// the topic catalogue.
func RegisterDefaultHandlers(d *Dispatcher) {
	d.Handle(TopicJourneyRequested, TypeJourneyRequested, func(ctx context.Context, msg Message) error {
		var e JourneyRequested
		if err := msg.Decode(&e); err != nil {
			return err
		}
		log.Printf("[JOURNEY] requested id=%s rider=%s vehicle=%s fare=%d", e.JourneyID, e.RiderID, e.VehicleType, e.EstimatedFare)
		return nil
	})

	d.Handle(TopicJourneyAccepted, TypeJourneyAccepted, func(ctx context.Context, msg Message) error {
		var e JourneyAccepted
		if err := msg.Decode(&e); err != nil {
			return err
		}
		log.Printf("[JOURNEY] accepted id=%s driver=%s", e.JourneyID, e.DriverID)
		return nil
	})

	d.Handle(TopicJourneyStarted, TypeJourneyStarted, func(ctx context.Context, msg Message) error {
		var e JourneyStarted
		if err := msg.Decode(&e); err != nil {
			return err
		}
		log.Printf("[JOURNEY] started id=%s driver=%s", e.JourneyID, e.DriverID)
		return nil
	})

	d.Handle(TopicJourneyCompleted, TypeJourneyCompleted, func(ctx context.Context, msg Message) error {
		var e JourneyCompleted
		if err := msg.Decode(&e); err != nil {
			return err
		}
		log.Printf("[JOURNEY] completed id=%s fare=%d distance=%.2fkm payment=%s/%s",
			e.JourneyID, e.ActualFare, e.Distance, e.PaymentMethod, e.PaymentStatus)
		return nil
	})

	d.Handle(TopicJourneyCancelled, TypeJourneyCancelled, func(ctx context.Context, msg Message) error {
		var e JourneyCancelled
		if err := msg.Decode(&e); err != nil {
			return err
		}
		log.Printf("[JOURNEY] cancelled id=%s by=%s reason=%q", e.JourneyID, e.CancelledBy, e.Reason)
		return nil
	})

	d.Handle(TopicDriverLocation, TypeDriverLocationUpdated, func(ctx context.Context, msg Message) error {
		var e DriverLocationUpdated
		if err := msg.Decode(&e); err != nil {
			return err
		}
		log.Printf("[DRIVER] location driver=%s lat=%.5f lng=%.5f", e.DriverID, e.Location.Lat, e.Location.Lng)
		return nil
	})

	d.Handle(TopicDriverStatus, TypeDriverStatusChanged, func(ctx context.Context, msg Message) error {
		var e DriverStatusChanged
		if err := msg.Decode(&e); err != nil {
			return err
		}
		log.Printf("[DRIVER] status driver=%s online=%t", e.DriverID, e.IsOnline)
		return nil
	})

	notify := func(ctx context.Context, msg Message) error {
		var e Notification
		if err := msg.Decode(&e); err != nil {
			return err
		}
		log.Printf("[NOTIFICATION] %s user=%s journey=%s: %s - %s", e.Type, e.UserID, e.JourneyID, e.Title, e.Message)
		return nil
	}
	d.Handle(TopicRiderNotification, TypeRiderNotification, notify)
	d.Handle(TopicDriverNotification, TypeDriverNotification, notify)
}
