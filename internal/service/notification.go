package service

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"ridehail/internal/domain"
	"ridehail/internal/events"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationDriverAssigned   NotificationType = "DRIVER_ASSIGNED"
	NotificationDriverArrived    NotificationType = "DRIVER_ARRIVED"
	NotificationJourneyStarted   NotificationType = "JOURNEY_STARTED"
	NotificationJourneyCompleted NotificationType = "JOURNEY_COMPLETED"
	NotificationJourneyCancelled NotificationType = "JOURNEY_CANCELLED"
	NotificationPaymentSuccess   NotificationType = "PAYMENT_SUCCESS"
	NotificationPaymentReceived  NotificationType = "PAYMENT_RECEIVED"
	NotificationPaymentFailed    NotificationType = "PAYMENT_FAILED"
	NotificationJourneyRated     NotificationType = "JOURNEY_RATED"
)

// NotificationService turns journey milestones into rider and driver
// notifications on the event sink.
type NotificationService struct {
	sink events.Sink
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(sink events.Sink) *NotificationService {
	return &NotificationService{sink: sink}
}

// NotifyDriverAssigned tells the rider a driver accepted the journey.
func (s *NotificationService) NotifyDriverAssigned(ctx context.Context, j *domain.Journey) {
	s.toRider(ctx, j, NotificationDriverAssigned, "Driver Assigned",
		"A driver has accepted your journey and is on the way",
		map[string]string{"driverId": j.DriverID})
}

// NotifyDriverArrived tells the rider the driver is at the pickup.
func (s *NotificationService) NotifyDriverArrived(ctx context.Context, j *domain.Journey) {
	s.toRider(ctx, j, NotificationDriverArrived, "Driver Arrived",
		fmt.Sprintf("Your driver has arrived at %s", j.Pickup.Address), nil)
}

// NotifyJourneyStarted tells the rider the journey is underway.
func (s *NotificationService) NotifyJourneyStarted(ctx context.Context, j *domain.Journey) {
	s.toRider(ctx, j, NotificationJourneyStarted, "Journey Started",
		"Your journey has started. Enjoy your ride!", nil)
}

// NotifyJourneyCompleted tells the rider the fare due.
func (s *NotificationService) NotifyJourneyCompleted(ctx context.Context, j *domain.Journey) {
	amount := j.ChargeableAmount()
	s.toRider(ctx, j, NotificationJourneyCompleted, "Journey Completed",
		fmt.Sprintf("You have arrived. Total fare: %d", amount),
		map[string]string{
			"amount":        strconv.Itoa(amount),
			"paymentStatus": string(j.PaymentStatus),
		})
}

// NotifyJourneyCancelled tells the party that did not cancel.
func (s *NotificationService) NotifyJourneyCancelled(ctx context.Context, j *domain.Journey) {
	data := map[string]string{"cancelledBy": string(j.CancelledBy)}
	if j.CancellationReason != "" {
		data["reason"] = j.CancellationReason
	}

	if j.CancelledBy == domain.CancelledByRider {
		if j.DriverID == "" {
			return
		}
		s.toDriver(ctx, j, NotificationJourneyCancelled, "Journey Cancelled",
			"The rider has cancelled the journey", data)
		return
	}
	s.toRider(ctx, j, NotificationJourneyCancelled, "Journey Cancelled",
		"The driver has cancelled the journey", data)
}

// NotifyPaymentConfirmed tells both parties the fare was settled.
func (s *NotificationService) NotifyPaymentConfirmed(ctx context.Context, j *domain.Journey) {
	amount := strconv.Itoa(j.ChargeableAmount())
	data := map[string]string{"amount": amount, "paymentMethod": string(j.PaymentMethod)}

	s.toRider(ctx, j, NotificationPaymentSuccess, "Payment Successful",
		fmt.Sprintf("Payment of %s was successful", amount), data)
	s.toDriver(ctx, j, NotificationPaymentReceived, "Payment Received",
		fmt.Sprintf("The rider paid %s", amount), data)
}

// NotifyPaymentFailed tells the rider the charge was declined.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, j *domain.Journey) {
	amount := strconv.Itoa(j.ChargeableAmount())
	s.toRider(ctx, j, NotificationPaymentFailed, "Payment Failed",
		fmt.Sprintf("Payment of %s failed. Please try again.", amount),
		map[string]string{"amount": amount})
}

// NotifyJourneyRated tells the driver the rating they received.
func (s *NotificationService) NotifyJourneyRated(ctx context.Context, j *domain.Journey, rating int) {
	s.toDriver(ctx, j, NotificationJourneyRated, "New Rating",
		fmt.Sprintf("Your rider rated the journey %d/5", rating),
		map[string]string{"rating": strconv.Itoa(rating)})
}

func (s *NotificationService) toRider(ctx context.Context, j *domain.Journey, kind NotificationType, title, message string, data map[string]string) {
	n := events.NewRiderNotification(j.RiderID, j.ID, title, message, string(kind), data)
	s.send(ctx, events.TopicRiderNotification, n)
}

func (s *NotificationService) toDriver(ctx context.Context, j *domain.Journey, kind NotificationType, title, message string, data map[string]string) {
	n := events.NewDriverNotification(j.DriverID, j.ID, title, message, string(kind), data)
	s.send(ctx, events.TopicDriverNotification, n)
}

// send publishes a notification keyed by journey id. Failures are logged by
// the sink and never reach the caller.
func (s *NotificationService) send(ctx context.Context, topic events.Topic, n events.Notification) {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s", n.Type, n.UserID, n.Title)
	if s.sink == nil {
		return
	}
	s.sink.Publish(ctx, topic, n, n.JourneyID)
}
