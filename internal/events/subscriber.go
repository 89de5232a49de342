package events

import "context"

// Delivery is one message received by a consumer group.
type Delivery struct {
	Topic Topic
	Key   string
	Body  []byte
	Ack   func() error
}

// Subscription is an open consumer group subscription.
type Subscription interface {
	// Deliveries yields messages until the subscription is cancelled.
	Deliveries() <-chan Delivery
	// Cancel stops new deliveries; the Deliveries channel closes once
	// in-flight messages have been handed over.
	Cancel() error
	// Close releases the subscription.
	Close() error
}

// Subscriber opens consumer group subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, group Group) (Subscription, error)
}
