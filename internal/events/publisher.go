package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// Broker delivers encoded events to a topic.
type Broker interface {
	Publish(ctx context.Context, topic Topic, key string, body []byte) error
	Close() error
}

// Sink is the publishing side seen by the services.
type Sink interface {
	Publish(ctx context.Context, topic Topic, event any, partitionKey string) PublishResult
}

// PublishResult reports the outcome of a publish. It is advisory: callers
// never roll back or fail a write because of it.
type PublishResult struct {
	Success  bool
	Disabled bool
	Err      error
}

// Publisher encodes events and hands them to a Broker.
type Publisher struct {
	broker  Broker
	enabled bool
	timeout time.Duration
}

var _ Sink = (*Publisher)(nil)

// NewPublisher creates a Publisher. A nil broker disables publishing.
func NewPublisher(broker Broker, timeout time.Duration) *Publisher {
	return &Publisher{
		broker:  broker,
		enabled: broker != nil,
		timeout: timeout,
	}
}

// NewDisabledPublisher creates a Publisher whose every publish is a successful no-op.
func NewDisabledPublisher() *Publisher {
	return &Publisher{}
}

// Enabled reports whether events reach a broker.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

// Publish encodes event as JSON and sends it to topic keyed by partitionKey.
func (p *Publisher) Publish(ctx context.Context, topic Topic, event any, partitionKey string) (result PublishResult) {
	if !p.enabled {
		return PublishResult{Success: true, Disabled: true}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[EVENTS] publish to %s panicked: %v", topic, r)
			result = PublishResult{Err: fmt.Errorf("publish panicked: %v", r)}
		}
	}()

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("[EVENTS] failed to encode event for %s: %v", topic, err)
		return PublishResult{Err: fmt.Errorf("encode event: %w", err)}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := p.broker.Publish(ctx, topic, partitionKey, body); err != nil {
		log.Printf("[EVENTS] failed to publish to %s key=%s: %v", topic, partitionKey, err)
		return PublishResult{Err: err}
	}

	return PublishResult{Success: true}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	if p.broker == nil {
		return nil
	}
	return p.broker.Close()
}
