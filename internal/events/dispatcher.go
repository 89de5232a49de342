package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Message is a decoded delivery handed to a Handler.
type Message struct {
	Topic     Topic
	Key       string
	EventType string
	Timestamp time.Time
	Body      []byte
}

// Decode unmarshals the message body into v.
func (m Message) Decode(v any) error {
	return json.Unmarshal(m.Body, v)
}

// Handler processes one message. Returned errors are logged and the
// message is still acknowledged.
type Handler func(ctx context.Context, msg Message) error

const maxRetryDelay = 30 * time.Second

type route struct {
	topic     Topic
	eventType string
}

// Dispatcher routes consumed messages to handlers by (topic, eventType).
type Dispatcher struct {
	sub    Subscriber
	groups []Group
	nrApp  *newrelic.Application

	// retryDelay is the first backoff step when reopening a lost subscription.
	retryDelay time.Duration

	mu       sync.RWMutex
	handlers map[route]Handler
}

// NewDispatcher creates a Dispatcher over the given consumer groups.
// nrApp may be nil.
func NewDispatcher(sub Subscriber, groups []Group, nrApp *newrelic.Application) *Dispatcher {
	return &Dispatcher{
		sub:        sub,
		groups:     groups,
		nrApp:      nrApp,
		retryDelay: time.Second,
		handlers:   make(map[route]Handler),
	}
}

// Handle registers h for eventType on topic, replacing any previous handler.
func (d *Dispatcher) Handle(topic Topic, eventType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[route{topic: topic, eventType: eventType}] = h
}

func (d *Dispatcher) handler(topic Topic, eventType string) (Handler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[route{topic: topic, eventType: eventType}]
	return h, ok
}

// Run subscribes every group and processes deliveries until ctx is
// cancelled. Each group is consumed sequentially by its own goroutine. On
// cancellation every subscription is cancelled, drained and closed before
// Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	subs := make([]Subscription, 0, len(d.groups))
	for _, g := range d.groups {
		sub, err := d.sub.Subscribe(ctx, g)
		if err != nil {
			for _, s := range subs {
				_ = s.Close()
			}
			return fmt.Errorf("subscribe %s: %w", g.ID, err)
		}
		subs = append(subs, sub)
	}

	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(group Group, sub Subscription) {
			defer wg.Done()
			d.consume(ctx, group, sub)
		}(d.groups[i], sub)
	}

	log.Printf("[DISPATCH] running %d consumer groups", len(subs))
	wg.Wait()
	log.Println("[DISPATCH] all consumer groups stopped")
	return nil
}

// consume processes a group until ctx is cancelled. A subscription the
// broker drops while ctx is live is reopened with backoff.
func (d *Dispatcher) consume(ctx context.Context, group Group, sub Subscription) {
	for {
		if !d.consumeSubscription(ctx, group, sub) {
			return
		}
		if sub = d.resubscribe(ctx, group); sub == nil {
			return
		}
	}
}

// consumeSubscription reports true when the subscription was lost while ctx
// was still live.
func (d *Dispatcher) consumeSubscription(ctx context.Context, group Group, sub Subscription) bool {
	deliveries := sub.Deliveries()
	for {
		select {
		case del, ok := <-deliveries:
			if !ok {
				_ = sub.Close()
				if ctx.Err() != nil {
					return false
				}
				log.Printf("[DISPATCH] group=%s subscription lost", group.ID)
				return true
			}
			d.process(ctx, group.ID, del)
		case <-ctx.Done():
			log.Printf("[DISPATCH] group=%s draining", group.ID)
			if err := sub.Cancel(); err != nil {
				log.Printf("[DISPATCH] group=%s cancel failed: %v", group.ID, err)
			}
			// Handlers still get a live context while draining.
			drainCtx := context.WithoutCancel(ctx)
			for del := range deliveries {
				d.process(drainCtx, group.ID, del)
			}
			if err := sub.Close(); err != nil {
				log.Printf("[DISPATCH] group=%s close failed: %v", group.ID, err)
			}
			log.Printf("[DISPATCH] group=%s disconnected", group.ID)
			return false
		}
	}
}

// resubscribe retries Subscribe with exponential backoff. It returns nil once
// ctx is cancelled.
func (d *Dispatcher) resubscribe(ctx context.Context, group Group) Subscription {
	delay := d.retryDelay
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		sub, err := d.sub.Subscribe(ctx, group)
		if err == nil {
			log.Printf("[DISPATCH] group=%s resubscribed after %d attempt(s)", group.ID, attempt)
			return sub
		}
		log.Printf("[DISPATCH] group=%s resubscribe attempt %d failed: %v", group.ID, attempt, err)
		delay = min(delay*2, maxRetryDelay)
	}
}

// process handles a single delivery and always acknowledges it.
func (d *Dispatcher) process(ctx context.Context, groupID string, del Delivery) {
	defer func() {
		if del.Ack == nil {
			return
		}
		if err := del.Ack(); err != nil {
			log.Printf("[DISPATCH] group=%s ack failed on %s: %v", groupID, del.Topic, err)
		}
	}()

	var env Envelope
	if err := json.Unmarshal(del.Body, &env); err != nil {
		log.Printf("[DISPATCH] group=%s invalid JSON on %s: %v", groupID, del.Topic, err)
		return
	}

	h, ok := d.handler(del.Topic, env.EventType)
	if !ok {
		log.Printf("[DISPATCH] group=%s no handler for %s/%s", groupID, del.Topic, env.EventType)
		return
	}

	txn := d.nrApp.StartTransaction("consume/" + string(del.Topic))
	defer txn.End()
	txn.AddAttribute("group", groupID)
	txn.AddAttribute("eventType", env.EventType)
	txn.AddAttribute("partitionKey", del.Key)

	msg := Message{
		Topic:     del.Topic,
		Key:       del.Key,
		EventType: env.EventType,
		Timestamp: env.Timestamp,
		Body:      del.Body,
	}

	if err := safeCall(newrelic.NewContext(ctx, txn), h, msg); err != nil {
		txn.NoticeError(err)
		log.Printf("[DISPATCH] group=%s handler %s/%s key=%s failed: %v", groupID, del.Topic, env.EventType, del.Key, err)
	}
}

func safeCall(ctx context.Context, h Handler, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(ctx, msg)
}
