package events

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// PartitionKeyHeader carries the partition key on every published message.
const PartitionKeyHeader = "partition-key"

// ErrBrokerClosed is returned when publishing on a closed broker.
var ErrBrokerClosed = errors.New("broker closed")

const (
	minReconnectDelay = time.Second
	maxReconnectDelay = 60 * time.Second
)

// AMQPBroker publishes to and consumes from one durable topic exchange. A
// background monitor redials the connection and reopens the publishing
// channel when either is closed by the server or the network.
type AMQPBroker struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel

	done      chan struct{}
	closeOnce sync.Once
}

var (
	_ Broker     = (*AMQPBroker)(nil)
	_ Subscriber = (*AMQPBroker)(nil)
)

// DialAMQP connects to RabbitMQ with exponential backoff and declares the exchange.
func DialAMQP(url, exchange string, retries int) (*AMQPBroker, error) {
	if retries < 1 {
		retries = 1
	}

	var (
		conn *amqp.Connection
		err  error
	)
	for i := 1; i <= retries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		log.Printf("[EVENTS] RabbitMQ connect attempt %d/%d failed: %v", i, retries, err)
		if i < retries {
			time.Sleep(time.Second * time.Duration(math.Pow(2, float64(i-1))))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ after retries: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareExchange(ch, exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	log.Printf("[EVENTS] connected to RabbitMQ, exchange=%s", exchange)
	b := &AMQPBroker{
		url:      url,
		exchange: exchange,
		conn:     conn,
		ch:       ch,
		done:     make(chan struct{}),
	}
	go b.monitor()
	return b, nil
}

// monitor waits for the connection or the publishing channel to close and
// restores them. A graceful close carries no error and ends the monitor.
func (b *AMQPBroker) monitor() {
	for {
		b.mu.Lock()
		conn, ch := b.conn, b.ch
		b.mu.Unlock()
		if conn == nil || ch == nil {
			return
		}

		connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
		chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-b.done:
			return
		case err := <-connClosed:
			if err == nil {
				return
			}
			log.Printf("[EVENTS] RabbitMQ connection lost: %v", err)
		case err := <-chClosed:
			if err == nil && conn.IsClosed() {
				return
			}
			log.Printf("[EVENTS] RabbitMQ publish channel lost: %v", err)
		}

		if !b.restore() {
			return
		}
	}
}

// restore retries reopen with exponential backoff until it succeeds or the
// broker is closed.
func (b *AMQPBroker) restore() bool {
	delay := minReconnectDelay
	for attempt := 1; ; attempt++ {
		select {
		case <-b.done:
			return false
		case <-time.After(delay):
		}

		err := b.reopen()
		if err == nil {
			log.Printf("[EVENTS] RabbitMQ restored after %d attempt(s)", attempt)
			return true
		}
		if errors.Is(err, ErrBrokerClosed) {
			return false
		}
		log.Printf("[EVENTS] RabbitMQ reconnect attempt %d failed: %v", attempt, err)
		delay = nextReconnectDelay(delay)
	}
}

func nextReconnectDelay(d time.Duration) time.Duration {
	return min(d*2, maxReconnectDelay)
}

// reopen redials when the connection is gone, then opens a new publishing
// channel and declares the exchange again.
func (b *AMQPBroker) reopen() error {
	if b.closed() {
		return ErrBrokerClosed
	}
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()

	redialed := false
	if conn == nil || conn.IsClosed() {
		var err error
		if conn, err = amqp.Dial(b.url); err != nil {
			return fmt.Errorf("failed to dial: %w", err)
		}
		redialed = true
	}

	ch, err := conn.Channel()
	if err != nil {
		if redialed {
			_ = conn.Close()
		}
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := declareExchange(ch, b.exchange); err != nil {
		_ = ch.Close()
		if redialed {
			_ = conn.Close()
		}
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed() {
		_ = ch.Close()
		if redialed {
			_ = conn.Close()
		}
		return ErrBrokerClosed
	}
	b.conn, b.ch = conn, ch
	return nil
}

func (b *AMQPBroker) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

func declareExchange(ch *amqp.Channel, exchange string) error {
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}

// Publish sends body to the exchange with topic as routing key.
func (b *AMQPBroker) Publish(ctx context.Context, topic Topic, key string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ch == nil {
		return ErrBrokerClosed
	}

	err := b.ch.PublishWithContext(ctx,
		b.exchange,    // exchange
		string(topic), // routing key
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    key,
			Timestamp:    time.Now(),
			Headers:      amqp.Table{PartitionKeyHeader: key},
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscribe declares the group's durable queue, binds it to every topic and
// starts consuming with manual acknowledgement.
func (b *AMQPBroker) Subscribe(ctx context.Context, group Group) (Subscription, error) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return nil, ErrBrokerClosed
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// One unacked message at a time keeps a group strictly sequential.
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	q, err := ch.QueueDeclare(
		group.ID,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", group.ID, err)
	}

	for _, topic := range group.Topics {
		if err := ch.QueueBind(q.Name, string(topic), b.exchange, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("failed to bind %s to %s: %w", q.Name, topic, err)
		}
	}

	consumerTag := group.ID + "-consumer"
	msgs, err := ch.ConsumeWithContext(ctx,
		q.Name,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to consume %s: %w", q.Name, err)
	}

	sub := &amqpSubscription{
		ch:          ch,
		consumerTag: consumerTag,
		out:         make(chan Delivery),
	}
	go sub.forward(msgs)

	log.Printf("[EVENTS] subscribed group=%s topics=%v", group.ID, group.Topics)
	return sub, nil
}

// Close stops the monitor and closes the publishing channel and the connection.
func (b *AMQPBroker) Close() error {
	b.closeOnce.Do(func() {
		if b.done != nil {
			close(b.done)
		}
	})

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ch != nil {
		_ = b.ch.Close()
		b.ch = nil
	}
	if conn := b.conn; conn != nil {
		b.conn = nil
		if !conn.IsClosed() {
			if err := conn.Close(); err != nil {
				return err
			}
		}
	}
	log.Println("[EVENTS] RabbitMQ connection closed")
	return nil
}

type amqpSubscription struct {
	ch          *amqp.Channel
	consumerTag string
	out         chan Delivery
	cancelOnce  sync.Once
}

func (s *amqpSubscription) Deliveries() <-chan Delivery {
	return s.out
}

func (s *amqpSubscription) forward(msgs <-chan amqp.Delivery) {
	defer close(s.out)
	for msg := range msgs {
		d := msg
		key := d.MessageId
		if v, ok := d.Headers[PartitionKeyHeader].(string); ok && v != "" {
			key = v
		}
		s.out <- Delivery{
			Topic: Topic(d.RoutingKey),
			Key:   key,
			Body:  d.Body,
			Ack:   func() error { return d.Ack(false) },
		}
	}
}

// Cancel stops new deliveries. Deliveries already received stay readable
// until the channel returned by Deliveries is closed.
func (s *amqpSubscription) Cancel() error {
	var err error
	s.cancelOnce.Do(func() {
		err = s.ch.Cancel(s.consumerTag, false)
	})
	return err
}

func (s *amqpSubscription) Close() error {
	_ = s.Cancel()
	return s.ch.Close()
}
