package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// memBus is an in-process Broker and Subscriber for tests.
type memBus struct {
	mu        sync.Mutex
	groups    map[string]*memSub
	published []published
	failWith  error
	acks      atomic.Int64

	subscribes atomic.Int32
	// failSubscribes makes that many upcoming Subscribe calls fail.
	failSubscribes atomic.Int32
}

type published struct {
	topic Topic
	key   string
	body  []byte
}

func newMemBus() *memBus {
	return &memBus{groups: make(map[string]*memSub)}
}

func (b *memBus) Publish(ctx context.Context, topic Topic, key string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	b.published = append(b.published, published{topic: topic, key: key, body: body})
	for _, sub := range b.groups {
		if sub.wants(topic) {
			sub.push(Delivery{Topic: topic, Key: key, Body: body, Ack: func() error {
				b.acks.Add(1)
				return nil
			}})
		}
	}
	return nil
}

func (b *memBus) Close() error { return nil }

func (b *memBus) Subscribe(ctx context.Context, group Group) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribes.Add(1)
	if b.failSubscribes.Load() > 0 {
		b.failSubscribes.Add(-1)
		return nil, errors.New("broker unavailable")
	}
	sub := &memSub{group: group, ch: make(chan Delivery, 64)}
	b.groups[group.ID] = sub
	return sub, nil
}

func (b *memBus) subscribed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.groups)
}

func (b *memBus) sub(groupID string) *memSub {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.groups[groupID]
}

// drop closes a group's delivery channel from the broker side, as a channel
// exception or connection loss would.
func (b *memBus) drop(groupID string) {
	if sub := b.sub(groupID); sub != nil {
		_ = sub.Cancel()
	}
}

func (b *memBus) messages() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]published, len(b.published))
	copy(out, b.published)
	return out
}

type memSub struct {
	group Group
	ch    chan Delivery

	mu        sync.Mutex
	cancelled bool
	closed    atomic.Bool
}

func (s *memSub) wants(topic Topic) bool {
	for _, t := range s.group.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

func (s *memSub) push(d Delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}
	s.ch <- d
}

func (s *memSub) Deliveries() <-chan Delivery { return s.ch }

func (s *memSub) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cancelled {
		s.cancelled = true
		close(s.ch)
	}
	return nil
}

func (s *memSub) Close() error {
	_ = s.Cancel()
	s.closed.Store(true)
	return nil
}
