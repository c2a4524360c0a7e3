// Package bus is an in-process publish/subscribe primitive with one named
// channel per lobby. Delivery is FIFO for a single publisher; nothing is
// guaranteed across publishers or after a subscriber falls behind.
package bus

import (
	"sync"

	"github.com/studyparty/backend/internal/protocol"
)

// subscriberBuffer bounds how far a subscriber may lag before it is dropped.
const subscriberBuffer = 16

type Bus struct {
	mu       sync.RWMutex
	channels map[string]*channel
}

type channel struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

type Subscription struct {
	bus  *Bus
	name string
	ch   chan protocol.Event
	once sync.Once
}

func New() *Bus {
	return &Bus{channels: make(map[string]*channel)}
}

// Subscribe registers a new subscriber on the named channel, creating the
// channel if it does not exist yet.
func (b *Bus) Subscribe(name string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.channels[name]
	if !ok {
		c = &channel{subs: make(map[*Subscription]struct{})}
		b.channels[name] = c
	}
	s := &Subscription{bus: b, name: name, ch: make(chan protocol.Event, subscriberBuffer)}
	c.mu.Lock()
	c.subs[s] = struct{}{}
	c.mu.Unlock()
	return s
}

// Publish fans the event out to every current subscriber of the channel.
// A subscriber whose buffer is full is dropped rather than blocking the
// publisher. Publishing to a channel with no subscribers is a no-op.
func (b *Bus) Publish(name string, ev protocol.Event) {
	b.mu.RLock()
	c := b.channels[name]
	b.mu.RUnlock()
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for s := range c.subs {
		select {
		case s.ch <- ev:
		default:
			// Subscriber is slow/full - drop it.
			delete(c.subs, s)
			s.closeCh()
		}
	}
}

// DropChannel closes every subscription on the channel and forgets it.
// Subscribers drain whatever is buffered, then observe the closed stream.
func (b *Bus) DropChannel(name string) {
	b.mu.Lock()
	c := b.channels[name]
	delete(b.channels, name)
	b.mu.Unlock()
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for s := range c.subs {
		delete(c.subs, s)
		s.closeCh()
	}
}

// Events is the subscriber's stream. It is closed when the subscription is
// closed, the channel is dropped, or the subscriber fell too far behind.
func (s *Subscription) Events() <-chan protocol.Event { return s.ch }

// Close detaches the subscription from its channel. Safe to call more than
// once and concurrently with Publish.
func (s *Subscription) Close() {
	b := s.bus
	b.mu.Lock()
	c := b.channels[s.name]
	if c != nil {
		c.mu.Lock()
		delete(c.subs, s)
		if len(c.subs) == 0 {
			delete(b.channels, s.name)
		}
		c.mu.Unlock()
	}
	b.mu.Unlock()
	s.closeCh()
}

func (s *Subscription) closeCh() {
	s.once.Do(func() { close(s.ch) })
}
