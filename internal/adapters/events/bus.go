package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/harborops/quayplan/internal/domain/shared"
)

// DefaultQueueDepth bounds each subscriber queue; past it the oldest events
// are dropped and a Lag marker is delivered.
const DefaultQueueDepth = 1024

// Subscription is one room-scoped event stream. Consume via Events();
// the bus closes the channel on Unsubscribe.
type Subscription struct {
	ID    string
	rooms map[string]struct{}

	mu      sync.Mutex
	queue   []Event
	dropped int
	notify  chan struct{}
	out     chan Event
	done    chan struct{}
	depth   int
}

// Events returns the subscriber's ordered event stream
func (s *Subscription) Events() <-chan Event {
	return s.out
}

func (s *Subscription) inRoom(rooms []string) bool {
	for _, r := range rooms {
		if _, ok := s.rooms[r]; ok {
			return true
		}
	}
	return false
}

// push enqueues without ever blocking the publisher
func (s *Subscription) push(e Event) {
	s.mu.Lock()
	if len(s.queue) >= s.depth {
		s.queue = s.queue[1:]
		s.dropped++
	}
	s.queue = append(s.queue, e)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// pump drains the queue into the outbound channel, emitting a Lag marker
// ahead of the remaining events whenever drops occurred.
func (s *Subscription) pump(clock shared.Clock) {
	defer close(s.out)
	for {
		select {
		case <-s.done:
			return
		case <-s.notify:
		}
		for {
			s.mu.Lock()
			if s.dropped > 0 {
				n := s.dropped
				s.dropped = 0
				s.mu.Unlock()
				select {
				case s.out <- Event{Type: TypeLag, Payload: LagPayload{Dropped: n}, TS: clock.Now()}:
				case <-s.done:
					return
				}
				continue
			}
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			e := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			select {
			case s.out <- e:
			case <-s.done:
				return
			}
		}
	}
}

// Bus is the process-wide publish/subscribe fan-out. Per room, events are
// delivered in publish order; there is no cross-room ordering guarantee.
type Bus struct {
	mu    sync.RWMutex
	subs  map[string]*Subscription
	depth int
	clock shared.Clock
	// onDrop is invoked per dropped event, for metrics
	onDrop func()
}

// NewBus creates a bus with the given per-subscriber queue depth
func NewBus(depth int, clock shared.Clock) *Bus {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Bus{subs: make(map[string]*Subscription), depth: depth, clock: clock}
}

// SetDropHook registers a callback fired when a subscriber loses an event
func (b *Bus) SetDropHook(fn func()) {
	b.onDrop = fn
}

// Subscribe joins the given rooms and starts the delivery pump
func (b *Bus) Subscribe(rooms ...string) *Subscription {
	sub := &Subscription{
		ID:     uuid.NewString(),
		rooms:  make(map[string]struct{}, len(rooms)),
		notify: make(chan struct{}, 1),
		out:    make(chan Event),
		done:   make(chan struct{}),
		depth:  b.depth,
	}
	for _, r := range rooms {
		sub.rooms[r] = struct{}{}
	}
	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.mu.Unlock()
	go sub.pump(b.clock)
	return sub
}

// Join adds rooms to an existing subscription
func (b *Bus) Join(sub *Subscription, rooms ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range rooms {
		sub.rooms[r] = struct{}{}
	}
}

// Leave removes rooms from an existing subscription
func (b *Bus) Leave(sub *Subscription, rooms ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range rooms {
		delete(sub.rooms, r)
	}
}

// Unsubscribe detaches the subscription and closes its stream
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	_, ok := b.subs[sub.ID]
	delete(b.subs, sub.ID)
	b.mu.Unlock()
	if ok {
		close(sub.done)
	}
}

// Publish fans the event out to every subscription in any of the rooms.
// Publishers never block on slow subscribers.
func (b *Bus) Publish(t Type, payload interface{}, rooms ...string) {
	e := Event{Type: t, Payload: payload, TS: b.clock.Now()}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !sub.inRoom(rooms) {
			continue
		}
		before := sub.dropCount()
		sub.push(e)
		if b.onDrop != nil && sub.dropCount() > before {
			b.onDrop()
		}
	}
}

// SubscriberCount returns the number of active subscriptions
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (s *Subscription) dropCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
