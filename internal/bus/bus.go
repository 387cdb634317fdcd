// Package bus is the in-process fan-out for room events. It delivers
// every published event, in publish order, to each subscriber of the
// affected room that is connected at emission time. It buffers but is
// not a source of truth: a consumer in doubt reconciles through the
// query operations and resubscribes.
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/infrastructure/metrics"
)

const defaultBuffer = 64

type Bus struct {
	mu     sync.Mutex
	rooms  map[string]*roomTopic
	buffer int
	nextID atomic.Uint64
}

type roomTopic struct {
	mu   sync.Mutex
	subs map[uint64]*Subscription
}

func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Bus{
		rooms:  make(map[string]*roomTopic),
		buffer: buffer,
	}
}

// Subscribe registers a subscriber for a room. userID scopes addressed
// events (join decisions); it may be empty for host-side listeners that
// only care about broadcast events.
func (b *Bus) Subscribe(roomCode, userID string) *Subscription {
	roomCode = domain.NormalizeCode(roomCode)

	sub := &Subscription{
		id:       b.nextID.Add(1),
		bus:      b,
		roomCode: roomCode,
		userID:   userID,
		events:   make(chan Event, b.buffer),
		done:     make(chan struct{}),
	}

	// Lock order is always bus then topic, so a topic emptied out by a
	// concurrent unsubscribe cannot be re-used after its removal.
	b.mu.Lock()
	topic, ok := b.rooms[roomCode]
	if !ok {
		topic = &roomTopic{subs: make(map[uint64]*Subscription)}
		b.rooms[roomCode] = topic
	}
	topic.mu.Lock()
	topic.subs[sub.id] = sub
	topic.mu.Unlock()
	b.mu.Unlock()

	metrics.BusSubscribers.Inc()
	return sub
}

// Publish fans the event out to the room's current subscribers. The
// topic lock serializes publishers, so every subscriber observes events
// in commit order. A subscriber that stopped draining its buffer is cut
// loose rather than allowed to stall the room or silently miss events;
// its closed stream tells the consumer to reconcile and resubscribe.
func (b *Bus) Publish(evt Event) {
	evt.RoomCode = domain.NormalizeCode(evt.RoomCode)
	metrics.BusEventsTotal.WithLabelValues(string(evt.Type)).Inc()

	b.mu.Lock()
	topic := b.rooms[evt.RoomCode]
	b.mu.Unlock()
	if topic == nil {
		return
	}

	topic.mu.Lock()
	defer topic.mu.Unlock()

	for id, sub := range topic.subs {
		if evt.Addressee != "" && sub.userID != evt.Addressee {
			continue
		}
		select {
		case sub.events <- evt:
		default:
			delete(topic.subs, id)
			sub.lagged.Store(true)
			close(sub.done)
			close(sub.events)
			metrics.BusSubscribers.Dec()
			metrics.BusDroppedSubscribers.Inc()
		}
	}
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	topic := b.rooms[sub.roomCode]
	if topic == nil {
		b.mu.Unlock()
		return
	}

	topic.mu.Lock()
	if _, ok := topic.subs[sub.id]; ok {
		delete(topic.subs, sub.id)
		close(sub.done)
		close(sub.events)
		metrics.BusSubscribers.Dec()
	}
	if len(topic.subs) == 0 {
		delete(b.rooms, sub.roomCode)
	}
	topic.mu.Unlock()
	b.mu.Unlock()
}

// Subscribers reports the current subscriber count for a room.
func (b *Bus) Subscribers(roomCode string) int {
	b.mu.Lock()
	topic := b.rooms[domain.NormalizeCode(roomCode)]
	b.mu.Unlock()
	if topic == nil {
		return 0
	}

	topic.mu.Lock()
	defer topic.mu.Unlock()
	return len(topic.subs)
}
