package bus

import "sync/atomic"

// Subscription is a cancellable, ordered stream of one room's events.
// The Events channel closes when the subscription ends, either by
// Close or because the bus dropped a subscriber that stopped draining;
// Lagged distinguishes the two so the consumer knows to reconcile.
type Subscription struct {
	id       uint64
	bus      *Bus
	roomCode string
	userID   string
	events   chan Event
	done     chan struct{}
	lagged   atomic.Bool
}

func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Done closes when the subscription has ended, without consuming events.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Lagged reports whether the bus cut this subscriber loose for not
// draining its buffer. The consumer must re-query room state before
// resubscribing.
func (s *Subscription) Lagged() bool {
	return s.lagged.Load()
}

// Close unsubscribes. No further events are delivered afterwards and
// all per-subscription resources are released. Safe to call twice.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s)
}
