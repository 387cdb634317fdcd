package bus

import (
	"testing"
	"time"

	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case evt, ok := <-sub.Events():
		require.True(t, ok, "event channel closed unexpectedly")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublishDeliversInOrder(t *testing.T) {
	b := New(16)
	sub := b.Subscribe("KX7PQ", "u1")
	defer sub.Close()

	msgs := []*domain.Message{
		domain.NewSystemMessage("KX7PQ", "one"),
		domain.NewSystemMessage("KX7PQ", "two"),
		domain.NewSystemMessage("KX7PQ", "three"),
	}
	for _, m := range msgs {
		b.Publish(NewMessageCreated(m))
	}

	for _, m := range msgs {
		evt := recvEvent(t, sub)
		assert.Equal(t, MessageCreated, evt.Type)
		assert.Equal(t, m.Body, evt.Payload.(MessagePayload).Body)
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	b := New(16)
	subs := []*Subscription{
		b.Subscribe("KX7PQ", "u1"),
		b.Subscribe("KX7PQ", "u2"),
		b.Subscribe("kx7pq", ""), // code lookup is case-insensitive
	}
	for _, s := range subs {
		defer s.Close()
	}

	other := b.Subscribe("ZZZZZ", "u9")
	defer other.Close()

	b.Publish(NewMessageCreated(domain.NewSystemMessage("KX7PQ", "hello")))

	for _, s := range subs {
		evt := recvEvent(t, s)
		assert.Equal(t, "KX7PQ", evt.RoomCode)
	}

	select {
	case evt := <-other.Events():
		t.Fatalf("subscriber of another room received %v", evt.Type)
	default:
	}
}

func TestAddressedEventReachesOnlyAddressee(t *testing.T) {
	b := New(16)
	requester := b.Subscribe("KX7PQ", "bob-id")
	bystander := b.Subscribe("KX7PQ", "eve-id")
	defer requester.Close()
	defer bystander.Close()

	req := &domain.JoinRequest{
		ID:       "r1",
		RoomCode: "KX7PQ",
		UserID:   "bob-id",
		Username: "bob",
		Status:   domain.RequestAccepted,
	}
	b.Publish(NewJoinRequestDecided(req, true))

	evt := recvEvent(t, requester)
	assert.Equal(t, JoinRequestDecided, evt.Type)
	assert.True(t, evt.Payload.(DecisionPayload).Accepted)

	select {
	case evt := <-bystander.Events():
		t.Fatalf("bystander received addressed event %v", evt.Type)
	default:
	}
}

func TestCloseReleasesSubscription(t *testing.T) {
	b := New(16)
	sub := b.Subscribe("KX7PQ", "u1")

	require.Equal(t, 1, b.Subscribers("KX7PQ"))

	sub.Close()
	sub.Close() // safe to call twice

	assert.Equal(t, 0, b.Subscribers("KX7PQ"))

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "events channel must be closed")
	default:
		t.Fatal("events channel still open after Close")
	}

	// Publishing to a room with no subscribers is a no-op.
	b.Publish(NewMessageCreated(domain.NewSystemMessage("KX7PQ", "late")))
	assert.False(t, sub.Lagged())
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	b := New(1)
	slow := b.Subscribe("KX7PQ", "u1")
	fast := b.Subscribe("KX7PQ", "u2")
	defer fast.Close()

	// First event fills slow's buffer; second overflows it.
	b.Publish(NewMessageCreated(domain.NewSystemMessage("KX7PQ", "one")))
	b.Publish(NewMessageCreated(domain.NewSystemMessage("KX7PQ", "two")))

	select {
	case <-slow.Done():
	case <-time.After(time.Second):
		t.Fatal("slow subscriber was not dropped")
	}
	assert.True(t, slow.Lagged())
	assert.Equal(t, 1, b.Subscribers("KX7PQ"))

	// The draining subscriber still sees everything.
	assert.Equal(t, "one", recvEvent(t, fast).Payload.(MessagePayload).Body)
	assert.Equal(t, "two", recvEvent(t, fast).Payload.(MessagePayload).Body)
}

func TestSubscribersCount(t *testing.T) {
	b := New(16)
	assert.Equal(t, 0, b.Subscribers("KX7PQ"))

	s1 := b.Subscribe("KX7PQ", "u1")
	s2 := b.Subscribe("KX7PQ", "u2")
	assert.Equal(t, 2, b.Subscribers("KX7PQ"))

	s1.Close()
	assert.Equal(t, 1, b.Subscribers("KX7PQ"))
	s2.Close()
	assert.Equal(t, 0, b.Subscribers("KX7PQ"))
}
