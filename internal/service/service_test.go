package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hilthontt/retrochat/internal/bus"
	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/infrastructure/events"
	"github.com/hilthontt/retrochat/internal/infrastructure/logging"
	"github.com/hilthontt/retrochat/internal/infrastructure/profanity"
	memstore "github.com/hilthontt/retrochat/internal/infrastructure/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store      *memstore.Store
	bus        *bus.Bus
	registry   *Registry
	membership *Membership
	messageLog *MessageLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.NewStore(0, 0)
	t.Cleanup(store.Close)

	eventBus := bus.New(64)
	publisher := events.NoOpPublisher{}
	logger := logging.NewNopLogger()

	return &fixture{
		store:    store,
		bus:      eventBus,
		registry: NewRegistry(store.Rooms(), domain.DefaultCodePolicy(), 5, publisher, logger),
		membership: NewMembership(
			store.Rooms(), store.Memberships(), store.JoinRequests(), store.Messages(),
			eventBus, publisher, logger,
		),
		messageLog: NewMessageLog(
			store.Rooms(), store.Memberships(), store.Messages(),
			profanity.NewFilter(), eventBus, publisher, logger,
		),
	}
}

func drainEvent(t *testing.T, sub *bus.Subscription) bus.Event {
	t.Helper()
	select {
	case evt, ok := <-sub.Events():
		require.True(t, ok, "event channel closed unexpectedly")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return bus.Event{}
	}
}

func TestCreateRoomSeatsHost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, host, err := f.registry.CreateRoom(ctx, "Lounge", "alice")
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Len(t, room.Code, domain.DefaultCodeLength)
	assert.Equal(t, "Lounge", room.Name)
	assert.Equal(t, room.HostUserID, host.UserID)
	assert.Equal(t, domain.MemberActive, host.Status)

	members, err := f.membership.ListActive(ctx, room.Code)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0].Username)

	// A fresh room has no history and no pending requests.
	history, err := f.messageLog.History(ctx, room.Code)
	require.NoError(t, err)
	assert.Empty(t, history)

	pending, err := f.membership.ListPending(ctx, room.Code)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCreateRoomRejectsInvalidName(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.registry.CreateRoom(context.Background(), "   ", "alice")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRequestJoinUnknownRoom(t *testing.T) {
	f := newFixture(t)

	_, err := f.membership.RequestJoin(context.Background(), "ZZZZZ", "bob")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRequestJoinMintsFreshIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, _, err := f.registry.CreateRoom(ctx, "Lounge", "alice")
	require.NoError(t, err)

	first, err := f.membership.RequestJoin(ctx, room.Code, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, first.Status)
	assert.NotEmpty(t, first.UserID)

	// Each attempt is anonymous, so a retry under the same name is a
	// distinct pending request.
	second, err := f.membership.RequestJoin(ctx, room.Code, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.UserID, second.UserID)

	pending, err := f.membership.ListPending(ctx, room.Code)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestAcceptFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, _, err := f.registry.CreateRoom(ctx, "Lounge", "alice")
	require.NoError(t, err)

	req, err := f.membership.RequestJoin(ctx, room.Code, "bob")
	require.NoError(t, err)

	sub := f.bus.Subscribe(room.Code, req.UserID)
	defer sub.Close()

	decided, err := f.membership.Decide(ctx, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestAccepted, decided.Status)

	// Decision first, then the roster change, then the announcement.
	evt := drainEvent(t, sub)
	assert.Equal(t, bus.JoinRequestDecided, evt.Type)
	assert.True(t, evt.Payload.(bus.DecisionPayload).Accepted)

	evt = drainEvent(t, sub)
	assert.Equal(t, bus.UserJoined, evt.Type)
	assert.Equal(t, "bob", evt.Payload.(bus.MemberPayload).Username)

	evt = drainEvent(t, sub)
	assert.Equal(t, bus.MessageCreated, evt.Type)
	msg := evt.Payload.(bus.MessagePayload)
	assert.True(t, msg.IsSystem)
	assert.Equal(t, "bob has joined the chat", msg.Body)

	members, err := f.membership.ListActive(ctx, room.Code)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].Username)
	assert.Equal(t, "bob", members[1].Username)

	history, err := f.messageLog.History(ctx, room.Code)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "bob has joined the chat", history[0].Body)
	assert.True(t, history[0].IsSystem)

	pending, err := f.membership.ListPending(ctx, room.Code)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDecideTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, _, err := f.registry.CreateRoom(ctx, "Lounge", "alice")
	require.NoError(t, err)

	req, err := f.membership.RequestJoin(ctx, room.Code, "bob")
	require.NoError(t, err)

	_, err = f.membership.Decide(ctx, req.ID, true)
	require.NoError(t, err)

	_, err = f.membership.Decide(ctx, req.ID, false)
	assert.ErrorIs(t, err, domain.ErrRequestNotPending)

	_, err = f.membership.Decide(ctx, "no-such-request", true)
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)
}

func TestRejectLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, _, err := f.registry.CreateRoom(ctx, "Lounge", "alice")
	require.NoError(t, err)

	req, err := f.membership.RequestJoin(ctx, room.Code, "bob")
	require.NoError(t, err)

	decided, err := f.membership.Decide(ctx, req.ID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, decided.Status)

	members, err := f.membership.ListActive(ctx, room.Code)
	require.NoError(t, err)
	assert.Len(t, members, 1, "rejection must not seat the requester")

	history, err := f.messageLog.History(ctx, room.Code)
	require.NoError(t, err)
	assert.Empty(t, history, "rejection must not announce anything")
}

func TestLeaveIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, host, err := f.registry.CreateRoom(ctx, "Lounge", "alice")
	require.NoError(t, err)

	require.NoError(t, f.membership.Leave(ctx, room.Code, host.UserID))

	history, err := f.messageLog.History(ctx, room.Code)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "alice has left the chat", history[0].Body)

	// Leaving again, or leaving without ever joining, adds nothing.
	require.NoError(t, f.membership.Leave(ctx, room.Code, host.UserID))
	require.NoError(t, f.membership.Leave(ctx, room.Code, "stranger"))

	history, err = f.messageLog.History(ctx, room.Code)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestAppendRequiresActiveMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, host, err := f.registry.CreateRoom(ctx, "Lounge", "alice")
	require.NoError(t, err)

	msg, err := f.messageLog.Append(ctx, room.Code, host.UserID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "alice", msg.Username, "username comes from the membership row")
	assert.False(t, msg.IsSystem)

	_, err = f.messageLog.Append(ctx, room.Code, "stranger", "hi")
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)

	require.NoError(t, f.membership.Leave(ctx, room.Code, host.UserID))
	_, err = f.messageLog.Append(ctx, room.Code, host.UserID, "still here?")
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
}

func TestAppendValidatesBody(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, host, err := f.registry.CreateRoom(ctx, "Lounge", "alice")
	require.NoError(t, err)

	_, err = f.messageLog.Append(ctx, room.Code, host.UserID, "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
}

func TestAppendMasksProfanity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, host, err := f.registry.CreateRoom(ctx, "Lounge", "alice")
	require.NoError(t, err)

	msg, err := f.messageLog.Append(ctx, room.Code, host.UserID, "well shit happens")
	require.NoError(t, err)
	assert.Equal(t, "well **** happens", msg.Body)
}

func TestHistoryUnknownRoom(t *testing.T) {
	f := newFixture(t)

	_, err := f.messageLog.History(context.Background(), "ZZZZZ")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestCreateRoomConcurrentCodesAreUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 20
	codes := make(chan string, n)
	errs := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			room, _, err := f.registry.CreateRoom(ctx, "Lounge", "alice")
			if err != nil {
				errs <- err
				return
			}
			codes <- room.Code
		}()
	}
	wg.Wait()
	close(codes)
	close(errs)

	for err := range errs {
		t.Errorf("concurrent create failed: %v", err)
	}

	seen := make(map[string]bool, n)
	for code := range codes {
		assert.False(t, seen[code], "code %s handed out twice", code)
		seen[code] = true
	}
	assert.Len(t, seen, n)
}

func TestDecideConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, _, err := f.registry.CreateRoom(ctx, "Lounge", "alice")
	require.NoError(t, err)

	req, err := f.membership.RequestJoin(ctx, room.Code, "bob")
	require.NoError(t, err)

	// Racing accepts and rejects on one request: exactly one decision
	// lands, the rest observe it already decided.
	const n = 16
	errs := make([]error, n)

	var start sync.WaitGroup
	start.Add(1)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			_, errs[i] = f.membership.Decide(ctx, req.ID, i%2 == 0)
		}(i)
	}
	start.Done()
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrRequestNotPending)
	}
	assert.Equal(t, 1, won, "exactly one decision must win")

	members, err := f.membership.ListActive(ctx, room.Code)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(members), 2)
}
