package repository

import (
	"context"
	"testing"
	"time"

	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoom(t *testing.T, code, name, hostID string) (*domain.Room, *domain.Membership) {
	t.Helper()

	room, err := domain.NewRoom(code, name, hostID)
	require.NoError(t, err)

	host, err := domain.NewMembership(code, hostID, "host")
	require.NoError(t, err)

	return room, host
}

func TestRoomCreateAndGet(t *testing.T) {
	store := NewStore(0, 0)
	defer store.Close()
	ctx := context.Background()

	room, host := newTestRoom(t, "KX7PQ", "Lounge", "host-id")
	require.NoError(t, store.Rooms().Create(ctx, room, host))

	got, err := store.Rooms().GetByCode(ctx, "kx7pq")
	require.NoError(t, err)
	assert.Equal(t, "KX7PQ", got.Code)
	assert.Equal(t, "Lounge", got.Name)
	assert.Equal(t, "host-id", got.HostUserID)

	// Creating a room also seeds the host's active membership.
	m, err := store.Memberships().Get(ctx, "KX7PQ", "host-id")
	require.NoError(t, err)
	assert.Equal(t, domain.MemberActive, m.Status)
}

func TestRoomCreateRejectsTakenCode(t *testing.T) {
	store := NewStore(0, 0)
	defer store.Close()
	ctx := context.Background()

	room, host := newTestRoom(t, "KX7PQ", "Lounge", "host-id")
	require.NoError(t, store.Rooms().Create(ctx, room, host))

	dupe, dupeHost := newTestRoom(t, "KX7PQ", "Other", "other-id")
	err := store.Rooms().Create(ctx, dupe, dupeHost)
	assert.ErrorIs(t, err, domain.ErrRoomCodeTaken)
}

func TestRoomCreateHonorsCapacity(t *testing.T) {
	store := NewStore(2, 0)
	defer store.Close()
	ctx := context.Background()

	for _, code := range []string{"AAAAA", "BBBBB"} {
		room, host := newTestRoom(t, code, "Lounge", "host-id")
		require.NoError(t, store.Rooms().Create(ctx, room, host))
	}

	room, host := newTestRoom(t, "CCCCC", "Lounge", "host-id")
	err := store.Rooms().Create(ctx, room, host)
	assert.ErrorIs(t, err, domain.ErrCapacityExhausted)
}

func TestRoomExpiresAfterTTL(t *testing.T) {
	store := NewStore(0, 10*time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	room, host := newTestRoom(t, "KX7PQ", "Lounge", "host-id")
	require.NoError(t, store.Rooms().Create(ctx, room, host))

	time.Sleep(25 * time.Millisecond)

	// Reads check liveness themselves, the background reaper only
	// reclaims memory.
	_, err := store.Rooms().GetByCode(ctx, "KX7PQ")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	// An expired room no longer blocks its code or counts against
	// capacity.
	again, againHost := newTestRoom(t, "KX7PQ", "Lounge", "host2-id")
	assert.NoError(t, store.Rooms().Create(ctx, again, againHost))
}

func TestRoomCreateClearsDeadRoomRows(t *testing.T) {
	store := NewStore(0, 10*time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	room, host := newTestRoom(t, "KX7PQ", "Lounge", "host-id")
	require.NoError(t, store.Rooms().Create(ctx, room, host))

	msg, err := domain.NewMessage("KX7PQ", host.UserID, "host", "old room chatter")
	require.NoError(t, err)
	require.NoError(t, store.Messages().Append(ctx, msg))

	req, err := domain.NewJoinRequest("KX7PQ", "u1", "bob")
	require.NoError(t, err)
	_, err = store.JoinRequests().Create(ctx, req)
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)

	// Reusing the code before the reaper runs must not carry the dead
	// room's history or pending requests into the new room.
	fresh, freshHost := newTestRoom(t, "KX7PQ", "Lounge", "host2-id")
	require.NoError(t, store.Rooms().Create(ctx, fresh, freshHost))

	history, err := store.Messages().ListByRoom(ctx, "KX7PQ")
	require.NoError(t, err)
	assert.Empty(t, history)

	pending, err := store.JoinRequests().ListPending(ctx, "KX7PQ")
	require.NoError(t, err)
	assert.Empty(t, pending)

	members, err := store.Memberships().ListActive(ctx, "KX7PQ")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "host2-id", members[0].UserID)
}

func TestMembershipUpsertReactivates(t *testing.T) {
	store := NewStore(0, 0)
	defer store.Close()
	ctx := context.Background()

	m, err := domain.NewMembership("KX7PQ", "u1", "bob")
	require.NoError(t, err)
	require.NoError(t, store.Memberships().Upsert(ctx, m))

	changed, err := store.Memberships().Deactivate(ctx, "KX7PQ", "u1")
	require.NoError(t, err)
	assert.True(t, changed)

	// Second leave is silent.
	changed, err = store.Memberships().Deactivate(ctx, "KX7PQ", "u1")
	require.NoError(t, err)
	assert.False(t, changed)

	// Leaving a room never joined is silent too.
	changed, err = store.Memberships().Deactivate(ctx, "KX7PQ", "stranger")
	require.NoError(t, err)
	assert.False(t, changed)

	// Re-joining flips the same row back to active.
	rejoined, err := domain.NewMembership("KX7PQ", "u1", "bob")
	require.NoError(t, err)
	require.NoError(t, store.Memberships().Upsert(ctx, rejoined))

	got, err := store.Memberships().Get(ctx, "KX7PQ", "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.MemberActive, got.Status)
}

func TestListActiveOrdersByJoinTime(t *testing.T) {
	store := NewStore(0, 0)
	defer store.Close()
	ctx := context.Background()

	base := time.Now().UTC()
	rows := []domain.Membership{
		{RoomCode: "KX7PQ", UserID: "u3", Username: "carol", Status: domain.MemberActive, JoinedAt: base.Add(2 * time.Second)},
		{RoomCode: "KX7PQ", UserID: "u1", Username: "alice", Status: domain.MemberActive, JoinedAt: base},
		{RoomCode: "KX7PQ", UserID: "u2", Username: "bob", Status: domain.MemberLeft, JoinedAt: base.Add(time.Second)},
	}
	for i := range rows {
		require.NoError(t, store.Memberships().Upsert(ctx, &rows[i]))
	}

	active, err := store.Memberships().ListActive(ctx, "kx7pq")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "alice", active[0].Username)
	assert.Equal(t, "carol", active[1].Username)
}

func TestJoinRequestCreateDeduplicatesPending(t *testing.T) {
	store := NewStore(0, 0)
	defer store.Close()
	ctx := context.Background()

	first, err := domain.NewJoinRequest("KX7PQ", "u1", "bob")
	require.NoError(t, err)
	created, err := store.JoinRequests().Create(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first.ID, created.ID)

	second, err := domain.NewJoinRequest("KX7PQ", "u1", "bob")
	require.NoError(t, err)
	dedup, err := store.JoinRequests().Create(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, dedup.ID, "second create must return the existing pending request")

	// A decided request no longer blocks a fresh one.
	_, err = store.JoinRequests().Decide(ctx, first.ID, domain.RequestRejected)
	require.NoError(t, err)

	third, err := domain.NewJoinRequest("KX7PQ", "u1", "bob")
	require.NoError(t, err)
	fresh, err := store.JoinRequests().Create(ctx, third)
	require.NoError(t, err)
	assert.Equal(t, third.ID, fresh.ID)
}

func TestJoinRequestDecideIsCompareAndSet(t *testing.T) {
	store := NewStore(0, 0)
	defer store.Close()
	ctx := context.Background()

	req, err := domain.NewJoinRequest("KX7PQ", "u1", "bob")
	require.NoError(t, err)
	_, err = store.JoinRequests().Create(ctx, req)
	require.NoError(t, err)

	decided, err := store.JoinRequests().Decide(ctx, req.ID, domain.RequestAccepted)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestAccepted, decided.Status)

	_, err = store.JoinRequests().Decide(ctx, req.ID, domain.RequestRejected)
	assert.ErrorIs(t, err, domain.ErrRequestNotPending)

	_, err = store.JoinRequests().Decide(ctx, "no-such-id", domain.RequestAccepted)
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)
}

func TestListPendingNewestFirst(t *testing.T) {
	store := NewStore(0, 0)
	defer store.Close()
	ctx := context.Background()

	base := time.Now().UTC()
	reqs := []domain.JoinRequest{
		{ID: "r1", RoomCode: "KX7PQ", UserID: "u1", Username: "alice", Status: domain.RequestPending, CreatedAt: base},
		{ID: "r2", RoomCode: "KX7PQ", UserID: "u2", Username: "bob", Status: domain.RequestPending, CreatedAt: base.Add(time.Second)},
		{ID: "r3", RoomCode: "KX7PQ", UserID: "u3", Username: "carol", Status: domain.RequestRejected, CreatedAt: base.Add(2 * time.Second)},
	}
	for i := range reqs {
		_, err := store.JoinRequests().Create(ctx, &reqs[i])
		require.NoError(t, err)
	}

	pending, err := store.JoinRequests().ListPending(ctx, "KX7PQ")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "r2", pending[0].ID)
	assert.Equal(t, "r1", pending[1].ID)
}

func TestMessagesOrderedAscending(t *testing.T) {
	store := NewStore(0, 0)
	defer store.Close()
	ctx := context.Background()

	base := time.Now().UTC()
	msgs := []domain.Message{
		{ID: "m2", RoomCode: "KX7PQ", Username: "bob", Body: "second", CreatedAt: base.Add(time.Second)},
		{ID: "m1", RoomCode: "KX7PQ", Username: "alice", Body: "first", CreatedAt: base},
		{ID: "m3", RoomCode: "KX7PQ", Username: "carol", Body: "third", CreatedAt: base.Add(2 * time.Second)},
	}
	for i := range msgs {
		require.NoError(t, store.Messages().Append(ctx, &msgs[i]))
	}

	history, err := store.Messages().ListByRoom(ctx, "kx7pq")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "first", history[0].Body)
	assert.Equal(t, "second", history[1].Body)
	assert.Equal(t, "third", history[2].Body)
}
