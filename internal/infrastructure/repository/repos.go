package repository

import (
	"context"
	"sort"
	"time"

	"github.com/hilthontt/retrochat/internal/domain"
)

type roomRepo struct {
	store *Store
}

func (r *roomRepo) Create(ctx context.Context, room *domain.Room, host *domain.Membership) error {
	now := time.Now()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.capacity > 0 {
		live := uint(0)
		for _, existing := range r.store.rooms {
			if !r.store.expired(existing, now) {
				live++
			}
		}
		if live >= r.store.capacity {
			return domain.ErrCapacityExhausted
		}
	}

	if r.store.liveRoom(room.Code, now) != nil {
		return domain.ErrRoomCodeTaken
	}

	// A dead room may still own rows under this code if the reaper has
	// not run yet; clear them so its history and pending requests do
	// not bleed into the new room.
	delete(r.store.messages, room.Code)
	for id, req := range r.store.requests {
		if req.RoomCode == room.Code {
			delete(r.store.requests, id)
		}
	}

	roomCopy := *room
	r.store.rooms[room.Code] = &roomCopy

	hostCopy := *host
	r.store.memberships[room.Code] = map[string]*domain.Membership{
		host.UserID: &hostCopy,
	}

	return nil
}

func (r *roomRepo) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	code = domain.NormalizeCode(code)

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	room := r.store.liveRoom(code, time.Now())
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}

	roomCopy := *room
	return &roomCopy, nil
}

type membershipRepo struct {
	store *Store
}

func (r *membershipRepo) Upsert(ctx context.Context, m *domain.Membership) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	byUser, ok := r.store.memberships[m.RoomCode]
	if !ok {
		byUser = make(map[string]*domain.Membership)
		r.store.memberships[m.RoomCode] = byUser
	}

	mCopy := *m
	byUser[m.UserID] = &mCopy
	return nil
}

func (r *membershipRepo) Get(ctx context.Context, roomCode, userID string) (*domain.Membership, error) {
	roomCode = domain.NormalizeCode(roomCode)

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	m, ok := r.store.memberships[roomCode][userID]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}

	mCopy := *m
	return &mCopy, nil
}

func (r *membershipRepo) Deactivate(ctx context.Context, roomCode, userID string) (bool, error) {
	roomCode = domain.NormalizeCode(roomCode)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	m, ok := r.store.memberships[roomCode][userID]
	if !ok || m.Status != domain.MemberActive {
		return false, nil
	}

	m.Status = domain.MemberLeft
	return true, nil
}

func (r *membershipRepo) ListActive(ctx context.Context, roomCode string) ([]domain.Membership, error) {
	roomCode = domain.NormalizeCode(roomCode)

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	members := make([]domain.Membership, 0)
	for _, m := range r.store.memberships[roomCode] {
		if m.Status == domain.MemberActive {
			members = append(members, *m)
		}
	}

	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].UserID < members[j].UserID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})

	return members, nil
}

type joinRequestRepo struct {
	store *Store
}

func (r *joinRequestRepo) Create(ctx context.Context, req *domain.JoinRequest) (*domain.JoinRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.requests {
		if existing.RoomCode == req.RoomCode &&
			existing.UserID == req.UserID &&
			existing.Status == domain.RequestPending {
			existingCopy := *existing
			return &existingCopy, nil
		}
	}

	reqCopy := *req
	r.store.requests[req.ID] = &reqCopy
	return req, nil
}

func (r *joinRequestRepo) GetByID(ctx context.Context, id string) (*domain.JoinRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	req, ok := r.store.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}

	reqCopy := *req
	return &reqCopy, nil
}

func (r *joinRequestRepo) Decide(ctx context.Context, id string, to domain.RequestStatus) (*domain.JoinRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	req, ok := r.store.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	if req.Status != domain.RequestPending {
		return nil, domain.ErrRequestNotPending
	}

	req.Status = to
	reqCopy := *req
	return &reqCopy, nil
}

func (r *joinRequestRepo) ListPending(ctx context.Context, roomCode string) ([]domain.JoinRequest, error) {
	roomCode = domain.NormalizeCode(roomCode)

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	pending := make([]domain.JoinRequest, 0)
	for _, req := range r.store.requests {
		if req.RoomCode == roomCode && req.Status == domain.RequestPending {
			pending = append(pending, *req)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID > pending[j].ID
		}
		return pending[i].CreatedAt.After(pending[j].CreatedAt)
	})

	return pending, nil
}

type messageRepo struct {
	store *Store
}

func (r *messageRepo) Append(ctx context.Context, msg *domain.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.messages[msg.RoomCode] = append(r.store.messages[msg.RoomCode], *msg)
	return nil
}

func (r *messageRepo) ListByRoom(ctx context.Context, roomCode string) ([]domain.Message, error) {
	roomCode = domain.NormalizeCode(roomCode)

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored := r.store.messages[roomCode]
	history := make([]domain.Message, len(stored))
	copy(history, stored)

	sort.SliceStable(history, func(i, j int) bool {
		if history[i].CreatedAt.Equal(history[j].CreatedAt) {
			return history[i].ID < history[j].ID
		}
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})

	return history, nil
}
