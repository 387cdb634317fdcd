package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// Terminal reports whether no further transition is defined from s.
func (s RequestStatus) Terminal() bool {
	return s == RequestAccepted || s == RequestRejected
}

// JoinRequest is a host-arbitrated ask to join a room. The only legal
// transitions are pending→accepted and pending→rejected; decided rows
// are retained for audit but no longer actionable.
type JoinRequest struct {
	ID        string        `json:"id" bson:"_id"`
	RoomCode  string        `json:"roomCode" bson:"room_code"`
	UserID    string        `json:"userId" bson:"user_id"`
	Username  string        `json:"username" bson:"username"`
	Status    RequestStatus `json:"status" bson:"status"`
	CreatedAt time.Time     `json:"createdAt" bson:"created_at"`
}

// JoinRequestRepository owns JoinRequest rows.
type JoinRequestRepository interface {
	// Create persists a pending request. If a pending request already
	// exists for the same (roomCode, userID) it is returned instead of
	// inserting a duplicate.
	Create(ctx context.Context, req *JoinRequest) (*JoinRequest, error)
	GetByID(ctx context.Context, id string) (*JoinRequest, error)
	// Decide transitions pending→to as a compare-and-set on the current
	// status. ErrRequestNotFound if absent, ErrRequestNotPending if a
	// decision has already landed.
	Decide(ctx context.Context, id string, to RequestStatus) (*JoinRequest, error)
	// ListPending returns pending requests ordered by createdAt
	// descending, newest first, so hosts see fresh requests on top.
	ListPending(ctx context.Context, roomCode string) ([]JoinRequest, error)
}

func NewJoinRequest(roomCode, userID, rawUsername string) (*JoinRequest, error) {
	username, err := ValidUsername(rawUsername)
	if err != nil {
		return nil, err
	}

	return &JoinRequest{
		ID:        uuid.NewString(),
		RoomCode:  NormalizeCode(roomCode),
		UserID:    userID,
		Username:  username,
		Status:    RequestPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}
