package bus

import (
	"time"

	"github.com/hilthontt/retrochat/internal/domain"
)

type EventType string

const (
	MessageCreated     EventType = "message.created"
	UserJoined         EventType = "user.joined"
	UserLeft           EventType = "user.left"
	JoinRequestCreated EventType = "join_request.created"
	JoinRequestDecided EventType = "join_request.decided"
)

// Event is a committed state change fanned out to a room's subscribers.
// Addressee narrows delivery to one subscriber identity; empty means
// every subscriber of the room.
type Event struct {
	Type      EventType `json:"type"`
	RoomCode  string    `json:"roomCode"`
	Addressee string    `json:"-"`
	Payload   any       `json:"data"`
	At        time.Time `json:"at"`
}

type MessagePayload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Username  string    `json:"username"`
	Body      string    `json:"body"`
	IsSystem  bool      `json:"isSystem"`
	CreatedAt time.Time `json:"createdAt"`
}

type MemberPayload struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}

type RequestPayload struct {
	RequestID string    `json:"requestId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

type DecisionPayload struct {
	RequestID string `json:"requestId"`
	UserID    string `json:"userId"`
	Accepted  bool   `json:"accepted"`
}

func NewMessageCreated(msg *domain.Message) Event {
	return Event{
		Type:     MessageCreated,
		RoomCode: msg.RoomCode,
		Payload: MessagePayload{
			ID:        msg.ID,
			UserID:    msg.UserID,
			Username:  msg.Username,
			Body:      msg.Body,
			IsSystem:  msg.IsSystem,
			CreatedAt: msg.CreatedAt,
		},
		At: time.Now().UTC(),
	}
}

func NewUserJoined(m *domain.Membership) Event {
	return Event{
		Type:     UserJoined,
		RoomCode: m.RoomCode,
		Payload: MemberPayload{
			UserID:   m.UserID,
			Username: m.Username,
			JoinedAt: m.JoinedAt,
		},
		At: time.Now().UTC(),
	}
}

func NewUserLeft(roomCode, userID, username string) Event {
	return Event{
		Type:     UserLeft,
		RoomCode: roomCode,
		Payload: MemberPayload{
			UserID:   userID,
			Username: username,
		},
		At: time.Now().UTC(),
	}
}

func NewJoinRequestCreated(req *domain.JoinRequest) Event {
	return Event{
		Type:     JoinRequestCreated,
		RoomCode: req.RoomCode,
		Payload: RequestPayload{
			RequestID: req.ID,
			UserID:    req.UserID,
			Username:  req.Username,
			CreatedAt: req.CreatedAt,
		},
		At: time.Now().UTC(),
	}
}

// NewJoinRequestDecided is addressed to the requester only: other
// members must not see the outcome of somebody else's request.
func NewJoinRequestDecided(req *domain.JoinRequest, accepted bool) Event {
	return Event{
		Type:      JoinRequestDecided,
		RoomCode:  req.RoomCode,
		Addressee: req.UserID,
		Payload: DecisionPayload{
			RequestID: req.ID,
			UserID:    req.UserID,
			Accepted:  accepted,
		},
		At: time.Now().UTC(),
	}
}
