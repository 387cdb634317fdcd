package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hilthontt/retrochat/internal/infrastructure/validate"
)

// Message is an append-only log entry. System messages carry no UserID
// and are synthesized on membership transitions.
type Message struct {
	ID        string    `json:"id" bson:"_id"`
	RoomCode  string    `json:"roomCode" bson:"room_code"`
	UserID    string    `json:"userId,omitempty" bson:"user_id,omitempty"`
	Username  string    `json:"username" bson:"username"`
	Body      string    `json:"body" bson:"body"`
	IsSystem  bool      `json:"isSystem" bson:"is_system"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// MessageRepository owns Message rows. Messages are never mutated or
// deleted once appended.
type MessageRepository interface {
	Append(ctx context.Context, msg *Message) error
	// ListByRoom returns the full history ordered by createdAt
	// ascending, ties broken by id so every reader sees the same order.
	ListByRoom(ctx context.Context, roomCode string) ([]Message, error)
}

func NewMessage(roomCode, userID, rawUsername, body string) (*Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}
	if err := validate.MaxLength(2000)(body); err != nil {
		return nil, fmt.Errorf("%w: message body %v", ErrValidation, err)
	}

	username, err := ValidUsername(rawUsername)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        uuid.NewString(),
		RoomCode:  NormalizeCode(roomCode),
		UserID:    userID,
		Username:  username,
		Body:      body,
		IsSystem:  false,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewSystemMessage bypasses body validation: bodies are synthesized by
// the membership manager, never user input.
func NewSystemMessage(roomCode, body string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		RoomCode:  NormalizeCode(roomCode),
		Body:      body,
		IsSystem:  true,
		CreatedAt: time.Now().UTC(),
	}
}

// Announcement bodies the reference client renders verbatim.
func JoinAnnouncement(username string) string {
	return fmt.Sprintf("%s has joined the chat", username)
}

func LeaveAnnouncement(username string) string {
	return fmt.Sprintf("%s has left the chat", username)
}
