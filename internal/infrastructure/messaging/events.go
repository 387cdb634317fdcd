package messaging

import "time"

const (
	AuditQueue      = "room_audit"
	DeadLetterQueue = "dead_letter_queue"
)

// RoomEventData is the cross-service payload for room lifecycle events.
// It carries denormalized fields rather than whole documents so audit
// consumers never depend on the room collection.
type RoomEventData struct {
	RoomCode  string    `json:"roomCode"`
	UserID    string    `json:"userId,omitempty"`
	Username  string    `json:"username,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	At        time.Time `json:"at"`
}
