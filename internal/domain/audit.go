package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RoomEventType string

const (
	AuditRoomCreated   RoomEventType = "room_created"
	AuditJoinRequested RoomEventType = "join_requested"
	AuditJoinAccepted  RoomEventType = "join_accepted"
	AuditJoinRejected  RoomEventType = "join_rejected"
	AuditMemberLeft    RoomEventType = "member_left"
	AuditMessageSent   RoomEventType = "message_sent"
)

type RoomAuditLog struct {
	ID        string         `bson:"_id" json:"id"`
	RoomCode  string         `bson:"room_code" json:"roomCode"`
	EventType RoomEventType  `bson:"event_type" json:"eventType"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Metadata  map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type RoomAuditRepository interface {
	Log(ctx context.Context, log *RoomAuditLog) error
	GetByRoomCode(ctx context.Context, roomCode string, limit int) ([]RoomAuditLog, error)
	GetByEventType(ctx context.Context, eventType RoomEventType, from, to time.Time) ([]RoomAuditLog, error)
	DeleteOlderThan(ctx context.Context, before time.Time) error
	EnsureIndexes(ctx context.Context) error
}

func NewRoomAuditLog(roomCode string, eventType RoomEventType, metadata map[string]any) *RoomAuditLog {
	return &RoomAuditLog{
		ID:        uuid.NewString(),
		RoomCode:  NormalizeCode(roomCode),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}
