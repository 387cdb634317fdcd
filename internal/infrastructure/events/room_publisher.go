// Package events bridges committed room changes onto the message
// broker so out-of-process consumers (the audit trail) hear about them
// without coupling to the in-process bus.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/infrastructure/contracts"
	"github.com/hilthontt/retrochat/internal/infrastructure/messaging"
)

// Publisher emits room lifecycle events. Implementations must be safe
// for concurrent use; failures are the caller's to log, never to
// surface to the client, because broadcasting is best-effort.
type Publisher interface {
	PublishRoomCreated(ctx context.Context, room *domain.Room) error
	PublishJoinRequested(ctx context.Context, req *domain.JoinRequest) error
	PublishJoinDecided(ctx context.Context, req *domain.JoinRequest, accepted bool) error
	PublishMemberLeft(ctx context.Context, roomCode, userID, username string) error
	PublishMessageSent(ctx context.Context, msg *domain.Message) error
}

type RoomPublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewRoomPublisher(rabbitmq *messaging.RabbitMQ) *RoomPublisher {
	return &RoomPublisher{
		rabbitmq: rabbitmq,
	}
}

func (p *RoomPublisher) publish(ctx context.Context, routingKey string, data messaging.RoomEventData) error {
	if data.At.IsZero() {
		data.At = time.Now().UTC()
	}

	eventJSON, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return p.rabbitmq.PublishMessage(ctx, routingKey, contracts.AmqpMessage{
		RoomCode: data.RoomCode,
		Data:     eventJSON,
	})
}

func (p *RoomPublisher) PublishRoomCreated(ctx context.Context, room *domain.Room) error {
	return p.publish(ctx, contracts.EventRoomCreated, messaging.RoomEventData{
		RoomCode: room.Code,
		UserID:   room.HostUserID,
		At:       room.CreatedAt,
	})
}

func (p *RoomPublisher) PublishJoinRequested(ctx context.Context, req *domain.JoinRequest) error {
	return p.publish(ctx, contracts.EventJoinRequested, messaging.RoomEventData{
		RoomCode:  req.RoomCode,
		UserID:    req.UserID,
		Username:  req.Username,
		RequestID: req.ID,
		At:        req.CreatedAt,
	})
}

func (p *RoomPublisher) PublishJoinDecided(ctx context.Context, req *domain.JoinRequest, accepted bool) error {
	routingKey := contracts.EventJoinRejected
	if accepted {
		routingKey = contracts.EventJoinAccepted
	}

	return p.publish(ctx, routingKey, messaging.RoomEventData{
		RoomCode:  req.RoomCode,
		UserID:    req.UserID,
		Username:  req.Username,
		RequestID: req.ID,
	})
}

func (p *RoomPublisher) PublishMemberLeft(ctx context.Context, roomCode, userID, username string) error {
	return p.publish(ctx, contracts.EventMemberLeft, messaging.RoomEventData{
		RoomCode: roomCode,
		UserID:   userID,
		Username: username,
	})
}

func (p *RoomPublisher) PublishMessageSent(ctx context.Context, msg *domain.Message) error {
	return p.publish(ctx, contracts.EventMessageSent, messaging.RoomEventData{
		RoomCode:  msg.RoomCode,
		UserID:    msg.UserID,
		Username:  msg.Username,
		MessageID: msg.ID,
		At:        msg.CreatedAt,
	})
}

// NoOpPublisher stands in when messaging is disabled.
type NoOpPublisher struct{}

func (NoOpPublisher) PublishRoomCreated(context.Context, *domain.Room) error { return nil }

func (NoOpPublisher) PublishJoinRequested(context.Context, *domain.JoinRequest) error { return nil }

func (NoOpPublisher) PublishJoinDecided(context.Context, *domain.JoinRequest, bool) error {
	return nil
}

func (NoOpPublisher) PublishMemberLeft(context.Context, string, string, string) error { return nil }

func (NoOpPublisher) PublishMessageSent(context.Context, *domain.Message) error { return nil }
