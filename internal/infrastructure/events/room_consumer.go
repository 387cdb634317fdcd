package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/infrastructure/contracts"
	"github.com/hilthontt/retrochat/internal/infrastructure/messaging"
	"github.com/rabbitmq/amqp091-go"
)

// routingKeyEvents maps broker routing keys to audit event types.
var routingKeyEvents = map[string]domain.RoomEventType{
	contracts.EventRoomCreated:   domain.AuditRoomCreated,
	contracts.EventJoinRequested: domain.AuditJoinRequested,
	contracts.EventJoinAccepted:  domain.AuditJoinAccepted,
	contracts.EventJoinRejected:  domain.AuditJoinRejected,
	contracts.EventMemberLeft:    domain.AuditMemberLeft,
	contracts.EventMessageSent:   domain.AuditMessageSent,
}

type roomConsumer struct {
	rabbitmq        *messaging.RabbitMQ
	auditRepository domain.RoomAuditRepository
}

func NewRoomConsumer(rabbitmq *messaging.RabbitMQ, auditRepository domain.RoomAuditRepository) *roomConsumer {
	return &roomConsumer{
		rabbitmq:        rabbitmq,
		auditRepository: auditRepository,
	}
}

func (c *roomConsumer) Listen() error {
	return c.rabbitmq.ConsumeMessages(messaging.AuditQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		var message contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &message); err != nil {
			log.Printf("Failed to unmarshal message: %v", err)
			return err
		}

		var payload messaging.RoomEventData
		if err := json.Unmarshal(message.Data, &payload); err != nil {
			log.Printf("Failed to unmarshal event data: %v", err)
			return err
		}

		eventType, ok := routingKeyEvents[msg.RoutingKey]
		if !ok {
			// Unknown routing keys are dropped, not dead-lettered: a newer
			// publisher may emit events this consumer does not audit yet.
			log.Printf("Ignoring unknown routing key %q", msg.RoutingKey)
			return nil
		}

		metadata := map[string]any{}
		if payload.UserID != "" {
			metadata["user_id"] = payload.UserID
		}
		if payload.Username != "" {
			metadata["username"] = payload.Username
		}
		if payload.RequestID != "" {
			metadata["request_id"] = payload.RequestID
		}
		if payload.MessageID != "" {
			metadata["message_id"] = payload.MessageID
		}

		entry := domain.NewRoomAuditLog(payload.RoomCode, eventType, metadata)
		if !payload.At.IsZero() {
			entry.Timestamp = payload.At
		}

		return c.auditRepository.Log(ctx, entry)
	})
}
