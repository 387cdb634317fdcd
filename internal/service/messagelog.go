package service

import (
	"context"

	"github.com/hilthontt/retrochat/internal/bus"
	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/infrastructure/events"
	"github.com/hilthontt/retrochat/internal/infrastructure/logging"
	"github.com/hilthontt/retrochat/internal/infrastructure/metrics"
	"github.com/hilthontt/retrochat/internal/infrastructure/profanity"
)

// MessageLog appends to and reads a room's append-only message log.
type MessageLog struct {
	rooms       domain.RoomRepository
	memberships domain.MembershipRepository
	messages    domain.MessageRepository
	filter      *profanity.Filter
	bus         *bus.Bus
	publisher   events.Publisher
	logger      logging.Logger
}

func NewMessageLog(
	rooms domain.RoomRepository,
	memberships domain.MembershipRepository,
	messages domain.MessageRepository,
	filter *profanity.Filter,
	eventBus *bus.Bus,
	publisher events.Publisher,
	logger logging.Logger,
) *MessageLog {
	return &MessageLog{
		rooms:       rooms,
		memberships: memberships,
		messages:    messages,
		filter:      filter,
		bus:         eventBus,
		publisher:   publisher,
		logger:      logger,
	}
}

// Append records a member's message. The sender must hold an active
// membership; the username on the message comes from the membership
// row, never from the request. The body is masked through the
// profanity filter before it is committed.
func (s *MessageLog) Append(ctx context.Context, roomCode, userID, body string) (*domain.Message, error) {
	room, err := s.rooms.GetByCode(ctx, roomCode)
	if err != nil {
		return nil, err
	}

	member, err := s.memberships.Get(ctx, room.Code, userID)
	if err != nil {
		return nil, err
	}
	if member.Status != domain.MemberActive {
		return nil, domain.ErrMemberNotFound
	}

	if s.filter != nil {
		body = s.filter.Mask(body)
	}

	msg, err := domain.NewMessage(room.Code, member.UserID, member.Username, body)
	if err != nil {
		return nil, err
	}

	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues("false").Inc()

	s.bus.Publish(bus.NewMessageCreated(msg))

	if err := s.publisher.PublishMessageSent(ctx, msg); err != nil {
		s.logger.Error(logging.Messages, logging.ExternalService, "failed to publish message sent", map[logging.ExtraKey]any{
			logging.RoomCode:     msg.RoomCode,
			logging.UserID:       msg.UserID,
			logging.ErrorMessage: err.Error(),
		})
	}

	return msg, nil
}

// History returns the room's full log, oldest first.
func (s *MessageLog) History(ctx context.Context, roomCode string) ([]domain.Message, error) {
	if _, err := s.rooms.GetByCode(ctx, roomCode); err != nil {
		return nil, err
	}
	return s.messages.ListByRoom(ctx, roomCode)
}
