// Package service holds the application services behind the session
// gateway: the room registry, the membership manager and the message
// log. Services own write ordering; committed changes are announced on
// the in-process bus and mirrored to the broker publisher.
package service

import (
	"context"
	"errors"

	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/infrastructure/events"
	"github.com/hilthontt/retrochat/internal/infrastructure/logging"
	"github.com/hilthontt/retrochat/internal/infrastructure/metrics"
)

// Registry creates rooms and resolves codes to live rooms.
type Registry struct {
	rooms     domain.RoomRepository
	policy    domain.CodePolicy
	attempts  int
	publisher events.Publisher
	logger    logging.Logger
}

func NewRegistry(
	rooms domain.RoomRepository,
	policy domain.CodePolicy,
	attempts int,
	publisher events.Publisher,
	logger logging.Logger,
) *Registry {
	if attempts <= 0 {
		attempts = 5
	}

	return &Registry{
		rooms:     rooms,
		policy:    policy,
		attempts:  attempts,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateRoom mints a host identity, draws a code and persists the room
// together with the host's membership. Code collisions are retried a
// bounded number of times; exhausting the budget means the code space
// is effectively saturated.
func (s *Registry) CreateRoom(ctx context.Context, roomName, hostUsername string) (*domain.Room, *domain.Membership, error) {
	hostUserID := domain.NewIdentity()

	for attempt := 0; attempt < s.attempts; attempt++ {
		code, err := s.policy.Generate()
		if err != nil {
			return nil, nil, err
		}

		room, err := domain.NewRoom(code, roomName, hostUserID)
		if err != nil {
			return nil, nil, err
		}

		host, err := domain.NewMembership(code, hostUserID, hostUsername)
		if err != nil {
			return nil, nil, err
		}

		if err := s.rooms.Create(ctx, room, host); err != nil {
			if errors.Is(err, domain.ErrRoomCodeTaken) {
				s.logger.Warn(logging.Rooms, logging.CodeAllocation, "room code collision, retrying", map[logging.ExtraKey]any{
					logging.RoomCode: code,
				})
				continue
			}
			return nil, nil, err
		}

		metrics.RoomsCreatedTotal.Inc()

		if err := s.publisher.PublishRoomCreated(ctx, room); err != nil {
			s.logger.Error(logging.Rooms, logging.ExternalService, "failed to publish room created", map[logging.ExtraKey]any{
				logging.RoomCode:     room.Code,
				logging.ErrorMessage: err.Error(),
			})
		}

		return room, host, nil
	}

	return nil, nil, domain.ErrCapacityExhausted
}

// GetRoom resolves a code to a live room.
func (s *Registry) GetRoom(ctx context.Context, code string) (*domain.Room, error) {
	return s.rooms.GetByCode(ctx, code)
}
