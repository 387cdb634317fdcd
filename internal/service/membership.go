package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/hilthontt/retrochat/internal/bus"
	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/infrastructure/events"
	"github.com/hilthontt/retrochat/internal/infrastructure/logging"
	"github.com/hilthontt/retrochat/internal/infrastructure/metrics"
)

// Membership arbitrates who is in a room: join requests, host
// decisions, leaves and the roster.
type Membership struct {
	rooms       domain.RoomRepository
	memberships domain.MembershipRepository
	requests    domain.JoinRequestRepository
	messages    domain.MessageRepository
	bus         *bus.Bus
	publisher   events.Publisher
	logger      logging.Logger
}

func NewMembership(
	rooms domain.RoomRepository,
	memberships domain.MembershipRepository,
	requests domain.JoinRequestRepository,
	messages domain.MessageRepository,
	eventBus *bus.Bus,
	publisher events.Publisher,
	logger logging.Logger,
) *Membership {
	return &Membership{
		rooms:       rooms,
		memberships: memberships,
		requests:    requests,
		messages:    messages,
		bus:         eventBus,
		publisher:   publisher,
		logger:      logger,
	}
}

// RequestJoin files a pending join request for a fresh identity. Every
// call mints a new identity, mirroring the reference client where each
// join attempt is anonymous until accepted.
func (s *Membership) RequestJoin(ctx context.Context, roomCode, username string) (*domain.JoinRequest, error) {
	room, err := s.rooms.GetByCode(ctx, roomCode)
	if err != nil {
		return nil, err
	}

	req, err := domain.NewJoinRequest(room.Code, domain.NewIdentity(), username)
	if err != nil {
		return nil, err
	}

	created, err := s.requests.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(bus.NewJoinRequestCreated(created))

	if err := s.publisher.PublishJoinRequested(ctx, created); err != nil {
		s.logger.Error(logging.Membership, logging.ExternalService, "failed to publish join requested", map[logging.ExtraKey]any{
			logging.RoomCode:     created.RoomCode,
			logging.ErrorMessage: err.Error(),
		})
	}

	return created, nil
}

// Decide lands the host's verdict on a pending request. The transition
// is a compare-and-set, so of two racing decisions exactly one wins and
// the loser sees ErrRequestNotPending. Acceptance activates the
// membership, appends the join announcement and fans both out; the
// decision event itself is addressed to the requester alone.
func (s *Membership) Decide(ctx context.Context, requestID string, accept bool) (*domain.JoinRequest, error) {
	to := domain.RequestRejected
	if accept {
		to = domain.RequestAccepted
	}

	req, err := s.requests.Decide(ctx, requestID, to)
	if err != nil {
		return nil, err
	}

	s.logger.Info(logging.Membership, logging.Arbitration, "join request decided", map[logging.ExtraKey]any{
		logging.RoomCode:     req.RoomCode,
		logging.UserID:       req.UserID,
		logging.RequestIDKey: req.ID,
		logging.Decision:     strconv.FormatBool(accept),
	})

	if !accept {
		s.bus.Publish(bus.NewJoinRequestDecided(req, false))
		s.publishDecision(ctx, req, false)
		return req, nil
	}

	member, err := domain.NewMembership(req.RoomCode, req.UserID, req.Username)
	if err != nil {
		return nil, err
	}
	if err := s.memberships.Upsert(ctx, member); err != nil {
		return nil, err
	}

	announcement := domain.NewSystemMessage(req.RoomCode, domain.JoinAnnouncement(req.Username))
	if err := s.messages.Append(ctx, announcement); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues("true").Inc()

	s.bus.Publish(bus.NewJoinRequestDecided(req, true))
	s.bus.Publish(bus.NewUserJoined(member))
	s.bus.Publish(bus.NewMessageCreated(announcement))

	s.publishDecision(ctx, req, true)

	return req, nil
}

// Leave deactivates a membership. It is idempotent: leaving twice, or
// leaving a room never joined, changes nothing and raises no error, and
// the announcement fires only on the first leave.
func (s *Membership) Leave(ctx context.Context, roomCode, userID string) error {
	member, err := s.memberships.Get(ctx, roomCode, userID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil
		}
		return err
	}

	changed, err := s.memberships.Deactivate(ctx, roomCode, userID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	announcement := domain.NewSystemMessage(member.RoomCode, domain.LeaveAnnouncement(member.Username))
	if err := s.messages.Append(ctx, announcement); err != nil {
		return err
	}
	metrics.MessagesTotal.WithLabelValues("true").Inc()

	s.bus.Publish(bus.NewUserLeft(member.RoomCode, member.UserID, member.Username))
	s.bus.Publish(bus.NewMessageCreated(announcement))

	if err := s.publisher.PublishMemberLeft(ctx, member.RoomCode, member.UserID, member.Username); err != nil {
		s.logger.Error(logging.Membership, logging.ExternalService, "failed to publish member left", map[logging.ExtraKey]any{
			logging.RoomCode:     member.RoomCode,
			logging.UserID:       member.UserID,
			logging.ErrorMessage: err.Error(),
		})
	}

	return nil
}

// ListActive returns the room's current roster, oldest joiner first.
func (s *Membership) ListActive(ctx context.Context, roomCode string) ([]domain.Membership, error) {
	if _, err := s.rooms.GetByCode(ctx, roomCode); err != nil {
		return nil, err
	}
	return s.memberships.ListActive(ctx, roomCode)
}

// ListPending returns the room's undecided join requests, newest first.
func (s *Membership) ListPending(ctx context.Context, roomCode string) ([]domain.JoinRequest, error) {
	if _, err := s.rooms.GetByCode(ctx, roomCode); err != nil {
		return nil, err
	}
	return s.requests.ListPending(ctx, roomCode)
}

func (s *Membership) publishDecision(ctx context.Context, req *domain.JoinRequest, accepted bool) {
	if err := s.publisher.PublishJoinDecided(ctx, req, accepted); err != nil {
		s.logger.Error(logging.Membership, logging.ExternalService, "failed to publish join decision", map[logging.ExtraKey]any{
			logging.RoomCode:     req.RoomCode,
			logging.UserID:       req.UserID,
			logging.ErrorMessage: err.Error(),
		})
	}
}
