// Package gateway is the single surface a presentation layer consumes.
// It composes the registry, membership manager, message log and event
// bus, translates every failure into the gateway error taxonomy, and
// absorbs transient store hiccups on read paths with bounded retries.
package gateway

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/hilthontt/retrochat/internal/bus"
	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/infrastructure/logging"
	"github.com/hilthontt/retrochat/internal/service"
)

const maxReadRetries = 3

type Gateway struct {
	registry   *service.Registry
	membership *service.Membership
	messageLog *service.MessageLog
	bus        *bus.Bus
	logger     logging.Logger
}

func New(
	registry *service.Registry,
	membership *service.Membership,
	messageLog *service.MessageLog,
	eventBus *bus.Bus,
	logger logging.Logger,
) *Gateway {
	return &Gateway{
		registry:   registry,
		membership: membership,
		messageLog: messageLog,
		bus:        eventBus,
		logger:     logger,
	}
}

// retryRead retries op with exponential backoff while failures classify
// as Unavailable. Domain outcomes (NotFound and friends) are permanent:
// retrying them only delays the answer.
func retryRead[T any](ctx context.Context, op func() (T, error)) (T, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxReadRetries),
		ctx,
	)

	return backoff.RetryWithData(func() (T, error) {
		v, err := op()
		if err != nil && classify(err).Kind != Unavailable {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, policy)
}

// CreateRoom provisions a room and its host membership in one step.
// The returned membership carries the host's minted identity.
func (g *Gateway) CreateRoom(ctx context.Context, roomName, hostUsername string) (*domain.Room, *domain.Membership, error) {
	room, host, err := g.registry.CreateRoom(ctx, roomName, hostUsername)
	if err != nil {
		return nil, nil, classify(err)
	}
	return room, host, nil
}

func (g *Gateway) GetRoom(ctx context.Context, code string) (*domain.Room, error) {
	room, err := retryRead(ctx, func() (*domain.Room, error) {
		return g.registry.GetRoom(ctx, code)
	})
	if err != nil {
		return nil, classify(err)
	}
	return room, nil
}

func (g *Gateway) RequestToJoin(ctx context.Context, roomCode, username string) (*domain.JoinRequest, error) {
	req, err := g.membership.RequestJoin(ctx, roomCode, username)
	if err != nil {
		return nil, classify(err)
	}
	return req, nil
}

func (g *Gateway) DecideJoinRequest(ctx context.Context, requestID string, accept bool) (*domain.JoinRequest, error) {
	req, err := g.membership.Decide(ctx, requestID, accept)
	if err != nil {
		return nil, classify(err)
	}
	return req, nil
}

func (g *Gateway) SendMessage(ctx context.Context, roomCode, userID, body string) (*domain.Message, error) {
	msg, err := g.messageLog.Append(ctx, roomCode, userID, body)
	if err != nil {
		return nil, classify(err)
	}
	return msg, nil
}

func (g *Gateway) LeaveRoom(ctx context.Context, roomCode, userID string) error {
	if err := g.membership.Leave(ctx, roomCode, userID); err != nil {
		return classify(err)
	}
	return nil
}

func (g *Gateway) History(ctx context.Context, roomCode string) ([]domain.Message, error) {
	history, err := retryRead(ctx, func() ([]domain.Message, error) {
		return g.messageLog.History(ctx, roomCode)
	})
	if err != nil {
		return nil, classify(err)
	}
	return history, nil
}

func (g *Gateway) ListActiveMembers(ctx context.Context, roomCode string) ([]domain.Membership, error) {
	members, err := retryRead(ctx, func() ([]domain.Membership, error) {
		return g.membership.ListActive(ctx, roomCode)
	})
	if err != nil {
		return nil, classify(err)
	}
	return members, nil
}

func (g *Gateway) ListPendingRequests(ctx context.Context, roomCode string) ([]domain.JoinRequest, error) {
	pending, err := retryRead(ctx, func() ([]domain.JoinRequest, error) {
		return g.membership.ListPending(ctx, roomCode)
	})
	if err != nil {
		return nil, classify(err)
	}
	return pending, nil
}

// Subscribe opens an ordered event stream for a live room. The
// subscription is tied to ctx: cancellation closes the stream and
// releases its resources. userID scopes addressed events and may be
// empty for listeners that only want broadcasts.
func (g *Gateway) Subscribe(ctx context.Context, roomCode, userID string) (*bus.Subscription, error) {
	if _, err := g.GetRoom(ctx, roomCode); err != nil {
		return nil, err
	}

	sub := g.bus.Subscribe(roomCode, userID)

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.Done():
		}
	}()

	g.logger.Debug(logging.EventBus, logging.Subscription, "subscription opened", map[logging.ExtraKey]any{
		logging.RoomCode: roomCode,
		logging.UserID:   userID,
	})

	return sub, nil
}
