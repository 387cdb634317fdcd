// Package ws bridges gateway subscriptions onto WebSocket connections.
// The server pulls the history snapshot after subscribing, so a client
// never has a gap between snapshot and live events; overlap is
// deduplicated client-side by message ID.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/hilthontt/retrochat/internal/bus"
	"github.com/hilthontt/retrochat/internal/gateway"
	"github.com/hilthontt/retrochat/internal/infrastructure/logging"
	"github.com/hilthontt/retrochat/internal/presentation/utils"
)

type Handler struct {
	gateway  *gateway.Gateway
	logger   logging.Logger
	upgrader websocket.Upgrader
}

func NewHandler(gw *gateway.Gateway, logger logging.Logger) *Handler {
	return &Handler{
		gateway: gw,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS is enforced at the HTTP layer; join codes gate rooms.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SubscribeHandler godoc
// @Summary      Subscribe to room events
// @Description  Upgrades to WebSocket, sends a history snapshot, then streams room events in commit order until the client disconnects
// @Tags         rooms
// @Param        code path string true "Room code"
// @Param        userId query string false "Identity for addressed events (join decisions)"
// @Success      101 "Switching Protocols"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Router       /rooms/{code}/subscribe [get]
func (h *Handler) SubscribeHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = utils.GetIdentityFromRequest(r)
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(logging.EventBus, logging.Subscription, "websocket upgrade failed", map[logging.ExtraKey]any{
			logging.RoomCode:     code,
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	conn := newConnWrapper(raw)

	// The request context dies when this handler returns, so the
	// subscription lives on its own context tied to the socket.
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := h.gateway.Subscribe(ctx, code, userID)
	if err != nil {
		_ = conn.WriteJSON(NewStreamError(code, "room not found"))
		_ = conn.Close()
		cancel()
		return
	}

	history, err := h.gateway.History(ctx, code)
	if err != nil {
		_ = conn.WriteJSON(NewStreamError(code, "failed to load history"))
		_ = conn.Close()
		cancel()
		return
	}
	if err := conn.WriteJSON(NewHistorySnapshot(code, history)); err != nil {
		_ = conn.Close()
		cancel()
		return
	}

	go h.readPump(raw, cancel)
	go h.writePump(conn, sub, code, cancel)
}

// readPump drains the connection for control frames; clients send no
// application messages on this socket. A read error of any kind tears
// the subscription down.
func (h *Handler) readPump(raw *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	_ = raw.SetReadDeadline(time.Now().Add(pongWait))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(pongWait))
	})
	raw.SetReadLimit(512)

	for {
		if _, _, err := raw.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump relays bus events onto the socket and keeps the connection
// alive with pings. When the event channel closes it distinguishes a
// clean shutdown from a lagged drop so the client knows whether to
// reconcile.
func (h *Handler) writePump(conn *connWrapper, sub *bus.Subscription, code string, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Close()
		cancel()
		_ = conn.Close()
	}()

	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				if sub.Lagged() {
					_ = conn.WriteJSON(NewStreamLagged(code))
				}
				return
			}
			if err := conn.WriteJSON(FromBusEvent(evt)); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				return
			}
		}
	}
}
