package ws

import (
	"time"

	"github.com/hilthontt/retrochat/internal/bus"
	"github.com/hilthontt/retrochat/internal/domain"
)

// Envelope is the wire frame every WebSocket client receives. Live bus
// events pass through with their own type; the snapshot and stream
// control frames use the types below.
type Envelope struct {
	Type     string    `json:"type"`
	RoomCode string    `json:"roomCode"`
	Data     any       `json:"data,omitempty"`
	At       time.Time `json:"at"`
}

const (
	HistorySnapshot = "history.snapshot"
	StreamLagged    = "stream.lagged"
	StreamError     = "stream.error"
)

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Retry   bool   `json:"retry,omitempty"`
}

// NewHistorySnapshot carries the full log at subscribe time. Clients
// render it first and then apply live events on top; duplicates across
// the boundary are resolved by message ID.
func NewHistorySnapshot(roomCode string, history []domain.Message) *Envelope {
	return &Envelope{
		Type:     HistorySnapshot,
		RoomCode: roomCode,
		Data:     history,
		At:       time.Now().UTC(),
	}
}

// NewStreamLagged tells a client it was cut loose for not draining its
// buffer and must re-pull state before resubscribing.
func NewStreamLagged(roomCode string) *Envelope {
	return &Envelope{
		Type:     StreamLagged,
		RoomCode: roomCode,
		Data: ErrorPayload{
			Code:    "lagged",
			Message: "event stream lagged, re-query and resubscribe",
			Retry:   true,
		},
		At: time.Now().UTC(),
	}
}

func NewStreamError(roomCode, message string) *Envelope {
	return &Envelope{
		Type:     StreamError,
		RoomCode: roomCode,
		Data: ErrorPayload{
			Message: message,
		},
		At: time.Now().UTC(),
	}
}

// FromBusEvent reframes a bus event for the wire.
func FromBusEvent(evt bus.Event) *Envelope {
	return &Envelope{
		Type:     string(evt.Type),
		RoomCode: evt.RoomCode,
		Data:     evt.Payload,
		At:       evt.At,
	}
}
