package audit

import "time"

type auditEntryResponse struct {
	ID        string         `json:"id"`
	RoomCode  string         `json:"roomCode"`
	EventType string         `json:"eventType"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}
