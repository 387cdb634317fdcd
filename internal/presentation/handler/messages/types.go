package messages

import "time"

// createMessageRequest represents the request to send a message
type createMessageRequest struct {
	UserID string `json:"userId"`                                                    // Sender identity; falls back to header/cookie
	Body   string `json:"body" example:"hello" minLength:"1" maxLength:"2000"`       // Message content
}

// messageResponse represents one log entry
type messageResponse struct {
	ID        string    `json:"id"`
	RoomCode  string    `json:"roomCode"`
	UserID    string    `json:"userId,omitempty"` // Empty for system messages
	Username  string    `json:"username"`
	Body      string    `json:"body"`
	IsSystem  bool      `json:"isSystem"`
	CreatedAt time.Time `json:"createdAt"`
}
