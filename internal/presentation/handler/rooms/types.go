package rooms

import "time"

// createRoomRequest represents the request to create a new chat room
type createRoomRequest struct {
	Name     string `json:"name" example:"Friday Lounge" minLength:"1" maxLength:"50"` // Display name of the room
	Username string `json:"username" example:"alice" minLength:"1" maxLength:"50"`     // Username of the host
}

// createRoomResponse represents the response after creating a room
type createRoomResponse struct {
	Code       string    `json:"code" example:"KX7PQ"`                     // Short join code of the room
	Name       string    `json:"name" example:"Friday Lounge"`             // Display name of the room
	HostUserID string    `json:"hostUserId"`                               // Minted identity of the host
	CreatedAt  time.Time `json:"createdAt" example:"2024-01-01T12:00:00Z"` // Room creation timestamp
}

// roomResponse represents room details
type roomResponse struct {
	Code       string    `json:"code" example:"KX7PQ"`
	Name       string    `json:"name" example:"Friday Lounge"`
	HostUserID string    `json:"hostUserId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// joinRoomRequest represents the request to join a room
type joinRoomRequest struct {
	Username string `json:"username" example:"bob" minLength:"1" maxLength:"50"` // Username to join with
}

// joinRequestResponse represents a join request
type joinRequestResponse struct {
	ID        string    `json:"id"`
	RoomCode  string    `json:"roomCode"`
	UserID    string    `json:"userId"` // Minted identity for this attempt
	Username  string    `json:"username"`
	Status    string    `json:"status" enum:"pending,accepted,rejected"`
	CreatedAt time.Time `json:"createdAt"`
}

// decideRequest represents the host's verdict on a join request
type decideRequest struct {
	Accept bool `json:"accept" example:"true"` // true accepts, false rejects
}

// leaveRoomRequest represents the request to leave a room
type leaveRoomRequest struct {
	UserID string `json:"userId"` // Identity to deactivate; falls back to header/cookie
}

// memberResponse represents an active room member
type memberResponse struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}
