package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/hilthontt/retrochat/internal/infrastructure/validate"
)

type MemberStatus string

const (
	MemberActive MemberStatus = "active"
	MemberLeft   MemberStatus = "left"
)

// Membership is a user's standing within a room. Rows are soft-state:
// a member that leaves flips to MemberLeft and is never deleted, so
// message history can still name departed users.
type Membership struct {
	RoomCode string       `json:"roomCode" bson:"room_code"`
	UserID   string       `json:"userId" bson:"user_id"`
	Username string       `json:"username" bson:"username"`
	Status   MemberStatus `json:"status" bson:"status"`
	JoinedAt time.Time    `json:"joinedAt" bson:"joined_at"`
}

// MembershipRepository owns Membership rows, keyed by (roomCode, userID).
type MembershipRepository interface {
	// Upsert activates a membership, reactivating a left row for the
	// same (roomCode, userID) instead of duplicating it.
	Upsert(ctx context.Context, m *Membership) error
	Get(ctx context.Context, roomCode, userID string) (*Membership, error)
	// Deactivate flips an active membership to left. It reports whether
	// a row actually changed, so a second leave stays silent.
	Deactivate(ctx context.Context, roomCode, userID string) (bool, error)
	// ListActive returns active members ordered by joinedAt ascending.
	ListActive(ctx context.Context, roomCode string) ([]Membership, error)
}

func NewMembership(roomCode, userID, rawUsername string) (*Membership, error) {
	username, err := ValidUsername(rawUsername)
	if err != nil {
		return nil, err
	}

	return &Membership{
		RoomCode: NormalizeCode(roomCode),
		UserID:   userID,
		Username: username,
		Status:   MemberActive,
		JoinedAt: time.Now().UTC(),
	}, nil
}

// ValidUsername applies the shared username shape policy: non-empty
// after trimming and at most 50 characters, matching the reference
// client's input bounds.
func ValidUsername(raw string) (string, error) {
	validateUsername := validate.Compose(
		validate.Required(),
		validate.MaxLength(50),
	)
	if err := validateUsername(raw); err != nil {
		return "", fmt.Errorf("%w: username %v", ErrValidation, err)
	}
	return validate.Trim(raw), nil
}
