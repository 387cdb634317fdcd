package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/hilthontt/retrochat/internal/infrastructure/validate"
)

type Room struct {
	Code       string    `json:"code" bson:"_id"`
	Name       string    `json:"name" bson:"name"`
	HostUserID string    `json:"hostUserId" bson:"host_user_id"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
}

// RoomRepository owns Room rows. Create persists the room together with
// the host's active membership: either both become visible or neither.
type RoomRepository interface {
	Create(ctx context.Context, room *Room, host *Membership) error
	GetByCode(ctx context.Context, code string) (*Room, error)
}

// NewRoom builds an unsaved room. The code is assigned by the registry,
// which owns collision retries.
func NewRoom(code, rawName, hostUserID string) (*Room, error) {
	validateName := validate.Compose(
		validate.Required(),
		validate.MaxLength(50),
	)
	if err := validateName(rawName); err != nil {
		return nil, fmt.Errorf("%w: room name %v", ErrValidation, err)
	}

	return &Room{
		Code:       NormalizeCode(code),
		Name:       validate.Trim(rawName),
		HostUserID: hostUserID,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
