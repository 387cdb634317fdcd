// Package repository implements the domain repositories on MongoDB.
package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type roomRepository struct {
	db  *mongo.Database
	ttl time.Duration
}

// NewRoomRepository builds the room repository. ttl bounds a room's
// lifetime; zero disables expiry.
func NewRoomRepository(database *mongo.Database, ttl time.Duration) domain.RoomRepository {
	return &roomRepository{
		db:  database,
		ttl: ttl,
	}
}

// Create persists the host membership first and the room second, so
// the room document is the commit point: a membership row without its
// room is invisible to every read path. On a code collision the
// membership is compensated away.
func (r *roomRepository) Create(ctx context.Context, room *domain.Room, host *domain.Membership) error {
	memberships := r.db.Collection(db.MembershipsCollection)
	rooms := r.db.Collection(db.RoomsCollection)

	if err := r.clearExpired(ctx, room.Code); err != nil {
		return err
	}

	if _, err := memberships.InsertOne(ctx, host); err != nil {
		return err
	}

	if _, err := rooms.InsertOne(ctx, room); err != nil {
		if _, delErr := memberships.DeleteOne(ctx, bson.M{
			"room_code": host.RoomCode,
			"user_id":   host.UserID,
		}); delErr != nil {
			log.Printf("Failed to compensate host membership for room %s: %v", room.Code, delErr)
		}

		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrRoomCodeTaken
		}
		return err
	}

	return nil
}

// clearExpired removes a dead room and its dependent rows so the code
// can be reused without the old room's history or pending requests
// bleeding into the new one. The TTL monitor runs on its own schedule,
// so none of this can be left to it. Every delete is bounded by the
// expiry cutoff: a live room's rows are always newer and never match.
func (r *roomRepository) clearExpired(ctx context.Context, code string) error {
	if r.ttl <= 0 {
		return nil
	}

	cutoff := time.Now().UTC().Add(-r.ttl)

	if _, err := r.db.Collection(db.RoomsCollection).DeleteOne(ctx, bson.M{
		"_id":        code,
		"created_at": bson.M{"$lte": cutoff},
	}); err != nil {
		return err
	}

	dependents := []struct {
		collection string
		timeField  string
	}{
		{db.MembershipsCollection, "joined_at"},
		{db.JoinRequestsCollection, "created_at"},
		{db.MessagesCollection, "created_at"},
	}
	for _, dep := range dependents {
		if _, err := r.db.Collection(dep.collection).DeleteMany(ctx, bson.M{
			"room_code":   code,
			dep.timeField: bson.M{"$lte": cutoff},
		}); err != nil {
			return err
		}
	}

	return nil
}

func (r *roomRepository) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	rooms := r.db.Collection(db.RoomsCollection)

	// The TTL monitor removes expired documents on its own schedule, so
	// reads filter by creation time to keep expiry exact.
	filter := bson.M{"_id": domain.NormalizeCode(code)}
	if r.ttl > 0 {
		filter["created_at"] = bson.M{"$gt": time.Now().UTC().Add(-r.ttl)}
	}

	var room domain.Room
	if err := rooms.FindOne(ctx, filter).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}

	return &room, nil
}
