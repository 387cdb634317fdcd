package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on for both
// correctness and query shape. roomTTL > 0 enables server-side room
// expiry to match the read-side liveness filter.
func EnsureIndexes(ctx context.Context, database *mongo.Database, roomTTL time.Duration) error {
	if roomTTL > 0 {
		rooms := database.Collection(db.RoomsCollection)
		_, err := rooms.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(roomTTL.Seconds())),
		})
		if err != nil {
			return fmt.Errorf("rooms indexes: %w", err)
		}
	}

	memberships := database.Collection(db.MembershipsCollection)
	membershipIndexes := []mongo.IndexModel{
		{
			// One membership row per user per room; leave flips status
			// instead of inserting.
			Keys: bson.D{
				{Key: "room_code", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "room_code", Value: 1},
				{Key: "status", Value: 1},
				{Key: "joined_at", Value: 1},
			},
		},
	}
	if roomTTL > 0 {
		// Dependent rows share their room's lifetime: a row created at
		// time t cannot outlive a room that expires at or before t+ttl.
		// Exact cleanup on code reuse happens in the room repository;
		// these indexes reclaim rows of rooms whose code is never reused.
		membershipIndexes = append(membershipIndexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "joined_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(roomTTL.Seconds())),
		})
	}
	_, err := memberships.Indexes().CreateMany(ctx, membershipIndexes)
	if err != nil {
		return fmt.Errorf("memberships indexes: %w", err)
	}

	joinRequests := database.Collection(db.JoinRequestsCollection)
	joinRequestIndexes := []mongo.IndexModel{
		{
			// At most one undecided request per user per room.
			Keys: bson.D{
				{Key: "room_code", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": domain.RequestPending}),
		},
		{
			Keys: bson.D{
				{Key: "room_code", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}
	if roomTTL > 0 {
		joinRequestIndexes = append(joinRequestIndexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(roomTTL.Seconds())),
		})
	}
	_, err = joinRequests.Indexes().CreateMany(ctx, joinRequestIndexes)
	if err != nil {
		return fmt.Errorf("join_requests indexes: %w", err)
	}

	messages := database.Collection(db.MessagesCollection)
	messageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room_code", Value: 1},
				{Key: "created_at", Value: 1},
			},
		},
	}
	if roomTTL > 0 {
		messageIndexes = append(messageIndexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(roomTTL.Seconds())),
		})
	}
	_, err = messages.Indexes().CreateMany(ctx, messageIndexes)
	if err != nil {
		return fmt.Errorf("messages indexes: %w", err)
	}

	return nil
}
