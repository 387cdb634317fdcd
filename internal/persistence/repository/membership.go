package repository

import (
	"context"
	"errors"

	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type membershipRepository struct {
	db *mongo.Database
}

func NewMembershipRepository(database *mongo.Database) domain.MembershipRepository {
	return &membershipRepository{
		db: database,
	}
}

func (r *membershipRepository) Upsert(ctx context.Context, m *domain.Membership) error {
	collection := r.db.Collection(db.MembershipsCollection)

	filter := bson.M{
		"room_code": m.RoomCode,
		"user_id":   m.UserID,
	}
	update := bson.M{
		"$set": bson.M{
			"username":  m.Username,
			"status":    m.Status,
			"joined_at": m.JoinedAt,
		},
	}

	_, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *membershipRepository) Get(ctx context.Context, roomCode, userID string) (*domain.Membership, error) {
	collection := r.db.Collection(db.MembershipsCollection)

	filter := bson.M{
		"room_code": domain.NormalizeCode(roomCode),
		"user_id":   userID,
	}

	var m domain.Membership
	if err := collection.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}

	return &m, nil
}

func (r *membershipRepository) Deactivate(ctx context.Context, roomCode, userID string) (bool, error) {
	collection := r.db.Collection(db.MembershipsCollection)

	// Matching on the current status makes a repeated leave a no-op.
	filter := bson.M{
		"room_code": domain.NormalizeCode(roomCode),
		"user_id":   userID,
		"status":    domain.MemberActive,
	}
	update := bson.M{
		"$set": bson.M{"status": domain.MemberLeft},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}

	return result.ModifiedCount > 0, nil
}

func (r *membershipRepository) ListActive(ctx context.Context, roomCode string) ([]domain.Membership, error) {
	collection := r.db.Collection(db.MembershipsCollection)

	filter := bson.M{
		"room_code": domain.NormalizeCode(roomCode),
		"status":    domain.MemberActive,
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "joined_at", Value: 1},
		{Key: "user_id", Value: 1},
	})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	members := make([]domain.Membership, 0)
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}

	return members, nil
}
