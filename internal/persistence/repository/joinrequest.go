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

type joinRequestRepository struct {
	db *mongo.Database
}

func NewJoinRequestRepository(database *mongo.Database) domain.JoinRequestRepository {
	return &joinRequestRepository{
		db: database,
	}
}

// Create inserts the pending request unless one already exists for the
// same room and user, in which case the existing one wins. The partial
// unique index on pending rows closes the race between two inserts.
func (r *joinRequestRepository) Create(ctx context.Context, req *domain.JoinRequest) (*domain.JoinRequest, error) {
	collection := r.db.Collection(db.JoinRequestsCollection)

	if _, err := collection.InsertOne(ctx, req); err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return nil, err
		}

		filter := bson.M{
			"room_code": req.RoomCode,
			"user_id":   req.UserID,
			"status":    domain.RequestPending,
		}

		var existing domain.JoinRequest
		if err := collection.FindOne(ctx, filter).Decode(&existing); err != nil {
			return nil, err
		}
		return &existing, nil
	}

	return req, nil
}

func (r *joinRequestRepository) GetByID(ctx context.Context, id string) (*domain.JoinRequest, error) {
	collection := r.db.Collection(db.JoinRequestsCollection)

	var req domain.JoinRequest
	if err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}

	return &req, nil
}

// Decide is a compare-and-set on the pending status, so of two racing
// decisions exactly one lands.
func (r *joinRequestRepository) Decide(ctx context.Context, id string, to domain.RequestStatus) (*domain.JoinRequest, error) {
	collection := r.db.Collection(db.JoinRequestsCollection)

	filter := bson.M{
		"_id":    id,
		"status": domain.RequestPending,
	}
	update := bson.M{
		"$set": bson.M{"status": to},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var req domain.JoinRequest
	err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&req)
	if err == nil {
		return &req, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// Distinguish a missing request from one already decided.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, domain.ErrRequestNotPending
}

func (r *joinRequestRepository) ListPending(ctx context.Context, roomCode string) ([]domain.JoinRequest, error) {
	collection := r.db.Collection(db.JoinRequestsCollection)

	filter := bson.M{
		"room_code": domain.NormalizeCode(roomCode),
		"status":    domain.RequestPending,
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	pending := make([]domain.JoinRequest, 0)
	if err := cursor.All(ctx, &pending); err != nil {
		return nil, err
	}

	return pending, nil
}
