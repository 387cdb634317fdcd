package repository

import (
	"context"

	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type messageRepository struct {
	db *mongo.Database
}

func NewMessageRepository(database *mongo.Database) domain.MessageRepository {
	return &messageRepository{
		db: database,
	}
}

func (r *messageRepository) Append(ctx context.Context, msg *domain.Message) error {
	collection := r.db.Collection(db.MessagesCollection)

	_, err := collection.InsertOne(ctx, msg)
	return err
}

func (r *messageRepository) ListByRoom(ctx context.Context, roomCode string) ([]domain.Message, error) {
	collection := r.db.Collection(db.MessagesCollection)

	filter := bson.M{"room_code": domain.NormalizeCode(roomCode)}
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	history := make([]domain.Message, 0)
	if err := cursor.All(ctx, &history); err != nil {
		return nil, err
	}

	return history, nil
}
