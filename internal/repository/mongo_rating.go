package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/velezd/cart-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRatingRepository struct {
	collection *mongo.Collection
}

func NewMongoRatingRepository(db *mongo.Database) RatingRepository {
	return &mongoRatingRepository{
		collection: db.Collection("ratings"),
	}
}

// Upsert writes the rating keyed by (user_id, item_id); a resubmission
// replaces value and review without creating a duplicate.
func (m *mongoRatingRepository) Upsert(ctx context.Context, rating *domain.Rating) error {
	now := time.Now()
	rating.UpdatedAt = now

	filter := bson.M{"user_id": rating.UserID, "item_id": rating.ItemID}
	update := bson.M{
		"$set": bson.M{
			"value":          rating.Value,
			"review":         rating.Review,
			"transaction_id": rating.TransactionID,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{
			"user_id":    rating.UserID,
			"item_id":    rating.ItemID,
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}

	return nil
}

func (m *mongoRatingRepository) GetByUserAndItem(ctx context.Context, userID, itemID string) (*domain.Rating, error) {
	var rating domain.Rating

	filter := bson.M{"user_id": userID, "item_id": itemID}
	err := m.collection.FindOne(ctx, filter).Decode(&rating)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}

	return &rating, nil
}

func (m *mongoRatingRepository) DeleteByUserAndItem(ctx context.Context, userID, itemID string) error {
	filter := bson.M{"user_id": userID, "item_id": itemID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrRatingNotFound
	}

	return nil
}

func (m *mongoRatingRepository) ListByItem(ctx context.Context, itemID string) ([]*domain.Rating, error) {
	cursor, err := m.collection.Find(ctx, bson.M{"item_id": itemID})
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var ratings []*domain.Rating
	if err := cursor.All(ctx, &ratings); err != nil {
		return nil, fmt.Errorf("failed to decode ratings: %w", err)
	}

	return ratings, nil
}

func (m *mongoRatingRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "item_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "item_id", Value: 1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
