package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/velezd/cart-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoItemRepository struct {
	collection *mongo.Collection
}

func NewMongoItemRepository(db *mongo.Database) ItemRepository {
	return &mongoItemRepository{
		collection: db.Collection("items"),
	}
}

func (m *mongoItemRepository) GetItem(ctx context.Context, itemID string) (*domain.Item, error) {
	var item domain.Item

	err := m.collection.FindOne(ctx, bson.M{"_id": itemID}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return &item, nil
}

func (m *mongoItemRepository) ListItems(ctx context.Context) ([]*domain.Item, error) {
	cursor, err := m.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*domain.Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}

	return items, nil
}

func (m *mongoItemRepository) CreateItem(ctx context.Context, item *domain.Item) error {
	now := time.Now()
	if item.ID == "" {
		item.ID = primitive.NewObjectID().Hex()
	}
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := m.collection.InsertOne(ctx, item)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

// DecrementStock uses a guarded $inc so stock never goes negative. A filter
// miss means either the item is gone or stock is below qty.
func (m *mongoItemRepository) DecrementStock(ctx context.Context, itemID string, qty int64) error {
	filter := bson.M{
		"_id":            itemID,
		"stock_quantity": bson.M{"$gte": qty},
	}
	update := bson.M{
		"$inc": bson.M{"stock_quantity": -qty},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrInsufficientStock
	}

	return nil
}

func (m *mongoItemRepository) SetAverageRating(ctx context.Context, itemID string, avg float64, count int64) error {
	filter := bson.M{"_id": itemID}
	update := bson.M{
		"$set": bson.M{
			"average_rating": avg,
			"rating_count":   count,
			"updated_at":     time.Now(),
		},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set average rating: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}

	return nil
}
