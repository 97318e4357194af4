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

type mongoTransactionRepository struct {
	collection *mongo.Collection
}

func NewMongoTransactionRepository(db *mongo.Database) TransactionRepository {
	return &mongoTransactionRepository{
		collection: db.Collection("transactions"),
	}
}

func (m *mongoTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	now := time.Now()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now

	_, err := m.collection.InsertOne(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (m *mongoTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction

	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &tx, nil
}

func (m *mongoTransactionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := m.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txs []*domain.Transaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	return txs, nil
}

func (m *mongoTransactionRepository) UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

func (m *mongoTransactionRepository) FindPurchase(ctx context.Context, userID, itemID string) (*domain.Transaction, error) {
	filter := bson.M{
		"user_id":       userID,
		"status":        domain.TransactionStatusCompleted,
		"items.item_id": itemID,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var tx domain.Transaction
	err := m.collection.FindOne(ctx, filter, opts).Decode(&tx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to look up purchase: %w", err)
	}

	return &tx, nil
}
