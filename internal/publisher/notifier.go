package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/velezd/cart-service/internal/domain"
)

// Notifier is the fire-and-forget notification collaborator. Checkout calls
// it after the transaction is persisted; a failure is logged by the caller
// and never rolls the transaction back.
type Notifier interface {
	TransactionCompleted(ctx context.Context, tx *domain.Transaction) error
}

type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(topic string, brokers ...string) *KafkaNotifier {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaNotifier{writer: w}
}

func (n *KafkaNotifier) TransactionCompleted(ctx context.Context, tx *domain.Transaction) error {
	payload := map[string]interface{}{
		"transaction_id": tx.ID,
		"user_id":        tx.UserID,
		"final_amount":   tx.FinalAmount,
		"payment_method": tx.PaymentMethod,
		"completed_at":   time.Now(),
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(tx.ID), // transaction_id for ordering
		Value: payloadJSON,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("transaction.completed")},
		},
	}

	return n.writer.WriteMessages(ctx, msg)
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// Noop is used when no broker is configured.
type Noop struct{}

func (Noop) TransactionCompleted(context.Context, *domain.Transaction) error { return nil }
