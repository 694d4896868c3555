package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"loyalty-service/internal/domain/notification"

	"github.com/segmentio/kafka-go"
)

// Event is the outbound message payload consumed by the delivery gateway.
type Event struct {
	NotificationID string                        `json:"notification_id"`
	CustomerID     string                        `json:"customer_id"`
	Type           notification.NotificationType `json:"type"`
	Message        string                        `json:"message"`
	Channel        string                        `json:"channel"`
	QueuedAt       time.Time                     `json:"queued_at"`
}

// KafkaPublisher writes notification events keyed by customer id, so one
// customer's messages stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, n notification.Notification) error {
	payload, err := json.Marshal(Event{
		NotificationID: n.ID,
		CustomerID:     n.CustomerID,
		Type:           n.Type,
		Message:        n.Message,
		Channel:        "whatsapp",
		QueuedAt:       n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.CustomerID),
		Value: payload,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
