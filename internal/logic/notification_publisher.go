package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"studio_billing/internal/constants"
	"studio_billing/internal/dao/repository"
	"studio_billing/internal/models"
)

// NotificationTopic is the queue name notification events are published to.
type NotificationTopic string

// NotificationEvent is the payload the notifier consumer receives.
type NotificationEvent struct {
	Kind           string `json:"kind"`
	RecipientEmail string `json:"recipient_email"`
	RecipientName  string `json:"recipient_name,omitempty"`
	EntityType     string `json:"entity_type"`
	EntityID       string `json:"entity_id"`
	Amount         string `json:"amount,omitempty"`
	Reference      string `json:"reference,omitempty"`
	Reason         string `json:"reason,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}

// NotificationPublisher creates outbox messages for notification events.
// The outbox write shares the caller's context, so it commits atomically
// with the business mutation when a transaction is in flight.
type NotificationPublisher struct {
	outboxRepo repository.OutboxRepository
	topic      NotificationTopic
}

// NewNotificationPublisher creates a new NotificationPublisher.
func NewNotificationPublisher(outboxRepo repository.OutboxRepository, topic NotificationTopic) *NotificationPublisher {
	return &NotificationPublisher{
		outboxRepo: outboxRepo,
		topic:      topic,
	}
}

// Publish creates an outbox message for a notification event.
func (p *NotificationPublisher) Publish(ctx context.Context, event *NotificationEvent) error {
	if event.OccurredAt == "" {
		event.OccurredAt = time.Now().Format(time.RFC3339)
	}

	payloadBytes, err := json.Marshal(event)
	if err != nil {
		// Errors from marshalling are considered fatal for the transaction, as the payload can't be constructed.
		return fmt.Errorf("failed to marshal notification event payload: %w", err)
	}

	outboxMsg := &models.OutboxMessage{
		ID:        primitive.NewObjectID(),
		Topic:     string(p.topic),
		Payload:   string(payloadBytes),
		Status:    models.OutboxStatusPending,
		CreatedAt: time.Now(),
	}

	if err := p.outboxRepo.Create(ctx, outboxMsg); err != nil {
		return fmt.Errorf("failed to create notification outbox message: %w", err)
	}
	return nil
}

// PaymentReceivedEvent builds the receipt notification for a counted
// recurring payment.
func PaymentReceivedEvent(client *models.ClientInfo, entityType string, entityID primitive.ObjectID, amount primitive.Decimal128, paidAt time.Time) *NotificationEvent {
	ev := &NotificationEvent{
		Kind:       constants.NotificationPaymentReceived.String(),
		EntityType: entityType,
		EntityID:   entityID.Hex(),
		Amount:     amount.String(),
		OccurredAt: paidAt.Format(time.RFC3339),
	}
	if client != nil {
		ev.RecipientEmail = client.Email
		ev.RecipientName = client.Name
	}
	return ev
}
