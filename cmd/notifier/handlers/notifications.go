package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"studio_billing/internal/conf"
	"studio_billing/internal/constants"
	"studio_billing/internal/logic"
	"studio_billing/pkg/mailer"
)

// NotificationHandler consumes billing notification events and sends the
// matching transactional email.
type NotificationHandler struct {
	mail   *mailer.Client
	cfg    *conf.RabbitMQConfig
	logger *zap.Logger
}

// NewNotificationHandler creates a new handler for billing notifications.
func NewNotificationHandler(mail *mailer.Client, cfg *conf.RabbitMQConfig, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		mail:   mail,
		cfg:    cfg,
		logger: logger.Named("NotificationHandler"),
	}
}

// QueueName returns the name of the queue this handler subscribes to.
func (h *NotificationHandler) QueueName() string {
	return h.cfg.NotificationTopic
}

// Handle processes one notification event. Malformed payloads and events
// without a recipient are acked and dropped; mail API failures are returned
// so the message is requeued.
func (h *NotificationHandler) Handle(ctx context.Context, d amqp.Delivery) error {
	var event logic.NotificationEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		h.logger.Error("Failed to unmarshal notification event", zap.Error(err), zap.ByteString("body", d.Body))
		return nil // Poison pill, ACK and remove.
	}
	if event.RecipientEmail == "" {
		h.logger.Warn("Notification event has no recipient, dropping",
			zap.String("kind", event.Kind),
			zap.String("entityID", event.EntityID))
		return nil
	}

	subject, body := composeMessage(&event)
	if subject == "" {
		h.logger.Warn("Unknown notification kind, dropping", zap.String("kind", event.Kind))
		return nil
	}

	err := h.mail.Send(ctx, mailer.Message{
		To:       event.RecipientEmail,
		ToName:   event.RecipientName,
		Subject:  subject,
		TextBody: body,
	})
	if err != nil {
		h.logger.Error("Failed to send notification mail, will retry",
			zap.Error(err),
			zap.String("kind", event.Kind),
			zap.String("entityID", event.EntityID))
		return err // Requeue for another attempt.
	}

	h.logger.Info("Notification mail sent",
		zap.String("kind", event.Kind),
		zap.String("to", event.RecipientEmail))
	return nil
}

func composeMessage(event *logic.NotificationEvent) (subject, body string) {
	switch constants.NotificationKind(event.Kind) {
	case constants.NotificationPaymentReceived:
		subject = "Payment received"
		body = fmt.Sprintf("We have received your payment of %s on %s. Thank you!", event.Amount, event.OccurredAt)
	case constants.NotificationPaymentFailed:
		subject = "Payment failed"
		body = fmt.Sprintf("A payment attempt on %s did not go through (%s). Please update your payment method to avoid interruption.", event.OccurredAt, event.Reason)
	case constants.NotificationPlanCompleted:
		subject = "Payment plan complete"
		body = fmt.Sprintf("All installments for %q have been paid in full (%s total). No further charges will be made.", event.Reference, event.Amount)
	case constants.NotificationInvoicePaid:
		subject = fmt.Sprintf("Invoice %s paid", event.Reference)
		body = fmt.Sprintf("Your payment of %s for invoice %s was received on %s. Thank you!", event.Amount, event.Reference, event.OccurredAt)
	}
	return subject, body
}
