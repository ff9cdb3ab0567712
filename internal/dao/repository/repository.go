package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"studio_billing/internal/models"
	"studio_billing/pkg/pagination"
)

type ClientsRepository interface {
	GetClientByID(ctx context.Context, id primitive.ObjectID) (*models.Client, error)
}

type InvoicesRepository interface {
	CreateInvoice(ctx context.Context, invoice *models.Invoice) (primitive.ObjectID, error)
	GetInvoiceByID(ctx context.Context, id primitive.ObjectID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, page *pagination.PageRequest) ([]*models.Invoice, int64, error)
	UpdateInvoice(ctx context.Context, id primitive.ObjectID, opts ...UpdateOption) error
	// MarkInvoicePaid sets the invoice to paid if it is not already. It
	// returns the post-update invoice and whether this call performed the
	// transition; a repeated delivery returns (invoice, false, nil).
	MarkInvoicePaid(ctx context.Context, id primitive.ObjectID, paymentIntentID string, paidAt time.Time) (*models.Invoice, bool, error)
	// NextInvoiceNumber atomically reserves the next sequence value for the
	// given year and returns a formatted "YYYY-NNN" number.
	NextInvoiceNumber(ctx context.Context, year int) (string, error)
}

type SubscriptionsRepository interface {
	CreateSubscription(ctx context.Context, sub *models.Subscription) (primitive.ObjectID, error)
	GetSubscriptionByID(ctx context.Context, id primitive.ObjectID) (*models.Subscription, error)
	GetSubscriptionByCheckoutSession(ctx context.Context, sessionID string) (*models.Subscription, error)
	GetSubscriptionByStripeID(ctx context.Context, stripeSubID string) (*models.Subscription, error)
	UpdateSubscription(ctx context.Context, id primitive.ObjectID, opts ...UpdateOption) error
	// RecordSubscriptionPayment applies last-payment fields and restores
	// active from payment_failed. The filter excludes gateway invoice ids
	// already in processed_invoice_ids and terminal statuses, so duplicate
	// deliveries apply exactly once.
	RecordSubscriptionPayment(ctx context.Context, stripeSubID, stripeInvoiceID string, amount primitive.Decimal128, paidAt time.Time) (*models.Subscription, bool, error)
	ExpireStaleCheckouts(ctx context.Context, olderThan time.Time) (int64, error)
}

type PaymentPlansRepository interface {
	CreatePaymentPlan(ctx context.Context, plan *models.PaymentPlan) (primitive.ObjectID, error)
	GetPaymentPlanByID(ctx context.Context, id primitive.ObjectID) (*models.PaymentPlan, error)
	GetPaymentPlanByCheckoutSession(ctx context.Context, sessionID string) (*models.PaymentPlan, error)
	GetPaymentPlanByStripeID(ctx context.Context, stripeSubID string) (*models.PaymentPlan, error)
	UpdatePaymentPlan(ctx context.Context, id primitive.ObjectID, opts ...UpdateOption) error
	// ApplyRecurringPayment counts one gateway invoice against the plan in a
	// single guarded update. The filter excludes invoice ids already in
	// processed_invoice_ids and plans in a terminal status, so duplicate
	// deliveries apply exactly once. Returns the post-update plan and
	// whether this call applied the payment.
	ApplyRecurringPayment(ctx context.Context, stripeSubID, stripeInvoiceID string, amount primitive.Decimal128, paidAt time.Time) (*models.PaymentPlan, bool, error)
	ExpireStaleCheckouts(ctx context.Context, olderThan time.Time) (int64, error)
}

type PaymentsRepository interface {
	CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) (primitive.ObjectID, error)
	GetPaymentRecordsByParent(ctx context.Context, parentID primitive.ObjectID) ([]*models.PaymentRecord, error)
}

type AuditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type OutboxRepository interface {
	Create(ctx context.Context, message *models.OutboxMessage) error
	ClaimAndFetchEvents(ctx context.Context, limit int) ([]*models.OutboxMessage, error)
	MarkAsProcessed(ctx context.Context, id primitive.ObjectID) error
	IncrementRetry(ctx context.Context, id primitive.ObjectID, errorMessage string) error
}
