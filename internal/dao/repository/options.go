package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"studio_billing/internal/dao/fields"
)

// UpdateOptions is an exported struct that holds the fields for a MongoDB update operation.
// It is used with the Functional Options pattern.
type UpdateOptions struct {
	SetFields   bson.M
	IncFields   bson.M
	AddToSet    bson.M
	GuardFields bson.M
}

// NewUpdateOptions creates a new instance of UpdateOptions.
func NewUpdateOptions() *UpdateOptions {
	return &UpdateOptions{
		SetFields:   bson.M{},
		IncFields:   bson.M{},
		AddToSet:    bson.M{},
		GuardFields: bson.M{},
	}
}

// UpdateOption defines a function that can modify the UpdateOptions.
type UpdateOption func(*UpdateOptions)

// WithStatus is an option to update the record's status field.
func WithStatus(status string) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldStatus] = status
	}
}

// WithStatusGuard restricts the update to records currently in one of the
// given statuses. An update whose guard matches nothing is a no-op.
func WithStatusGuard(statuses ...string) UpdateOption {
	return func(o *UpdateOptions) {
		o.GuardFields[fields.FieldStatus] = bson.M{"$in": statuses}
	}
}

// WithInvoiceNumber is an option to set the invoice's assigned number.
func WithInvoiceNumber(number string) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldInvoiceNumber] = number
	}
}

// WithPaymentLink is an option to set the invoice's payment link fields.
func WithPaymentLink(linkID, linkURL string) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldPaymentLinkID] = linkID
		o.SetFields[fields.FieldPaymentLink] = linkURL
	}
}

// WithSentAt is an option to set the invoice's sent_at timestamp.
func WithSentAt(t time.Time) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldSentAt] = t
	}
}

// WithStripeSubscriptionID is an option to set the gateway subscription id.
func WithStripeSubscriptionID(id string) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldStripeSubscriptionID] = id
	}
}

// WithGatewayStatus is an option to mirror the raw gateway status string.
func WithGatewayStatus(status string) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldGatewayStatus] = status
	}
}

// WithCurrentPeriodEnd is an option to set the current billing period end.
func WithCurrentPeriodEnd(t time.Time) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldCurrentPeriodEnd] = t
	}
}

// WithCancelAtPeriodEnd is an option to set the cancel_at_period_end flag.
func WithCancelAtPeriodEnd(v bool) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldCancelAtPeriodEnd] = v
	}
}

// WithFailure is an option to record a failed payment attempt.
func WithFailure(reason string, failedAt time.Time) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldFailureReason] = reason
		o.SetFields[fields.FieldFailedAt] = failedAt
	}
}

// WithCancelledAt is an option to set the cancelled_at timestamp.
func WithCancelledAt(t time.Time) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldCancelledAt] = t
	}
}

// WithCompletedAt is an option to set the completed_at timestamp.
func WithCompletedAt(t time.Time) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldCompletedAt] = t
	}
}

// WithLastPayment is an option to record the most recent payment.
func WithLastPayment(amount primitive.Decimal128, paidAt time.Time) UpdateOption {
	return func(o *UpdateOptions) {
		o.SetFields[fields.FieldLastPaymentAmount] = amount
		o.SetFields[fields.FieldLastPaymentAt] = paidAt
	}
}

// WithIncPaymentsCompleted is an option to increment the completed payment count.
func WithIncPaymentsCompleted(n int) UpdateOption {
	return func(o *UpdateOptions) {
		o.IncFields[fields.FieldPaymentsCompleted] = n
	}
}

// WithProcessedInvoiceID is an option to add a gateway invoice id to the
// processed set.
func WithProcessedInvoiceID(id string) UpdateOption {
	return func(o *UpdateOptions) {
		o.AddToSet[fields.FieldProcessedInvoiceIDs] = id
	}
}
