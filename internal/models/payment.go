package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentRecord is the append-only receipt trail. Records are inserted once
// and never updated or deleted.
type PaymentRecord struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty"`
	ReceiptNumber        string               `bson:"receipt_number,omitempty"`
	Type                 string               `bson:"type,omitempty"` // subscription, payment_plan, invoice
	ParentID             primitive.ObjectID   `bson:"parent_id,omitempty"`
	Client               *ClientInfo          `bson:"client,omitempty"`
	Amount               primitive.Decimal128 `bson:"amount,omitempty"`
	StripeInvoiceID      string               `bson:"stripe_invoice_id,omitempty"`
	StripeSubscriptionID string               `bson:"stripe_subscription_id,omitempty"`
	PaidAt               time.Time            `bson:"paid_at"`
	CreatedAt            time.Time            `bson:"created_at"`
}
