package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Invoice struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	Client          *ClientInfo          `bson:"client,omitempty"`
	LineItems       []LineItem           `bson:"line_items,omitempty"`
	Subtotal        primitive.Decimal128 `bson:"subtotal,omitempty"`
	Total           primitive.Decimal128 `bson:"total,omitempty"`
	Status          string               `bson:"status,omitempty"`
	InvoiceNumber   string               `bson:"invoice_number,omitempty"` // e.g., "2026-042", assigned on send
	Description     string               `bson:"description,omitempty"`
	DueDate         *time.Time           `bson:"due_date,omitempty"`
	PaymentLinkID   string               `bson:"payment_link_id,omitempty"`
	PaymentLink     string               `bson:"payment_link,omitempty"`
	PaymentIntentID string               `bson:"payment_intent_id,omitempty"`
	PaidAt          *time.Time           `bson:"paid_at,omitempty"`
	SentAt          *time.Time           `bson:"sent_at,omitempty"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

type LineItem struct {
	Description string               `bson:"description,omitempty"`
	Quantity    int64                `bson:"quantity,omitempty"`
	UnitPrice   primitive.Decimal128 `bson:"unit_price,omitempty"`
	Amount      primitive.Decimal128 `bson:"amount,omitempty"`
}
