package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Subscription struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty"`
	Client               *ClientInfo          `bson:"client,omitempty"`
	PlanType             string               `bson:"plan_type,omitempty"`
	PlanTier             string               `bson:"plan_tier,omitempty"`
	PriceID              string               `bson:"price_id,omitempty"`
	Status               string               `bson:"status,omitempty"`
	CheckoutSessionID    string               `bson:"checkout_session_id,omitempty"`
	StripeSubscriptionID string               `bson:"stripe_subscription_id,omitempty"`
	GatewayStatus        string               `bson:"gateway_status,omitempty"`
	CurrentPeriodEnd     *time.Time           `bson:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool                 `bson:"cancel_at_period_end"`
	ProcessedInvoiceIDs  []string             `bson:"processed_invoice_ids,omitempty"` // gateway invoice ids already counted
	LastPaymentAt        *time.Time           `bson:"last_payment_at,omitempty"`
	LastPaymentAmount    primitive.Decimal128 `bson:"last_payment_amount,omitempty"`
	FailureReason        string               `bson:"failure_reason,omitempty"`
	FailedAt             *time.Time           `bson:"failed_at,omitempty"`
	CancelledAt          *time.Time           `bson:"cancelled_at,omitempty"`
	CreatedAt            time.Time            `bson:"created_at"`
	UpdatedAt            time.Time            `bson:"updated_at"`
}
