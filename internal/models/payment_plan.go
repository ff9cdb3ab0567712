package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentPlan struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty"`
	Client               *ClientInfo          `bson:"client,omitempty"`
	ProjectName          string               `bson:"project_name,omitempty"`
	Description          string               `bson:"description,omitempty"`
	TotalAmount          primitive.Decimal128 `bson:"total_amount,omitempty"`
	MonthlyAmount        primitive.Decimal128 `bson:"monthly_amount,omitempty"`
	NumberOfPayments     int                  `bson:"number_of_payments,omitempty"`
	PaymentsCompleted    int                  `bson:"payments_completed"`
	ProcessedInvoiceIDs  []string             `bson:"processed_invoice_ids,omitempty"` // gateway invoice ids already counted
	Status               string               `bson:"status,omitempty"`
	BillingStartsAt      *time.Time           `bson:"billing_starts_at,omitempty"`
	ProductID            string               `bson:"product_id,omitempty"`
	PriceID              string               `bson:"price_id,omitempty"`
	CheckoutSessionID    string               `bson:"checkout_session_id,omitempty"`
	StripeSubscriptionID string               `bson:"stripe_subscription_id,omitempty"`
	GatewayStatus        string               `bson:"gateway_status,omitempty"`
	CurrentPeriodEnd     *time.Time           `bson:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool                 `bson:"cancel_at_period_end"`
	LastPaymentAt        *time.Time           `bson:"last_payment_at,omitempty"`
	LastPaymentAmount    primitive.Decimal128 `bson:"last_payment_amount,omitempty"`
	FailureReason        string               `bson:"failure_reason,omitempty"`
	FailedAt             *time.Time           `bson:"failed_at,omitempty"`
	CancelledAt          *time.Time           `bson:"cancelled_at,omitempty"`
	CompletedAt          *time.Time           `bson:"completed_at,omitempty"`
	CreatedAt            time.Time            `bson:"created_at"`
	UpdatedAt            time.Time            `bson:"updated_at"`
}
