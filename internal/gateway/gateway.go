package gateway

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v81"
)

// MetadataInvoiceID is the metadata key linking a gateway checkout back to a
// local invoice.
const MetadataInvoiceID = "invoice_id"

// CheckoutSession is the subset of a gateway checkout session the service
// persists.
type CheckoutSession struct {
	ID  string
	URL string
}

// PlanCheckout carries the gateway objects created for a bespoke payment
// plan: the product, the monthly recurring price, and the checkout session.
type PlanCheckout struct {
	ProductID string
	PriceID   string
	Session   CheckoutSession
}

// PaymentLink is a hosted payment page for a one-time invoice.
type PaymentLink struct {
	ID  string
	URL string
}

// SubscriptionState is the gateway's view of a subscription after a cancel
// call.
type SubscriptionState struct {
	Status            string
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  time.Time
}

// Gateway abstracts the payment provider. Logic packages depend on this
// interface, not on the provider SDK.
type Gateway interface {
	// EnsureCustomer returns the id of the gateway customer with the given
	// email, creating one when none exists.
	EnsureCustomer(ctx context.Context, email, name string) (string, error)
	// CreateSubscriptionCheckout opens a checkout session for a catalog
	// price.
	CreateSubscriptionCheckout(ctx context.Context, customerID, priceID string) (*CheckoutSession, error)
	// CreatePlanCheckout creates a bespoke product and monthly price for a
	// payment plan and opens a checkout session for it. A future
	// billingStartsAt delays the first charge.
	CreatePlanCheckout(ctx context.Context, customerID, productName string, monthlyCents int64, billingStartsAt *time.Time) (*PlanCheckout, error)
	// CreateInvoicePaymentLink creates a hosted payment page for a one-time
	// invoice, tagged with the local invoice id in metadata.
	CreateInvoicePaymentLink(ctx context.Context, invoiceID, description string, amountCents int64) (*PaymentLink, error)
	// CancelSubscription cancels at the gateway, immediately or at period
	// end.
	CancelSubscription(ctx context.Context, stripeSubID string, immediately bool) (*SubscriptionState, error)
	// VerifyWebhook checks the signature header against the shared secret
	// and returns the decoded event envelope.
	VerifyWebhook(payload []byte, signatureHeader string) (stripe.Event, error)
}
