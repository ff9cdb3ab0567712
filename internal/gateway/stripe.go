package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/paymentlink"
	"github.com/stripe/stripe-go/v81/price"
	"github.com/stripe/stripe-go/v81/product"
	"github.com/stripe/stripe-go/v81/subscription"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"studio_billing/internal/conf"
)

// StripeGateway implements Gateway on top of the Stripe SDK.
type StripeGateway struct {
	cfg    *conf.StripeConfig
	logger *zap.Logger
}

func NewStripeGateway(cfg *conf.StripeConfig, logger *zap.Logger) *StripeGateway {
	stripe.Key = cfg.SecretKey
	return &StripeGateway{
		cfg:    cfg,
		logger: logger.Named("StripeGateway"),
	}
}

func (g *StripeGateway) EnsureCustomer(ctx context.Context, email, name string) (string, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)

	iter := customer.List(listParams)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("failed to list customers: %w", err)
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}
	g.logger.Info("created gateway customer", zap.String("customerID", cust.ID), zap.String("email", email))
	return cust.ID, nil
}

func (g *StripeGateway) CreateSubscriptionCheckout(ctx context.Context, customerID, priceID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(g.cfg.SuccessURL),
		CancelURL:  stripe.String(g.cfg.CancelURL),
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) CreatePlanCheckout(ctx context.Context, customerID, productName string, monthlyCents int64, billingStartsAt *time.Time) (*PlanCheckout, error) {
	productParams := &stripe.ProductParams{Name: stripe.String(productName)}
	productParams.Context = ctx
	prod, err := product.New(productParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	priceParams := &stripe.PriceParams{
		Product:    stripe.String(prod.ID),
		UnitAmount: stripe.Int64(monthlyCents),
		Currency:   stripe.String(g.cfg.Currency),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		},
	}
	priceParams.Context = ctx
	pr, err := price.New(priceParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create price: %w", err)
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(pr.ID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(g.cfg.SuccessURL),
		CancelURL:  stripe.String(g.cfg.CancelURL),
	}
	sessionParams.Context = ctx
	// A future billing start delays the first charge via a trial period.
	if billingStartsAt != nil && billingStartsAt.After(time.Now()) {
		sessionParams.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			TrialEnd: stripe.Int64(billingStartsAt.Unix()),
		}
	}

	s, err := session.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &PlanCheckout{
		ProductID: prod.ID,
		PriceID:   pr.ID,
		Session:   CheckoutSession{ID: s.ID, URL: s.URL},
	}, nil
}

func (g *StripeGateway) CreateInvoicePaymentLink(ctx context.Context, invoiceID, description string, amountCents int64) (*PaymentLink, error) {
	productParams := &stripe.ProductParams{Name: stripe.String(description)}
	productParams.Context = ctx
	prod, err := product.New(productParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	priceParams := &stripe.PriceParams{
		Product:    stripe.String(prod.ID),
		UnitAmount: stripe.Int64(amountCents),
		Currency:   stripe.String(g.cfg.Currency),
	}
	priceParams.Context = ctx
	pr, err := price.New(priceParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create price: %w", err)
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{
				Price:    stripe.String(pr.ID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	linkParams.Context = ctx
	// The metadata is copied onto the checkout session the payer completes,
	// which is how the webhook handler finds the local invoice.
	linkParams.AddMetadata(MetadataInvoiceID, invoiceID)

	link, err := paymentlink.New(linkParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment link: %w", err)
	}
	return &PaymentLink{ID: link.ID, URL: link.URL}, nil
}

func (g *StripeGateway) CancelSubscription(ctx context.Context, stripeSubID string, immediately bool) (*SubscriptionState, error) {
	var (
		sub *stripe.Subscription
		err error
	)
	if immediately {
		params := &stripe.SubscriptionCancelParams{}
		params.Context = ctx
		sub, err = subscription.Cancel(stripeSubID, params)
	} else {
		params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
		params.Context = ctx
		sub, err = subscription.Update(stripeSubID, params)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel subscription: %w", err)
	}

	return &SubscriptionState{
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0),
	}, nil
}

func (g *StripeGateway) VerifyWebhook(payload []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signatureHeader, g.cfg.WebhookSecret)
}

var _ Gateway = (*StripeGateway)(nil)
