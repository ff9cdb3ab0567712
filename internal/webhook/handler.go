package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"

	"studio_billing/internal/gateway"
	"studio_billing/internal/logic"
	"studio_billing/internal/service"
)

// maxBodyBytes bounds the webhook request body. Stripe events are small;
// anything larger is not one of ours.
const maxBodyBytes = 64 << 10

// Handler verifies gateway webhook deliveries and dispatches them to the
// reconciliation logic. Once the signature checks out the response is always
// 200: handler failures are logged and the record converges on a later event
// or through the expirer, so the gateway never retries into a poison loop.
type Handler struct {
	gateway      gateway.Gateway
	invoiceLogic *logic.InvoiceLogic
	reconcile    *logic.ReconcileLogic
	logger       *zap.Logger
}

// NewHandler creates a new webhook Handler.
func NewHandler(gw gateway.Gateway, invoiceLogic *logic.InvoiceLogic, reconcile *logic.ReconcileLogic, logger *zap.Logger) *Handler {
	return &Handler{
		gateway:      gw,
		invoiceLogic: invoiceLogic,
		reconcile:    reconcile,
		logger:       logger.Named("WebhookHandler"),
	}
}

// HandleStripeEvent is the HTTP endpoint the gateway posts events to.
func (h *Handler) HandleStripeEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		service.WriteHttpError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	event, err := h.gateway.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		service.WriteHttpError(w, http.StatusBadRequest, "invalid webhook signature")
		return
	}

	if err := h.dispatch(r.Context(), event); err != nil {
		h.logger.Error("failed to process webhook event",
			zap.Error(err),
			zap.String("eventID", event.ID),
			zap.String("eventType", string(event.Type)))
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) dispatch(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return h.onCheckoutCompleted(ctx, event)
	case "invoice.paid":
		return h.onInvoicePaid(ctx, event)
	case "invoice.payment_failed":
		return h.onInvoicePaymentFailed(ctx, event)
	case "customer.subscription.deleted":
		return h.onSubscriptionDeleted(ctx, event)
	case "customer.subscription.updated":
		return h.onSubscriptionUpdated(ctx, event)
	default:
		h.logger.Debug("ignoring webhook event type", zap.String("eventType", string(event.Type)))
		return nil
	}
}

// onCheckoutCompleted handles both checkout flavors: a payment-link checkout
// tagged with a local invoice id in metadata, and a subscription checkout
// that activates the pending record. The branches are independent and a
// single session may trigger both.
func (h *Handler) onCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("failed to decode checkout session: %w", err)
	}

	var errs []error
	invoiceID := session.Metadata[gateway.MetadataInvoiceID]
	if invoiceID != "" {
		var paymentIntentID string
		if session.PaymentIntent != nil {
			paymentIntentID = session.PaymentIntent.ID
		}
		if err := h.invoiceLogic.MarkPaidFromGateway(ctx, invoiceID, paymentIntentID, time.Unix(event.Created, 0)); err != nil {
			errs = append(errs, err)
		}
	}

	if session.Mode == stripe.CheckoutSessionModeSubscription && session.Subscription != nil {
		if err := h.reconcile.ActivateCheckout(ctx, session.ID, session.Subscription.ID); err != nil {
			errs = append(errs, err)
		}
	} else if invoiceID == "" {
		h.logger.Debug("checkout session carries neither invoice metadata nor a subscription", zap.String("sessionID", session.ID))
	}

	return errors.Join(errs...)
}

func (h *Handler) onInvoicePaid(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("failed to decode invoice: %w", err)
	}
	if inv.Subscription == nil {
		// One-off gateway invoices are reconciled via checkout completion.
		h.logger.Debug("ignoring paid invoice without a subscription", zap.String("stripeInvoiceID", inv.ID))
		return nil
	}

	paidAt := time.Unix(event.Created, 0)
	if inv.StatusTransitions != nil && inv.StatusTransitions.PaidAt > 0 {
		paidAt = time.Unix(inv.StatusTransitions.PaidAt, 0)
	}
	return h.reconcile.RecordRecurringPayment(ctx, inv.Subscription.ID, inv.ID, inv.AmountPaid, paidAt)
}

func (h *Handler) onInvoicePaymentFailed(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("failed to decode invoice: %w", err)
	}
	if inv.Subscription == nil {
		h.logger.Debug("ignoring failed invoice without a subscription", zap.String("stripeInvoiceID", inv.ID))
		return nil
	}

	reason := fmt.Sprintf("gateway invoice %s payment failed", inv.ID)
	return h.reconcile.RecordPaymentFailure(ctx, inv.Subscription.ID, reason, time.Unix(event.Created, 0))
}

func (h *Handler) onSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to decode subscription: %w", err)
	}

	cancelledAt := time.Unix(event.Created, 0)
	if sub.CanceledAt > 0 {
		cancelledAt = time.Unix(sub.CanceledAt, 0)
	}
	return h.reconcile.HandleGatewayCancellation(ctx, sub.ID, cancelledAt)
}

func (h *Handler) onSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to decode subscription: %w", err)
	}

	var periodEnd *time.Time
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0)
		periodEnd = &t
	}
	return h.reconcile.SyncGatewayState(ctx, sub.ID, string(sub.Status), sub.CancelAtPeriodEnd, periodEnd)
}
