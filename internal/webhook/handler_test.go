package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v81"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"studio_billing/internal/constants"
	"studio_billing/internal/dao/repository"
	"studio_billing/internal/gateway"
	"studio_billing/internal/logic"
	"studio_billing/internal/models"
	"studio_billing/pkg/pagination"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) EnsureCustomer(ctx context.Context, email, name string) (string, error) {
	args := m.Called(ctx, email, name)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) CreateSubscriptionCheckout(ctx context.Context, customerID, priceID string) (*gateway.CheckoutSession, error) {
	args := m.Called(ctx, customerID, priceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CheckoutSession), args.Error(1)
}

func (m *mockGateway) CreatePlanCheckout(ctx context.Context, customerID, productName string, monthlyCents int64, billingStartsAt *time.Time) (*gateway.PlanCheckout, error) {
	args := m.Called(ctx, customerID, productName, monthlyCents, billingStartsAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PlanCheckout), args.Error(1)
}

func (m *mockGateway) CreateInvoicePaymentLink(ctx context.Context, invoiceID, description string, amountCents int64) (*gateway.PaymentLink, error) {
	args := m.Called(ctx, invoiceID, description, amountCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentLink), args.Error(1)
}

func (m *mockGateway) CancelSubscription(ctx context.Context, stripeSubID string, immediately bool) (*gateway.SubscriptionState, error) {
	args := m.Called(ctx, stripeSubID, immediately)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.SubscriptionState), args.Error(1)
}

func (m *mockGateway) VerifyWebhook(payload []byte, signatureHeader string) (stripe.Event, error) {
	args := m.Called(payload, signatureHeader)
	return args.Get(0).(stripe.Event), args.Error(1)
}

type mockInvoicesRepository struct {
	mock.Mock
}

func (m *mockInvoicesRepository) CreateInvoice(ctx context.Context, invoice *models.Invoice) (primitive.ObjectID, error) {
	args := m.Called(ctx, invoice)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *mockInvoicesRepository) GetInvoiceByID(ctx context.Context, id primitive.ObjectID) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *mockInvoicesRepository) ListInvoices(ctx context.Context, page *pagination.PageRequest) ([]*models.Invoice, int64, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *mockInvoicesRepository) UpdateInvoice(ctx context.Context, id primitive.ObjectID, opts ...repository.UpdateOption) error {
	args := m.Called(ctx, id, opts)
	return args.Error(0)
}

func (m *mockInvoicesRepository) MarkInvoicePaid(ctx context.Context, id primitive.ObjectID, paymentIntentID string, paidAt time.Time) (*models.Invoice, bool, error) {
	args := m.Called(ctx, id, paymentIntentID, paidAt)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Invoice), args.Bool(1), args.Error(2)
}

func (m *mockInvoicesRepository) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	args := m.Called(ctx, year)
	return args.String(0), args.Error(1)
}

type passthroughTxManager struct{}

func (passthroughTxManager) WithTransaction(ctx context.Context, fn func(sessCtx context.Context) (interface{}, error)) (interface{}, error) {
	return fn(ctx)
}

type mockSubscriptionsRepository struct {
	mock.Mock
}

func (m *mockSubscriptionsRepository) CreateSubscription(ctx context.Context, sub *models.Subscription) (primitive.ObjectID, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *mockSubscriptionsRepository) GetSubscriptionByID(ctx context.Context, id primitive.ObjectID) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *mockSubscriptionsRepository) GetSubscriptionByCheckoutSession(ctx context.Context, sessionID string) (*models.Subscription, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *mockSubscriptionsRepository) GetSubscriptionByStripeID(ctx context.Context, stripeSubID string) (*models.Subscription, error) {
	args := m.Called(ctx, stripeSubID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *mockSubscriptionsRepository) UpdateSubscription(ctx context.Context, id primitive.ObjectID, opts ...repository.UpdateOption) error {
	args := m.Called(ctx, id, opts)
	return args.Error(0)
}

func (m *mockSubscriptionsRepository) RecordSubscriptionPayment(ctx context.Context, stripeSubID, stripeInvoiceID string, amount primitive.Decimal128, paidAt time.Time) (*models.Subscription, bool, error) {
	args := m.Called(ctx, stripeSubID, stripeInvoiceID, amount, paidAt)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Subscription), args.Bool(1), args.Error(2)
}

func (m *mockSubscriptionsRepository) ExpireStaleCheckouts(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func postEvent(t *testing.T, h *Handler, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")
	rec := httptest.NewRecorder()
	h.HandleStripeEvent(rec, req)
	return rec
}

func signedEvent(eventType stripe.EventType, raw interface{}) stripe.Event {
	data, _ := json.Marshal(raw)
	return stripe.Event{
		ID:      "evt_1",
		Type:    eventType,
		Created: time.Now().Unix(),
		Data:    &stripe.EventData{Raw: data},
	}
}

func TestHandler_HandleStripeEvent(t *testing.T) {
	t.Run("InvalidSignature", func(t *testing.T) {
		gw := &mockGateway{}
		h := NewHandler(gw, nil, nil, zap.NewNop())

		payload := []byte(`{"type":"invoice.paid"}`)
		gw.On("VerifyWebhook", payload, "t=1,v1=sig").
			Return(stripe.Event{}, errors.New("signature mismatch")).Once()

		rec := postEvent(t, h, payload)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		gw.AssertExpectations(t)
	})

	t.Run("OversizedBody", func(t *testing.T) {
		gw := &mockGateway{}
		h := NewHandler(gw, nil, nil, zap.NewNop())

		rec := postEvent(t, h, bytes.Repeat([]byte("a"), maxBodyBytes+1))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		gw.AssertNotCalled(t, "VerifyWebhook", mock.Anything, mock.Anything)
	})

	t.Run("UnhandledEventTypeIsAcknowledged", func(t *testing.T) {
		gw := &mockGateway{}
		h := NewHandler(gw, nil, nil, zap.NewNop())

		payload := []byte(`{}`)
		gw.On("VerifyWebhook", payload, "t=1,v1=sig").
			Return(signedEvent("customer.created", map[string]string{}), nil).Once()

		rec := postEvent(t, h, payload)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("PaidInvoiceWithoutSubscriptionIsAcknowledged", func(t *testing.T) {
		gw := &mockGateway{}
		h := NewHandler(gw, nil, nil, zap.NewNop())

		payload := []byte(`{}`)
		gw.On("VerifyWebhook", payload, "t=1,v1=sig").
			Return(signedEvent("invoice.paid", map[string]interface{}{"id": "in_1", "amount_paid": 4900}), nil).Once()

		rec := postEvent(t, h, payload)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("CheckoutCompletedActivatesSubscription", func(t *testing.T) {
		gw := &mockGateway{}
		subRepo := &mockSubscriptionsRepository{}
		reconcile := logic.NewReconcileLogic(subRepo, nil, nil, gw, nil, nil, nil, zap.NewNop())
		h := NewHandler(gw, nil, reconcile, zap.NewNop())

		sub := &models.Subscription{
			ID:     primitive.NewObjectID(),
			Status: constants.SubscriptionStatusPendingPayment.String(),
		}
		session := map[string]interface{}{
			"id":           "cs_1",
			"mode":         "subscription",
			"subscription": map[string]interface{}{"id": "sub_1"},
		}

		payload := []byte(`{}`)
		gw.On("VerifyWebhook", payload, "t=1,v1=sig").
			Return(signedEvent("checkout.session.completed", session), nil).Once()
		subRepo.On("GetSubscriptionByCheckoutSession", mock.Anything, "cs_1").Return(sub, nil).Once()
		subRepo.On("UpdateSubscription", mock.Anything, sub.ID, mock.Anything).Return(nil).Once()

		rec := postEvent(t, h, payload)

		assert.Equal(t, http.StatusOK, rec.Code)
		subRepo.AssertExpectations(t)
	})

	t.Run("CheckoutCompletedPaysInvoiceAndActivatesSubscription", func(t *testing.T) {
		gw := &mockGateway{}
		invRepo := &mockInvoicesRepository{}
		subRepo := &mockSubscriptionsRepository{}
		invoiceLogic := logic.NewInvoiceLogic(nil, invRepo, nil, nil, gw, passthroughTxManager{}, nil, nil, zap.NewNop())
		reconcile := logic.NewReconcileLogic(subRepo, nil, nil, gw, nil, nil, nil, zap.NewNop())
		h := NewHandler(gw, invoiceLogic, reconcile, zap.NewNop())

		invoiceID := primitive.NewObjectID()
		sub := &models.Subscription{
			ID:     primitive.NewObjectID(),
			Status: constants.SubscriptionStatusPendingPayment.String(),
		}
		// A subscription-mode session that also carries invoice metadata must
		// fire both branches, not stop after the invoice one.
		session := map[string]interface{}{
			"id":           "cs_3",
			"mode":         "subscription",
			"subscription": map[string]interface{}{"id": "sub_3"},
			"metadata":     map[string]string{"invoice_id": invoiceID.Hex()},
		}

		payload := []byte(`{}`)
		gw.On("VerifyWebhook", payload, "t=1,v1=sig").
			Return(signedEvent("checkout.session.completed", session), nil).Once()
		invRepo.On("MarkInvoicePaid", mock.Anything, invoiceID, "", mock.Anything).
			Return(&models.Invoice{ID: invoiceID, Status: constants.InvoiceStatusPaid.String()}, false, nil).Once()
		subRepo.On("GetSubscriptionByCheckoutSession", mock.Anything, "cs_3").Return(sub, nil).Once()
		subRepo.On("UpdateSubscription", mock.Anything, sub.ID, mock.Anything).Return(nil).Once()

		rec := postEvent(t, h, payload)

		assert.Equal(t, http.StatusOK, rec.Code)
		invRepo.AssertExpectations(t)
		subRepo.AssertExpectations(t)
	})

	t.Run("CheckoutCompletedWithMalformedInvoiceMetadata", func(t *testing.T) {
		gw := &mockGateway{}
		invoiceLogic := logic.NewInvoiceLogic(nil, nil, nil, nil, gw, nil, nil, nil, zap.NewNop())
		h := NewHandler(gw, invoiceLogic, nil, zap.NewNop())

		session := map[string]interface{}{
			"id":       "cs_2",
			"metadata": map[string]string{"invoice_id": "not-an-object-id"},
		}

		payload := []byte(`{}`)
		gw.On("VerifyWebhook", payload, "t=1,v1=sig").
			Return(signedEvent("checkout.session.completed", session), nil).Once()

		// The malformed id is dropped inside the invoice logic; the gateway
		// still gets its 200 so it does not redeliver.
		rec := postEvent(t, h, payload)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("SubscriptionDeletedCancelsRecord", func(t *testing.T) {
		gw := &mockGateway{}
		subRepo := &mockSubscriptionsRepository{}
		reconcile := logic.NewReconcileLogic(subRepo, nil, nil, gw, nil, nil, nil, zap.NewNop())
		h := NewHandler(gw, nil, reconcile, zap.NewNop())

		sub := &models.Subscription{
			ID:     primitive.NewObjectID(),
			Status: constants.SubscriptionStatusActive.String(),
		}

		payload := []byte(`{}`)
		gw.On("VerifyWebhook", payload, "t=1,v1=sig").
			Return(signedEvent("customer.subscription.deleted", map[string]interface{}{"id": "sub_1"}), nil).Once()
		subRepo.On("GetSubscriptionByStripeID", mock.Anything, "sub_1").Return(sub, nil).Once()
		subRepo.On("UpdateSubscription", mock.Anything, sub.ID, mock.Anything).Return(nil).Once()

		rec := postEvent(t, h, payload)

		assert.Equal(t, http.StatusOK, rec.Code)
		subRepo.AssertExpectations(t)
	})

	t.Run("HandlerFailureStillAcknowledges", func(t *testing.T) {
		gw := &mockGateway{}
		subRepo := &mockSubscriptionsRepository{}
		reconcile := logic.NewReconcileLogic(subRepo, nil, nil, gw, nil, nil, nil, zap.NewNop())
		h := NewHandler(gw, nil, reconcile, zap.NewNop())

		payload := []byte(`{}`)
		gw.On("VerifyWebhook", payload, "t=1,v1=sig").
			Return(signedEvent("customer.subscription.deleted", map[string]interface{}{"id": "sub_1"}), nil).Once()
		subRepo.On("GetSubscriptionByStripeID", mock.Anything, "sub_1").
			Return(nil, errors.New("database unavailable")).Once()

		rec := postEvent(t, h, payload)

		// The error is logged, not surfaced: a retry loop on a persistent
		// failure would not help.
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
