package logic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"studio_billing/internal/dao/repository"
	"studio_billing/internal/gateway"
	"studio_billing/internal/models"
	"studio_billing/pkg/pagination"
)

func mustDecimal(t *testing.T, s string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	require.NoError(t, err)
	return d
}

// applyOptions materializes a slice of update options so tests can inspect
// the fields an update would write.
func applyOptions(opts []repository.UpdateOption) *repository.UpdateOptions {
	o := repository.NewUpdateOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// passthroughTxManager runs the transaction body directly, without a session.
type passthroughTxManager struct{}

func (m *passthroughTxManager) WithTransaction(ctx context.Context, fn func(sessCtx context.Context) (interface{}, error)) (interface{}, error) {
	return fn(ctx)
}

type mockClientsRepository struct {
	mock.Mock
}

func newMockClientsRepository() *mockClientsRepository {
	return &mockClientsRepository{}
}

func (m *mockClientsRepository) GetClientByID(ctx context.Context, id primitive.ObjectID) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

type mockInvoicesRepository struct {
	mock.Mock
}

func newMockInvoicesRepository() *mockInvoicesRepository {
	return &mockInvoicesRepository{}
}

func (m *mockInvoicesRepository) CreateInvoice(ctx context.Context, invoice *models.Invoice) (primitive.ObjectID, error) {
	args := m.Called(ctx, invoice)
	if oid := args.Get(0); oid != nil {
		return oid.(primitive.ObjectID), args.Error(1)
	}
	return primitive.NilObjectID, args.Error(1)
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
	var invoices []*models.Invoice
	if v := args.Get(0); v != nil {
		invoices = v.([]*models.Invoice)
	}
	return invoices, args.Get(1).(int64), args.Error(2)
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

type mockSubscriptionsRepository struct {
	mock.Mock
}

func newMockSubscriptionsRepository() *mockSubscriptionsRepository {
	return &mockSubscriptionsRepository{}
}

func (m *mockSubscriptionsRepository) CreateSubscription(ctx context.Context, sub *models.Subscription) (primitive.ObjectID, error) {
	args := m.Called(ctx, sub)
	if oid := args.Get(0); oid != nil {
		return oid.(primitive.ObjectID), args.Error(1)
	}
	return primitive.NilObjectID, args.Error(1)
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

type mockPaymentPlansRepository struct {
	mock.Mock
}

func newMockPaymentPlansRepository() *mockPaymentPlansRepository {
	return &mockPaymentPlansRepository{}
}

func (m *mockPaymentPlansRepository) CreatePaymentPlan(ctx context.Context, plan *models.PaymentPlan) (primitive.ObjectID, error) {
	args := m.Called(ctx, plan)
	if oid := args.Get(0); oid != nil {
		return oid.(primitive.ObjectID), args.Error(1)
	}
	return primitive.NilObjectID, args.Error(1)
}

func (m *mockPaymentPlansRepository) GetPaymentPlanByID(ctx context.Context, id primitive.ObjectID) (*models.PaymentPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentPlan), args.Error(1)
}

func (m *mockPaymentPlansRepository) GetPaymentPlanByCheckoutSession(ctx context.Context, sessionID string) (*models.PaymentPlan, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentPlan), args.Error(1)
}

func (m *mockPaymentPlansRepository) GetPaymentPlanByStripeID(ctx context.Context, stripeSubID string) (*models.PaymentPlan, error) {
	args := m.Called(ctx, stripeSubID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentPlan), args.Error(1)
}

func (m *mockPaymentPlansRepository) UpdatePaymentPlan(ctx context.Context, id primitive.ObjectID, opts ...repository.UpdateOption) error {
	args := m.Called(ctx, id, opts)
	return args.Error(0)
}

func (m *mockPaymentPlansRepository) ApplyRecurringPayment(ctx context.Context, stripeSubID, stripeInvoiceID string, amount primitive.Decimal128, paidAt time.Time) (*models.PaymentPlan, bool, error) {
	args := m.Called(ctx, stripeSubID, stripeInvoiceID, amount, paidAt)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.PaymentPlan), args.Bool(1), args.Error(2)
}

func (m *mockPaymentPlansRepository) ExpireStaleCheckouts(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

type mockPaymentsRepository struct {
	mock.Mock
}

func newMockPaymentsRepository() *mockPaymentsRepository {
	return &mockPaymentsRepository{}
}

func (m *mockPaymentsRepository) CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) (primitive.ObjectID, error) {
	args := m.Called(ctx, record)
	if oid := args.Get(0); oid != nil {
		return oid.(primitive.ObjectID), args.Error(1)
	}
	return primitive.NilObjectID, args.Error(1)
}

func (m *mockPaymentsRepository) GetPaymentRecordsByParent(ctx context.Context, parentID primitive.ObjectID) ([]*models.PaymentRecord, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentRecord), args.Error(1)
}

type mockAuditLogRepository struct {
	mock.Mock
}

func newMockAuditLogRepository() *mockAuditLogRepository {
	return &mockAuditLogRepository{}
}

func (m *mockAuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

type mockOutboxRepository struct {
	mock.Mock
}

func newMockOutboxRepository() *mockOutboxRepository {
	return &mockOutboxRepository{}
}

func (m *mockOutboxRepository) Create(ctx context.Context, message *models.OutboxMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *mockOutboxRepository) ClaimAndFetchEvents(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OutboxMessage), args.Error(1)
}

func (m *mockOutboxRepository) MarkAsProcessed(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOutboxRepository) IncrementRetry(ctx context.Context, id primitive.ObjectID, errorMessage string) error {
	args := m.Called(ctx, id, errorMessage)
	return args.Error(0)
}

type mockGateway struct {
	mock.Mock
}

func newMockGateway() *mockGateway {
	return &mockGateway{}
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
