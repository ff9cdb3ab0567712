package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"studio_billing/internal/constants"
	"studio_billing/internal/dao/mongodb"
	"studio_billing/internal/dao/repository"
	"studio_billing/internal/dto"
	"studio_billing/internal/gateway"
	"studio_billing/internal/helper"
	"studio_billing/internal/models"
)

// PaymentPlanLogic creates bespoke installment plans: a fixed total split
// into monthly payments, charged through a gateway subscription that is
// cancelled once all installments have been counted.
type PaymentPlanLogic struct {
	clientRepo   repository.ClientsRepository
	planRepo     repository.PaymentPlansRepository
	paymentsRepo repository.PaymentsRepository
	auditRepo    repository.AuditLogRepository
	gateway      gateway.Gateway
	logger       *zap.Logger
}

// NewPaymentPlanLogic creates a new PaymentPlanLogic.
func NewPaymentPlanLogic(
	clientRepo repository.ClientsRepository,
	planRepo repository.PaymentPlansRepository,
	paymentsRepo repository.PaymentsRepository,
	auditRepo repository.AuditLogRepository,
	gw gateway.Gateway,
	logger *zap.Logger,
) *PaymentPlanLogic {
	return &PaymentPlanLogic{
		clientRepo:   clientRepo,
		planRepo:     planRepo,
		paymentsRepo: paymentsRepo,
		auditRepo:    auditRepo,
		gateway:      gw,
		logger:       logger.Named("PaymentPlanLogic"),
	}
}

// CreatePaymentPlan validates the plan terms, creates the bespoke gateway
// product and monthly price, and stores a pending_payment plan keyed by the
// checkout session id. A future billing start delays the first charge.
func (l *PaymentPlanLogic) CreatePaymentPlan(ctx context.Context, d *dto.CreatePaymentPlanRequest) (*dto.PlanCheckout, error) {
	n := d.GetNumberOfPayments()
	if n < 1 {
		return nil, fmt.Errorf("%w: number of payments must be at least 1", ErrInvalidPaymentPlanTerms)
	}
	totalCents, err := helper.DecimalToCents(d.GetTotalAmount())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPaymentPlanTerms, err)
	}
	if totalCents <= 0 {
		return nil, fmt.Errorf("%w: total amount must be positive", ErrInvalidPaymentPlanTerms)
	}
	if start := d.GetBillingStartsAt(); start != nil && start.Before(time.Now()) {
		return nil, fmt.Errorf("%w: billing start must be in the future", ErrInvalidPaymentPlanTerms)
	}

	monthly, err := helper.MonthlyInstallment(d.GetTotalAmount(), n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPaymentPlanTerms, err)
	}
	monthlyCents, err := helper.DecimalToCents(monthly)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPaymentPlanTerms, err)
	}
	if monthlyCents < 1 {
		return nil, fmt.Errorf("%w: installment rounds to zero", ErrInvalidPaymentPlanTerms)
	}

	client, err := l.clientRepo.GetClientByID(ctx, d.GetClientID())
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	customerID, err := l.gateway.EnsureCustomer(ctx, client.Email, client.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: ensure customer: %v", ErrGateway, err)
	}
	checkout, err := l.gateway.CreatePlanCheckout(ctx, customerID, d.GetProjectName(), monthlyCents, d.GetBillingStartsAt())
	if err != nil {
		return nil, fmt.Errorf("%w: create plan checkout: %v", ErrGateway, err)
	}

	now := time.Now()
	plan := &models.PaymentPlan{
		Client: &models.ClientInfo{
			ID:    client.ID,
			Name:  client.Name,
			Email: client.Email,
		},
		ProjectName:       d.GetProjectName(),
		Description:       d.GetDescription(),
		TotalAmount:       d.GetTotalAmount(),
		MonthlyAmount:     monthly,
		NumberOfPayments:  n,
		Status:            constants.SubscriptionStatusPendingPayment.String(),
		BillingStartsAt:   d.GetBillingStartsAt(),
		ProductID:         checkout.ProductID,
		PriceID:           checkout.PriceID,
		CheckoutSessionID: checkout.Session.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	id, err := l.planRepo.CreatePaymentPlan(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment plan: %w", err)
	}

	if err := l.auditRepo.Create(ctx, NewAuditLog(d.GetOperator(), "payment_plan.create", constants.RecurringKindPaymentPlan, id, nil, plan)); err != nil {
		l.logger.Warn("failed to write audit log for payment plan creation", zap.Error(err), zap.Stringer("paymentPlanID", id))
	}

	l.logger.Info("payment plan checkout created",
		zap.Stringer("paymentPlanID", id),
		zap.String("projectName", d.GetProjectName()),
		zap.Int("numberOfPayments", n))
	return &dto.PlanCheckout{
		PaymentPlanID: id,
		CheckoutURL:   checkout.Session.URL,
		MonthlyAmount: monthly,
	}, nil
}

// GetPaymentPlan fetches a single payment plan.
func (l *PaymentPlanLogic) GetPaymentPlan(ctx context.Context, id primitive.ObjectID) (*models.PaymentPlan, error) {
	plan, err := l.planRepo.GetPaymentPlanByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get payment plan: %w", err)
	}
	return plan, nil
}

// PaymentHistory returns the receipt trail for a subscription, payment plan
// or invoice, oldest first.
func (l *PaymentPlanLogic) PaymentHistory(ctx context.Context, parentID primitive.ObjectID) ([]*models.PaymentRecord, error) {
	records, err := l.paymentsRepo.GetPaymentRecordsByParent(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment records: %w", err)
	}
	return records, nil
}
