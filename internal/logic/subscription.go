package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"studio_billing/internal/conf"
	"studio_billing/internal/constants"
	"studio_billing/internal/dao/mongodb"
	"studio_billing/internal/dao/repository"
	"studio_billing/internal/dto"
	"studio_billing/internal/gateway"
	"studio_billing/internal/models"
)

// nonTerminalStatuses guards lifecycle updates so cancelled and completed
// records are never written again.
var nonTerminalStatuses = []string{
	constants.SubscriptionStatusPendingPayment.String(),
	constants.SubscriptionStatusActive.String(),
	constants.SubscriptionStatusPaymentFailed.String(),
	constants.SubscriptionStatusCancelling.String(),
}

// SubscriptionLogic handles operator-driven lifecycle operations on catalog
// subscriptions and payment plans: checkout creation and cancellation.
type SubscriptionLogic struct {
	clientRepo repository.ClientsRepository
	subRepo    repository.SubscriptionsRepository
	planRepo   repository.PaymentPlansRepository
	auditRepo  repository.AuditLogRepository
	gateway    gateway.Gateway
	stripeConf *conf.StripeConfig
	logger     *zap.Logger
}

// NewSubscriptionLogic creates a new SubscriptionLogic.
func NewSubscriptionLogic(
	clientRepo repository.ClientsRepository,
	subRepo repository.SubscriptionsRepository,
	planRepo repository.PaymentPlansRepository,
	auditRepo repository.AuditLogRepository,
	gw gateway.Gateway,
	stripeConf *conf.StripeConfig,
	logger *zap.Logger,
) *SubscriptionLogic {
	return &SubscriptionLogic{
		clientRepo: clientRepo,
		subRepo:    subRepo,
		planRepo:   planRepo,
		auditRepo:  auditRepo,
		gateway:    gw,
		stripeConf: stripeConf,
		logger:     logger.Named("SubscriptionLogic"),
	}
}

// CreateSubscription opens a gateway checkout for a configured catalog price
// and stores a pending_payment record keyed by the checkout session id. The
// record only becomes active when the checkout completion webhook arrives.
func (l *SubscriptionLogic) CreateSubscription(ctx context.Context, d *dto.CreateSubscriptionRequest) (*dto.SubscriptionCheckout, error) {
	client, err := l.clientRepo.GetClientByID(ctx, d.GetClientID())
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	priceKey := d.GetPlanType() + ":" + d.GetPlanTier()
	priceID, ok := l.stripeConf.PlanPrices[priceKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlanPrice, priceKey)
	}

	customerID, err := l.gateway.EnsureCustomer(ctx, client.Email, client.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: ensure customer: %v", ErrGateway, err)
	}
	session, err := l.gateway.CreateSubscriptionCheckout(ctx, customerID, priceID)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", ErrGateway, err)
	}

	now := time.Now()
	sub := &models.Subscription{
		Client: &models.ClientInfo{
			ID:    client.ID,
			Name:  client.Name,
			Email: client.Email,
		},
		PlanType:          d.GetPlanType(),
		PlanTier:          d.GetPlanTier(),
		PriceID:           priceID,
		Status:            constants.SubscriptionStatusPendingPayment.String(),
		CheckoutSessionID: session.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	id, err := l.subRepo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := l.auditRepo.Create(ctx, NewAuditLog(d.GetOperator(), "subscription.create", constants.RecurringKindSubscription, id, nil, sub)); err != nil {
		l.logger.Warn("failed to write audit log for subscription creation", zap.Error(err), zap.Stringer("subscriptionID", id))
	}

	l.logger.Info("subscription checkout created",
		zap.Stringer("subscriptionID", id),
		zap.String("planType", d.GetPlanType()),
		zap.String("planTier", d.GetPlanTier()))
	return &dto.SubscriptionCheckout{
		SubscriptionID: id,
		CheckoutURL:    session.URL,
	}, nil
}

// CancelSubscription cancels a subscription or payment plan, immediately or
// at period end. The gateway is cancelled first; the local record only moves
// when the gateway call succeeded, so a gateway failure leaves both sides
// consistent. Cancelling a record that is already terminal returns its
// current state without error.
func (l *SubscriptionLogic) CancelSubscription(ctx context.Context, d *dto.CancelSubscriptionRequest) (*dto.CancelResult, error) {
	sub, err := l.subRepo.GetSubscriptionByID(ctx, d.GetID())
	if err == nil {
		return l.cancelSubscriptionRecord(ctx, sub, d)
	}
	if !errors.Is(err, mongodb.ErrNotFound) {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	plan, err := l.planRepo.GetPaymentPlanByID(ctx, d.GetID())
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get payment plan: %w", err)
	}
	return l.cancelPaymentPlanRecord(ctx, plan, d)
}

func (l *SubscriptionLogic) cancelSubscriptionRecord(ctx context.Context, sub *models.Subscription, d *dto.CancelSubscriptionRequest) (*dto.CancelResult, error) {
	if constants.ParseSubscriptionStatus(sub.Status).Terminal() {
		return &dto.CancelResult{Status: sub.Status, CancelAtPeriodEnd: sub.CancelAtPeriodEnd}, nil
	}

	status, opts, err := l.cancelOptions(ctx, sub.StripeSubscriptionID, d.GetCancelImmediately())
	if err != nil {
		return nil, err
	}

	err = l.subRepo.UpdateSubscription(ctx, sub.ID, opts...)
	if err != nil && !errors.Is(err, mongodb.ErrNotFound) {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	if err := l.auditRepo.Create(ctx, NewAuditLog(d.GetOperator(), "subscription.cancel", constants.RecurringKindSubscription, sub.ID,
		map[string]interface{}{"status": sub.Status},
		map[string]interface{}{"status": status.String()},
		WithReason(d.GetReason()),
	)); err != nil {
		l.logger.Warn("failed to write audit log for cancellation", zap.Error(err), zap.Stringer("subscriptionID", sub.ID))
	}

	l.logger.Info("subscription cancelled",
		zap.Stringer("subscriptionID", sub.ID),
		zap.String("status", status.String()),
		zap.Bool("immediately", d.GetCancelImmediately()))
	return &dto.CancelResult{
		Status:            status.String(),
		CancelAtPeriodEnd: status == constants.SubscriptionStatusCancelling,
	}, nil
}

func (l *SubscriptionLogic) cancelPaymentPlanRecord(ctx context.Context, plan *models.PaymentPlan, d *dto.CancelSubscriptionRequest) (*dto.CancelResult, error) {
	if constants.ParseSubscriptionStatus(plan.Status).Terminal() {
		return &dto.CancelResult{Status: plan.Status, CancelAtPeriodEnd: plan.CancelAtPeriodEnd}, nil
	}

	status, opts, err := l.cancelOptions(ctx, plan.StripeSubscriptionID, d.GetCancelImmediately())
	if err != nil {
		return nil, err
	}

	err = l.planRepo.UpdatePaymentPlan(ctx, plan.ID, opts...)
	if err != nil && !errors.Is(err, mongodb.ErrNotFound) {
		return nil, fmt.Errorf("failed to update payment plan: %w", err)
	}

	if err := l.auditRepo.Create(ctx, NewAuditLog(d.GetOperator(), "payment_plan.cancel", constants.RecurringKindPaymentPlan, plan.ID,
		map[string]interface{}{"status": plan.Status},
		map[string]interface{}{"status": status.String()},
		WithReason(d.GetReason()),
	)); err != nil {
		l.logger.Warn("failed to write audit log for cancellation", zap.Error(err), zap.Stringer("paymentPlanID", plan.ID))
	}

	l.logger.Info("payment plan cancelled",
		zap.Stringer("paymentPlanID", plan.ID),
		zap.String("status", status.String()),
		zap.Bool("immediately", d.GetCancelImmediately()))
	return &dto.CancelResult{
		Status:            status.String(),
		CancelAtPeriodEnd: status == constants.SubscriptionStatusCancelling,
	}, nil
}

// cancelOptions performs the gateway cancellation and returns the local
// status plus update options to apply. A record with no gateway subscription
// yet (checkout never completed) is cancelled locally only.
func (l *SubscriptionLogic) cancelOptions(ctx context.Context, stripeSubID string, immediately bool) (constants.SubscriptionStatus, []repository.UpdateOption, error) {
	now := time.Now()

	if stripeSubID == "" {
		opts := []repository.UpdateOption{
			repository.WithStatus(constants.SubscriptionStatusCancelled.String()),
			repository.WithStatusGuard(nonTerminalStatuses...),
			repository.WithCancelledAt(now),
		}
		return constants.SubscriptionStatusCancelled, opts, nil
	}

	state, err := l.gateway.CancelSubscription(ctx, stripeSubID, immediately)
	if err != nil {
		return constants.SubscriptionStatusUnknown, nil, fmt.Errorf("%w: cancel subscription: %v", ErrGateway, err)
	}

	if immediately {
		opts := []repository.UpdateOption{
			repository.WithStatus(constants.SubscriptionStatusCancelled.String()),
			repository.WithStatusGuard(nonTerminalStatuses...),
			repository.WithCancelledAt(now),
			repository.WithGatewayStatus(state.Status),
		}
		return constants.SubscriptionStatusCancelled, opts, nil
	}

	opts := []repository.UpdateOption{
		repository.WithStatus(constants.SubscriptionStatusCancelling.String()),
		repository.WithStatusGuard(nonTerminalStatuses...),
		repository.WithCancelAtPeriodEnd(true),
		repository.WithGatewayStatus(state.Status),
	}
	if !state.CurrentPeriodEnd.IsZero() {
		opts = append(opts, repository.WithCurrentPeriodEnd(state.CurrentPeriodEnd))
	}
	return constants.SubscriptionStatusCancelling, opts, nil
}
