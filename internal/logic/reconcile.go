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
	"studio_billing/internal/db"
	"studio_billing/internal/gateway"
	"studio_billing/internal/helper"
	"studio_billing/internal/models"
	"studio_billing/pkg/snowflake"
)

// ReconcileLogic applies gateway webhook events to local billing records.
// Every operation here tolerates duplicate and out-of-order deliveries: the
// guarded repository updates decide whether an event still applies, and an
// event that matches nothing is dropped after a warning so the gateway is
// never asked to redeliver it.
type ReconcileLogic struct {
	subRepo      repository.SubscriptionsRepository
	planRepo     repository.PaymentPlansRepository
	paymentsRepo repository.PaymentsRepository
	gateway      gateway.Gateway
	txManager    db.TransactionManager
	idGen        *snowflake.Generator
	notifier     *NotificationPublisher
	logger       *zap.Logger
}

// NewReconcileLogic creates a new ReconcileLogic.
func NewReconcileLogic(
	subRepo repository.SubscriptionsRepository,
	planRepo repository.PaymentPlansRepository,
	paymentsRepo repository.PaymentsRepository,
	gw gateway.Gateway,
	txManager db.TransactionManager,
	idGen *snowflake.Generator,
	notifier *NotificationPublisher,
	logger *zap.Logger,
) *ReconcileLogic {
	return &ReconcileLogic{
		subRepo:      subRepo,
		planRepo:     planRepo,
		paymentsRepo: paymentsRepo,
		gateway:      gw,
		txManager:    txManager,
		idGen:        idGen,
		notifier:     notifier,
		logger:       logger.Named("ReconcileLogic"),
	}
}

func newReceiptNumber(g *snowflake.Generator) (string, error) {
	id, err := g.GetID()
	if err != nil {
		return "", fmt.Errorf("failed to generate receipt number: %w", err)
	}
	return fmt.Sprintf("RCP-%d", id), nil
}

// ActivateCheckout binds a completed checkout session to its local record and
// moves it from pending_payment to active. The pending_payment guard makes a
// redelivered completion a no-op.
func (r *ReconcileLogic) ActivateCheckout(ctx context.Context, sessionID, stripeSubID string) error {
	activate := []repository.UpdateOption{
		repository.WithStatus(constants.SubscriptionStatusActive.String()),
		repository.WithStatusGuard(constants.SubscriptionStatusPendingPayment.String()),
		repository.WithStripeSubscriptionID(stripeSubID),
	}

	sub, err := r.subRepo.GetSubscriptionByCheckoutSession(ctx, sessionID)
	if err == nil {
		err = r.subRepo.UpdateSubscription(ctx, sub.ID, activate...)
		if errors.Is(err, mongodb.ErrNotFound) {
			r.logger.Debug("subscription already activated", zap.Stringer("subscriptionID", sub.ID))
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to activate subscription: %w", err)
		}
		r.logger.Info("subscription activated",
			zap.Stringer("subscriptionID", sub.ID),
			zap.String("stripeSubscriptionID", stripeSubID))
		return nil
	}
	if !errors.Is(err, mongodb.ErrNotFound) {
		return fmt.Errorf("failed to look up subscription by checkout session: %w", err)
	}

	plan, err := r.planRepo.GetPaymentPlanByCheckoutSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			r.logger.Warn("completed checkout matches no local record", zap.String("sessionID", sessionID))
			return nil
		}
		return fmt.Errorf("failed to look up payment plan by checkout session: %w", err)
	}
	err = r.planRepo.UpdatePaymentPlan(ctx, plan.ID, activate...)
	if errors.Is(err, mongodb.ErrNotFound) {
		r.logger.Debug("payment plan already activated", zap.Stringer("paymentPlanID", plan.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to activate payment plan: %w", err)
	}
	r.logger.Info("payment plan activated",
		zap.Stringer("paymentPlanID", plan.ID),
		zap.String("stripeSubscriptionID", stripeSubID))
	return nil
}

// RecordRecurringPayment counts a paid gateway invoice against the matching
// subscription or payment plan. The guarded update, the payment record, and
// the notification outbox message commit together; the gateway invoice id
// acts as the dedup key, so a redelivered event changes nothing. A payment
// plan whose final installment was just counted is completed and its gateway
// subscription is cancelled best-effort afterwards.
func (r *ReconcileLogic) RecordRecurringPayment(ctx context.Context, stripeSubID, stripeInvoiceID string, amountCents int64, paidAt time.Time) error {
	amount, err := helper.CentsToDecimal(amountCents)
	if err != nil {
		return fmt.Errorf("invalid payment amount %d: %w", amountCents, err)
	}

	res, err := r.txManager.WithTransaction(ctx, func(sessCtx context.Context) (interface{}, error) {
		sub, applied, err := r.subRepo.RecordSubscriptionPayment(sessCtx, stripeSubID, stripeInvoiceID, amount, paidAt)
		if err == nil {
			if !applied {
				r.logger.Info("subscription payment already counted or record terminal, ignoring",
					zap.Stringer("subscriptionID", sub.ID),
					zap.String("stripeInvoiceID", stripeInvoiceID))
				return false, nil
			}
			if err := r.writePaymentRecord(sessCtx, constants.RecurringKindSubscription, sub.ID, sub.Client, amount, stripeSubID, stripeInvoiceID, paidAt); err != nil {
				return false, err
			}
			if err := r.notifier.Publish(sessCtx, PaymentReceivedEvent(sub.Client, constants.RecurringKindSubscription, sub.ID, amount, paidAt)); err != nil {
				return false, err
			}
			r.logger.Info("subscription payment counted",
				zap.Stringer("subscriptionID", sub.ID),
				zap.String("stripeInvoiceID", stripeInvoiceID))
			return false, nil
		}
		if !errors.Is(err, mongodb.ErrNotFound) {
			return false, fmt.Errorf("failed to record subscription payment: %w", err)
		}

		plan, applied, err := r.planRepo.ApplyRecurringPayment(sessCtx, stripeSubID, stripeInvoiceID, amount, paidAt)
		if err != nil {
			if errors.Is(err, mongodb.ErrNotFound) {
				r.logger.Warn("paid gateway invoice matches no local record",
					zap.String("stripeSubscriptionID", stripeSubID),
					zap.String("stripeInvoiceID", stripeInvoiceID))
				return false, nil
			}
			return false, fmt.Errorf("failed to apply recurring payment: %w", err)
		}
		if !applied {
			r.logger.Info("plan payment already counted or plan terminal, ignoring",
				zap.Stringer("paymentPlanID", plan.ID),
				zap.String("stripeInvoiceID", stripeInvoiceID))
			return false, nil
		}

		if err := r.writePaymentRecord(sessCtx, constants.RecurringKindPaymentPlan, plan.ID, plan.Client, amount, stripeSubID, stripeInvoiceID, paidAt); err != nil {
			return false, err
		}
		if err := r.notifier.Publish(sessCtx, PaymentReceivedEvent(plan.Client, constants.RecurringKindPaymentPlan, plan.ID, amount, paidAt)); err != nil {
			return false, err
		}
		r.logger.Info("plan payment counted",
			zap.Stringer("paymentPlanID", plan.ID),
			zap.Int("paymentsCompleted", plan.PaymentsCompleted),
			zap.Int("numberOfPayments", plan.NumberOfPayments))

		if plan.PaymentsCompleted < plan.NumberOfPayments {
			return false, nil
		}

		// Final installment: the plan is done.
		err = r.planRepo.UpdatePaymentPlan(sessCtx, plan.ID,
			repository.WithStatus(constants.SubscriptionStatusCompleted.String()),
			repository.WithStatusGuard(constants.SubscriptionStatusActive.String()),
			repository.WithCompletedAt(time.Now()),
		)
		if err != nil && !errors.Is(err, mongodb.ErrNotFound) {
			return false, fmt.Errorf("failed to complete payment plan: %w", err)
		}
		event := &NotificationEvent{
			Kind:       constants.NotificationPlanCompleted.String(),
			EntityType: constants.RecurringKindPaymentPlan,
			EntityID:   plan.ID.Hex(),
			Amount:     plan.TotalAmount.String(),
			Reference:  plan.ProjectName,
			OccurredAt: paidAt.Format(time.RFC3339),
		}
		if plan.Client != nil {
			event.RecipientEmail = plan.Client.Email
			event.RecipientName = plan.Client.Name
		}
		if err := r.notifier.Publish(sessCtx, event); err != nil {
			return false, err
		}
		r.logger.Info("payment plan completed", zap.Stringer("paymentPlanID", plan.ID))
		return true, nil
	})
	if err != nil {
		return err
	}

	// The gateway call stays outside the transaction. If it fails the
	// gateway keeps charging, but further invoices no longer match the
	// completed plan, so nothing is double counted.
	if completed, ok := res.(bool); ok && completed {
		if _, err := r.gateway.CancelSubscription(ctx, stripeSubID, true); err != nil {
			r.logger.Warn("failed to cancel gateway subscription for completed plan",
				zap.Error(err),
				zap.String("stripeSubscriptionID", stripeSubID))
		}
	}
	return nil
}

// RecordPaymentFailure marks the matching record payment_failed and notifies
// the client. Terminal records are left untouched; a later successful payment
// restores active through RecordRecurringPayment.
func (r *ReconcileLogic) RecordPaymentFailure(ctx context.Context, stripeSubID, reason string, failedAt time.Time) error {
	fail := []repository.UpdateOption{
		repository.WithStatus(constants.SubscriptionStatusPaymentFailed.String()),
		repository.WithStatusGuard(
			constants.SubscriptionStatusActive.String(),
			constants.SubscriptionStatusPaymentFailed.String(),
			constants.SubscriptionStatusCancelling.String(),
		),
		repository.WithFailure(reason, failedAt),
	}

	sub, err := r.subRepo.GetSubscriptionByStripeID(ctx, stripeSubID)
	if err == nil {
		err = r.subRepo.UpdateSubscription(ctx, sub.ID, fail...)
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to record subscription payment failure: %w", err)
		}
		r.logger.Warn("subscription payment failed",
			zap.Stringer("subscriptionID", sub.ID),
			zap.String("reason", reason))
		return r.notifier.Publish(ctx, r.failureEvent(constants.RecurringKindSubscription, sub.ID.Hex(), sub.Client, reason, failedAt))
	}
	if !errors.Is(err, mongodb.ErrNotFound) {
		return fmt.Errorf("failed to look up subscription: %w", err)
	}

	plan, err := r.planRepo.GetPaymentPlanByStripeID(ctx, stripeSubID)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			r.logger.Warn("payment failure matches no local record", zap.String("stripeSubscriptionID", stripeSubID))
			return nil
		}
		return fmt.Errorf("failed to look up payment plan: %w", err)
	}
	err = r.planRepo.UpdatePaymentPlan(ctx, plan.ID, fail...)
	if errors.Is(err, mongodb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to record plan payment failure: %w", err)
	}
	r.logger.Warn("plan payment failed",
		zap.Stringer("paymentPlanID", plan.ID),
		zap.String("reason", reason))
	return r.notifier.Publish(ctx, r.failureEvent(constants.RecurringKindPaymentPlan, plan.ID.Hex(), plan.Client, reason, failedAt))
}

// HandleGatewayCancellation applies a gateway-side subscription deletion to
// the local record. Completed and cancelled records keep their status, so a
// deletion arriving after plan completion changes nothing.
func (r *ReconcileLogic) HandleGatewayCancellation(ctx context.Context, stripeSubID string, cancelledAt time.Time) error {
	cancel := []repository.UpdateOption{
		repository.WithStatus(constants.SubscriptionStatusCancelled.String()),
		repository.WithStatusGuard(nonTerminalStatuses...),
		repository.WithCancelledAt(cancelledAt),
	}

	sub, err := r.subRepo.GetSubscriptionByStripeID(ctx, stripeSubID)
	if err == nil {
		err = r.subRepo.UpdateSubscription(ctx, sub.ID, cancel...)
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to cancel subscription: %w", err)
		}
		r.logger.Info("subscription cancelled by gateway", zap.Stringer("subscriptionID", sub.ID))
		return nil
	}
	if !errors.Is(err, mongodb.ErrNotFound) {
		return fmt.Errorf("failed to look up subscription: %w", err)
	}

	plan, err := r.planRepo.GetPaymentPlanByStripeID(ctx, stripeSubID)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			r.logger.Warn("gateway cancellation matches no local record", zap.String("stripeSubscriptionID", stripeSubID))
			return nil
		}
		return fmt.Errorf("failed to look up payment plan: %w", err)
	}
	err = r.planRepo.UpdatePaymentPlan(ctx, plan.ID, cancel...)
	if errors.Is(err, mongodb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to cancel payment plan: %w", err)
	}
	r.logger.Info("payment plan cancelled by gateway", zap.Stringer("paymentPlanID", plan.ID))
	return nil
}

// SyncGatewayState mirrors the raw gateway subscription state onto the local
// record. A pending cancellation at period end additionally moves an active
// record to cancelling.
func (r *ReconcileLogic) SyncGatewayState(ctx context.Context, stripeSubID, gatewayStatus string, cancelAtPeriodEnd bool, periodEnd *time.Time) error {
	mirror := []repository.UpdateOption{
		repository.WithGatewayStatus(gatewayStatus),
		repository.WithCancelAtPeriodEnd(cancelAtPeriodEnd),
	}
	if periodEnd != nil {
		mirror = append(mirror, repository.WithCurrentPeriodEnd(*periodEnd))
	}

	sub, err := r.subRepo.GetSubscriptionByStripeID(ctx, stripeSubID)
	if err == nil {
		if err := r.subRepo.UpdateSubscription(ctx, sub.ID, mirror...); err != nil {
			return fmt.Errorf("failed to sync subscription state: %w", err)
		}
		if cancelAtPeriodEnd {
			err = r.subRepo.UpdateSubscription(ctx, sub.ID,
				repository.WithStatus(constants.SubscriptionStatusCancelling.String()),
				repository.WithStatusGuard(constants.SubscriptionStatusActive.String()),
			)
			if err != nil && !errors.Is(err, mongodb.ErrNotFound) {
				return fmt.Errorf("failed to mark subscription cancelling: %w", err)
			}
		}
		return nil
	}
	if !errors.Is(err, mongodb.ErrNotFound) {
		return fmt.Errorf("failed to look up subscription: %w", err)
	}

	plan, err := r.planRepo.GetPaymentPlanByStripeID(ctx, stripeSubID)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			r.logger.Debug("gateway state update matches no local record", zap.String("stripeSubscriptionID", stripeSubID))
			return nil
		}
		return fmt.Errorf("failed to look up payment plan: %w", err)
	}
	if err := r.planRepo.UpdatePaymentPlan(ctx, plan.ID, mirror...); err != nil {
		return fmt.Errorf("failed to sync payment plan state: %w", err)
	}
	if cancelAtPeriodEnd {
		err = r.planRepo.UpdatePaymentPlan(ctx, plan.ID,
			repository.WithStatus(constants.SubscriptionStatusCancelling.String()),
			repository.WithStatusGuard(constants.SubscriptionStatusActive.String()),
		)
		if err != nil && !errors.Is(err, mongodb.ErrNotFound) {
			return fmt.Errorf("failed to mark payment plan cancelling: %w", err)
		}
	}
	return nil
}

// ExpireStaleCheckouts cancels pending_payment records whose checkout session
// was created before the cutoff and never completed.
func (r *ReconcileLogic) ExpireStaleCheckouts(ctx context.Context, olderThan time.Time) (int64, error) {
	subs, err := r.subRepo.ExpireStaleCheckouts(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale subscription checkouts: %w", err)
	}
	plans, err := r.planRepo.ExpireStaleCheckouts(ctx, olderThan)
	if err != nil {
		return subs, fmt.Errorf("failed to expire stale payment plan checkouts: %w", err)
	}
	return subs + plans, nil
}

func (r *ReconcileLogic) writePaymentRecord(ctx context.Context, kind string, parentID primitive.ObjectID, client *models.ClientInfo, amount primitive.Decimal128, stripeSubID, stripeInvoiceID string, paidAt time.Time) error {
	receipt, err := newReceiptNumber(r.idGen)
	if err != nil {
		return err
	}
	record := &models.PaymentRecord{
		ReceiptNumber:        receipt,
		Type:                 kind,
		ParentID:             parentID,
		Client:               client,
		Amount:               amount,
		StripeInvoiceID:      stripeInvoiceID,
		StripeSubscriptionID: stripeSubID,
		PaidAt:               paidAt,
		CreatedAt:            time.Now(),
	}
	if _, err := r.paymentsRepo.CreatePaymentRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}
	return nil
}

func (r *ReconcileLogic) failureEvent(kind, entityID string, client *models.ClientInfo, reason string, failedAt time.Time) *NotificationEvent {
	event := &NotificationEvent{
		Kind:       constants.NotificationPaymentFailed.String(),
		EntityType: kind,
		EntityID:   entityID,
		Reason:     reason,
		OccurredAt: failedAt.Format(time.RFC3339),
	}
	if client != nil {
		event.RecipientEmail = client.Email
		event.RecipientName = client.Name
	}
	return event
}
