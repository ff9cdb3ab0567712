package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"studio_billing/internal/constants"
	"studio_billing/internal/dao/repository"
	"studio_billing/internal/models"
)

// setupDatabase starts a disposable MongoDB container so the guarded filter
// and update documents run against a real server instead of mocks.
func setupDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skip integration tests in short mode")
	}

	ctx := context.Background()
	container, err := tcmongo.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container))
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	return client.Database("studio_billing_test")
}

func decimal(t *testing.T, s string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	require.NoError(t, err)
	return d
}

func TestPaymentPlansDAO(t *testing.T) {
	db := setupDatabase(t)
	dao := NewPaymentPlansDAO(db, zap.NewNop())
	ctx := context.Background()

	t.Run("RecurringPaymentLifecycle", func(t *testing.T) {
		now := time.Now()
		id, err := dao.CreatePaymentPlan(ctx, &models.PaymentPlan{
			ProjectName:          "Website redesign",
			TotalAmount:          decimal(t, "900.00"),
			MonthlyAmount:        decimal(t, "300.00"),
			NumberOfPayments:     3,
			Status:               constants.SubscriptionStatusActive.String(),
			StripeSubscriptionID: "sub_plan_1",
			CheckoutSessionID:    "cs_plan_1",
			CreatedAt:            now,
			UpdatedAt:            now,
		})
		require.NoError(t, err)

		amount := decimal(t, "300.00")

		// First delivery of an invoice counts.
		plan, applied, err := dao.ApplyRecurringPayment(ctx, "sub_plan_1", "in_1", amount, now)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, 1, plan.PaymentsCompleted)
		assert.Contains(t, plan.ProcessedInvoiceIDs, "in_1")
		assert.Equal(t, amount, plan.LastPaymentAmount)

		// A redelivery of the same invoice id matches nothing.
		plan, applied, err = dao.ApplyRecurringPayment(ctx, "sub_plan_1", "in_1", amount, now)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, 1, plan.PaymentsCompleted)

		// A successful payment restores active from payment_failed.
		require.NoError(t, dao.UpdatePaymentPlan(ctx, id,
			repository.WithStatus(constants.SubscriptionStatusPaymentFailed.String()),
			repository.WithFailure("card_declined", now),
		))
		plan, applied, err = dao.ApplyRecurringPayment(ctx, "sub_plan_1", "in_2", amount, now)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, constants.SubscriptionStatusActive.String(), plan.Status)
		assert.Equal(t, 2, plan.PaymentsCompleted)

		// Final installment, then the active-only completion guard.
		plan, applied, err = dao.ApplyRecurringPayment(ctx, "sub_plan_1", "in_3", amount, now)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, 3, plan.PaymentsCompleted)

		require.NoError(t, dao.UpdatePaymentPlan(ctx, id,
			repository.WithStatus(constants.SubscriptionStatusCompleted.String()),
			repository.WithStatusGuard(constants.SubscriptionStatusActive.String()),
			repository.WithCompletedAt(now),
		))

		// A second completion attempt loses the guard.
		err = dao.UpdatePaymentPlan(ctx, id,
			repository.WithStatus(constants.SubscriptionStatusCompleted.String()),
			repository.WithStatusGuard(constants.SubscriptionStatusActive.String()),
		)
		assert.ErrorIs(t, err, ErrNotFound)

		// Completed plans count nothing further.
		plan, applied, err = dao.ApplyRecurringPayment(ctx, "sub_plan_1", "in_4", amount, now)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, 3, plan.PaymentsCompleted)
		assert.Equal(t, constants.SubscriptionStatusCompleted.String(), plan.Status)
		assert.NotContains(t, plan.ProcessedInvoiceIDs, "in_4")
	})

	t.Run("UnknownSubscriptionIsNotFound", func(t *testing.T) {
		_, _, err := dao.ApplyRecurringPayment(ctx, "sub_missing", "in_9", decimal(t, "10.00"), time.Now())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSubscriptionsDAO(t *testing.T) {
	db := setupDatabase(t)
	dao := NewSubscriptionsDAO(db, zap.NewNop())
	ctx := context.Background()

	t.Run("RecordSubscriptionPayment", func(t *testing.T) {
		now := time.Now()
		id, err := dao.CreateSubscription(ctx, &models.Subscription{
			PlanType:             "hosting",
			PlanTier:             "pro",
			Status:               constants.SubscriptionStatusActive.String(),
			StripeSubscriptionID: "sub_rec_1",
			CheckoutSessionID:    "cs_rec_1",
			CreatedAt:            now,
			UpdatedAt:            now,
		})
		require.NoError(t, err)

		amount := decimal(t, "49.00")

		sub, applied, err := dao.RecordSubscriptionPayment(ctx, "sub_rec_1", "in_10", amount, now)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, amount, sub.LastPaymentAmount)
		assert.Contains(t, sub.ProcessedInvoiceIDs, "in_10")

		// Duplicate delivery is a no-op.
		sub, applied, err = dao.RecordSubscriptionPayment(ctx, "sub_rec_1", "in_10", amount, now)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Len(t, sub.ProcessedInvoiceIDs, 1)

		// payment_failed recovers to active on the next paid invoice.
		require.NoError(t, dao.UpdateSubscription(ctx, id,
			repository.WithStatus(constants.SubscriptionStatusPaymentFailed.String()),
			repository.WithFailure("card_declined", now),
		))
		sub, applied, err = dao.RecordSubscriptionPayment(ctx, "sub_rec_1", "in_11", amount, now)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, constants.SubscriptionStatusActive.String(), sub.Status)

		// Terminal records are left untouched.
		require.NoError(t, dao.UpdateSubscription(ctx, id,
			repository.WithStatus(constants.SubscriptionStatusCancelled.String()),
			repository.WithCancelledAt(now),
		))
		sub, applied, err = dao.RecordSubscriptionPayment(ctx, "sub_rec_1", "in_12", amount, now)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, constants.SubscriptionStatusCancelled.String(), sub.Status)
		assert.NotContains(t, sub.ProcessedInvoiceIDs, "in_12")
	})

	t.Run("StatusGuardLosesCleanly", func(t *testing.T) {
		now := time.Now()
		id, err := dao.CreateSubscription(ctx, &models.Subscription{
			Status:            constants.SubscriptionStatusCancelled.String(),
			CheckoutSessionID: "cs_guard_1",
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		require.NoError(t, err)

		err = dao.UpdateSubscription(ctx, id,
			repository.WithStatus(constants.SubscriptionStatusActive.String()),
			repository.WithStatusGuard(constants.SubscriptionStatusPendingPayment.String()),
		)
		assert.ErrorIs(t, err, ErrNotFound)

		sub, err := dao.GetSubscriptionByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, constants.SubscriptionStatusCancelled.String(), sub.Status)
	})

	t.Run("ExpireStaleCheckouts", func(t *testing.T) {
		stale := time.Now().Add(-48 * time.Hour)
		fresh := time.Now()

		staleID, err := dao.CreateSubscription(ctx, &models.Subscription{
			Status:            constants.SubscriptionStatusPendingPayment.String(),
			CheckoutSessionID: "cs_stale_1",
			CreatedAt:         stale,
			UpdatedAt:         stale,
		})
		require.NoError(t, err)
		freshID, err := dao.CreateSubscription(ctx, &models.Subscription{
			Status:            constants.SubscriptionStatusPendingPayment.String(),
			CheckoutSessionID: "cs_fresh_1",
			CreatedAt:         fresh,
			UpdatedAt:         fresh,
		})
		require.NoError(t, err)

		expired, err := dao.ExpireStaleCheckouts(ctx, time.Now().Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), expired)

		staleSub, err := dao.GetSubscriptionByID(ctx, staleID)
		require.NoError(t, err)
		assert.Equal(t, constants.SubscriptionStatusCancelled.String(), staleSub.Status)

		freshSub, err := dao.GetSubscriptionByID(ctx, freshID)
		require.NoError(t, err)
		assert.Equal(t, constants.SubscriptionStatusPendingPayment.String(), freshSub.Status)
	})
}

func TestInvoicesDAO(t *testing.T) {
	db := setupDatabase(t)
	dao := NewInvoicesDAO(db, zap.NewNop())
	ctx := context.Background()

	t.Run("MarkInvoicePaidOnce", func(t *testing.T) {
		now := time.Now()
		id, err := dao.CreateInvoice(ctx, &models.Invoice{
			Total:         decimal(t, "350.00"),
			Status:        constants.InvoiceStatusPending.String(),
			InvoiceNumber: "2026-042",
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		require.NoError(t, err)

		paidAt := time.Now().Truncate(time.Millisecond)
		invoice, applied, err := dao.MarkInvoicePaid(ctx, id, "pi_1", paidAt)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, constants.InvoiceStatusPaid.String(), invoice.Status)
		assert.Equal(t, "pi_1", invoice.PaymentIntentID)
		require.NotNil(t, invoice.PaidAt)

		// The redelivery must not overwrite the recorded payment.
		invoice, applied, err = dao.MarkInvoicePaid(ctx, id, "pi_2", time.Now())
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, "pi_1", invoice.PaymentIntentID)
		assert.WithinDuration(t, paidAt, *invoice.PaidAt, time.Second)
	})

	t.Run("DraftInvoiceIsPayable", func(t *testing.T) {
		// A payment-link checkout can complete while the local record still
		// says draft; the transition must apply all the same.
		now := time.Now()
		id, err := dao.CreateInvoice(ctx, &models.Invoice{
			Total:     decimal(t, "120.00"),
			Status:    constants.InvoiceStatusDraft.String(),
			CreatedAt: now,
			UpdatedAt: now,
		})
		require.NoError(t, err)

		invoice, applied, err := dao.MarkInvoicePaid(ctx, id, "pi_3", time.Now())
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, constants.InvoiceStatusPaid.String(), invoice.Status)
	})

	t.Run("UnknownInvoiceIsNotFound", func(t *testing.T) {
		_, _, err := dao.MarkInvoicePaid(ctx, primitive.NewObjectID(), "pi_4", time.Now())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("NextInvoiceNumberIsSequentialPerYear", func(t *testing.T) {
		for i, want := range []string{"2026-001", "2026-002", "2026-003"} {
			got, err := dao.NextInvoiceNumber(ctx, 2026)
			require.NoError(t, err, "call %d", i)
			assert.Equal(t, want, got)
		}

		// Each year runs its own sequence.
		got, err := dao.NextInvoiceNumber(ctx, 2027)
		require.NoError(t, err)
		assert.Equal(t, "2027-001", got)
	})
}
