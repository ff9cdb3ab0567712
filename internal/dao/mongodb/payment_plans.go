package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"studio_billing/internal/constants"
	"studio_billing/internal/dao/fields"
	"studio_billing/internal/dao/repository"
	"studio_billing/internal/models"
)

func NewPaymentPlansDAO(db *mongo.Database, logger *zap.Logger) *PaymentPlansDAO {
	return &PaymentPlansDAO{
		collection: db.Collection(CollectionPaymentPlans),
		logger:     logger.Named("PaymentPlansDAO"),
	}
}

type PaymentPlansDAO struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func (d *PaymentPlansDAO) CreatePaymentPlan(ctx context.Context, plan *models.PaymentPlan) (primitive.ObjectID, error) {
	res, err := d.collection.InsertOne(ctx, plan)
	if err != nil {
		d.logger.Error("CreatePaymentPlan: InsertOne failed", zap.Error(err))
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (d *PaymentPlansDAO) GetPaymentPlanByID(ctx context.Context, id primitive.ObjectID) (*models.PaymentPlan, error) {
	return d.findOne(ctx, bson.M{fields.FieldObjectId: id})
}

func (d *PaymentPlansDAO) GetPaymentPlanByCheckoutSession(ctx context.Context, sessionID string) (*models.PaymentPlan, error) {
	return d.findOne(ctx, bson.M{fields.FieldCheckoutSessionID: sessionID})
}

func (d *PaymentPlansDAO) GetPaymentPlanByStripeID(ctx context.Context, stripeSubID string) (*models.PaymentPlan, error) {
	return d.findOne(ctx, bson.M{fields.FieldStripeSubscriptionID: stripeSubID})
}

func (d *PaymentPlansDAO) findOne(ctx context.Context, filter bson.M) (*models.PaymentPlan, error) {
	var plan models.PaymentPlan
	err := d.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		d.logger.Error("findOne: FindOne failed", zap.Error(err), zap.Any("filter", filter))
		return nil, err
	}
	return &plan, nil
}

// UpdatePaymentPlan updates a single payment plan using functional options.
func (d *PaymentPlansDAO) UpdatePaymentPlan(ctx context.Context, id primitive.ObjectID, opts ...repository.UpdateOption) error {
	update, guard := buildUpdate(opts)
	if len(update) == 0 {
		return nil // Nothing to do.
	}

	filter := bson.M{fields.FieldObjectId: id}
	for k, v := range guard {
		filter[k] = v
	}
	res, err := d.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		d.logger.Error("UpdatePaymentPlan: UpdateOne failed", zap.Error(err), zap.Stringer("id", id))
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyRecurringPayment counts one gateway invoice against the plan. The
// whole dedup guard lives in the filter: an invoice id already present in
// processed_invoice_ids, or a plan in a terminal status, matches nothing and
// the payment is not applied a second time.
func (d *PaymentPlansDAO) ApplyRecurringPayment(ctx context.Context, stripeSubID, stripeInvoiceID string, amount primitive.Decimal128, paidAt time.Time) (*models.PaymentPlan, bool, error) {
	filter := bson.M{
		fields.FieldStripeSubscriptionID: stripeSubID,
		fields.FieldProcessedInvoiceIDs:  bson.M{"$ne": stripeInvoiceID},
		fields.FieldStatus: bson.M{"$in": []string{
			constants.SubscriptionStatusActive.String(),
			constants.SubscriptionStatusPaymentFailed.String(),
		}},
	}
	update, _ := buildUpdate([]repository.UpdateOption{
		repository.WithStatus(constants.SubscriptionStatusActive.String()),
		repository.WithLastPayment(amount, paidAt),
		repository.WithIncPaymentsCompleted(1),
		repository.WithProcessedInvoiceID(stripeInvoiceID),
	})
	findOptions := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var plan models.PaymentPlan
	err := d.collection.FindOneAndUpdate(ctx, filter, update, findOptions).Decode(&plan)
	if err == nil {
		return &plan, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		d.logger.Error("ApplyRecurringPayment: FindOneAndUpdate failed", zap.Error(err),
			zap.String("stripeSubID", stripeSubID), zap.String("stripeInvoiceID", stripeInvoiceID))
		return nil, false, err
	}

	current, err := d.GetPaymentPlanByStripeID(ctx, stripeSubID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// ExpireStaleCheckouts cancels pending_payment plans whose checkout was
// created before the cutoff.
func (d *PaymentPlansDAO) ExpireStaleCheckouts(ctx context.Context, olderThan time.Time) (int64, error) {
	filter := bson.M{
		fields.FieldStatus:    constants.SubscriptionStatusPendingPayment.String(),
		fields.FieldCreatedAt: bson.M{"$lt": olderThan},
	}
	update := bson.M{
		"$set": bson.M{
			fields.FieldStatus:      constants.SubscriptionStatusCancelled.String(),
			fields.FieldCancelledAt: time.Now(),
			fields.FieldUpdatedAt:   time.Now(),
		},
	}
	res, err := d.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		d.logger.Error("ExpireStaleCheckouts: UpdateMany failed", zap.Error(err))
		return 0, err
	}
	return res.ModifiedCount, nil
}
