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

func NewSubscriptionsDAO(db *mongo.Database, logger *zap.Logger) *SubscriptionsDAO {
	return &SubscriptionsDAO{
		collection: db.Collection(CollectionSubscription),
		logger:     logger.Named("SubscriptionsDAO"),
	}
}

type SubscriptionsDAO struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func (d *SubscriptionsDAO) CreateSubscription(ctx context.Context, sub *models.Subscription) (primitive.ObjectID, error) {
	res, err := d.collection.InsertOne(ctx, sub)
	if err != nil {
		d.logger.Error("CreateSubscription: InsertOne failed", zap.Error(err))
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (d *SubscriptionsDAO) GetSubscriptionByID(ctx context.Context, id primitive.ObjectID) (*models.Subscription, error) {
	return d.findOne(ctx, bson.M{fields.FieldObjectId: id})
}

func (d *SubscriptionsDAO) GetSubscriptionByCheckoutSession(ctx context.Context, sessionID string) (*models.Subscription, error) {
	return d.findOne(ctx, bson.M{fields.FieldCheckoutSessionID: sessionID})
}

func (d *SubscriptionsDAO) GetSubscriptionByStripeID(ctx context.Context, stripeSubID string) (*models.Subscription, error) {
	return d.findOne(ctx, bson.M{fields.FieldStripeSubscriptionID: stripeSubID})
}

func (d *SubscriptionsDAO) findOne(ctx context.Context, filter bson.M) (*models.Subscription, error) {
	var sub models.Subscription
	err := d.collection.FindOne(ctx, filter).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		d.logger.Error("findOne: FindOne failed", zap.Error(err), zap.Any("filter", filter))
		return nil, err
	}
	return &sub, nil
}

// UpdateSubscription updates a single subscription using functional options.
func (d *SubscriptionsDAO) UpdateSubscription(ctx context.Context, id primitive.ObjectID, opts ...repository.UpdateOption) error {
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
		d.logger.Error("UpdateSubscription: UpdateOne failed", zap.Error(err), zap.Stringer("id", id))
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordSubscriptionPayment stores the latest payment and restores active
// from payment_failed. The filter keeps terminal records untouched and makes
// duplicate deliveries of one gateway invoice match nothing.
func (d *SubscriptionsDAO) RecordSubscriptionPayment(ctx context.Context, stripeSubID, stripeInvoiceID string, amount primitive.Decimal128, paidAt time.Time) (*models.Subscription, bool, error) {
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
		repository.WithProcessedInvoiceID(stripeInvoiceID),
	})
	findOptions := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var sub models.Subscription
	err := d.collection.FindOneAndUpdate(ctx, filter, update, findOptions).Decode(&sub)
	if err == nil {
		return &sub, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		d.logger.Error("RecordSubscriptionPayment: FindOneAndUpdate failed", zap.Error(err), zap.String("stripeSubID", stripeSubID))
		return nil, false, err
	}

	current, err := d.GetSubscriptionByStripeID(ctx, stripeSubID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// ExpireStaleCheckouts cancels pending_payment subscriptions whose checkout
// was created before the cutoff.
func (d *SubscriptionsDAO) ExpireStaleCheckouts(ctx context.Context, olderThan time.Time) (int64, error) {
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
