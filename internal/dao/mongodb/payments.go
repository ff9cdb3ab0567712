package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"studio_billing/internal/dao/fields"
	"studio_billing/internal/models"
)

func NewPaymentsDAO(db *mongo.Database, logger *zap.Logger) *PaymentsDAO {
	return &PaymentsDAO{
		collection: db.Collection(CollectionPayments),
		logger:     logger.Named("PaymentsDAO"),
	}
}

// PaymentsDAO writes the append-only receipt trail. There is deliberately no
// update or delete method here.
type PaymentsDAO struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func (d *PaymentsDAO) CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) (primitive.ObjectID, error) {
	res, err := d.collection.InsertOne(ctx, record)
	if err != nil {
		d.logger.Error("CreatePaymentRecord: InsertOne failed", zap.Error(err))
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (d *PaymentsDAO) GetPaymentRecordsByParent(ctx context.Context, parentID primitive.ObjectID) ([]*models.PaymentRecord, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: fields.FieldPaidAt, Value: 1}})
	cursor, err := d.collection.Find(ctx, bson.M{"parent_id": parentID}, findOptions)
	if err != nil {
		d.logger.Error("GetPaymentRecordsByParent: Find failed", zap.Error(err), zap.Stringer("parentID", parentID))
		return nil, err
	}

	var records []*models.PaymentRecord
	if err := cursor.All(ctx, &records); err != nil {
		d.logger.Error("GetPaymentRecordsByParent: cursor.All failed", zap.Error(err), zap.Stringer("parentID", parentID))
		return nil, err
	}
	return records, nil
}
