package mongodb

import (
	"context"
	"errors"
	"fmt"
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
	"studio_billing/pkg/pagination"
)

func NewInvoicesDAO(db *mongo.Database, logger *zap.Logger) *InvoicesDAO {
	return &InvoicesDAO{
		invoicesCollection: db.Collection(CollectionInvoices),
		countersCollection: db.Collection(CollectionCounters),
		logger:             logger.Named("InvoicesDAO"),
	}
}

type InvoicesDAO struct {
	invoicesCollection *mongo.Collection
	countersCollection *mongo.Collection
	logger             *zap.Logger
}

func (d *InvoicesDAO) CreateInvoice(ctx context.Context, invoice *models.Invoice) (primitive.ObjectID, error) {
	res, err := d.invoicesCollection.InsertOne(ctx, invoice)
	if err != nil {
		d.logger.Error("CreateInvoice: InsertOne failed", zap.Error(err))
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (d *InvoicesDAO) GetInvoiceByID(ctx context.Context, id primitive.ObjectID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := d.invoicesCollection.FindOne(ctx, bson.M{fields.FieldObjectId: id}).Decode(&invoice)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		d.logger.Error("GetInvoiceByID: FindOne failed", zap.Error(err), zap.Stringer("id", id))
		return nil, err
	}
	return &invoice, nil
}

func (d *InvoicesDAO) ListInvoices(ctx context.Context, page *pagination.PageRequest) ([]*models.Invoice, int64, error) {
	total, err := d.invoicesCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		d.logger.Error("ListInvoices: CountDocuments failed", zap.Error(err))
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: fields.FieldCreatedAt, Value: -1}}).
		SetSkip(int64(page.GetOffset())).
		SetLimit(int64(page.GetLimit()))
	cursor, err := d.invoicesCollection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		d.logger.Error("ListInvoices: Find failed", zap.Error(err))
		return nil, 0, err
	}

	var invoices []*models.Invoice
	if err := cursor.All(ctx, &invoices); err != nil {
		d.logger.Error("ListInvoices: cursor.All failed", zap.Error(err))
		return nil, 0, err
	}
	return invoices, total, nil
}

// UpdateInvoice updates a single invoice using functional options.
func (d *InvoicesDAO) UpdateInvoice(ctx context.Context, id primitive.ObjectID, opts ...repository.UpdateOption) error {
	update, guard := buildUpdate(opts)
	if len(update) == 0 {
		return nil // Nothing to do.
	}

	filter := bson.M{fields.FieldObjectId: id}
	for k, v := range guard {
		filter[k] = v
	}
	res, err := d.invoicesCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		d.logger.Error("UpdateInvoice: UpdateOne failed", zap.Error(err), zap.Stringer("id", id))
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkInvoicePaid moves a draft or pending invoice to paid. The status filter
// makes the transition apply at most once; a duplicate delivery matches
// nothing and the current document is returned with applied=false.
func (d *InvoicesDAO) MarkInvoicePaid(ctx context.Context, id primitive.ObjectID, paymentIntentID string, paidAt time.Time) (*models.Invoice, bool, error) {
	filter := bson.M{
		fields.FieldObjectId: id,
		fields.FieldStatus: bson.M{"$in": []string{
			constants.InvoiceStatusDraft.String(),
			constants.InvoiceStatusPending.String(),
		}},
	}
	update := bson.M{
		"$set": bson.M{
			fields.FieldStatus:          constants.InvoiceStatusPaid.String(),
			fields.FieldPaymentIntentID: paymentIntentID,
			fields.FieldPaidAt:          paidAt,
			fields.FieldUpdatedAt:       time.Now(),
		},
	}
	findOptions := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var invoice models.Invoice
	err := d.invoicesCollection.FindOneAndUpdate(ctx, filter, update, findOptions).Decode(&invoice)
	if err == nil {
		return &invoice, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		d.logger.Error("MarkInvoicePaid: FindOneAndUpdate failed", zap.Error(err), zap.Stringer("id", id))
		return nil, false, err
	}

	// Either the invoice does not exist or it is already paid.
	current, err := d.GetInvoiceByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// NextInvoiceNumber reserves the next value of the per-year sequence and
// formats it as "YYYY-NNN". The upsert creates the counter document on the
// first invoice of a year.
func (d *InvoicesDAO) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	filter := bson.M{fields.FieldObjectId: fmt.Sprintf("invoice-%d", year)}
	update := bson.M{"$inc": bson.M{fields.FieldCounterSeq: int64(1)}}
	findOptions := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter models.Counter
	if err := d.countersCollection.FindOneAndUpdate(ctx, filter, update, findOptions).Decode(&counter); err != nil {
		d.logger.Error("NextInvoiceNumber: FindOneAndUpdate failed", zap.Error(err), zap.Int("year", year))
		return "", err
	}
	return fmt.Sprintf("%d-%03d", year, counter.Seq), nil
}
