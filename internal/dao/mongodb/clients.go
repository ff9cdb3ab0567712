package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"studio_billing/internal/models"
)

func NewClientsDAO(db *mongo.Database, logger *zap.Logger) *ClientsDAO {
	return &ClientsDAO{
		collection: db.Collection(CollectionClients),
		logger:     logger.Named("ClientsDAO"),
	}
}

type ClientsDAO struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func (d *ClientsDAO) GetClientByID(ctx context.Context, id primitive.ObjectID) (*models.Client, error) {
	var client models.Client
	err := d.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&client)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		d.logger.Error("GetClientByID: FindOne failed", zap.Error(err), zap.Stringer("id", id))
		return nil, err
	}
	return &client, nil
}
