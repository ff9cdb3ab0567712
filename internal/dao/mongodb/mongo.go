package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"studio_billing/internal/conf"
	"studio_billing/internal/dao/repository"
)

// NewMongoDB connects to MongoDB and returns the client together with a
// cleanup function that disconnects it.
func NewMongoDB(cfg *conf.MongodbConfig) (*mongo.Client, func(), error) {
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.User, cfg.Password, cfg.Host, cfg.Port)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
	return client, cleanup, nil
}

// NewDatabase returns the application database handle.
func NewDatabase(client *mongo.Client, cfg *conf.MongodbConfig) *mongo.Database {
	return client.Database(cfg.DB)
}

// buildUpdate constructs the MongoDB update document from applied options.
// The updated_at field rides along whenever anything else is set.
func buildUpdate(opts []repository.UpdateOption) (update bson.M, guard bson.M) {
	updateData := repository.NewUpdateOptions()
	for _, opt := range opts {
		opt(updateData)
	}

	update = bson.M{}
	if len(updateData.SetFields) > 0 {
		updateData.SetFields["updated_at"] = time.Now()
		update["$set"] = updateData.SetFields
	}
	if len(updateData.IncFields) > 0 {
		update["$inc"] = updateData.IncFields
	}
	if len(updateData.AddToSet) > 0 {
		update["$addToSet"] = updateData.AddToSet
	}
	return update, updateData.GuardFields
}
