package db

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTransactionManager implements the TransactionManager for MongoDB.
type MongoTransactionManager struct {
	client *mongo.Client
}

// NewMongoTransactionManager creates a new MongoTransactionManager.
func NewMongoTransactionManager(client *mongo.Client) TransactionManager {
	return &MongoTransactionManager{client: client}
}

// WithTransaction executes the given function within a real MongoDB transaction.
func (m *MongoTransactionManager) WithTransaction(ctx context.Context, fn func(sessCtx context.Context) (interface{}, error)) (interface{}, error) {
	session, err := m.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	// mongo.SessionContext implements context.Context, so this wrapper keeps
	// the TransactionManager interface free of driver types.
	callback := func(sessCtx mongo.SessionContext) (interface{}, error) {
		return fn(sessCtx)
	}

	return session.WithTransaction(ctx, callback)
}
