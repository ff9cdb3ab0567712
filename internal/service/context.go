package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"studio_billing/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// OperatorIDKey is the key the auth middleware stores the authenticated
// operator id under.
const OperatorIDKey contextKey = "operatorID"

// OperatorFromContext rebuilds the acting operator from the request context.
// Handlers behind the auth middleware always find one; anything else falls
// back to the system operator.
func OperatorFromContext(ctx context.Context) *models.Operator {
	operatorID, _ := ctx.Value(OperatorIDKey).(string)
	if operatorID == "" {
		return models.SystemOperator
	}
	oid, err := primitive.ObjectIDFromHex(operatorID)
	if err != nil {
		return &models.Operator{Name: operatorID}
	}
	return &models.Operator{ID: oid}
}
