package logic

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"studio_billing/internal/models"
)

// AuditLogOption defines a function that configures an AuditLog object.
type AuditLogOption func(*models.AuditLog)

// WithReason is an option to add a reason to an audit log.
func WithReason(reason string) AuditLogOption {
	return func(log *models.AuditLog) {
		if reason != "" {
			log.Reason = reason
		}
	}
}

// NewAuditLog is a shared constructor for creating standardized audit log objects using the Option Pattern.
func NewAuditLog(operator *models.Operator, action, entityType string, entityID primitive.ObjectID, before, after interface{}, opts ...AuditLogOption) *models.AuditLog {
	log := &models.AuditLog{
		ID:         primitive.NewObjectID(),
		ActorID:    operator.ID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes: map[string]interface{}{
			"before": before,
			"after":  after,
		},
		Timestamp: time.Now(),
	}

	// Apply all the options
	for _, opt := range opts {
		opt(log)
	}

	return log
}
