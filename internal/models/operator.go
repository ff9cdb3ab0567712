package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Operator identifies the admin (or the system itself) performing a
// mutation, for audit purposes.
type Operator struct {
	ID    primitive.ObjectID `bson:"id,omitempty"`
	Name  string             `bson:"name,omitempty"`
	Email string             `bson:"email,omitempty"`
}

// SystemOperator marks mutations triggered by webhooks and workers rather
// than an admin.
var SystemOperator = &Operator{Name: "system"}
