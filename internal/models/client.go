package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Client struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name,omitempty"`
	Email     string             `bson:"email,omitempty"`
	Company   string             `bson:"company,omitempty"`
	Status    string             `bson:"status,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// ClientInfo is the embedded client snapshot carried on billing records, so
// reconciliation and notifications never need a second lookup.
type ClientInfo struct {
	ID    primitive.ObjectID `bson:"id,omitempty"`
	Name  string             `bson:"name,omitempty"`
	Email string             `bson:"email,omitempty"`
}
