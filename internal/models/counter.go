package models

// Counter backs the yearly invoice number sequence. One document per
// sequence key, incremented atomically with findOneAndUpdate.
type Counter struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}
