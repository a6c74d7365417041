package models

// Counter is a singleton-per-key sequence document, bumped atomically with
// findOneAndUpdate upsert to hand out order numbers.
type Counter struct {
	ID  string `bson:"_id" json:"id"`
	Seq int64  `bson:"seq" json:"seq"`
}
