package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"philabasket/internal/models"
)

// NextSequence reserves the next value of a named counter. The upsert +
// $inc runs server-side as one operation, so concurrent callers can never
// receive the same number.
func NextSequence(ctx context.Context, db *mongo.Database, key string) (int64, error) {
	var counter models.Counter
	err := db.Collection("counters").FindOneAndUpdate(
		ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}
