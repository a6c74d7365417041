package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}
	referralIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "referralCode", Value: 1}},
		Options: options.Index().
			SetName("referralCode_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"referralCode": bson.M{"$exists": true},
			}),
	}

	log.Println("EnsureUserIndexes: creating email_unique and referralCode_unique indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{emailIndex, referralIndex})
	if err != nil {
		log.Println("EnsureUserIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	nameIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "nameLower", Value: 1}},
		Options: options.Index().
			SetName("nameLower_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"nameLower": bson.M{"$exists": true},
			}),
	}

	log.Println("EnsureProductIndexes: creating nameLower_unique index")
	_, err := indexes.CreateOne(ctx, nameIndex)
	if err != nil {
		log.Println("EnsureProductIndexes: nameLower index error:", err)
		return err
	}
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	userIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("userId_index"),
	}
	orderNoIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "orderNo", Value: 1}},
		Options: options.Index().
			SetName("orderNo_unique").
			SetUnique(true),
	}

	log.Println("EnsureOrderIndexes: creating userId_index and orderNo_unique indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{userIDIndex, orderNoIndex})
	if err != nil {
		log.Println("EnsureOrderIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureCategoryIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("categories").Indexes()

	nameIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}},
		Options: options.Index().
			SetName("name_unique").
			SetUnique(true),
	}

	log.Println("EnsureCategoryIndexes: creating name_unique index")
	_, err := indexes.CreateOne(ctx, nameIndex)
	if err != nil {
		log.Println("EnsureCategoryIndexes: name index error:", err)
		return err
	}
	return nil
}

func EnsureMediaIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("media").Indexes()

	nameIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "originalName", Value: 1}},
		Options: options.Index().
			SetName("originalName_unique").
			SetUnique(true),
	}

	log.Println("EnsureMediaIndexes: creating originalName_unique index")
	_, err := indexes.CreateOne(ctx, nameIndex)
	if err != nil {
		log.Println("EnsureMediaIndexes: originalName index error:", err)
		return err
	}
	return nil
}

func EnsureSubscriberIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("subscribers").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureSubscriberIndexes: creating email_unique index")
	_, err := indexes.CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureSubscriberIndexes: email index error:", err)
		return err
	}
	return nil
}
