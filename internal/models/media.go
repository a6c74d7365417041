package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Media is a CDN-hosted image tracked by the admin media library. There is no
// referential integrity against product images beyond the originalName
// convention; IsAssigned is flipped explicitly by the assign/release calls.
type Media struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OriginalName string             `bson:"originalName" json:"originalName"`
	ImageURL     string             `bson:"imageUrl" json:"imageUrl"`
	PublicID     string             `bson:"public_id" json:"public_id"`
	IsAssigned   bool               `bson:"isAssigned" json:"isAssigned"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
