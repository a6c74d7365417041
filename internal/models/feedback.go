package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Feedback struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Message   string             `bson:"message" json:"message"`
	Rating    int                `bson:"rating" json:"rating"`
	Featured  bool               `bson:"featured" json:"featured"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
