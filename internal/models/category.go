package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCategoryGroup is the bucket for categories without an explicit group.
const DefaultCategoryGroup = "Independent"

type Category struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Slug  string             `bson:"slug" json:"slug"`
	Group string             `bson:"group" json:"group"`
	// ProductCount is denormalized; the recount endpoint rebuilds it.
	ProductCount int       `bson:"productCount" json:"productCount"`
	IsActive     bool      `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
