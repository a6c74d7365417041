package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Specimen conditions as used by philatelic catalogs.
const (
	ConditionMint     = "Mint"
	ConditionUsed     = "Used"
	ConditionFineUsed = "Fine Used"
	ConditionCover    = "On Cover"
)

func ValidConditions() []string {
	return []string{ConditionMint, ConditionUsed, ConditionFineUsed, ConditionCover}
}

// Product is a philatelic listing (stamp, cover or collectible).
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameLower   string             `bson:"nameLower" json:"-"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64            `bson:"price" json:"price"`
	Images      []string           `bson:"image" json:"image"`
	Category    StringList         `bson:"category" json:"category"`
	Year        int                `bson:"year,omitempty" json:"year,omitempty"`
	Condition   string             `bson:"condition,omitempty" json:"condition,omitempty"`
	Country     string             `bson:"country,omitempty" json:"country,omitempty"`
	Stock       int                `bson:"stock" json:"stock"`
	InStock     bool               `bson:"-" json:"inStock"`
	Bestseller  bool               `bson:"bestseller" json:"bestseller"`
	// RewardPoints is derived from price on every write: floor(price * 0.10).
	RewardPoints int        `bson:"rewardPoints" json:"rewardPoints"`
	IsDeleted    bool       `bson:"isDeleted" json:"isDeleted,omitempty"`
	DeletedAt    *time.Time `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
