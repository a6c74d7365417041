package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a storefront account. CartData maps product hex IDs to quantities,
// matching the document shape the SPA writes back verbatim.
type User struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name              string               `bson:"name" json:"name"`
	Email             string               `bson:"email" json:"email"`
	PasswordHash      string               `bson:"passwordHash" json:"-"`
	GoogleAccount     bool                 `bson:"googleAccount,omitempty" json:"googleAccount,omitempty"`
	TotalRewardPoints int                  `bson:"totalRewardPoints" json:"totalRewardPoints"`
	CartData          map[string]int       `bson:"cartData" json:"cartData"`
	Wishlist          []primitive.ObjectID `bson:"wishlistData" json:"wishlistData"`
	ReferralCode      string               `bson:"referralCode,omitempty" json:"referralCode,omitempty"`
	ReferralCount     int                  `bson:"referralCount" json:"referralCount"`
	ReferredBy        string               `bson:"referredBy,omitempty" json:"-"`
	CreatedAt         time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time            `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
