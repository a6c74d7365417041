package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reward transaction types as written by the order and referral flows.
const (
	RewardEarnDelivery    = "earn_delivery"
	RewardEarnReferral    = "earn_referral"
	RewardRedeemOrder     = "redeem_order"
	RewardRefundCancelled = "refund_cancelled"
)

// RewardTransaction is one row of the points ledger. Points is signed:
// positive for accruals and refunds, negative for redemptions.
type RewardTransaction struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserEmail string             `bson:"userEmail" json:"userEmail"`
	Type      string             `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Points    int                `bson:"points" json:"points"`
	OrderNo   int64              `bson:"orderNo,omitempty" json:"orderNo,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// UserReward is a legacy coupon-style grant kept for the unified history
// view; new writes go to RewardTransaction only.
type UserReward struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserEmail  string             `bson:"userEmail" json:"userEmail"`
	RewardName string             `bson:"rewardName" json:"rewardName"`
	Points     int                `bson:"points" json:"points"`
	Redeemed   bool               `bson:"redeemed" json:"redeemed"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
