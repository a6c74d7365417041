package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"philabasket/internal/models"
)

// historyEntry is the common display shape both ledgers are projected into.
type historyEntry struct {
	Type   string    `json:"type"`
	Title  string    `json:"title"`
	Amount int       `json:"amount"`
	Sign   string    `json:"sign"`
	Date   time.Time `json:"date"`
}

func transactionToEntry(tx models.RewardTransaction) historyEntry {
	sign := "+"
	amount := tx.Points
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return historyEntry{
		Type:   tx.Type,
		Title:  tx.Title,
		Amount: amount,
		Sign:   sign,
		Date:   tx.CreatedAt,
	}
}

func userRewardToEntry(reward models.UserReward) historyEntry {
	sign := "+"
	if reward.Redeemed {
		sign = "-"
	}
	return historyEntry{
		Type:   "legacy_reward",
		Title:  reward.RewardName,
		Amount: reward.Points,
		Sign:   sign,
		Date:   reward.CreatedAt,
	}
}

// mergeHistory folds both ledgers into one list sorted by date descending.
func mergeHistory(transactions []models.RewardTransaction, rewards []models.UserReward) []historyEntry {
	entries := make([]historyEntry, 0, len(transactions)+len(rewards))
	for _, tx := range transactions {
		entries = append(entries, transactionToEntry(tx))
	}
	for _, reward := range rewards {
		entries = append(entries, userRewardToEntry(reward))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
	return entries
}

// RewardHistory returns the unified points ledger for the signed-in user.
func RewardHistory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/reward/history"
		defer handlePanic(c, route)

		email, _ := c.Get("userEmail")
		userEmail, ok := email.(string)
		if !ok || userEmail == "" {
			respondError(c, http.StatusUnauthorized, route, "Not Authorized. Login Again")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("rewardtransactions").Find(ctx, bson.M{"userEmail": userEmail})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		transactions := make([]models.RewardTransaction, 0)
		if err := cursor.All(ctx, &transactions); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		cursor, err = db.Collection("userrewards").Find(ctx, bson.M{"userEmail": userEmail})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		rewards := make([]models.UserReward, 0)
		if err := cursor.All(ctx, &rewards); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondSuccess(c, http.StatusOK, "", gin.H{"history": mergeHistory(transactions, rewards)})
	}
}

type redeemRequest struct {
	Points int `json:"points" binding:"required"`
}

// RedeemPoints converts part of the balance into a coupon-style grant. The
// decrement is conditional on the balance actually covering the request.
func RedeemPoints(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/reward/redeem"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "Not Authorized. Login Again")
			return
		}

		var req redeemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if req.Points <= 0 {
			respondError(c, http.StatusBadRequest, route, "points must be greater than zero")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err := db.Collection("users").FindOneAndUpdate(
			ctx,
			bson.M{
				"_id":               userID,
				"totalRewardPoints": bson.M{"$gte": req.Points},
			},
			bson.M{"$inc": bson.M{"totalRewardPoints": -req.Points}},
		).Decode(&user)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusBadRequest, route, "Insufficient reward points")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		entry := models.RewardTransaction{
			UserEmail: user.Email,
			Type:      models.RewardRedeemOrder,
			Title:     fmt.Sprintf("Redeemed %d PTS", req.Points),
			Points:    -req.Points,
			CreatedAt: time.Now(),
		}
		if _, err := db.Collection("rewardtransactions").InsertOne(ctx, entry); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondSuccess(c, http.StatusOK, "Points redeemed", gin.H{
			"remaining": user.TotalRewardPoints - req.Points,
		})
	}
}
