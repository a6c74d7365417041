package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"philabasket/internal/models"
)

// UserOrders returns the signed-in user's order history, newest first.
func UserOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/order/userorders"

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "Not Authorized. Login Again")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := db.Collection("orders").Find(ctx, bson.M{"userId": userID}, opts)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondSuccess(c, http.StatusOK, "", gin.H{"orders": orders})
	}
}

type cancelOrderRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

// CancelOrder cancels the user's own order. The status guard lives in the
// update filter itself, so a cancellation racing a ship/deliver update can
// never win after the fact: once the order is Shipped (or further along) the
// filter no longer matches.
func CancelOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/order/cancel"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "Not Authorized. Login Again")
			return
		}

		var req cancelOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		orderID, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOneAndUpdate(
			ctx,
			bson.M{
				"_id":    orderID,
				"userId": userID,
				"status": bson.M{"$in": []string{models.StatusPlaced, models.StatusPacking}},
			},
			bson.M{"$set": bson.M{"status": models.StatusCancelled, "updatedAt": time.Now()}},
		).Decode(&order)
		if err == mongo.ErrNoDocuments {
			// Distinguish "no such order" from "too late to cancel".
			var existing models.Order
			lookupErr := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID, "userId": userID}).Decode(&existing)
			if lookupErr != nil {
				respondError(c, http.StatusNotFound, route, "Order not found")
				return
			}
			respondError(c, http.StatusBadRequest, route, "Order cannot be cancelled after shipping")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := unwindOrder(ctx, db, order); err != nil {
			log.Printf("[ORDER] [ERROR] cancel unwind for #%d failed: %v", order.OrderNo, err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[ORDER] [INFO] order #%d cancelled by %s", order.OrderNo, userID.Hex())
		respondSuccess(c, http.StatusOK, "Order cancelled", gin.H{
			"orderNo":        order.OrderNo,
			"pointsRefunded": order.PointsUsed,
		})
	}
}
